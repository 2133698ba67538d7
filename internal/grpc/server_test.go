package grpc

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"creator-payments/internal/models"
	"creator-payments/internal/services"
)

type stubReconciler struct {
	results map[string]*services.PollResult
	err     error
}

func (s *stubReconciler) ReconcileFromPoll(_ context.Context, id string) (*services.PollResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	res, ok := s.results[id]
	if !ok {
		return nil, &services.NotFoundError{Entity: "Transaction"}
	}
	return res, nil
}

func dial(t *testing.T, rec Reconciler) *grpc.ClientConn {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := NewServer(rec)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestGetPaymentStatus(t *testing.T) {
	paidAt := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	expires := paidAt.Add(24 * time.Hour)
	conn := dial(t, &stubReconciler{results: map[string]*services.PollResult{
		"paid":    {TransactionID: "paid", Kind: models.KindContentSale, Status: "paid", PaidAt: &paidAt},
		"pending": {TransactionID: "pending", Kind: models.KindSubscriptionUpgrade, Status: "PENDING", ExpiresAt: &expires},
	}})
	ctx := context.Background()

	out, err := GetPaymentStatus(ctx, conn, "paid")
	require.NoError(t, err)
	fields := out.AsMap()
	assert.Equal(t, "paid", fields["status"])
	assert.Equal(t, "content_sale", fields["type"])
	assert.Equal(t, "2026-10-17T12:00:00Z", fields["paidAt"])
	assert.NotContains(t, fields, "expiresAt")

	out, err = GetPaymentStatus(ctx, conn, "pending")
	require.NoError(t, err)
	fields = out.AsMap()
	assert.Equal(t, "PENDING", fields["status"])
	assert.Equal(t, "subscription_upgrade", fields["type"])
	assert.Equal(t, "2026-10-18T12:00:00Z", fields["expiresAt"])

	_, err = GetPaymentStatus(ctx, conn, "missing")
	assert.Equal(t, codes.NotFound, status.Code(err))

	_, err = GetPaymentStatus(ctx, conn, "")
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestGetPaymentStatusGatewayError(t *testing.T) {
	conn := dial(t, &stubReconciler{err: &services.GatewayError{Op: "check status", Message: "timeout"}})

	_, err := GetPaymentStatus(context.Background(), conn, "t1")
	assert.Equal(t, codes.Unavailable, status.Code(err))
}

func TestHealth(t *testing.T) {
	conn := dial(t, &stubReconciler{})

	resp, err := healthpb.NewHealthClient(conn).Check(context.Background(), &healthpb.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
}
