package grpc

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"creator-payments/internal/services"
)

const (
	ServiceName         = "payments.v1.PaymentService"
	getPaymentStatusRPC = "/" + ServiceName + "/GetPaymentStatus"
)

// Reconciler is the payment service operation exposed over gRPC.
type Reconciler interface {
	ReconcileFromPoll(ctx context.Context, transactionID string) (*services.PollResult, error)
}

// PaymentStatusServer answers status queries with the same shape as the HTTP
// status endpoint, carried in a google.protobuf.Struct.
type PaymentStatusServer interface {
	GetPaymentStatus(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*PaymentStatusServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetPaymentStatus", Handler: getPaymentStatusHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "payments/v1/payment.proto",
}

func getPaymentStatusHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PaymentStatusServer).GetPaymentStatus(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: getPaymentStatusRPC}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(PaymentStatusServer).GetPaymentStatus(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

type Server struct {
	Payments Reconciler
}

func (s *Server) GetPaymentStatus(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id := req.GetFields()["transactionId"].GetStringValue()
	if id == "" {
		return nil, status.Error(codes.InvalidArgument, "transactionId is required")
	}

	res, err := s.Payments.ReconcileFromPoll(ctx, id)
	if err != nil {
		return nil, toStatus(err)
	}

	out := map[string]interface{}{
		"transactionId": res.TransactionID,
		"type":          string(res.Kind),
		"status":        res.Status,
	}
	if res.PaidAt != nil {
		out["paidAt"] = res.PaidAt.UTC().Format(time.RFC3339Nano)
	}
	if res.ExpiresAt != nil {
		out["expiresAt"] = res.ExpiresAt.UTC().Format(time.RFC3339Nano)
	}
	return structpb.NewStruct(out)
}

func toStatus(err error) error {
	var gwErr *services.GatewayError
	switch {
	case errors.Is(err, services.ErrValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, services.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, services.ErrUnauthorized):
		return status.Error(codes.Unauthenticated, "unauthorized")
	case errors.Is(err, services.ErrAlreadyActive):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.As(err, &gwErr):
		return status.Error(codes.Unavailable, gwErr.Error())
	}
	logrus.WithError(err).Error("grpc request failed")
	return status.Error(codes.Internal, "internal server error")
}

func loggingInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	logrus.WithFields(logrus.Fields{
		"method":  info.FullMethod,
		"code":    status.Code(err).String(),
		"latency": time.Since(start).String(),
	}).Info("grpc request completed")
	return resp, err
}

// NewServer returns a gRPC server exposing the payment status service and the
// standard health service.
func NewServer(payments Reconciler) *grpc.Server {
	s := grpc.NewServer(grpc.UnaryInterceptor(loggingInterceptor))
	s.RegisterService(&ServiceDesc, &Server{Payments: payments})

	hs := health.NewServer()
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(s, hs)
	return s
}

// StartGRPCServer listens on port and serves until the listener fails.
func StartGRPCServer(port string, payments Reconciler) error {
	lis, err := net.Listen("tcp", ":"+port)
	if err != nil {
		return err
	}
	logrus.WithField("port", port).Info("gRPC server listening")
	return NewServer(payments).Serve(lis)
}

// GetPaymentStatus calls the payment status RPC on conn.
func GetPaymentStatus(ctx context.Context, conn grpc.ClientConnInterface, transactionID string) (*structpb.Struct, error) {
	in, err := structpb.NewStruct(map[string]interface{}{"transactionId": transactionID})
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := conn.Invoke(ctx, getPaymentStatusRPC, in, out); err != nil {
		return nil, err
	}
	return out, nil
}
