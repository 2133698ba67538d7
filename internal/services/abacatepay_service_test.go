package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAbacatePayCreateCharge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/pixQrCode/create", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, float64(10000), body["amount"])
		assert.Equal(t, float64(86400), body["expiresIn"])
		assert.Equal(t, "Mensal - Acesso ao conteúdo", body["description"])
		customer := body["customer"].(map[string]interface{})
		assert.Equal(t, "Ana", customer["name"])
		assert.Equal(t, "", customer["taxId"])
		metadata := body["metadata"].(map[string]interface{})
		assert.Equal(t, "m1", metadata["modelId"])
		assert.Equal(t, "model_m1_monthly", metadata["externalId"])

		_, _ = w.Write([]byte(`{"data":{"id":"pix_char_1","amount":10000,"status":"PENDING","brCode":"000201...","brCodeBase64":"data:image/png;base64,AAA","expiresAt":"2026-10-18T12:00:00.000Z"},"error":null}`))
	}))
	defer srv.Close()

	gw := NewAbacatePayService(srv.URL+"/v1/", "test-key", time.Second)
	charge, err := gw.CreateCharge(context.Background(), ChargeRequest{
		Amount:            10000,
		Customer:          Customer{Name: "Ana", Email: "ana@example.com"},
		Description:       "Mensal - Acesso ao conteúdo",
		ExternalReference: "model_m1_monthly",
		ExpiresIn:         24 * time.Hour,
		Metadata:          map[string]string{"modelId": "m1", "plan": "monthly"},
	})
	require.NoError(t, err)
	assert.Equal(t, "pix_char_1", charge.PaymentID)
	assert.Equal(t, "000201...", charge.QRCode)
	assert.Equal(t, "data:image/png;base64,AAA", charge.QRCodeImageBase64)
	assert.Equal(t, "PENDING", charge.Status)
	require.NotNil(t, charge.ExpiresAt)
	assert.True(t, charge.ExpiresAt.Equal(time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)))
}

func TestAbacatePayCreateChargeErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{name: "non-2xx with message", status: http.StatusUnauthorized, body: `{"data":null,"error":"Invalid API key"}`, wantMsg: "Invalid API key"},
		{name: "non-2xx without body", status: http.StatusBadGateway, body: ``, wantMsg: "unexpected status 502"},
		{name: "2xx with error", status: http.StatusOK, body: `{"data":null,"error":{"message":"amount too low"}}`, wantMsg: "amount too low"},
		{name: "2xx without data", status: http.StatusOK, body: `{"data":null,"error":null}`, wantMsg: "response has no data"},
		{name: "2xx garbage", status: http.StatusOK, body: `<html>`, wantMsg: "invalid response body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			gw := NewAbacatePayService(srv.URL, "k", time.Second)
			_, err := gw.CreateCharge(context.Background(), ChargeRequest{Amount: 100})
			require.Error(t, err)

			var gwErr *GatewayError
			require.True(t, errors.As(err, &gwErr))
			assert.Equal(t, tt.status, gwErr.StatusCode)
			assert.Equal(t, tt.wantMsg, gwErr.Message)
		})
	}
}

func TestAbacatePayCheckStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/pixQrCode/check", r.URL.Path)
		assert.Equal(t, "pix char/1", r.URL.Query().Get("id"))
		_, _ = w.Write([]byte(`{"data":{"status":"PENDING","expiresAt":"2026-10-18T12:00:00Z"},"error":null}`))
	}))
	defer srv.Close()

	gw := NewAbacatePayService(srv.URL, "k", time.Second)
	status, err := gw.CheckStatus(context.Background(), "pix char/1")
	require.NoError(t, err)
	assert.Equal(t, "PENDING", status.Status)
	require.NotNil(t, status.ExpiresAt)
}

func TestAbacatePayTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	gw := NewAbacatePayService(srv.URL, "k", 20*time.Millisecond)
	_, err := gw.CheckStatus(context.Background(), "p1")

	var gwErr *GatewayError
	require.True(t, errors.As(err, &gwErr))
	assert.Equal(t, "check status", gwErr.Op)
	assert.Equal(t, 0, gwErr.StatusCode)
	assert.NotNil(t, gwErr.Unwrap())
}
