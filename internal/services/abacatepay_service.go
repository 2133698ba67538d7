package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"creator-payments/pkg/common"
)

const ProviderAbacatePay = "abacatepay"

// GatewayStatusPaid is the processor's status code for a settled charge.
const GatewayStatusPaid = "PAID"

type Customer struct {
	Name      string `json:"name"`
	Cellphone string `json:"cellphone"`
	Email     string `json:"email"`
	TaxID     string `json:"taxId"`
}

type ChargeRequest struct {
	Amount            int64
	Customer          Customer
	Description       string
	ExternalReference string
	ExpiresIn         time.Duration
	Metadata          map[string]string
}

type Charge struct {
	PaymentID         string
	QRCode            string
	QRCodeImageBase64 string
	ExpiresAt         *time.Time
	Status            string
}

type ChargeStatus struct {
	Status    string
	ExpiresAt *time.Time
}

// PaymentGateway is the processor-facing side of the reconciler.
type PaymentGateway interface {
	CreateCharge(ctx context.Context, req ChargeRequest) (*Charge, error)
	CheckStatus(ctx context.Context, paymentID string) (*ChargeStatus, error)
}

type AbacatePayService struct {
	BaseURL string
	APIKey  string
	Client  *common.HTTPClient
}

func NewAbacatePayService(baseURL, apiKey string, timeout time.Duration) *AbacatePayService {
	return &AbacatePayService{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		Client:  common.NewHTTPClient(timeout),
	}
}

type abacatePixData struct {
	ID           string     `json:"id"`
	Amount       int64      `json:"amount"`
	Status       string     `json:"status"`
	BrCode       string     `json:"brCode"`
	BrCodeBase64 string     `json:"brCodeBase64"`
	ExpiresAt    *time.Time `json:"expiresAt"`
}

type abacateEnvelope struct {
	Data  *abacatePixData `json:"data"`
	Error interface{}     `json:"error"`
}

type abacateCreatePayload struct {
	Amount      int64             `json:"amount"`
	ExpiresIn   int64             `json:"expiresIn"`
	Description string            `json:"description"`
	Customer    Customer          `json:"customer"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

func (s *AbacatePayService) headers() map[string]string {
	return map[string]string{
		"Authorization": "Bearer " + s.APIKey,
	}
}

// CreateCharge issues a PIX QR code charge.
func (s *AbacatePayService) CreateCharge(ctx context.Context, req ChargeRequest) (*Charge, error) {
	metadata := req.Metadata
	if req.ExternalReference != "" {
		metadata = make(map[string]string, len(req.Metadata)+1)
		for k, v := range req.Metadata {
			metadata[k] = v
		}
		metadata["externalId"] = req.ExternalReference
	}

	payload := abacateCreatePayload{
		Amount:      req.Amount,
		ExpiresIn:   int64(req.ExpiresIn / time.Second),
		Description: req.Description,
		Customer:    req.Customer,
		Metadata:    metadata,
	}

	resp, err := s.Client.Post(ctx, s.BaseURL+"/pixQrCode/create", payload, s.headers())
	if err != nil {
		return nil, &GatewayError{Op: "create charge", Err: err}
	}
	data, err := s.decode("create charge", resp)
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"payment_id": data.ID,
		"status":     data.Status,
	}).Debug("abacatepay charge created")

	return &Charge{
		PaymentID:         data.ID,
		QRCode:            data.BrCode,
		QRCodeImageBase64: data.BrCodeBase64,
		ExpiresAt:         data.ExpiresAt,
		Status:            data.Status,
	}, nil
}

// CheckStatus returns the processor's raw status for a charge. A charge that is
// not paid yet is a normal status, not an error.
func (s *AbacatePayService) CheckStatus(ctx context.Context, paymentID string) (*ChargeStatus, error) {
	resp, err := s.Client.Get(ctx, s.BaseURL+"/pixQrCode/check?id="+url.QueryEscape(paymentID), s.headers())
	if err != nil {
		return nil, &GatewayError{Op: "check status", Err: err}
	}
	data, err := s.decode("check status", resp)
	if err != nil {
		return nil, err
	}
	return &ChargeStatus{Status: data.Status, ExpiresAt: data.ExpiresAt}, nil
}

func (s *AbacatePayService) decode(op string, resp *common.HTTPResponse) (*abacatePixData, error) {
	var env abacateEnvelope
	decodeErr := resp.Decode(&env)

	if !resp.OK() {
		msg := statusMessage(resp.StatusCode)
		if decodeErr == nil && env.Error != nil {
			msg = errorMessage(env.Error)
		}
		return nil, &GatewayError{Op: op, StatusCode: resp.StatusCode, Message: msg}
	}
	if decodeErr != nil {
		return nil, &GatewayError{Op: op, StatusCode: resp.StatusCode, Message: "invalid response body", Err: decodeErr}
	}
	if env.Error != nil {
		return nil, &GatewayError{Op: op, StatusCode: resp.StatusCode, Message: errorMessage(env.Error)}
	}
	if env.Data == nil {
		return nil, &GatewayError{Op: op, StatusCode: resp.StatusCode, Message: "response has no data"}
	}
	return env.Data, nil
}

func statusMessage(status int) string {
	return fmt.Sprintf("unexpected status %d", status)
}

// errorMessage flattens the processor's error field, which is either a string
// or an object with a message.
func errorMessage(v interface{}) string {
	switch e := v.(type) {
	case string:
		return e
	case map[string]interface{}:
		if msg, ok := e["message"].(string); ok {
			return msg
		}
	}
	return fmt.Sprint(v)
}
