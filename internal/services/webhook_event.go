package services

import (
	"encoding/json"
)

const EventBillingPaid = "billing.paid"

// WebhookEvent is an AbacatePay webhook delivery.
type WebhookEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// webhookData covers both payload shapes seen in deliveries: pix QR code
// charges nest the id under payment.pixQrCode, billing charges send billingId.
type webhookData struct {
	Payment *struct {
		PixQrCode *struct {
			ID string `json:"id"`
		} `json:"pixQrCode"`
	} `json:"payment"`
	PixQrCode *struct {
		ID string `json:"id"`
	} `json:"pixQrCode"`
	BillingID string `json:"billingId"`
}

func ParseWebhookEvent(raw []byte) (*WebhookEvent, error) {
	var evt WebhookEvent
	if err := json.Unmarshal(raw, &evt); err != nil {
		return nil, invalid("invalid webhook payload")
	}
	return &evt, nil
}

// PaymentID extracts the processor payment id, or "" if none of the known shapes carry one.
func (e *WebhookEvent) PaymentID() string {
	if len(e.Data) == 0 {
		return ""
	}
	var d webhookData
	if err := json.Unmarshal(e.Data, &d); err != nil {
		return ""
	}
	if d.Payment != nil && d.Payment.PixQrCode != nil && d.Payment.PixQrCode.ID != "" {
		return d.Payment.PixQrCode.ID
	}
	if d.PixQrCode != nil && d.PixQrCode.ID != "" {
		return d.PixQrCode.ID
	}
	return d.BillingID
}
