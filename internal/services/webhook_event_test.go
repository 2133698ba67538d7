package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebhookEventPaymentID(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "nested pix qr code", raw: `{"event":"billing.paid","data":{"payment":{"amount":100,"pixQrCode":{"id":"pix_1"}}}}`, want: "pix_1"},
		{name: "billing id", raw: `{"event":"billing.paid","data":{"billingId":"bill_1"}}`, want: "bill_1"},
		{name: "nested wins over billing id", raw: `{"event":"billing.paid","data":{"billingId":"bill_1","payment":{"pixQrCode":{"id":"pix_1"}}}}`, want: "pix_1"},
		{name: "top-level pix qr code", raw: `{"event":"billing.paid","data":{"pixQrCode":{"id":"pix_2"}}}`, want: "pix_2"},
		{name: "empty nested id falls back", raw: `{"event":"billing.paid","data":{"billingId":"bill_2","payment":{"pixQrCode":{"id":""}}}}`, want: "bill_2"},
		{name: "no data", raw: `{"event":"billing.paid"}`, want: ""},
		{name: "data not an object", raw: `{"event":"billing.paid","data":"oops"}`, want: ""},
		{name: "nothing recognizable", raw: `{"event":"billing.paid","data":{"payment":{}}}`, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			evt, err := ParseWebhookEvent([]byte(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, EventBillingPaid, evt.Event)
			assert.Equal(t, tt.want, evt.PaymentID())
		})
	}
}

func TestParseWebhookEventInvalid(t *testing.T) {
	_, err := ParseWebhookEvent([]byte(`not json`))
	assert.ErrorIs(t, err, ErrValidation)
}
