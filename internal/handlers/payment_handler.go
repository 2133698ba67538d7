package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"creator-payments/internal/logger"
	"creator-payments/internal/models"
	"creator-payments/internal/services"
	"creator-payments/pkg/common"
)

const (
	webhookSecretParam = "webhookSecret"
	maxWebhookBody     = 1 << 20
)

type PaymentHandler struct {
	Service *services.PaymentService
}

func NewPaymentHandler(svc *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{Service: svc}
}

type GeneratePaymentRequest struct {
	ModelID string             `json:"modelId" binding:"omitempty,max=64"`
	Plan    models.Plan        `json:"plan" binding:"omitempty,oneof=weekly monthly annual"`
	Buyer   *services.BuyerDTO `json:"buyer"`
}

type GeneratePaymentResponse struct {
	TransactionID      string      `json:"transactionId"`
	QRCode             string      `json:"qrCode"`
	QRCodeImageBase64  string      `json:"qrCodeImageBase64"`
	ExpiresAt          *time.Time  `json:"expiresAt"`
	Amount             int64       `json:"amount"`
	PlatformFee        int64       `json:"platformFee"`
	PlatformFeePercent int64       `json:"platformFeePercent"`
	NetAmount          int64       `json:"netAmount"`
	Plan               models.Plan `json:"plan"`
}

type PaymentStatusResponse struct {
	TransactionID string                 `json:"transactionId"`
	Type          models.TransactionKind `json:"type"`
	Status        string                 `json:"status"`
	PaidAt        *time.Time             `json:"paidAt,omitempty"`
	ExpiresAt     *time.Time             `json:"expiresAt,omitempty"`
}

// Generate opens a PIX charge. With a modelId it sells content to a buyer;
// without one an authenticated creator gets a pro upgrade charge.
func (h *PaymentHandler) Generate(c *gin.Context) {
	var req GeneratePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, common.NewErrorResponse(err.Error()))
		return
	}

	var (
		opened *services.OpenedCharge
		err    error
	)
	switch {
	case req.ModelID != "":
		if req.Plan == "" || req.Buyer == nil {
			c.JSON(http.StatusBadRequest, common.NewErrorResponse("modelId, plan and buyer are required"))
			return
		}
		opened, err = h.Service.CreateContentSaleCharge(c.Request.Context(), services.ContentSaleDTO{
			ModelID: req.ModelID,
			Plan:    req.Plan,
			Buyer:   *req.Buyer,
		})
	case ownerID(c) != "":
		opened, err = h.Service.CreateUpgradeCharge(c.Request.Context(), ownerID(c))
	default:
		c.JSON(http.StatusBadRequest, common.NewErrorResponse("modelId, plan and buyer are required"))
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}

	trx := opened.Transaction
	c.JSON(http.StatusOK, GeneratePaymentResponse{
		TransactionID:      trx.ID,
		QRCode:             opened.Charge.QRCode,
		QRCodeImageBase64:  opened.Charge.QRCodeImageBase64,
		ExpiresAt:          opened.Charge.ExpiresAt,
		Amount:             trx.Amount,
		PlatformFee:        trx.PlatformFee,
		PlatformFeePercent: trx.PlatformFeePercent,
		NetAmount:          trx.NetAmount,
		Plan:               trx.Plan,
	})
}

// Webhook receives processor notifications. Once a delivery has been
// evaluated it is acknowledged so the processor does not retry it.
func (h *PaymentHandler) Webhook(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody)
	raw, err := c.GetRawData()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, common.NewErrorResponse("Request body too large"))
			return
		}
		c.JSON(http.StatusBadRequest, common.NewErrorResponse("Unable to read request body"))
		return
	}

	presented := c.Query(webhookSecretParam)
	if presented == "" {
		presented = c.GetHeader("X-Webhook-Secret")
	}
	if presented == "" {
		presented = c.GetHeader("X-Webhook-Signature")
	}

	result, err := h.Service.ReconcileFromWebhook(c.Request.Context(), raw, presented)
	if err != nil {
		if errors.Is(err, services.ErrUnauthorized) {
			c.JSON(http.StatusUnauthorized, common.NewErrorResponse("Invalid webhook secret"))
			return
		}
		respondError(c, err)
		return
	}

	logger.FromContext(c).WithFields(logrus.Fields{
		"event":          result.Event,
		"payment_id":     result.PaymentID,
		"transaction_id": result.TransactionID,
		"applied":        result.Applied,
	}).Info("webhook processed")
	c.JSON(http.StatusOK, gin.H{"received": true})
}

// Status reconciles a transaction by asking the processor for its current status.
func (h *PaymentHandler) Status(c *gin.Context) {
	res, err := h.Service.ReconcileFromPoll(c.Request.Context(), c.Param("transactionId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, PaymentStatusResponse{
		TransactionID: res.TransactionID,
		Type:          res.Kind,
		Status:        res.Status,
		PaidAt:        res.PaidAt,
		ExpiresAt:     res.ExpiresAt,
	})
}
