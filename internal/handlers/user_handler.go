package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"creator-payments/internal/models"
	"creator-payments/internal/services"
	"creator-payments/pkg/common"
)

type UserHandler struct {
	Service *services.PaymentService
}

func NewUserHandler(svc *services.PaymentService) *UserHandler {
	return &UserHandler{Service: svc}
}

type UpgradeResponse struct {
	SubscriptionID    string     `json:"subscriptionId"`
	QRCode            string     `json:"qrCode"`
	QRCodeImageBase64 string     `json:"qrCodeImageBase64"`
	ExpiresAt         *time.Time `json:"expiresAt"`
	Amount            int64      `json:"amount"`
	Plan              string     `json:"plan"`
}

type TransactionHistoryResponse struct {
	Transactions []models.Transaction `json:"transactions"`
	common.PageInfo
}

func (h *UserHandler) Upgrade(c *gin.Context) {
	opened, err := h.Service.CreateUpgradeCharge(c.Request.Context(), ownerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, UpgradeResponse{
		SubscriptionID:    opened.Transaction.ID,
		QRCode:            opened.Charge.QRCode,
		QRCodeImageBase64: opened.Charge.QRCodeImageBase64,
		ExpiresAt:         opened.Charge.ExpiresAt,
		Amount:            opened.Transaction.Amount,
		Plan:              "pro",
	})
}

func (h *UserHandler) Balance(c *gin.Context) {
	balance, err := h.Service.Balance(c.Request.Context(), ownerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, balance)
}

func (h *UserHandler) Transactions(c *gin.Context) {
	page, limit := common.ParsePagination(c.Query("page"), c.Query("limit"), 20, 100)
	trxs, total, err := h.Service.ListTransactions(c.Request.Context(), ownerID(c), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	if trxs == nil {
		trxs = []models.Transaction{}
	}
	c.JSON(http.StatusOK, TransactionHistoryResponse{
		Transactions: trxs,
		PageInfo:     common.NewPageInfo(total, page, limit),
	})
}
