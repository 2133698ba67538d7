package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"creator-payments/internal/logger"
	"creator-payments/internal/services"
	"creator-payments/pkg/common"
)

// respondError maps service errors onto HTTP responses. Unexpected errors are
// logged in full and reported without detail.
func respondError(c *gin.Context, err error) {
	var (
		active *services.AlreadyActiveError
		gwErr  *services.GatewayError
	)
	switch {
	case errors.As(err, &active):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":          "PRO plan already active",
			"planExpiration": active.PlanExpiration,
		})
	case errors.Is(err, services.ErrValidation):
		c.JSON(http.StatusBadRequest, common.NewErrorResponse(err.Error()))
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, common.NewErrorResponse(err.Error()))
	case errors.Is(err, services.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, common.NewErrorResponse("Unauthorized"))
	case errors.As(err, &gwErr):
		logger.FromContext(c).WithError(err).Warn("payment gateway error")
		msg := gwErr.Message
		if msg == "" {
			msg = "Payment provider unavailable"
		}
		c.JSON(http.StatusBadGateway, common.NewErrorResponse(msg))
	default:
		logger.FromContext(c).WithError(err).Error("request failed")
		c.JSON(http.StatusInternalServerError, common.NewErrorResponse("Internal server error"))
	}
}
