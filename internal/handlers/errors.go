package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/roamtrails/travel-booking-backend/internal/models"
)

// respondDomainError maps a service layer error onto an HTTP response.
// Gateway and persistence failures return generic messages.
func respondDomainError(c *gin.Context, err error) {
	switch models.KindOf(err) {
	case models.ErrKindInvalidInput:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": err.Error()})
	case models.ErrKindNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found", "message": err.Error()})
	case models.ErrKindForbidden:
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden", "message": err.Error()})
	case models.ErrKindConflict:
		c.JSON(http.StatusConflict, gin.H{"error": "conflict", "message": err.Error()})
	case models.ErrKindPaymentNotSuccessful:
		c.JSON(http.StatusBadRequest, gin.H{"error": "payment_not_successful", "message": err.Error()})
	case models.ErrKindGateway:
		c.JSON(http.StatusBadGateway, gin.H{"error": "gateway_error", "message": "Payment gateway is unavailable"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error", "message": "Something went wrong"})
	}
}
