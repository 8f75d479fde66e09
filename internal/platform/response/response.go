package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/slotwise/service-scheduling/internal/domain/shared"
)

// ErrorBody is the JSON shape for every error response.
type ErrorBody struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	PaymentRef string `json:"payment_ref,omitempty"`
}

// Success writes a 200 with the payload.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{"data": data})
}

// Created writes a 201 with the payload.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, gin.H{"data": data})
}

// Paginated writes a 200 with items plus pagination metadata.
func Paginated(c *gin.Context, items interface{}, total int64, page, limit int) {
	c.JSON(http.StatusOK, gin.H{
		"data":  items,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

// BadRequest writes a 400 with a validation code.
func BadRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": ErrorBody{Code: shared.CodeValidation, Message: msg}})
}

// Error maps a domain error to its HTTP status. Unknown errors become opaque
// 500s; domain details never leak for those.
func Error(c *gin.Context, err error) {
	de, ok := shared.AsDomainError(err)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": ErrorBody{
			Code:    "INTERNAL_ERROR",
			Message: "an unexpected error occurred",
		}})
		return
	}

	body := ErrorBody{Code: de.Code, Message: de.Message, PaymentRef: de.PaymentRef}
	switch de.Code {
	case shared.CodeValidation:
		c.JSON(http.StatusBadRequest, gin.H{"error": body})
	case shared.CodeNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": body})
	case shared.CodeForbidden:
		c.JSON(http.StatusForbidden, gin.H{"error": body})
	case shared.CodeSlotUnavailable, shared.CodeConflict:
		c.JSON(http.StatusConflict, gin.H{"error": body})
	case shared.CodeInvalidTransition:
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": body})
	case shared.CodePaymentPending:
		c.JSON(http.StatusPaymentRequired, gin.H{"error": body})
	case shared.CodePaymentCapturedBookingFailed:
		// Not a retriable conflict: the caller's money is captured. The body
		// carries the payment reference so the client can show "payment
		// succeeded, support will follow up" rather than a generic failure.
		c.JSON(http.StatusInternalServerError, gin.H{"error": body})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": body})
	}
}
