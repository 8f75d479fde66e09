package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/slotwise/service-scheduling/internal/application"
	"github.com/slotwise/service-scheduling/internal/domain/shared"
	"github.com/slotwise/service-scheduling/internal/platform/auth"
	"github.com/slotwise/service-scheduling/internal/platform/middleware"
	"github.com/slotwise/service-scheduling/internal/platform/response"
)

// CheckoutHandler handles HTTP requests for the payment-gated booking flow.
type CheckoutHandler struct {
	saga *application.CheckoutSaga
}

// NewCheckoutHandler creates a new CheckoutHandler.
func NewCheckoutHandler(saga *application.CheckoutSaga) *CheckoutHandler {
	return &CheckoutHandler{saga: saga}
}

// RegisterRoutes registers checkout routes on the given router group.
func (h *CheckoutHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)

	checkout := r.Group("/api/v1/checkout")
	checkout.Use(authMW)
	{
		checkout.POST("", middleware.RequireRole(shared.RoleClient), h.StartCheckout)
		checkout.POST("/:sessionId/confirm", middleware.RequireRole(shared.RoleClient), h.ConfirmCheckout)
	}
}

// StartCheckout handles POST /api/v1/checkout (saga phase 1).
func (h *CheckoutHandler) StartCheckout(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req application.StartCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.saga.StartCheckout(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// ConfirmCheckout handles POST /api/v1/checkout/:sessionId/confirm (saga phase 2).
func (h *CheckoutHandler) ConfirmCheckout(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	sessionID, err := uuid.Parse(c.Param("sessionId"))
	if err != nil {
		response.BadRequest(c, "invalid session ID")
		return
	}

	result, err := h.saga.ConfirmCheckout(c.Request.Context(), actor, sessionID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}
