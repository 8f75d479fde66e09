package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/slotwise/service-scheduling/internal/application"
	"github.com/slotwise/service-scheduling/internal/domain/shared"
	"github.com/slotwise/service-scheduling/internal/platform/auth"
	"github.com/slotwise/service-scheduling/internal/platform/middleware"
	"github.com/slotwise/service-scheduling/internal/platform/response"
)

// AdminHandler handles admin HTTP requests for booking oversight and the
// payment escalation queue.
type AdminHandler struct {
	bookings    *application.BookingService
	escalations *application.EscalationService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(bookings *application.BookingService, escalations *application.EscalationService) *AdminHandler {
	return &AdminHandler{bookings: bookings, escalations: escalations}
}

// RegisterRoutes registers admin routes.
func (h *AdminHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)
	adminRole := middleware.RequireRole(shared.RoleAdmin)

	admin := r.Group("/api/v1/admin")
	admin.Use(authMW, adminRole)
	{
		admin.GET("/bookings", h.ListBookings)
		admin.GET("/bookings/stats", h.BookingStats)
		admin.GET("/escalations", h.ListEscalations)
		admin.POST("/escalations/:id/resolve", h.ResolveEscalation)
	}
}

// ListBookings handles GET /api/v1/admin/bookings.
func (h *AdminHandler) ListBookings(c *gin.Context) {
	page, limit := parsePagination(c)

	bookings, total, err := h.bookings.ListAllBookings(c.Request.Context(), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, bookings, total, page, limit)
}

// BookingStats handles GET /api/v1/admin/bookings/stats.
func (h *AdminHandler) BookingStats(c *gin.Context) {
	stats, err := h.bookings.GetBookingStats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, stats)
}

// ListEscalations handles GET /api/v1/admin/escalations.
func (h *AdminHandler) ListEscalations(c *gin.Context) {
	escs, err := h.escalations.ListUnresolved(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, escs)
}

// ResolveEscalation handles POST /api/v1/admin/escalations/:id/resolve.
func (h *AdminHandler) ResolveEscalation(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid escalation ID")
		return
	}

	var req application.ResolveEscalationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.escalations.Resolve(c.Request.Context(), id, req.Resolution)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}
