package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/slotwise/service-scheduling/internal/application"
	"github.com/slotwise/service-scheduling/internal/platform/auth"
	"github.com/slotwise/service-scheduling/internal/platform/middleware"
	"github.com/slotwise/service-scheduling/internal/platform/response"
)

// AvailabilityHandler handles HTTP requests for open-slot queries.
type AvailabilityHandler struct {
	service *application.AvailabilityService
}

// NewAvailabilityHandler creates a new AvailabilityHandler.
func NewAvailabilityHandler(service *application.AvailabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{service: service}
}

// RegisterRoutes registers availability routes on the given router group.
func (h *AvailabilityHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)

	r.GET("/api/v1/availability", authMW, h.GetAvailableSlots)
}

// GetAvailableSlots handles GET /api/v1/availability. Query parameters:
// business_id, service_id, worker_id, date (YYYY-MM-DD, business-local).
func (h *AvailabilityHandler) GetAvailableSlots(c *gin.Context) {
	businessID, err := uuid.Parse(c.Query("business_id"))
	if err != nil {
		response.BadRequest(c, "business_id query parameter is required")
		return
	}
	serviceID, err := uuid.Parse(c.Query("service_id"))
	if err != nil {
		response.BadRequest(c, "service_id query parameter is required")
		return
	}
	workerID, err := uuid.Parse(c.Query("worker_id"))
	if err != nil {
		response.BadRequest(c, "worker_id query parameter is required")
		return
	}
	date, err := time.Parse("2006-01-02", c.Query("date"))
	if err != nil {
		response.BadRequest(c, "date query parameter must be YYYY-MM-DD")
		return
	}

	slots, err := h.service.GetAvailableSlots(c.Request.Context(), application.AvailabilityQuery{
		BusinessID: businessID,
		ServiceID:  serviceID,
		WorkerID:   workerID,
		Date:       date,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, slots)
}
