package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	bookingDomain "github.com/slotwise/service-scheduling/internal/domain/booking"
	"github.com/slotwise/service-scheduling/internal/domain/directory"
	"github.com/slotwise/service-scheduling/internal/domain/schedule"
	"github.com/slotwise/service-scheduling/internal/domain/shared"
	"github.com/slotwise/service-scheduling/internal/events"
	"github.com/slotwise/service-scheduling/internal/platform/kafka"
	"go.uber.org/zap"
)

const minServiceDurationMinutes = 5

// CreateBookingRequest holds the data needed to create a booking directly
// (staff entry, or client booking at a business without prepayment).
type CreateBookingRequest struct {
	BusinessID uuid.UUID `json:"business_id" binding:"required"`
	ServiceID  uuid.UUID `json:"service_id" binding:"required"`
	ClientID   uuid.UUID `json:"client_id" binding:"required"`
	WorkerID   uuid.UUID `json:"worker_id" binding:"required"`
	StartTime  time.Time `json:"start_time" binding:"required"`
	Notes      string    `json:"notes"`
}

// UpdateStatusRequest holds a lifecycle transition request.
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// RescheduleRequest holds a reschedule request. WorkerID is optional; nil
// keeps the current worker.
type RescheduleRequest struct {
	StartTime time.Time  `json:"start_time" binding:"required"`
	WorkerID  *uuid.UUID `json:"worker_id"`
}

// BookingDTO is the response representation of a booking.
type BookingDTO struct {
	ID          uuid.UUID  `json:"id"`
	BusinessID  uuid.UUID  `json:"business_id"`
	ServiceID   uuid.UUID  `json:"service_id"`
	ClientID    uuid.UUID  `json:"client_id"`
	WorkerID    uuid.UUID  `json:"worker_id"`
	StartTime   time.Time  `json:"start_time"`
	EndTime     time.Time  `json:"end_time"`
	Status      string     `json:"status"`
	PaymentRef  string     `json:"payment_ref,omitempty"`
	Notes       string     `json:"notes,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
	CancelNote  string     `json:"cancel_note,omitempty"`
	Version     int64      `json:"version"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// BookingService is the application service orchestrating booking use cases.
type BookingService struct {
	repo     bookingDomain.Repository
	dir      directory.Directory
	producer kafka.EventPublisher
	logger   *zap.Logger
}

// NewBookingService creates a new BookingService.
func NewBookingService(
	repo bookingDomain.Repository,
	dir directory.Directory,
	producer kafka.EventPublisher,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		repo:     repo,
		dir:      dir,
		producer: producer,
		logger:   logger,
	}
}

// CreateBooking creates a booking without the payment saga. Staff may book on
// behalf of clients; clients may book directly only at businesses that do not
// require prepayment.
func (s *BookingService) CreateBooking(ctx context.Context, actor shared.Actor, req CreateBookingRequest) (*BookingDTO, error) {
	biz, svc, worker, err := s.resolveBookingRefs(ctx, req.BusinessID, req.ServiceID, req.WorkerID)
	if err != nil {
		return nil, err
	}

	switch actor.Role {
	case shared.RoleAdmin:
	case shared.RoleBusinessOwner:
		if biz.OwnerID != actor.ID {
			return nil, shared.NewForbiddenError("not the owner of this business")
		}
	case shared.RoleWorker:
		if worker.ID != actor.ID {
			return nil, shared.NewForbiddenError("workers may only book their own calendar")
		}
	case shared.RoleClient:
		if req.ClientID != actor.ID {
			return nil, shared.NewForbiddenError("clients may only book for themselves")
		}
		if biz.RequiresPrepayment {
			return nil, shared.NewValidationError("this business requires prepayment; use checkout")
		}
	default:
		return nil, shared.NewForbiddenError("unknown role")
	}

	endTime, err := schedule.EndTime(req.StartTime, svc.DurationMinutes)
	if err != nil {
		return nil, err
	}

	bk, err := bookingDomain.NewBooking(
		req.BusinessID,
		req.ServiceID,
		req.ClientID,
		req.WorkerID,
		req.StartTime,
		endTime,
		bookingDomain.StatusScheduled,
		"",
		req.Notes,
	)
	if err != nil {
		return nil, err
	}

	if err := s.repo.CreateIfSlotFree(ctx, bk); err != nil {
		return nil, err
	}

	s.publishLifecycleEvent(ctx, events.BookingCreated, bk)

	result := toBookingDTO(bk)
	return &result, nil
}

// GetBooking retrieves a single booking, subject to the access policy.
func (s *BookingService) GetBooking(ctx context.Context, actor shared.Actor, bookingID uuid.UUID) (*BookingDTO, error) {
	bk, ownerID, err := s.loadBookingWithOwner(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := bookingDomain.CanAccess(actor, ownerID, bk, bookingDomain.ActionView); err != nil {
		return nil, err
	}
	result := toBookingDTO(bk)
	return &result, nil
}

// UpdateStatus moves a booking through its lifecycle. Cancelling an
// already-cancelled booking is a no-op success.
func (s *BookingService) UpdateStatus(ctx context.Context, actor shared.Actor, bookingID uuid.UUID, target string) (*BookingDTO, error) {
	status, err := bookingDomain.ParseStatus(target)
	if err != nil {
		return nil, shared.NewValidationError(err.Error())
	}

	bk, ownerID, err := s.loadBookingWithOwner(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := bookingDomain.CanTransition(actor, ownerID, bk, status); err != nil {
		return nil, err
	}

	if status == bookingDomain.StatusCancelled && bk.Status() == bookingDomain.StatusCancelled {
		result := toBookingDTO(bk)
		return &result, nil
	}

	if err := bk.TransitionTo(status); err != nil {
		return nil, err
	}

	bk.IncrementVersion()
	if err := s.repo.Update(ctx, bk); err != nil {
		return nil, err
	}

	s.publishLifecycleEvent(ctx, lifecycleEventType(status), bk)

	result := toBookingDTO(bk)
	return &result, nil
}

// CancelBooking cancels a booking with an optional reason. Idempotent.
func (s *BookingService) CancelBooking(ctx context.Context, actor shared.Actor, bookingID uuid.UUID, reason string) (*BookingDTO, error) {
	bk, ownerID, err := s.loadBookingWithOwner(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := bookingDomain.CanTransition(actor, ownerID, bk, bookingDomain.StatusCancelled); err != nil {
		return nil, err
	}

	if bk.Status() == bookingDomain.StatusCancelled {
		result := toBookingDTO(bk)
		return &result, nil
	}

	if err := bk.Cancel(reason); err != nil {
		return nil, err
	}

	bk.IncrementVersion()
	if err := s.repo.Update(ctx, bk); err != nil {
		return nil, err
	}

	s.publishLifecycleEvent(ctx, events.BookingCancelled, bk)

	result := toBookingDTO(bk)
	return &result, nil
}

// Reschedule moves a booking to a new start time and optionally a new worker.
// The new interval is re-validated atomically against the target worker's
// calendar; status is preserved.
func (s *BookingService) Reschedule(ctx context.Context, actor shared.Actor, bookingID uuid.UUID, req RescheduleRequest) (*BookingDTO, error) {
	bk, ownerID, err := s.loadBookingWithOwner(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := bookingDomain.CanAccess(actor, ownerID, bk, bookingDomain.ActionReschedule); err != nil {
		return nil, err
	}

	svc, err := s.dir.GetService(ctx, bk.ServiceID())
	if err != nil {
		return nil, err
	}

	workerID := bk.WorkerID()
	if req.WorkerID != nil {
		workerID = *req.WorkerID
		worker, err := s.dir.GetWorker(ctx, workerID)
		if err != nil {
			return nil, err
		}
		if worker.BusinessID != bk.BusinessID() {
			return nil, shared.NewValidationError("worker does not belong to the booking's business")
		}
		if !worker.Active {
			return nil, shared.NewValidationError("worker is not active")
		}
	}

	endTime, err := schedule.EndTime(req.StartTime, svc.DurationMinutes)
	if err != nil {
		return nil, err
	}

	if err := bk.Reschedule(req.StartTime, endTime, workerID); err != nil {
		return nil, err
	}

	bk.IncrementVersion()
	if err := s.repo.RescheduleIfSlotFree(ctx, bk); err != nil {
		return nil, err
	}

	s.publishLifecycleEvent(ctx, events.BookingRescheduled, bk)

	result := toBookingDTO(bk)
	return &result, nil
}

// GetClientBookings retrieves paginated bookings for a client.
func (s *BookingService) GetClientBookings(ctx context.Context, actor shared.Actor, clientID uuid.UUID, page, limit int) (*shared.PaginatedResult[BookingDTO], error) {
	if actor.Role == shared.RoleClient && actor.ID != clientID {
		return nil, shared.NewForbiddenError("clients may only list their own bookings")
	}
	bookings, total, err := s.repo.FindByClientID(ctx, clientID, page, limit)
	if err != nil {
		return nil, err
	}
	return paginate(bookings, total, page, limit), nil
}

// GetWorkerBookings retrieves paginated bookings assigned to a worker.
func (s *BookingService) GetWorkerBookings(ctx context.Context, actor shared.Actor, workerID uuid.UUID, page, limit int) (*shared.PaginatedResult[BookingDTO], error) {
	if actor.Role == shared.RoleWorker && actor.ID != workerID {
		return nil, shared.NewForbiddenError("workers may only list their own bookings")
	}
	bookings, total, err := s.repo.FindByWorkerID(ctx, workerID, page, limit)
	if err != nil {
		return nil, err
	}
	return paginate(bookings, total, page, limit), nil
}

// GetBusinessBookings retrieves paginated bookings for a business. Owners may
// only list their own business.
func (s *BookingService) GetBusinessBookings(ctx context.Context, actor shared.Actor, businessID uuid.UUID, page, limit int) (*shared.PaginatedResult[BookingDTO], error) {
	if actor.Role == shared.RoleBusinessOwner {
		biz, err := s.dir.GetBusiness(ctx, businessID)
		if err != nil {
			return nil, err
		}
		if biz.OwnerID != actor.ID {
			return nil, shared.NewForbiddenError("not the owner of this business")
		}
	} else if actor.Role != shared.RoleAdmin {
		return nil, shared.NewForbiddenError("not allowed to list business bookings")
	}
	bookings, total, err := s.repo.FindByBusinessID(ctx, businessID, page, limit)
	if err != nil {
		return nil, err
	}
	return paginate(bookings, total, page, limit), nil
}

// --- Admin methods ---

// BookingStatsDTO holds booking statistics for the admin dashboard.
type BookingStatsDTO struct {
	TotalBookings int64            `json:"total_bookings"`
	ByStatus      map[string]int64 `json:"by_status"`
}

// ListAllBookings returns a paginated list of all bookings (admin).
func (s *BookingService) ListAllBookings(ctx context.Context, page, limit int) ([]BookingDTO, int64, error) {
	bookings, total, err := s.repo.ListAll(ctx, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}
	dtos := make([]BookingDTO, len(bookings))
	for i, bk := range bookings {
		dtos[i] = toBookingDTO(bk)
	}
	return dtos, total, nil
}

// GetBookingStats returns aggregate booking statistics (admin).
func (s *BookingService) GetBookingStats(ctx context.Context) (*BookingStatsDTO, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking stats: %w", err)
	}
	var total int64
	for _, c := range counts {
		total += c
	}
	return &BookingStatsDTO{TotalBookings: total, ByStatus: counts}, nil
}

// --- Helpers ---

// resolveBookingRefs loads and cross-checks the business, service and worker
// referenced by a booking request.
func (s *BookingService) resolveBookingRefs(ctx context.Context, businessID, serviceID, workerID uuid.UUID) (*directory.Business, *directory.Service, *directory.Worker, error) {
	biz, err := s.dir.GetBusiness(ctx, businessID)
	if err != nil {
		return nil, nil, nil, err
	}
	svc, err := s.dir.GetService(ctx, serviceID)
	if err != nil {
		return nil, nil, nil, err
	}
	worker, err := s.dir.GetWorker(ctx, workerID)
	if err != nil {
		return nil, nil, nil, err
	}

	if svc.BusinessID != businessID {
		return nil, nil, nil, shared.NewValidationError("service does not belong to this business")
	}
	if worker.BusinessID != businessID {
		return nil, nil, nil, shared.NewValidationError("worker does not belong to this business")
	}
	if !worker.Active {
		return nil, nil, nil, shared.NewValidationError("worker is not active")
	}
	if !svc.Active {
		return nil, nil, nil, shared.NewValidationError("service is not active")
	}
	if svc.DurationMinutes < minServiceDurationMinutes {
		return nil, nil, nil, shared.NewValidationError(
			fmt.Sprintf("service duration must be at least %d minutes", minServiceDurationMinutes))
	}
	if svc.PriceCents < 0 {
		return nil, nil, nil, shared.NewValidationError("service price cannot be negative")
	}
	return biz, svc, worker, nil
}

func (s *BookingService) loadBookingWithOwner(ctx context.Context, bookingID uuid.UUID) (*bookingDomain.Booking, uuid.UUID, error) {
	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, uuid.Nil, err
	}
	biz, err := s.dir.GetBusiness(ctx, bk.BusinessID())
	if err != nil {
		return nil, uuid.Nil, err
	}
	return bk, biz.OwnerID, nil
}

func (s *BookingService) publishLifecycleEvent(ctx context.Context, eventType string, bk *bookingDomain.Booking) {
	evt := events.BookingLifecycleEvent{
		BookingID:  bk.ID(),
		BusinessID: bk.BusinessID(),
		WorkerID:   bk.WorkerID(),
		ClientID:   bk.ClientID(),
		ServiceID:  bk.ServiceID(),
		StartTime:  bk.StartTime(),
		EndTime:    bk.EndTime(),
		Status:     string(bk.Status()),
		PaymentRef: bk.PaymentRef(),
		OccurredAt: time.Now().UTC(),
	}
	publishEvent(ctx, s.producer, s.logger, events.TopicBookingEvents, eventType, evt)
}

func lifecycleEventType(status bookingDomain.Status) string {
	switch status {
	case bookingDomain.StatusConfirmed:
		return events.BookingConfirmed
	case bookingDomain.StatusCompleted:
		return events.BookingCompleted
	case bookingDomain.StatusCancelled:
		return events.BookingCancelled
	case bookingDomain.StatusNoShow:
		return events.BookingNoShow
	default:
		return events.BookingCreated
	}
}

func paginate(bookings []*bookingDomain.Booking, total int64, page, limit int) *shared.PaginatedResult[BookingDTO] {
	dtos := make([]BookingDTO, len(bookings))
	for i, bk := range bookings {
		dtos[i] = toBookingDTO(bk)
	}
	result := shared.NewPaginatedResult(dtos, total, page, limit)
	return &result
}

func toBookingDTO(bk *bookingDomain.Booking) BookingDTO {
	return BookingDTO{
		ID:          bk.ID(),
		BusinessID:  bk.BusinessID(),
		ServiceID:   bk.ServiceID(),
		ClientID:    bk.ClientID(),
		WorkerID:    bk.WorkerID(),
		StartTime:   bk.StartTime(),
		EndTime:     bk.EndTime(),
		Status:      string(bk.Status()),
		PaymentRef:  bk.PaymentRef(),
		Notes:       bk.Notes(),
		CancelledAt: bk.CancelledAt(),
		CancelNote:  bk.CancelNote(),
		Version:     bk.Version(),
		CreatedAt:   bk.CreatedAt(),
		UpdatedAt:   bk.UpdatedAt(),
	}
}

func publishEvent(ctx context.Context, producer kafka.EventPublisher, logger *zap.Logger, topic, eventType string, data interface{}) {
	if producer == nil {
		return
	}
	cloudEvent, err := kafka.NewCloudEvent("service-scheduling", eventType, data)
	if err != nil {
		logger.Error("failed to create cloud event",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return
	}
	if err := producer.PublishEvent(ctx, topic, cloudEvent); err != nil {
		logger.Error("failed to publish event",
			zap.String("topic", topic),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}
