package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	bookingDomain "github.com/slotwise/service-scheduling/internal/domain/booking"
	"github.com/slotwise/service-scheduling/internal/domain/directory"
	"github.com/slotwise/service-scheduling/internal/domain/schedule"
	"github.com/slotwise/service-scheduling/internal/domain/shared"
	"go.uber.org/zap"
)

// AvailabilityQuery identifies whose calendar to inspect and for what offering.
type AvailabilityQuery struct {
	BusinessID uuid.UUID
	ServiceID  uuid.UUID
	WorkerID   uuid.UUID
	// Date names the requested day; its year/month/day are interpreted in the
	// business's timezone.
	Date time.Time
}

// SlotDTO is one bookable start time for a worker and service.
type SlotDTO struct {
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

// AvailabilityService computes open slots by walking the business's offerable
// start times and filtering them against the worker's existing bookings.
type AvailabilityService struct {
	repo   bookingDomain.Repository
	dir    directory.Directory
	logger *zap.Logger
}

// NewAvailabilityService creates a new AvailabilityService.
func NewAvailabilityService(repo bookingDomain.Repository, dir directory.Directory, logger *zap.Logger) *AvailabilityService {
	return &AvailabilityService{repo: repo, dir: dir, logger: logger}
}

// GetAvailableSlots returns the worker's open start times for the given day.
// A slot is open when the full service interval fits inside business hours and
// overlaps no non-cancelled booking. Adjacent bookings do not block a slot.
func (s *AvailabilityService) GetAvailableSlots(ctx context.Context, q AvailabilityQuery) ([]SlotDTO, error) {
	biz, err := s.dir.GetBusiness(ctx, q.BusinessID)
	if err != nil {
		return nil, err
	}
	svc, err := s.dir.GetService(ctx, q.ServiceID)
	if err != nil {
		return nil, err
	}
	worker, err := s.dir.GetWorker(ctx, q.WorkerID)
	if err != nil {
		return nil, err
	}
	if svc.BusinessID != q.BusinessID || worker.BusinessID != q.BusinessID {
		return nil, shared.NewValidationError("service and worker must belong to the business")
	}
	if !worker.Active || !svc.Active {
		return []SlotDTO{}, nil
	}

	loc, err := time.LoadLocation(biz.Timezone)
	if err != nil {
		return nil, shared.NewValidationError("business has an invalid timezone")
	}

	midnight := time.Date(q.Date.Year(), q.Date.Month(), q.Date.Day(), 0, 0, 0, 0, loc)
	dayStart := midnight.Add(time.Duration(biz.OpenMinute) * time.Minute)
	dayEnd := midnight.Add(time.Duration(biz.CloseMinute) * time.Minute)

	candidates, err := schedule.Slots(dayStart, dayEnd, biz.SlotStepMinutes)
	if err != nil {
		return nil, err
	}

	booked, err := s.repo.FindForWorkerDay(ctx, q.WorkerID, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}

	slots := []SlotDTO{}
	for start := range candidates {
		end, err := schedule.EndTime(start, svc.DurationMinutes)
		if err != nil {
			return nil, err
		}
		if end.After(dayEnd) {
			break
		}
		if s.isFree(booked, start, end) {
			slots = append(slots, SlotDTO{StartTime: start, EndTime: end})
		}
	}
	return slots, nil
}

func (s *AvailabilityService) isFree(booked []*bookingDomain.Booking, start, end time.Time) bool {
	for _, bk := range booked {
		if schedule.Overlaps(start, end, bk.StartTime(), bk.EndTime()) {
			return false
		}
	}
	return true
}
