package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	bookingDomain "github.com/slotwise/service-scheduling/internal/domain/booking"
	"github.com/slotwise/service-scheduling/internal/domain/shared"
	"gorm.io/gorm"
)

// BookingModel is the GORM model for the bookings table.
type BookingModel struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey"`
	BusinessID  uuid.UUID  `gorm:"type:uuid;index;not null"`
	ServiceID   uuid.UUID  `gorm:"type:uuid;not null"`
	ClientID    uuid.UUID  `gorm:"type:uuid;index;not null"`
	WorkerID    uuid.UUID  `gorm:"type:uuid;index:idx_bookings_worker_start;not null"`
	StartTime   time.Time  `gorm:"index:idx_bookings_worker_start;not null"`
	EndTime     time.Time  `gorm:"not null"`
	Status      string     `gorm:"not null;size:30;index"`
	PaymentRef  string     `gorm:"size:255"`
	Notes       string     `gorm:"size:1000"`
	CancelledAt *time.Time
	CancelNote  string    `gorm:"size:500"`
	Version     int64     `gorm:"not null;default:1"`
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (BookingModel) TableName() string {
	return "bookings"
}

// GormBookingRepository is the GORM-based implementation of the booking
// Repository.
type GormBookingRepository struct {
	db *gorm.DB
}

// NewGormBookingRepository creates a new GormBookingRepository.
func NewGormBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

// overlapScope narrows a query to non-cancelled bookings for the worker whose
// [start_time, end_time) intersects [start, end). The single general overlap
// test keeps exactly-adjacent bookings out of the result.
func overlapScope(db *gorm.DB, workerID uuid.UUID, start, end time.Time, excludeID uuid.UUID) *gorm.DB {
	q := db.Model(&BookingModel{}).
		Where("worker_id = ?", workerID).
		Where("status <> ?", string(bookingDomain.StatusCancelled)).
		Where("start_time < ? AND end_time > ?", end, start)
	if excludeID != uuid.Nil {
		q = q.Where("id <> ?", excludeID)
	}
	return q
}

// lockWorkerCalendar takes a per-worker advisory lock for the remainder of
// the transaction, serializing check+insert against racing writers for the
// same worker. Released automatically at commit/rollback.
func lockWorkerCalendar(tx *gorm.DB, workerID uuid.UUID) error {
	return tx.Exec("SELECT pg_advisory_xact_lock(hashtextextended(?, 0))", workerID.String()).Error
}

// FindByID retrieves a booking by its unique identifier.
func (r *GormBookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("Booking", id.String())
		}
		return nil, fmt.Errorf("failed to find booking by ID: %w", err)
	}
	return toDomainBooking(&model)
}

// FindOverlapping returns non-cancelled bookings for the worker intersecting
// [start, end), excluding excludeID if non-nil.
func (r *GormBookingRepository) FindOverlapping(ctx context.Context, workerID uuid.UUID, start, end time.Time, excludeID uuid.UUID) ([]*bookingDomain.Booking, error) {
	var models []BookingModel
	if err := overlapScope(r.db.WithContext(ctx), workerID, start, end, excludeID).
		Order("start_time ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find overlapping bookings: %w", err)
	}
	return toDomainBookings(models)
}

// HasConflict reports whether [start, end) overlaps an existing non-cancelled
// booking for the worker.
func (r *GormBookingRepository) HasConflict(ctx context.Context, workerID uuid.UUID, start, end time.Time, excludeID uuid.UUID) (bool, error) {
	var count int64
	if err := overlapScope(r.db.WithContext(ctx), workerID, start, end, excludeID).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check for conflicts: %w", err)
	}
	return count > 0, nil
}

// FindForWorkerDay returns the worker's non-cancelled bookings intersecting
// [dayStart, dayEnd), ordered by start time.
func (r *GormBookingRepository) FindForWorkerDay(ctx context.Context, workerID uuid.UUID, dayStart, dayEnd time.Time) ([]*bookingDomain.Booking, error) {
	var models []BookingModel
	if err := overlapScope(r.db.WithContext(ctx), workerID, dayStart, dayEnd, uuid.Nil).
		Order("start_time ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find worker day bookings: %w", err)
	}
	return toDomainBookings(models)
}

// FindByClientID retrieves bookings for a client with pagination.
func (r *GormBookingRepository) FindByClientID(ctx context.Context, clientID uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	return r.findPaged(ctx, "client_id = ?", clientID, page, limit)
}

// FindByWorkerID retrieves bookings for a worker with pagination.
func (r *GormBookingRepository) FindByWorkerID(ctx context.Context, workerID uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	return r.findPaged(ctx, "worker_id = ?", workerID, page, limit)
}

// FindByBusinessID retrieves a business's bookings with pagination.
func (r *GormBookingRepository) FindByBusinessID(ctx context.Context, businessID uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	return r.findPaged(ctx, "business_id = ?", businessID, page, limit)
}

func (r *GormBookingRepository) findPaged(ctx context.Context, cond string, id uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).Where(cond, id).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count bookings: %w", err)
	}

	var models []BookingModel
	offset := (page - 1) * limit
	if err := r.db.WithContext(ctx).
		Where(cond, id).
		Order("start_time DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to find bookings: %w", err)
	}

	bookings, err := toDomainBookings(models)
	if err != nil {
		return nil, 0, err
	}
	return bookings, total, nil
}

// ListAll retrieves all bookings with pagination (admin).
func (r *GormBookingRepository) ListAll(ctx context.Context, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count bookings: %w", err)
	}

	var models []BookingModel
	offset := (page - 1) * limit
	if err := r.db.WithContext(ctx).
		Order("start_time DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}

	bookings, err := toDomainBookings(models)
	if err != nil {
		return nil, 0, err
	}
	return bookings, total, nil
}

// CountByStatus returns booking counts grouped by status (admin).
func (r *GormBookingRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type statusCount struct {
		Status string
		Count  int64
	}
	var results []statusCount
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).
		Select("status, count(*) as count").
		Group("status").
		Find(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to count by status: %w", err)
	}

	counts := make(map[string]int64)
	for _, sc := range results {
		counts[sc.Status] = sc.Count
	}
	return counts, nil
}

// CreateIfSlotFree atomically re-checks the interval and inserts the booking.
// The advisory lock serializes against concurrent writers for the same
// worker, so the check and the insert observe the same calendar state.
func (r *GormBookingRepository) CreateIfSlotFree(ctx context.Context, bk *bookingDomain.Booking) error {
	model := toBookingModel(bk)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockWorkerCalendar(tx, bk.WorkerID()); err != nil {
			return fmt.Errorf("failed to lock worker calendar: %w", err)
		}

		var count int64
		if err := overlapScope(tx, bk.WorkerID(), bk.StartTime(), bk.EndTime(), uuid.Nil).
			Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check for conflicts: %w", err)
		}
		if count > 0 {
			return shared.NewSlotUnavailableError("the requested time slot is no longer available")
		}

		if err := tx.Create(model).Error; err != nil {
			return fmt.Errorf("failed to create booking: %w", err)
		}
		return nil
	})
}

// RescheduleIfSlotFree atomically re-checks the booking's new interval
// (excluding itself) and persists the new time and worker.
func (r *GormBookingRepository) RescheduleIfSlotFree(ctx context.Context, bk *bookingDomain.Booking) error {
	model := toBookingModel(bk)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockWorkerCalendar(tx, bk.WorkerID()); err != nil {
			return fmt.Errorf("failed to lock worker calendar: %w", err)
		}

		var count int64
		if err := overlapScope(tx, bk.WorkerID(), bk.StartTime(), bk.EndTime(), bk.ID()).
			Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check for conflicts: %w", err)
		}
		if count > 0 {
			return shared.NewSlotUnavailableError("the requested time slot is no longer available")
		}

		expectedVersion := bk.Version() - 1
		result := tx.Model(&BookingModel{}).
			Where("id = ? AND version = ?", model.ID, expectedVersion).
			Updates(map[string]interface{}{
				"worker_id":  model.WorkerID,
				"start_time": model.StartTime,
				"end_time":   model.EndTime,
				"version":    model.Version,
				"updated_at": model.UpdatedAt,
			})
		if result.Error != nil {
			return fmt.Errorf("failed to reschedule booking: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return shared.NewConflictError("booking was modified by another transaction")
		}
		return nil
	})
}

// Update persists status/notes changes with optimistic locking.
func (r *GormBookingRepository) Update(ctx context.Context, bk *bookingDomain.Booking) error {
	model := toBookingModel(bk)

	expectedVersion := bk.Version() - 1
	result := r.db.WithContext(ctx).
		Model(&BookingModel{}).
		Where("id = ? AND version = ?", model.ID, expectedVersion).
		Updates(map[string]interface{}{
			"status":       model.Status,
			"notes":        model.Notes,
			"cancelled_at": model.CancelledAt,
			"cancel_note":  model.CancelNote,
			"version":      model.Version,
			"updated_at":   model.UpdatedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update booking: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.NewConflictError("booking was modified by another transaction")
	}
	return nil
}

// --- Conversion Helpers ---

func toBookingModel(bk *bookingDomain.Booking) *BookingModel {
	return &BookingModel{
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

func toDomainBooking(m *BookingModel) (*bookingDomain.Booking, error) {
	status, err := bookingDomain.ParseStatus(m.Status)
	if err != nil {
		return nil, err
	}
	return bookingDomain.Reconstruct(
		m.ID,
		m.BusinessID,
		m.ServiceID,
		m.ClientID,
		m.WorkerID,
		m.StartTime,
		m.EndTime,
		status,
		m.PaymentRef,
		m.Notes,
		m.CancelledAt,
		m.CancelNote,
		m.Version,
		m.CreatedAt,
		m.UpdatedAt,
	), nil
}

func toDomainBookings(models []BookingModel) ([]*bookingDomain.Booking, error) {
	bookings := make([]*bookingDomain.Booking, len(models))
	for i, m := range models {
		bk, err := toDomainBooking(&m)
		if err != nil {
			return nil, err
		}
		bookings[i] = bk
	}
	return bookings, nil
}
