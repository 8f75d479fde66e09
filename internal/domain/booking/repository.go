package booking

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines the persistence contract for booking aggregates.
//
// CreateIfSlotFree and RescheduleIfSlotFree are the only write paths for a
// booking's interval. Both must run the conflict check and the write inside a
// single transaction serialized per worker, so that two racing requests for
// the same worker can never both observe a free slot.
type Repository interface {
	// FindByID retrieves a booking by its unique identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*Booking, error)

	// FindOverlapping returns non-cancelled bookings for the worker whose
	// intervals intersect [start, end). excludeID (uuid.Nil for none) skips a
	// booking's comparison against itself during reschedule.
	FindOverlapping(ctx context.Context, workerID uuid.UUID, start, end time.Time, excludeID uuid.UUID) ([]*Booking, error)

	// HasConflict reports whether [start, end) overlaps any non-cancelled
	// booking for the worker. Read-only; adjacent intervals do not conflict.
	HasConflict(ctx context.Context, workerID uuid.UUID, start, end time.Time, excludeID uuid.UUID) (bool, error)

	// FindForWorkerDay returns the worker's non-cancelled bookings whose
	// intervals intersect [dayStart, dayEnd), ordered by start time.
	FindForWorkerDay(ctx context.Context, workerID uuid.UUID, dayStart, dayEnd time.Time) ([]*Booking, error)

	// FindByClientID retrieves bookings made by a client with pagination.
	FindByClientID(ctx context.Context, clientID uuid.UUID, page, limit int) ([]*Booking, int64, error)

	// FindByWorkerID retrieves bookings assigned to a worker with pagination.
	FindByWorkerID(ctx context.Context, workerID uuid.UUID, page, limit int) ([]*Booking, int64, error)

	// FindByBusinessID retrieves a business's bookings with pagination.
	FindByBusinessID(ctx context.Context, businessID uuid.UUID, page, limit int) ([]*Booking, int64, error)

	// ListAll retrieves all bookings with pagination (admin).
	ListAll(ctx context.Context, page, limit int) ([]*Booking, int64, error)

	// CountByStatus returns booking counts grouped by status (admin).
	CountByStatus(ctx context.Context) (map[string]int64, error)

	// CreateIfSlotFree atomically re-checks the booking's interval and inserts
	// it. Returns a SLOT_UNAVAILABLE error if the interval is taken.
	CreateIfSlotFree(ctx context.Context, b *Booking) error

	// RescheduleIfSlotFree atomically re-checks the booking's new interval
	// (excluding the booking itself) and persists it. Returns a
	// SLOT_UNAVAILABLE error if the interval is taken.
	RescheduleIfSlotFree(ctx context.Context, b *Booking) error

	// Update persists status/notes changes with optimistic locking.
	Update(ctx context.Context, b *Booking) error
}
