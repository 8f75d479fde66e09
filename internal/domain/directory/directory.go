package directory

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Business is the tenant boundary. Workers, services and bookings all belong
// to exactly one business.
type Business struct {
	ID       uuid.UUID
	OwnerID  uuid.UUID
	Name     string
	Timezone string

	// OpenMinute/CloseMinute are minutes from local midnight, e.g. 540 to 1020
	// for 09:00 to 17:00.
	OpenMinute  int
	CloseMinute int

	// SlotStepMinutes is the granularity of offerable start times.
	SlotStepMinutes int

	// RequiresPrepayment gates client bookings behind the payment saga.
	RequiresPrepayment bool
	// DepositPercent of the service price collected at checkout; 0 means the
	// full price.
	DepositPercent int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Worker is the resource whose calendar the conflict resolver protects. A
// worker's ID is their platform user ID.
type Worker struct {
	ID         uuid.UUID
	BusinessID uuid.UUID
	Name       string
	Active     bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Service is an offering with a fixed duration and price. A booking's end
// time is always derived from its service's duration.
type Service struct {
	ID              uuid.UUID
	BusinessID      uuid.UUID
	Name            string
	DurationMinutes int
	PriceCents      int64
	Active          bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Directory provides read-only lookups of businesses, workers and services.
// Profile CRUD is owned by another service; this one only resolves what it
// needs to schedule.
type Directory interface {
	// GetBusiness retrieves a business by ID.
	GetBusiness(ctx context.Context, id uuid.UUID) (*Business, error)

	// GetWorker retrieves a worker by ID.
	GetWorker(ctx context.Context, id uuid.UUID) (*Worker, error)

	// GetService retrieves a service by ID.
	GetService(ctx context.Context, id uuid.UUID) (*Service, error)
}
