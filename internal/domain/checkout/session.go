package checkout

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Session holds the saga's phase-1 state between quote and capture. The slot
// itself is deliberately NOT held while a session is open; phase 2 re-runs
// the conflict check at commit time.
type Session struct {
	ID          uuid.UUID `json:"id"`
	BusinessID  uuid.UUID `json:"business_id"`
	ServiceID   uuid.UUID `json:"service_id"`
	ClientID    uuid.UUID `json:"client_id"`
	WorkerID    uuid.UUID `json:"worker_id"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	AmountCents int64     `json:"amount_cents"`
	Currency    string    `json:"currency"`
	PaymentRef  string    `json:"payment_ref"`
	Notes       string    `json:"notes"`
	CreatedAt   time.Time `json:"created_at"`
}

// Store keeps checkout sessions for the duration of the payment window.
// Entries expire on their own after the configured TTL.
type Store interface {
	// Put saves the session with the given time-to-live.
	Put(ctx context.Context, s *Session, ttl time.Duration) error

	// Get retrieves a session by ID; NOT_FOUND if missing or expired.
	Get(ctx context.Context, id uuid.UUID) (*Session, error)

	// Delete removes a session after the saga completes either way.
	Delete(ctx context.Context, id uuid.UUID) error
}
