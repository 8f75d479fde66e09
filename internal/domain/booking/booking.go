package booking

import (
	"time"

	"github.com/google/uuid"
	"github.com/slotwise/service-scheduling/internal/domain/shared"
)

// Booking is the aggregate root for the scheduling domain. It holds one
// worker's time for one client within one business, for the half-open
// interval [startTime, endTime).
type Booking struct {
	id         uuid.UUID
	businessID uuid.UUID
	serviceID  uuid.UUID
	clientID   uuid.UUID
	workerID   uuid.UUID
	startTime  time.Time
	endTime    time.Time
	status     Status
	notes      string

	// paymentRef is the external payment-intent identifier for prepaid
	// bookings; empty for staff-entered ones.
	paymentRef string

	cancelledAt *time.Time
	cancelNote  string

	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// NewBooking creates a new Booking aggregate. The initial status must be
// scheduled (staff-entered) or confirmed (payment-gated, after capture).
func NewBooking(
	businessID, serviceID, clientID, workerID uuid.UUID,
	startTime, endTime time.Time,
	status Status,
	paymentRef string,
	notes string,
) (*Booking, error) {
	if businessID == uuid.Nil {
		return nil, shared.NewValidationError("business ID is required")
	}
	if serviceID == uuid.Nil {
		return nil, shared.NewValidationError("service ID is required")
	}
	if clientID == uuid.Nil {
		return nil, shared.NewValidationError("client ID is required")
	}
	if workerID == uuid.Nil {
		return nil, shared.NewValidationError("worker ID is required")
	}
	if !startTime.Before(endTime) {
		return nil, shared.NewValidationError("booking end time must be after start time")
	}
	if status != StatusScheduled && status != StatusConfirmed {
		return nil, shared.NewValidationError("new bookings must start as scheduled or confirmed")
	}
	if status == StatusConfirmed && paymentRef == "" {
		return nil, shared.NewValidationError("confirmed bookings require a payment reference")
	}

	now := time.Now().UTC()
	return &Booking{
		id:         uuid.New(),
		businessID: businessID,
		serviceID:  serviceID,
		clientID:   clientID,
		workerID:   workerID,
		startTime:  startTime.UTC(),
		endTime:    endTime.UTC(),
		status:     status,
		paymentRef: paymentRef,
		notes:      notes,
		version:    1,
		createdAt:  now,
		updatedAt:  now,
	}, nil
}

// Reconstruct rebuilds a Booking from persistence data (no validation).
func Reconstruct(
	id, businessID, serviceID, clientID, workerID uuid.UUID,
	startTime, endTime time.Time,
	status Status,
	paymentRef string,
	notes string,
	cancelledAt *time.Time,
	cancelNote string,
	version int64,
	createdAt, updatedAt time.Time,
) *Booking {
	return &Booking{
		id:          id,
		businessID:  businessID,
		serviceID:   serviceID,
		clientID:    clientID,
		workerID:    workerID,
		startTime:   startTime,
		endTime:     endTime,
		status:      status,
		paymentRef:  paymentRef,
		notes:       notes,
		cancelledAt: cancelledAt,
		cancelNote:  cancelNote,
		version:     version,
		createdAt:   createdAt,
		updatedAt:   updatedAt,
	}
}

// --- Getters ---

// ID returns the booking's unique identifier.
func (b *Booking) ID() uuid.UUID { return b.id }

// BusinessID returns the owning business's ID.
func (b *Booking) BusinessID() uuid.UUID { return b.businessID }

// ServiceID returns the booked service's ID.
func (b *Booking) ServiceID() uuid.UUID { return b.serviceID }

// ClientID returns the booking client's user ID.
func (b *Booking) ClientID() uuid.UUID { return b.clientID }

// WorkerID returns the assigned worker's ID.
func (b *Booking) WorkerID() uuid.UUID { return b.workerID }

// StartTime returns the appointment start (UTC).
func (b *Booking) StartTime() time.Time { return b.startTime }

// EndTime returns the appointment end (UTC).
func (b *Booking) EndTime() time.Time { return b.endTime }

// Status returns the current booking status.
func (b *Booking) Status() Status { return b.status }

// PaymentRef returns the external payment-intent identifier, if any.
func (b *Booking) PaymentRef() string { return b.paymentRef }

// Notes returns free-text notes attached to the booking.
func (b *Booking) Notes() string { return b.notes }

// CancelledAt returns the time the booking was cancelled.
func (b *Booking) CancelledAt() *time.Time { return b.cancelledAt }

// CancelNote returns the cancellation reason.
func (b *Booking) CancelNote() string { return b.cancelNote }

// Version returns the entity version for optimistic locking.
func (b *Booking) Version() int64 { return b.version }

// CreatedAt returns the creation timestamp.
func (b *Booking) CreatedAt() time.Time { return b.createdAt }

// UpdatedAt returns the last-updated timestamp.
func (b *Booking) UpdatedAt() time.Time { return b.updatedAt }

// --- Behavior ---

// TransitionTo moves the booking to the target status. Terminal states admit
// no further transitions.
func (b *Booking) TransitionTo(target Status) error {
	if !target.IsValid() {
		return shared.NewValidationError("unknown booking status: " + string(target))
	}
	if !b.status.CanTransitionTo(target) {
		return shared.NewInvalidTransitionError(string(b.status), string(target))
	}
	now := time.Now().UTC()
	if target == StatusCancelled {
		b.cancelledAt = &now
	}
	b.status = target
	b.updatedAt = now
	return nil
}

// Cancel cancels the booking. Cancelling an already-cancelled booking is a
// no-op success; cancelling from another terminal state is an error.
func (b *Booking) Cancel(reason string) error {
	if b.status == StatusCancelled {
		return nil
	}
	if err := b.TransitionTo(StatusCancelled); err != nil {
		return err
	}
	b.cancelNote = reason
	return nil
}

// Reschedule moves the booking to a new interval and optionally a new worker.
// The status is preserved; terminal bookings cannot be rescheduled.
func (b *Booking) Reschedule(startTime, endTime time.Time, workerID uuid.UUID) error {
	if b.status.IsTerminal() {
		return shared.NewInvalidTransitionError(string(b.status), string(b.status))
	}
	if !startTime.Before(endTime) {
		return shared.NewValidationError("booking end time must be after start time")
	}
	if workerID == uuid.Nil {
		return shared.NewValidationError("worker ID is required")
	}
	b.startTime = startTime.UTC()
	b.endTime = endTime.UTC()
	b.workerID = workerID
	b.updatedAt = time.Now().UTC()
	return nil
}

// IncrementVersion bumps the version for optimistic locking.
func (b *Booking) IncrementVersion() {
	b.version++
	b.updatedAt = time.Now().UTC()
}
