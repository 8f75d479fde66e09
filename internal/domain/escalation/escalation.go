package escalation

import (
	"time"

	"github.com/google/uuid"
	"github.com/slotwise/service-scheduling/internal/domain/shared"
)

// PaymentEscalation records the saga's critical failure mode: a payment was
// captured but the booking commit lost the race for the slot. Each row is an
// open item for the support workflow until a human resolves it (refund or
// manual rebooking).
type PaymentEscalation struct {
	id         uuid.UUID
	paymentRef string
	businessID uuid.UUID
	clientID   uuid.UUID
	workerID   uuid.UUID
	serviceID  uuid.UUID
	startTime  time.Time
	endTime    time.Time
	amount     int64
	resolved   bool
	resolvedAt *time.Time
	resolution string
	createdAt  time.Time
}

// NewPaymentEscalation creates an unresolved escalation for a captured
// payment whose booking could not be committed.
func NewPaymentEscalation(
	paymentRef string,
	businessID, clientID, workerID, serviceID uuid.UUID,
	startTime, endTime time.Time,
	amountCents int64,
) (*PaymentEscalation, error) {
	if paymentRef == "" {
		return nil, shared.NewValidationError("payment reference is required")
	}
	return &PaymentEscalation{
		id:         uuid.New(),
		paymentRef: paymentRef,
		businessID: businessID,
		clientID:   clientID,
		workerID:   workerID,
		serviceID:  serviceID,
		startTime:  startTime,
		endTime:    endTime,
		amount:     amountCents,
		createdAt:  time.Now().UTC(),
	}, nil
}

// Reconstruct rebuilds a PaymentEscalation from persistence.
func Reconstruct(
	id uuid.UUID,
	paymentRef string,
	businessID, clientID, workerID, serviceID uuid.UUID,
	startTime, endTime time.Time,
	amountCents int64,
	resolved bool,
	resolvedAt *time.Time,
	resolution string,
	createdAt time.Time,
) *PaymentEscalation {
	return &PaymentEscalation{
		id:         id,
		paymentRef: paymentRef,
		businessID: businessID,
		clientID:   clientID,
		workerID:   workerID,
		serviceID:  serviceID,
		startTime:  startTime,
		endTime:    endTime,
		amount:     amountCents,
		resolved:   resolved,
		resolvedAt: resolvedAt,
		resolution: resolution,
		createdAt:  createdAt,
	}
}

// Getters.
func (e *PaymentEscalation) ID() uuid.UUID          { return e.id }
func (e *PaymentEscalation) PaymentRef() string     { return e.paymentRef }
func (e *PaymentEscalation) BusinessID() uuid.UUID  { return e.businessID }
func (e *PaymentEscalation) ClientID() uuid.UUID    { return e.clientID }
func (e *PaymentEscalation) WorkerID() uuid.UUID    { return e.workerID }
func (e *PaymentEscalation) ServiceID() uuid.UUID   { return e.serviceID }
func (e *PaymentEscalation) StartTime() time.Time   { return e.startTime }
func (e *PaymentEscalation) EndTime() time.Time     { return e.endTime }
func (e *PaymentEscalation) AmountCents() int64     { return e.amount }
func (e *PaymentEscalation) Resolved() bool         { return e.resolved }
func (e *PaymentEscalation) ResolvedAt() *time.Time { return e.resolvedAt }
func (e *PaymentEscalation) Resolution() string     { return e.resolution }
func (e *PaymentEscalation) CreatedAt() time.Time   { return e.createdAt }

// Resolve marks the escalation as handled with a free-text resolution note.
func (e *PaymentEscalation) Resolve(resolution string) error {
	if e.resolved {
		return shared.NewConflictError("escalation already resolved")
	}
	now := time.Now().UTC()
	e.resolved = true
	e.resolvedAt = &now
	e.resolution = resolution
	return nil
}
