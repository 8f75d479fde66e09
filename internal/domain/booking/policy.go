package booking

import (
	"github.com/google/uuid"
	"github.com/slotwise/service-scheduling/internal/domain/shared"
)

// Action is an operation an actor may attempt on a booking.
type Action string

const (
	ActionView       Action = "view"
	ActionReschedule Action = "reschedule"
	ActionCancel     Action = "cancel"
)

// CanAccess decides whether the actor may perform the action on the booking.
// businessOwnerID is the owner of the booking's business, resolved by the
// caller from the directory. Returns a FORBIDDEN error on denial.
//
// The matrix:
//   - admin: unrestricted
//   - business owner: bookings of their own business
//   - worker: bookings they are assigned to; no reschedule
//   - client: bookings they made; view and cancel only
func CanAccess(actor shared.Actor, businessOwnerID uuid.UUID, b *Booking, action Action) error {
	switch actor.Role {
	case shared.RoleAdmin:
		return nil
	case shared.RoleBusinessOwner:
		if businessOwnerID == actor.ID {
			return nil
		}
	case shared.RoleWorker:
		if b.WorkerID() == actor.ID && action != ActionReschedule {
			return nil
		}
	case shared.RoleClient:
		if b.ClientID() == actor.ID && (action == ActionView || action == ActionCancel || action == ActionReschedule) {
			return nil
		}
	}
	return shared.NewForbiddenError("not allowed to access this booking")
}

// CanTransition decides whether the actor may move the booking to the target
// status. Role restrictions are layered on top of the state machine:
//
//   - admin and business owner: completed, cancelled, no_show
//   - assigned worker: completed and cancelled only
//   - owning client: cancelled only
func CanTransition(actor shared.Actor, businessOwnerID uuid.UUID, b *Booking, target Status) error {
	switch actor.Role {
	case shared.RoleAdmin:
		return nil
	case shared.RoleBusinessOwner:
		if businessOwnerID == actor.ID {
			return nil
		}
	case shared.RoleWorker:
		if b.WorkerID() == actor.ID && (target == StatusCompleted || target == StatusCancelled) {
			return nil
		}
	case shared.RoleClient:
		if b.ClientID() == actor.ID && target == StatusCancelled {
			return nil
		}
	}
	return shared.NewForbiddenError("not allowed to change this booking's status")
}
