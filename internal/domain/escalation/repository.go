package escalation

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines persistence operations for payment escalations.
type Repository interface {
	Save(ctx context.Context, e *PaymentEscalation) error
	Update(ctx context.Context, e *PaymentEscalation) error
	FindByID(ctx context.Context, id uuid.UUID) (*PaymentEscalation, error)
	ListUnresolved(ctx context.Context) ([]*PaymentEscalation, error)
}
