package booking

import "github.com/slotwise/service-scheduling/internal/domain/shared"

// PricingStrategy defines how the amount charged at checkout is derived from
// a service's list price.
type PricingStrategy interface {
	// Quote returns the amount in cents to collect before the booking is
	// committed.
	Quote(params PricingParams) (int64, error)
}

// PricingParams holds the inputs for the checkout quote.
type PricingParams struct {
	ServicePriceCents int64
	// DepositPercent is the business's prepayment percentage; 0 means the
	// full service price is collected.
	DepositPercent int
}

// StandardPricingStrategy implements the platform's default quote logic.
type StandardPricingStrategy struct{}

// NewStandardPricingStrategy creates a new StandardPricingStrategy.
func NewStandardPricingStrategy() *StandardPricingStrategy {
	return &StandardPricingStrategy{}
}

// Quote computes the checkout amount in cents.
func (s *StandardPricingStrategy) Quote(params PricingParams) (int64, error) {
	if params.ServicePriceCents < 0 {
		return 0, shared.NewValidationError("service price cannot be negative")
	}
	if params.DepositPercent < 0 || params.DepositPercent > 100 {
		return 0, shared.NewValidationError("deposit percent must be between 0 and 100")
	}
	if params.DepositPercent == 0 {
		return params.ServicePriceCents, nil
	}
	return params.ServicePriceCents * int64(params.DepositPercent) / 100, nil
}
