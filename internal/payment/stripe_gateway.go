package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"
	paymentDomain "github.com/slotwise/service-scheduling/internal/domain/payment"
	"go.uber.org/zap"
)

// StripeGateway implements payment.Gateway on Stripe PaymentIntents. The
// global stripe.Key is set once at startup from configuration.
type StripeGateway struct {
	timeout time.Duration
	logger  *zap.Logger
}

// NewStripeGateway creates a StripeGateway. Calls without a caller deadline
// are bounded by timeout.
func NewStripeGateway(timeout time.Duration, logger *zap.Logger) *StripeGateway {
	return &StripeGateway{timeout: timeout, logger: logger}
}

func (g *StripeGateway) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok || g.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, g.timeout)
}

// CreateIntent creates a PaymentIntent for the amount. The client completes
// payment out-of-band using the returned client secret.
func (g *StripeGateway) CreateIntent(ctx context.Context, amountCents int64, currency string, metadata map[string]string) (*paymentDomain.Intent, error) {
	ctx, cancel := g.callContext(ctx)
	defer cancel()

	params := &stripe.PaymentIntentParams{
		Params:   stripe.Params{Context: ctx},
		Amount:   stripe.Int64(amountCents),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}

	g.logger.Info("payment intent created",
		zap.String("intent_id", pi.ID),
		zap.Int64("amount_cents", amountCents),
		zap.String("currency", currency),
	)

	return &paymentDomain.Intent{
		Ref:          pi.ID,
		ClientSecret: pi.ClientSecret,
		AmountCents:  amountCents,
		Currency:     currency,
	}, nil
}

// GetCaptureStatus polls the intent's status. Anything that is neither
// succeeded nor definitively dead maps to pending, so callers keep polling
// rather than misreading an in-flight payment as failed.
func (g *StripeGateway) GetCaptureStatus(ctx context.Context, ref string) (paymentDomain.CaptureStatus, error) {
	ctx, cancel := g.callContext(ctx)
	defer cancel()

	params := &stripe.PaymentIntentParams{Params: stripe.Params{Context: ctx}}
	pi, err := paymentintent.Get(ref, params)
	if err != nil {
		return "", fmt.Errorf("failed to get payment intent %s: %w", ref, err)
	}

	switch pi.Status {
	case stripe.PaymentIntentStatusSucceeded:
		return paymentDomain.CaptureSucceeded, nil
	case stripe.PaymentIntentStatusCanceled:
		return paymentDomain.CaptureFailed, nil
	default:
		return paymentDomain.CapturePending, nil
	}
}
