package payment

import "context"

// CaptureStatus is the gateway-reported state of a payment intent.
type CaptureStatus string

const (
	CapturePending   CaptureStatus = "pending"
	CaptureSucceeded CaptureStatus = "succeeded"
	CaptureFailed    CaptureStatus = "failed"
)

// Intent is the opaque handle returned by the gateway for a created payment
// intent. ClientSecret is handed to the caller so they can complete payment
// out-of-band.
type Intent struct {
	Ref          string `json:"ref"`
	ClientSecret string `json:"client_secret,omitempty"`
	AmountCents  int64  `json:"amount_cents"`
	Currency     string `json:"currency"`
}

// Gateway is the external payment collaborator. Its internals are out of
// scope; the saga only creates intents and polls capture status. Both calls
// honor the caller's context deadline. A timeout here is indeterminate, not
// a failure.
type Gateway interface {
	// CreateIntent registers intent to collect amountCents and returns an
	// opaque handle. No money moves at this point.
	CreateIntent(ctx context.Context, amountCents int64, currency string, metadata map[string]string) (*Intent, error)

	// GetCaptureStatus reports whether funds for the intent have been
	// captured.
	GetCaptureStatus(ctx context.Context, ref string) (CaptureStatus, error)
}
