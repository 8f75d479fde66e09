package shared

import (
	"errors"
	"fmt"
)

// Error codes shared across the service. These are stable identifiers used by
// the HTTP layer to map domain failures to responses.
const (
	CodeValidation                   = "VALIDATION_ERROR"
	CodeNotFound                     = "NOT_FOUND"
	CodeForbidden                    = "FORBIDDEN"
	CodeConflict                     = "CONFLICT"
	CodeSlotUnavailable              = "SLOT_UNAVAILABLE"
	CodeInvalidTransition            = "INVALID_TRANSITION"
	CodePaymentPending               = "PAYMENT_PENDING"
	CodePaymentCapturedBookingFailed = "PAYMENT_CAPTURED_BOOKING_FAILED"
)

// DomainError is a typed error carrying a stable code and a caller-facing message.
type DomainError struct {
	Code    string
	Message string
	// PaymentRef is set only for PAYMENT_CAPTURED_BOOKING_FAILED so the
	// captured payment can be traced by the support workflow.
	PaymentRef string
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewValidationError creates a validation error for malformed input.
func NewValidationError(msg string) *DomainError {
	return &DomainError{Code: CodeValidation, Message: msg}
}

// NewNotFoundError creates a not-found error for a missing entity.
func NewNotFoundError(entity, id string) *DomainError {
	return &DomainError{Code: CodeNotFound, Message: fmt.Sprintf("%s %s not found", entity, id)}
}

// NewForbiddenError creates an access-denied error.
func NewForbiddenError(msg string) *DomainError {
	return &DomainError{Code: CodeForbidden, Message: msg}
}

// NewConflictError creates a concurrent-modification error (optimistic locking).
func NewConflictError(msg string) *DomainError {
	return &DomainError{Code: CodeConflict, Message: msg}
}

// NewSlotUnavailableError creates the error returned when a requested interval
// overlaps an existing booking for the same worker.
func NewSlotUnavailableError(msg string) *DomainError {
	return &DomainError{Code: CodeSlotUnavailable, Message: msg}
}

// NewInvalidTransitionError creates an error for a disallowed status change.
func NewInvalidTransitionError(from, to string) *DomainError {
	return &DomainError{
		Code:    CodeInvalidTransition,
		Message: fmt.Sprintf("cannot transition booking from %s to %s", from, to),
	}
}

// NewPaymentPendingError creates the retryable error returned when phase 2 is
// attempted before the gateway reports the capture as settled.
func NewPaymentPendingError() *DomainError {
	return &DomainError{Code: CodePaymentPending, Message: "payment has not been captured yet"}
}

// NewPaymentCapturedBookingFailedError creates the non-retriable error for the
// saga's critical failure mode: payment captured, booking commit lost the race.
func NewPaymentCapturedBookingFailedError(paymentRef string) *DomainError {
	return &DomainError{
		Code:       CodePaymentCapturedBookingFailed,
		Message:    "payment was captured but the slot is no longer available; support will follow up",
		PaymentRef: paymentRef,
	}
}

// AsDomainError unwraps err into a DomainError if possible.
func AsDomainError(err error) (*DomainError, bool) {
	var de *DomainError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// IsCode reports whether err is a DomainError with the given code.
func IsCode(err error, code string) bool {
	de, ok := AsDomainError(err)
	return ok && de.Code == code
}
