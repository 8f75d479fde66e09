package events

import (
	"time"

	"github.com/google/uuid"
)

// Topics used by the scheduling service.
const (
	TopicBookingEvents = "booking.events"
	TopicPaymentEvents = "payment.events"
)

// Booking event types published to TopicBookingEvents.
const (
	BookingCreated     = "booking.created"
	BookingConfirmed   = "booking.confirmed"
	BookingCompleted   = "booking.completed"
	BookingCancelled   = "booking.cancelled"
	BookingNoShow      = "booking.no_show"
	BookingRescheduled = "booking.rescheduled"

	// BookingFailedPaymentCaptured flags the saga's critical failure mode so
	// downstream support tooling can pick it up.
	BookingFailedPaymentCaptured = "booking.failed.payment_captured"
)

// Payment event types consumed from TopicPaymentEvents.
const (
	PaymentCaptured = "payment.captured"
)

// BookingLifecycleEvent is the payload for every booking lifecycle event.
type BookingLifecycleEvent struct {
	BookingID  uuid.UUID `json:"booking_id"`
	BusinessID uuid.UUID `json:"business_id"`
	WorkerID   uuid.UUID `json:"worker_id"`
	ClientID   uuid.UUID `json:"client_id"`
	ServiceID  uuid.UUID `json:"service_id"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
	Status     string    `json:"status"`
	PaymentRef string    `json:"payment_ref,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// PaymentCapturedBookingFailedEvent is published when a captured payment's
// booking could not be committed. It always carries the payment reference.
type PaymentCapturedBookingFailedEvent struct {
	EscalationID uuid.UUID `json:"escalation_id"`
	PaymentRef   string    `json:"payment_ref"`
	BusinessID   uuid.UUID `json:"business_id"`
	ClientID     uuid.UUID `json:"client_id"`
	WorkerID     uuid.UUID `json:"worker_id"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// PaymentCapturedEvent is published by the payment service when a capture for
// a checkout session succeeds. It drives the saga's asynchronous phase 2.
type PaymentCapturedEvent struct {
	SessionID  uuid.UUID `json:"session_id"`
	PaymentRef string    `json:"payment_ref"`
	ClientID   uuid.UUID `json:"client_id"`
	OccurredAt time.Time `json:"occurred_at"`
}
