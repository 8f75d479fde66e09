package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	bookingDomain "github.com/slotwise/service-scheduling/internal/domain/booking"
	"github.com/slotwise/service-scheduling/internal/domain/checkout"
	"github.com/slotwise/service-scheduling/internal/domain/directory"
	"github.com/slotwise/service-scheduling/internal/domain/escalation"
	"github.com/slotwise/service-scheduling/internal/domain/payment"
	"github.com/slotwise/service-scheduling/internal/domain/schedule"
	"github.com/slotwise/service-scheduling/internal/domain/shared"
	"github.com/slotwise/service-scheduling/internal/events"
	"github.com/slotwise/service-scheduling/internal/platform/kafka"
	"go.uber.org/zap"
)

// StartCheckoutRequest opens a payment-gated booking attempt.
type StartCheckoutRequest struct {
	BusinessID uuid.UUID `json:"business_id" binding:"required"`
	ServiceID  uuid.UUID `json:"service_id" binding:"required"`
	WorkerID   uuid.UUID `json:"worker_id" binding:"required"`
	StartTime  time.Time `json:"start_time" binding:"required"`
	Notes      string    `json:"notes"`
}

// CheckoutSessionDTO is returned from phase 1. The client completes payment
// with ClientSecret and then confirms the session.
type CheckoutSessionDTO struct {
	SessionID    uuid.UUID `json:"session_id"`
	PaymentRef   string    `json:"payment_ref"`
	ClientSecret string    `json:"client_secret,omitempty"`
	AmountCents  int64     `json:"amount_cents"`
	Currency     string    `json:"currency"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// CheckoutSaga drives the two-phase payment-gated booking flow.
//
// Phase 1 (StartCheckout) quotes the price, creates a payment intent and
// stores a short-lived session. The slot is NOT reserved. Phase 2
// (ConfirmCheckout) verifies capture with the gateway and commits the booking
// under the same atomic conflict check as any other write. Losing the race
// after capture is recorded as a payment escalation, never retried silently.
type CheckoutSaga struct {
	repo        bookingDomain.Repository
	dir         directory.Directory
	sessions    checkout.Store
	gateway     payment.Gateway
	pricing     bookingDomain.PricingStrategy
	escalations escalation.Repository
	producer    kafka.EventPublisher
	logger      *zap.Logger
	sessionTTL  time.Duration
	currency    string
}

// NewCheckoutSaga creates a new CheckoutSaga.
func NewCheckoutSaga(
	repo bookingDomain.Repository,
	dir directory.Directory,
	sessions checkout.Store,
	gateway payment.Gateway,
	pricing bookingDomain.PricingStrategy,
	escalations escalation.Repository,
	producer kafka.EventPublisher,
	logger *zap.Logger,
	sessionTTL time.Duration,
) *CheckoutSaga {
	return &CheckoutSaga{
		repo:        repo,
		dir:         dir,
		sessions:    sessions,
		gateway:     gateway,
		pricing:     pricing,
		escalations: escalations,
		producer:    producer,
		logger:      logger,
		sessionTTL:  sessionTTL,
		currency:    "usd",
	}
}

// StartCheckout runs phase 1 for a client. The advisory conflict check here
// only avoids charging for a slot that is already visibly taken; the
// authoritative check happens again at commit.
func (s *CheckoutSaga) StartCheckout(ctx context.Context, actor shared.Actor, req StartCheckoutRequest) (*CheckoutSessionDTO, error) {
	if actor.Role != shared.RoleClient {
		return nil, shared.NewForbiddenError("only clients start checkout")
	}

	biz, err := s.dir.GetBusiness(ctx, req.BusinessID)
	if err != nil {
		return nil, err
	}
	if !biz.RequiresPrepayment {
		return nil, shared.NewValidationError("this business does not require prepayment; book directly")
	}
	svc, err := s.dir.GetService(ctx, req.ServiceID)
	if err != nil {
		return nil, err
	}
	worker, err := s.dir.GetWorker(ctx, req.WorkerID)
	if err != nil {
		return nil, err
	}
	if svc.BusinessID != req.BusinessID || worker.BusinessID != req.BusinessID {
		return nil, shared.NewValidationError("service and worker must belong to the business")
	}
	if !svc.Active || !worker.Active {
		return nil, shared.NewValidationError("service or worker is not active")
	}

	endTime, err := schedule.EndTime(req.StartTime, svc.DurationMinutes)
	if err != nil {
		return nil, err
	}

	taken, err := s.repo.HasConflict(ctx, req.WorkerID, req.StartTime, endTime, uuid.Nil)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, shared.NewSlotUnavailableError("the requested slot is already booked")
	}

	amount, err := s.pricing.Quote(bookingDomain.PricingParams{
		ServicePriceCents: svc.PriceCents,
		DepositPercent:    biz.DepositPercent,
	})
	if err != nil {
		return nil, err
	}

	sessionID := uuid.New()
	intent, err := s.gateway.CreateIntent(ctx, amount, s.currency, map[string]string{
		"session_id":  sessionID.String(),
		"business_id": req.BusinessID.String(),
		"client_id":   actor.ID.String(),
	})
	if err != nil {
		return nil, err
	}

	session := &checkout.Session{
		ID:          sessionID,
		BusinessID:  req.BusinessID,
		ServiceID:   req.ServiceID,
		ClientID:    actor.ID,
		WorkerID:    req.WorkerID,
		StartTime:   req.StartTime,
		EndTime:     endTime,
		AmountCents: amount,
		Currency:    s.currency,
		PaymentRef:  intent.Ref,
		Notes:       req.Notes,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.sessions.Put(ctx, session, s.sessionTTL); err != nil {
		return nil, err
	}

	return &CheckoutSessionDTO{
		SessionID:    session.ID,
		PaymentRef:   intent.Ref,
		ClientSecret: intent.ClientSecret,
		AmountCents:  amount,
		Currency:     s.currency,
		StartTime:    session.StartTime,
		EndTime:      session.EndTime,
		ExpiresAt:    session.CreatedAt.Add(s.sessionTTL),
	}, nil
}

// ConfirmCheckout runs phase 2. It verifies the capture with the gateway and
// commits the booking; the slot conflict check is re-run atomically at commit.
// If the payment was captured but the slot was lost in the meantime, the
// outcome is an escalation plus a PAYMENT_CAPTURED_BOOKING_FAILED error that
// carries the payment reference.
func (s *CheckoutSaga) ConfirmCheckout(ctx context.Context, actor shared.Actor, sessionID uuid.UUID) (*BookingDTO, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if actor.Role == shared.RoleClient && session.ClientID != actor.ID {
		return nil, shared.NewForbiddenError("session belongs to another client")
	}

	status, err := s.gateway.GetCaptureStatus(ctx, session.PaymentRef)
	if err != nil {
		return nil, err
	}
	switch status {
	case payment.CapturePending:
		return nil, shared.NewPaymentPendingError()
	case payment.CaptureFailed:
		if delErr := s.sessions.Delete(ctx, sessionID); delErr != nil {
			s.logger.Warn("failed to delete checkout session after failed capture",
				zap.String("session_id", sessionID.String()), zap.Error(delErr))
		}
		return nil, shared.NewValidationError("payment was not captured; start a new checkout")
	case payment.CaptureSucceeded:
	default:
		return nil, shared.NewValidationError("unknown capture status from gateway")
	}

	bk, err := bookingDomain.NewBooking(
		session.BusinessID,
		session.ServiceID,
		session.ClientID,
		session.WorkerID,
		session.StartTime,
		session.EndTime,
		bookingDomain.StatusConfirmed,
		session.PaymentRef,
		session.Notes,
	)
	if err != nil {
		return nil, err
	}

	if err := s.repo.CreateIfSlotFree(ctx, bk); err != nil {
		if shared.IsCode(err, shared.CodeSlotUnavailable) {
			return nil, s.escalate(ctx, session)
		}
		return nil, err
	}

	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		s.logger.Warn("failed to delete checkout session after confirmation",
			zap.String("session_id", sessionID.String()), zap.Error(err))
	}

	evt := events.BookingLifecycleEvent{
		BookingID:  bk.ID(),
		BusinessID: bk.BusinessID(),
		WorkerID:   bk.WorkerID(),
		ClientID:   bk.ClientID(),
		ServiceID:  bk.ServiceID(),
		StartTime:  bk.StartTime(),
		EndTime:    bk.EndTime(),
		Status:     string(bk.Status()),
		PaymentRef: bk.PaymentRef(),
		OccurredAt: time.Now().UTC(),
	}
	publishEvent(ctx, s.producer, s.logger, events.TopicBookingEvents, events.BookingConfirmed, evt)

	result := toBookingDTO(bk)
	return &result, nil
}

// escalate records the captured-but-unbookable payment and returns the error
// the caller must see. The escalation row is the durable record; if even that
// write fails the payment reference is still in the returned error and logged.
func (s *CheckoutSaga) escalate(ctx context.Context, session *checkout.Session) error {
	esc, err := escalation.NewPaymentEscalation(
		session.PaymentRef,
		session.BusinessID,
		session.ClientID,
		session.WorkerID,
		session.ServiceID,
		session.StartTime,
		session.EndTime,
		session.AmountCents,
	)
	if err != nil {
		s.logger.Error("failed to build payment escalation",
			zap.String("payment_ref", session.PaymentRef), zap.Error(err))
		return shared.NewPaymentCapturedBookingFailedError(session.PaymentRef)
	}
	if err := s.escalations.Save(ctx, esc); err != nil {
		s.logger.Error("CRITICAL: captured payment lost slot race and escalation write failed",
			zap.String("payment_ref", session.PaymentRef),
			zap.String("client_id", session.ClientID.String()),
			zap.Error(err))
		return shared.NewPaymentCapturedBookingFailedError(session.PaymentRef)
	}

	if err := s.sessions.Delete(ctx, session.ID); err != nil {
		s.logger.Warn("failed to delete checkout session after escalation",
			zap.String("session_id", session.ID.String()), zap.Error(err))
	}

	evt := events.PaymentCapturedBookingFailedEvent{
		EscalationID: esc.ID(),
		PaymentRef:   session.PaymentRef,
		BusinessID:   session.BusinessID,
		ClientID:     session.ClientID,
		WorkerID:     session.WorkerID,
		StartTime:    session.StartTime,
		EndTime:      session.EndTime,
		OccurredAt:   time.Now().UTC(),
	}
	publishEvent(ctx, s.producer, s.logger, events.TopicBookingEvents, events.BookingFailedPaymentCaptured, evt)

	return shared.NewPaymentCapturedBookingFailedError(session.PaymentRef)
}
