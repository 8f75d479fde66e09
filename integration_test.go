//go:build integration

package main_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slotwise/service-scheduling/internal/application"
	"github.com/slotwise/service-scheduling/internal/domain/shared"
	schedulingEvents "github.com/slotwise/service-scheduling/internal/events"

	"github.com/google/uuid"
)

// TestPaymentCaptured_ConfirmsBooking verifies the saga's asynchronous phase
// 2: a PaymentCapturedEvent on payment.events confirms the checkout session's
// booking and emits booking.confirmed.
func TestPaymentCaptured_ConfirmsBooking(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	stack := setupSchedulingStack(t, infra.DB, infra.KafkaBrokers)
	defer stack.CleanupProducer()
	defer func() { _ = stack.Consumer.Close() }()

	dir := seedDirectory(t, infra.DB)
	clientID := uuid.New()
	client := shared.Actor{ID: clientID, Role: shared.RoleClient}
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	// Phase 1: open a checkout session and capture the payment out-of-band.
	session, err := stack.Saga.StartCheckout(context.Background(), client, application.StartCheckoutRequest{
		BusinessID: dir.BusinessID,
		ServiceID:  dir.ServiceID,
		WorkerID:   dir.WorkerID,
		StartTime:  start,
	})
	require.NoError(t, err)
	stack.Gateway.Capture(session.PaymentRef)

	// Start the consumer.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = stack.Consumer.Start(ctx) }()
	time.Sleep(3 * time.Second) // Wait for consumer group join.

	// Publish PaymentCapturedEvent.
	evt := schedulingEvents.PaymentCapturedEvent{
		SessionID:  session.SessionID,
		PaymentRef: session.PaymentRef,
		ClientID:   clientID,
		OccurredAt: time.Now().UTC(),
	}
	publishTestEvent(t, infra.KafkaBrokers, schedulingEvents.TopicPaymentEvents,
		"service-payment", schedulingEvents.PaymentCaptured, evt)

	// Assert: a confirmed booking appears for the worker at the slot.
	model := waitForBookingStatus(t, infra.DB, dir.WorkerID, start, "confirmed", 15*time.Second)
	assert.Equal(t, session.PaymentRef, model.PaymentRef)
	assert.Equal(t, clientID, model.ClientID)

	// Assert: booking.confirmed on booking.events.
	ce := consumeOneEvent(t, infra.KafkaBrokers, schedulingEvents.TopicBookingEvents,
		schedulingEvents.BookingConfirmed, 15*time.Second)

	var confirmed schedulingEvents.BookingLifecycleEvent
	require.NoError(t, ce.ParseData(&confirmed))
	assert.Equal(t, dir.WorkerID, confirmed.WorkerID)
	assert.Equal(t, session.PaymentRef, confirmed.PaymentRef)
	assert.Equal(t, "confirmed", confirmed.Status)
}

// TestConcurrentCreate_OneWinner verifies the per-worker advisory lock against
// the real database: racing transactions for the same slot produce exactly one
// booking.
func TestConcurrentCreate_OneWinner(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	stack := setupSchedulingStack(t, infra.DB, infra.KafkaBrokers)
	defer stack.CleanupProducer()

	dir := seedDirectory(t, infra.DB)
	owner := ownerActor(dir)
	start := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)

	const racers = 8
	var wg sync.WaitGroup
	errs := make([]error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = stack.Bookings.CreateBooking(context.Background(), owner, application.CreateBookingRequest{
				BusinessID: dir.BusinessID,
				ServiceID:  dir.ServiceID,
				ClientID:   uuid.New(),
				WorkerID:   dir.WorkerID,
				StartTime:  start,
			})
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
		} else {
			require.True(t, shared.IsCode(err, shared.CodeSlotUnavailable), "unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, winners)
}

// TestCheckoutLostRace_Escalates verifies the saga's critical failure mode end
// to end: the slot is taken between capture and commit, and the captured
// payment lands in payment_escalations instead of being silently lost.
func TestCheckoutLostRace_Escalates(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	stack := setupSchedulingStack(t, infra.DB, infra.KafkaBrokers)
	defer stack.CleanupProducer()

	dir := seedDirectory(t, infra.DB)
	clientID := uuid.New()
	client := shared.Actor{ID: clientID, Role: shared.RoleClient}
	start := time.Date(2026, 3, 10, 11, 0, 0, 0, time.UTC)

	session, err := stack.Saga.StartCheckout(context.Background(), client, application.StartCheckoutRequest{
		BusinessID: dir.BusinessID,
		ServiceID:  dir.ServiceID,
		WorkerID:   dir.WorkerID,
		StartTime:  start,
	})
	require.NoError(t, err)
	stack.Gateway.Capture(session.PaymentRef)

	// A staff booking takes the slot while the payment settles.
	_, err = stack.Bookings.CreateBooking(context.Background(), ownerActor(dir), application.CreateBookingRequest{
		BusinessID: dir.BusinessID,
		ServiceID:  dir.ServiceID,
		ClientID:   uuid.New(),
		WorkerID:   dir.WorkerID,
		StartTime:  start,
	})
	require.NoError(t, err)

	_, err = stack.Saga.ConfirmCheckout(context.Background(), client, session.SessionID)
	de, ok := shared.AsDomainError(err)
	require.True(t, ok, "expected a domain error, got %v", err)
	assert.Equal(t, shared.CodePaymentCapturedBookingFailed, de.Code)
	assert.Equal(t, session.PaymentRef, de.PaymentRef)

	var count int64
	require.NoError(t, infra.DB.Table("payment_escalations").
		Where("payment_ref = ? AND resolved = false", session.PaymentRef).
		Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
