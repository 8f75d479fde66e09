package booking

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/slotwise/service-scheduling/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBooking(t *testing.T, status Status) *Booking {
	t.Helper()
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	paymentRef := ""
	if status == StatusConfirmed {
		paymentRef = "pi_test_123"
	}
	bk, err := NewBooking(
		uuid.New(), uuid.New(), uuid.New(), uuid.New(),
		start, start.Add(45*time.Minute),
		status, paymentRef, "",
	)
	require.NoError(t, err)
	return bk
}

func TestNewBooking(t *testing.T) {
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	end := start.Add(45 * time.Minute)

	t.Run("creates scheduled booking", func(t *testing.T) {
		bk, err := NewBooking(uuid.New(), uuid.New(), uuid.New(), uuid.New(), start, end, StatusScheduled, "", "notes")
		require.NoError(t, err)
		assert.Equal(t, StatusScheduled, bk.Status())
		assert.Equal(t, int64(1), bk.Version())
		assert.Equal(t, "notes", bk.Notes())
	})

	t.Run("rejects end not after start", func(t *testing.T) {
		_, err := NewBooking(uuid.New(), uuid.New(), uuid.New(), uuid.New(), start, start, StatusScheduled, "", "")
		assert.True(t, shared.IsCode(err, shared.CodeValidation))
	})

	t.Run("rejects nil worker ID", func(t *testing.T) {
		_, err := NewBooking(uuid.New(), uuid.New(), uuid.New(), uuid.Nil, start, end, StatusScheduled, "", "")
		assert.True(t, shared.IsCode(err, shared.CodeValidation))
	})

	t.Run("rejects terminal initial status", func(t *testing.T) {
		_, err := NewBooking(uuid.New(), uuid.New(), uuid.New(), uuid.New(), start, end, StatusCompleted, "", "")
		assert.True(t, shared.IsCode(err, shared.CodeValidation))
	})

	t.Run("confirmed requires a payment reference", func(t *testing.T) {
		_, err := NewBooking(uuid.New(), uuid.New(), uuid.New(), uuid.New(), start, end, StatusConfirmed, "", "")
		assert.True(t, shared.IsCode(err, shared.CodeValidation))

		bk, err := NewBooking(uuid.New(), uuid.New(), uuid.New(), uuid.New(), start, end, StatusConfirmed, "pi_123", "")
		require.NoError(t, err)
		assert.Equal(t, "pi_123", bk.PaymentRef())
	})
}

func TestBookingTransitionTo(t *testing.T) {
	t.Run("valid transition updates status", func(t *testing.T) {
		bk := newTestBooking(t, StatusConfirmed)
		require.NoError(t, bk.TransitionTo(StatusCompleted))
		assert.Equal(t, StatusCompleted, bk.Status())
	})

	t.Run("cancelling records cancelled_at", func(t *testing.T) {
		bk := newTestBooking(t, StatusScheduled)
		require.NoError(t, bk.TransitionTo(StatusCancelled))
		require.NotNil(t, bk.CancelledAt())
	})

	t.Run("transition from terminal fails", func(t *testing.T) {
		bk := newTestBooking(t, StatusScheduled)
		require.NoError(t, bk.TransitionTo(StatusCompleted))
		err := bk.TransitionTo(StatusCancelled)
		assert.True(t, shared.IsCode(err, shared.CodeInvalidTransition))
	})

	t.Run("unknown status fails", func(t *testing.T) {
		bk := newTestBooking(t, StatusScheduled)
		err := bk.TransitionTo(Status("bogus"))
		assert.True(t, shared.IsCode(err, shared.CodeValidation))
	})
}

func TestBookingCancel(t *testing.T) {
	t.Run("cancel records reason", func(t *testing.T) {
		bk := newTestBooking(t, StatusScheduled)
		require.NoError(t, bk.Cancel("client asked"))
		assert.Equal(t, StatusCancelled, bk.Status())
		assert.Equal(t, "client asked", bk.CancelNote())
	})

	t.Run("cancelling an already-cancelled booking is a no-op", func(t *testing.T) {
		bk := newTestBooking(t, StatusScheduled)
		require.NoError(t, bk.Cancel("first"))
		firstCancelledAt := bk.CancelledAt()

		require.NoError(t, bk.Cancel("second"))
		assert.Equal(t, "first", bk.CancelNote())
		assert.Equal(t, firstCancelledAt, bk.CancelledAt())
	})

	t.Run("cancelling from completed fails", func(t *testing.T) {
		bk := newTestBooking(t, StatusConfirmed)
		require.NoError(t, bk.TransitionTo(StatusCompleted))
		err := bk.Cancel("too late")
		assert.True(t, shared.IsCode(err, shared.CodeInvalidTransition))
	})
}

func TestBookingReschedule(t *testing.T) {
	t.Run("moves interval and worker, keeps status", func(t *testing.T) {
		bk := newTestBooking(t, StatusConfirmed)
		newStart := bk.StartTime().Add(2 * time.Hour)
		newEnd := newStart.Add(45 * time.Minute)
		newWorker := uuid.New()

		require.NoError(t, bk.Reschedule(newStart, newEnd, newWorker))
		assert.Equal(t, newStart, bk.StartTime())
		assert.Equal(t, newEnd, bk.EndTime())
		assert.Equal(t, newWorker, bk.WorkerID())
		assert.Equal(t, StatusConfirmed, bk.Status())
	})

	t.Run("terminal bookings cannot be rescheduled", func(t *testing.T) {
		bk := newTestBooking(t, StatusScheduled)
		require.NoError(t, bk.TransitionTo(StatusNoShow))
		err := bk.Reschedule(bk.StartTime().Add(time.Hour), bk.EndTime().Add(time.Hour), bk.WorkerID())
		assert.True(t, shared.IsCode(err, shared.CodeInvalidTransition))
	})

	t.Run("rejects inverted interval", func(t *testing.T) {
		bk := newTestBooking(t, StatusScheduled)
		err := bk.Reschedule(bk.EndTime(), bk.StartTime(), bk.WorkerID())
		assert.True(t, shared.IsCode(err, shared.CodeValidation))
	})
}
