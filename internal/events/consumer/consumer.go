package consumer

import (
	"context"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/slotwise/service-scheduling/internal/application"
	"github.com/slotwise/service-scheduling/internal/domain/shared"
	"github.com/slotwise/service-scheduling/internal/events"
	"github.com/slotwise/service-scheduling/internal/platform/kafka"
	"go.uber.org/zap"
)

// CheckoutConfirmer is the slice of the checkout saga the consumer drives.
// Satisfied by *application.CheckoutSaga.
type CheckoutConfirmer interface {
	ConfirmCheckout(ctx context.Context, actor shared.Actor, sessionID uuid.UUID) (*application.BookingDTO, error)
}

// PaymentEventConsumer listens to payment events and drives the saga's
// asynchronous phase 2: when the payment service reports a capture, the
// checkout session is confirmed without waiting for the client to poll.
type PaymentEventConsumer struct {
	consumer *kafka.Consumer
	saga     CheckoutConfirmer
	logger   *zap.Logger
}

// NewPaymentEventConsumer creates a new PaymentEventConsumer.
func NewPaymentEventConsumer(
	brokers []string,
	groupID string,
	saga CheckoutConfirmer,
	logger *zap.Logger,
) *PaymentEventConsumer {
	c := kafka.NewConsumer(brokers, groupID, events.TopicPaymentEvents, logger)
	return &PaymentEventConsumer{
		consumer: c,
		saga:     saga,
		logger:   logger,
	}
}

// Start begins consuming payment events. Blocks until the context is cancelled.
func (c *PaymentEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Consume(ctx, c.handleMessage)
}

// Close closes the underlying Kafka consumer.
func (c *PaymentEventConsumer) Close() error {
	return c.consumer.Close()
}

// handleMessage decides the fate of one message: returning nil commits the
// offset, returning an error leaves it uncommitted so the consume loop retries
// the same message.
func (c *PaymentEventConsumer) handleMessage(ctx context.Context, msg kafkago.Message) error {
	cloudEvent, err := kafka.ParseCloudEvent(msg.Value)
	if err != nil {
		c.logger.Error("failed to parse cloud event from payment topic",
			zap.Error(err),
			zap.String("raw", string(msg.Value)),
		)
		return nil // Don't retry malformed messages
	}

	switch cloudEvent.Type {
	case events.PaymentCaptured:
		return c.handlePaymentCaptured(ctx, cloudEvent)
	default:
		c.logger.Debug("ignoring unhandled payment event type",
			zap.String("type", cloudEvent.Type),
		)
		return nil
	}
}

func (c *PaymentEventConsumer) handlePaymentCaptured(ctx context.Context, cloudEvent kafka.CloudEvent) error {
	var evt events.PaymentCapturedEvent
	if err := cloudEvent.ParseData(&evt); err != nil {
		c.logger.Error("failed to parse PaymentCapturedEvent data",
			zap.Error(err),
		)
		return nil // Don't retry malformed data
	}

	c.logger.Info("processing payment captured event",
		zap.String("session_id", evt.SessionID.String()),
		zap.String("payment_ref", evt.PaymentRef),
	)

	actor := shared.Actor{ID: evt.ClientID, Role: shared.RoleClient}
	_, err := c.saga.ConfirmCheckout(ctx, actor, evt.SessionID)
	if err != nil {
		switch {
		case shared.IsCode(err, shared.CodeNotFound):
			// Session already confirmed by a polling client, or expired.
			c.logger.Debug("checkout session gone, nothing to confirm",
				zap.String("session_id", evt.SessionID.String()),
			)
			return nil
		case shared.IsCode(err, shared.CodePaymentPending):
			// Gateway state lags the event; retry until the capture settles.
			return err
		case shared.IsCode(err, shared.CodePaymentCapturedBookingFailed):
			// Escalation is already recorded; retrying cannot help.
			c.logger.Error("captured payment could not be booked, escalated",
				zap.String("session_id", evt.SessionID.String()),
				zap.String("payment_ref", evt.PaymentRef),
			)
			return nil
		default:
			c.logger.Error("failed to confirm checkout after capture",
				zap.String("session_id", evt.SessionID.String()),
				zap.Error(err),
			)
			return err
		}
	}

	c.logger.Info("booking confirmed after payment capture",
		zap.String("session_id", evt.SessionID.String()),
	)
	return nil
}
