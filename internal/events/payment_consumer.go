// Package events connects the service to its message brokers: it consumes
// payment events and selects the publisher for booking events.
package events

import (
	"context"

	"github.com/google/uuid"
	"github.com/innhub/service-reservation/internal/application"
	"github.com/innhub/service-reservation/internal/contract/events"
	"github.com/innhub/service-reservation/internal/platform/cloudevent"
	"github.com/innhub/service-reservation/internal/platform/domain"
	"github.com/innhub/service-reservation/internal/platform/kafka"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// PaymentRecorder marks bookings paid.
type PaymentRecorder interface {
	MarkPaid(ctx context.Context, bookingID uuid.UUID, method, transactionID string) (*application.BookingDTO, error)
}

// PaymentEventConsumer listens to payment events and records captured
// payments on bookings.
type PaymentEventConsumer struct {
	consumer *kafka.Consumer
	service  PaymentRecorder
	logger   *zap.Logger
}

// NewPaymentEventConsumer creates a new PaymentEventConsumer.
func NewPaymentEventConsumer(
	brokers []string,
	groupID string,
	service PaymentRecorder,
	logger *zap.Logger,
) *PaymentEventConsumer {
	consumer := kafka.NewConsumer(brokers, groupID, events.TopicPaymentEvents, logger)
	return &PaymentEventConsumer{
		consumer: consumer,
		service:  service,
		logger:   logger,
	}
}

// Start begins consuming payment events. This blocks until the context is cancelled.
func (c *PaymentEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Consume(ctx, c.handleMessage)
}

// Close closes the underlying Kafka consumer.
func (c *PaymentEventConsumer) Close() error {
	return c.consumer.Close()
}

func (c *PaymentEventConsumer) handleMessage(ctx context.Context, msg kafkago.Message) error {
	evt, err := cloudevent.Parse(msg.Value)
	if err != nil {
		c.logger.Error("failed to parse cloud event from payment topic",
			zap.Error(err),
			zap.String("raw", string(msg.Value)),
		)
		return nil // Don't retry malformed messages
	}

	switch evt.Type {
	case events.PaymentCaptured:
		return c.handlePaymentCaptured(ctx, evt)
	default:
		c.logger.Debug("ignoring unhandled payment event type",
			zap.String("type", evt.Type),
		)
		return nil
	}
}

func (c *PaymentEventConsumer) handlePaymentCaptured(ctx context.Context, evt cloudevent.Event) error {
	var captured events.PaymentCapturedEvent
	if err := evt.ParseData(&captured); err != nil {
		c.logger.Error("failed to parse PaymentCapturedEvent data",
			zap.Error(err),
		)
		return nil // Don't retry malformed data
	}

	c.logger.Info("processing payment captured event",
		zap.String("booking_id", captured.BookingID.String()),
		zap.String("transaction_id", captured.TransactionID),
	)

	_, err := c.service.MarkPaid(ctx, captured.BookingID, captured.PaymentMethod, captured.TransactionID)
	if err != nil {
		// A business rejection will not change on redelivery.
		if domain.CodeOf(err) != "" {
			c.logger.Warn("payment capture rejected",
				zap.String("booking_id", captured.BookingID.String()),
				zap.Error(err),
			)
			return nil
		}
		c.logger.Error("failed to mark booking paid",
			zap.String("booking_id", captured.BookingID.String()),
			zap.Error(err),
		)
		return err
	}

	c.logger.Info("booking marked paid",
		zap.String("booking_id", captured.BookingID.String()),
	)
	return nil
}
