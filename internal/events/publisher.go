package events

import (
	"context"
	"fmt"

	appconfig "github.com/innhub/service-reservation/internal/config"
	"github.com/innhub/service-reservation/internal/platform/amqp"
	"github.com/innhub/service-reservation/internal/platform/cloudevent"
	"github.com/innhub/service-reservation/internal/platform/config"
	"github.com/innhub/service-reservation/internal/platform/kafka"
	"go.uber.org/zap"
)

// Publisher is an application.EventPublisher that can be closed on shutdown.
type Publisher interface {
	PublishEvent(ctx context.Context, topic string, event cloudevent.Event) error
	Close() error
}

// NewPublisher returns the publisher for driver: "kafka", "amqp" or "none".
func NewPublisher(driver string, kafkaCfg config.KafkaConfig, amqpCfg config.AMQPConfig, logger *zap.Logger) (Publisher, error) {
	switch driver {
	case appconfig.EventsKafka:
		return kafka.NewProducer(kafkaCfg.Brokers, logger), nil
	case appconfig.EventsAMQP:
		p, err := amqp.NewPublisher(amqpCfg.URL, amqpCfg.Exchange, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to AMQP broker: %w", err)
		}
		return p, nil
	case appconfig.EventsNone:
		return NewLogPublisher(logger), nil
	default:
		return nil, fmt.Errorf("unknown events driver %q", driver)
	}
}

// LogPublisher writes events to the log instead of a broker.
type LogPublisher struct {
	logger *zap.Logger
}

func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) PublishEvent(_ context.Context, topic string, event cloudevent.Event) error {
	p.logger.Debug("event",
		zap.String("topic", topic),
		zap.String("type", event.Type),
		zap.String("subject", event.Subject),
		zap.String("id", event.ID),
	)
	return nil
}

func (p *LogPublisher) Close() error { return nil }
