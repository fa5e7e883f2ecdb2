package application

import (
	"context"

	"github.com/google/uuid"
	"github.com/innhub/service-reservation/internal/platform/auth"
	"github.com/innhub/service-reservation/internal/platform/cloudevent"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

const eventSource = "service-reservation"

var tracer = otel.Tracer("github.com/innhub/service-reservation/internal/application")

// EventPublisher delivers CloudEvents to a topic. Kafka, AMQP and the log-only
// publisher all satisfy it.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic string, event cloudevent.Event) error
}

// Actor is the authenticated caller of a use case.
type Actor struct {
	UserID uuid.UUID
	Role   auth.Role
}

// IsStaff reports whether the actor may manage any booking.
func (a Actor) IsStaff() bool {
	return a.Role == auth.RoleAdmin || a.Role == auth.RoleStaff
}

// emitter publishes events on a best-effort basis. Publishing happens after
// commit, so a broker outage never rolls back a booking.
type emitter struct {
	publisher EventPublisher
	logger    *zap.Logger
}

func (e emitter) publish(ctx context.Context, topic, eventType, subject string, data any) {
	if e.publisher == nil {
		return
	}
	evt, err := cloudevent.New(eventSource, eventType, subject, data)
	if err != nil {
		e.logger.Error("failed to create cloud event",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return
	}

	if err := e.publisher.PublishEvent(ctx, topic, evt); err != nil {
		e.logger.Error("failed to publish event",
			zap.String("topic", topic),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}
