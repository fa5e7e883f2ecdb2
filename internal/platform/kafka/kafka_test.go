//go:build integration

package kafka

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/innhub/service-reservation/internal/platform/cloudevent"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	kafkamodule "github.com/testcontainers/testcontainers-go/modules/kafka"
	"go.uber.org/zap/zaptest"
)

func startKafka(t *testing.T, topics ...string) []string {
	t.Helper()
	ctx := context.Background()

	container, err := kafkamodule.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err, "failed to start Kafka container")
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate Kafka container: %v", err)
		}
	})

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)

	conn, err := kafkago.Dial("tcp", brokers[0])
	require.NoError(t, err)
	defer conn.Close()
	controller, err := conn.Controller()
	require.NoError(t, err)
	controllerConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, fmt.Sprintf("%d", controller.Port)))
	require.NoError(t, err)
	defer controllerConn.Close()

	configs := make([]kafkago.TopicConfig, len(topics))
	for i, topic := range topics {
		configs[i] = kafkago.TopicConfig{Topic: topic, NumPartitions: 1, ReplicationFactor: 1}
	}
	require.NoError(t, controllerConn.CreateTopics(configs...))
	time.Sleep(1 * time.Second)
	return brokers
}

func TestProducerConsumer_RoundTripWithRetry(t *testing.T) {
	const topic = "hotel.booking.events"
	brokers := startKafka(t, topic)
	logger := zaptest.NewLogger(t)

	producer := NewProducer(brokers, logger)
	defer func() { _ = producer.Close() }()

	subject := uuid.NewString()
	evt, err := cloudevent.New("service-reservation", "booking.created", subject, map[string]string{"bookingNumber": "BK-1"})
	require.NoError(t, err)
	require.NoError(t, producer.PublishEvent(context.Background(), topic, evt))

	consumer := NewConsumer(brokers, "test-"+uuid.NewString()[:8], topic, logger)
	defer func() { _ = consumer.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var calls int32
	received := make(chan kafkago.Message, 1)
	go func() {
		_ = consumer.Consume(ctx, func(_ context.Context, msg kafkago.Message) error {
			if atomic.AddInt32(&calls, 1) == 1 {
				return errors.New("transient")
			}
			received <- msg
			return nil
		})
	}()

	var msg kafkago.Message
	select {
	case msg = <-received:
	case <-ctx.Done():
		t.Fatal("timed out waiting for the published event")
	}
	cancel()

	assert.Equal(t, int32(2), atomic.LoadInt32(&calls), "a failing handler is retried")
	assert.Equal(t, subject, string(msg.Key))

	parsed, err := cloudevent.Parse(msg.Value)
	require.NoError(t, err)
	assert.Equal(t, evt.ID, parsed.ID)
	assert.Equal(t, "booking.created", parsed.Type)

	var data map[string]string
	require.NoError(t, parsed.ParseData(&data))
	assert.Equal(t, "BK-1", data["bookingNumber"])
}
