package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/innhub/service-reservation/internal/application"
	"github.com/innhub/service-reservation/internal/contract/events"
	"github.com/innhub/service-reservation/internal/platform/cloudevent"
	"github.com/innhub/service-reservation/internal/platform/domain"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type paidCall struct {
	bookingID     uuid.UUID
	method, txnID string
}

type fakeRecorder struct {
	calls []paidCall
	err   error
}

func (f *fakeRecorder) MarkPaid(_ context.Context, bookingID uuid.UUID, method, transactionID string) (*application.BookingDTO, error) {
	f.calls = append(f.calls, paidCall{bookingID, method, transactionID})
	if f.err != nil {
		return nil, f.err
	}
	return &application.BookingDTO{ID: bookingID, PaymentStatus: "paid"}, nil
}

func message(t *testing.T, eventType string, data any) kafkago.Message {
	t.Helper()
	evt, err := cloudevent.New("service-payment", eventType, "", data)
	require.NoError(t, err)
	body, err := json.Marshal(evt)
	require.NoError(t, err)
	return kafkago.Message{Value: body}
}

func TestHandleMessage(t *testing.T) {
	bookingID := uuid.New()
	captured := events.PaymentCapturedEvent{BookingID: bookingID, PaymentMethod: "card", TransactionID: "txn_9"}

	tests := []struct {
		name      string
		msg       func(t *testing.T) kafkago.Message
		serviceEr error
		wantErr   bool
		wantCalls int
	}{
		{"captured", func(t *testing.T) kafkago.Message { return message(t, events.PaymentCaptured, captured) }, nil, false, 1},
		{"other type ignored", func(t *testing.T) kafkago.Message { return message(t, "payment.refunded", captured) }, nil, false, 0},
		{"malformed envelope", func(*testing.T) kafkago.Message { return kafkago.Message{Value: []byte("{")} }, nil, false, 0},
		{"business rejection not retried", func(t *testing.T) kafkago.Message { return message(t, events.PaymentCaptured, captured) },
			domain.NewInvalidStateError("refunded", "paid"), false, 1},
		{"infrastructure failure retried", func(t *testing.T) kafkago.Message { return message(t, events.PaymentCaptured, captured) },
			errors.New("connection reset"), true, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := &fakeRecorder{err: tt.serviceEr}
			c := &PaymentEventConsumer{service: recorder, logger: zaptest.NewLogger(t)}

			err := c.handleMessage(context.Background(), tt.msg(t))
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			require.Len(t, recorder.calls, tt.wantCalls)
			if tt.wantCalls > 0 {
				assert.Equal(t, paidCall{bookingID, "card", "txn_9"}, recorder.calls[0])
			}
		})
	}
}
