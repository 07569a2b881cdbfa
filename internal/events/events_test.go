package events

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/alextreichler/tienda/internal/models"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
	// hang waits for the context like an unreachable broker.
	hang bool
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w.hang {
		<-ctx.Done()
		return ctx.Err()
	}
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func sampleOrder() *models.Order {
	return &models.Order{
		ID:     12,
		UserID: 3,
		Status: models.StatusPending,
		Lines: []models.OrderLine{
			{ProductID: 1, UnitPrice: decimal.RequireFromString("10.50"), Quantity: 2},
			{ProductID: 2, UnitPrice: decimal.RequireFromString("4.00"), Quantity: 1},
		},
	}
}

func TestNewOrderEvent(t *testing.T) {
	ev := NewOrderEvent(OrderPlaced, sampleOrder())

	assert.Equal(t, "order-placed-12", ev.Key())
	assert.True(t, decimal.RequireFromString("25.00").Equal(ev.Total))
	require.Len(t, ev.Lines, 2)
	assert.True(t, decimal.RequireFromString("21.00").Equal(ev.Lines[0].Subtotal))
	assert.False(t, ev.OccurredAt.IsZero())

	assert.Equal(t, "order-status_changed-12", NewOrderEvent(OrderStatusChanged, sampleOrder()).Key())
}

func TestKafkaPublisherWritesJSON(t *testing.T) {
	w := &fakeWriter{}
	p := &KafkaPublisher{writer: w}

	require.NoError(t, p.Publish(context.Background(), NewOrderEvent(OrderPlaced, sampleOrder())))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "order-placed-12", string(w.msgs[0].Key))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &body))
	assert.Equal(t, "order.placed", body["kind"])
	assert.Equal(t, float64(12), body["order_id"])
	assert.Equal(t, "pendiente", body["status"])
	assert.Equal(t, "25", body["total"])
	assert.Len(t, body["lines"], 2)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestKafkaPublisherWrapsWriteErrors(t *testing.T) {
	boom := errors.New("broker down")
	p := &KafkaPublisher{writer: &fakeWriter{err: boom}}

	err := p.Publish(context.Background(), NewOrderEvent(OrderPlaced, sampleOrder()))
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "order 12")
}

func TestKafkaPublisherGivesUpAfterTimeout(t *testing.T) {
	p := &KafkaPublisher{writer: &fakeWriter{hang: true}, timeout: 20 * time.Millisecond}

	start := time.Now()
	err := p.Publish(context.Background(), NewOrderEvent(OrderPlaced, sampleOrder()))
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func TestNewKafkaPublisherDoesNotWaitForBatches(t *testing.T) {
	p := NewKafkaPublisher([]string{"localhost:9092"}, "tienda.orders")
	defer p.Close()

	w, ok := p.writer.(*kafka.Writer)
	require.True(t, ok)
	assert.Equal(t, "tienda.orders", w.Topic)
	assert.Equal(t, 1, w.BatchSize)
	assert.Equal(t, 10*time.Millisecond, w.BatchTimeout)
	assert.Equal(t, 3, w.MaxAttempts)
	assert.Equal(t, DefaultPublishTimeout, p.timeout)
}

func TestLogPublisher(t *testing.T) {
	var buf bytes.Buffer
	p := LogPublisher{Logger: slog.New(slog.NewTextHandler(&buf, nil))}

	require.NoError(t, p.Publish(context.Background(), NewOrderEvent(OrderStatusChanged, sampleOrder())))
	assert.Contains(t, buf.String(), "kind=order.status_changed")
	assert.Contains(t, buf.String(), "total=25.00")
}
