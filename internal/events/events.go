// Package events publishes order lifecycle events after they are committed.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/alextreichler/tienda/internal/models"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
)

type Kind string

const (
	OrderPlaced        Kind = "order.placed"
	OrderStatusChanged Kind = "order.status_changed"
)

type OrderEvent struct {
	Kind       Kind               `json:"kind"`
	OrderID    int64              `json:"order_id"`
	UserID     int64              `json:"user_id"`
	Status     models.OrderStatus `json:"status"`
	Total      decimal.Decimal    `json:"total"`
	Lines      []LineEvent        `json:"lines"`
	OccurredAt time.Time          `json:"occurred_at"`
}

type LineEvent struct {
	ProductID int64           `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

func NewOrderEvent(kind Kind, o *models.Order) OrderEvent {
	ev := OrderEvent{
		Kind:       kind,
		OrderID:    o.ID,
		UserID:     o.UserID,
		Status:     o.Status,
		Total:      o.Total(),
		Lines:      make([]LineEvent, 0, len(o.Lines)),
		OccurredAt: time.Now().UTC(),
	}
	for _, l := range o.Lines {
		ev.Lines = append(ev.Lines, LineEvent{ProductID: l.ProductID, Quantity: l.Quantity, Subtotal: l.Subtotal()})
	}
	return ev
}

// Key partitions events by order: order-placed-1, order-status_changed-1.
func (e OrderEvent) Key() string {
	return fmt.Sprintf("order-%s-%d", strings.TrimPrefix(string(e.Kind), "order."), e.OrderID)
}

type Publisher interface {
	Publish(ctx context.Context, ev OrderEvent) error
	Close() error
}

// DefaultPublishTimeout bounds one Publish call, retries included.
const DefaultPublishTimeout = 3 * time.Second

// KafkaPublisher writes events as JSON to a single topic.
type KafkaPublisher struct {
	writer  messageWriter
	timeout time.Duration
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// NewKafkaPublisher flushes every message right away instead of waiting for
// a batch to fill, and gives up after a few attempts.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.LeastBytes{},
			AllowAutoTopicCreation: true,
			BatchSize:              1,
			BatchTimeout:           10 * time.Millisecond,
			MaxAttempts:            3,
			WriteBackoffMax:        250 * time.Millisecond,
			WriteTimeout:           2 * time.Second,
			RequiredAcks:           kafka.RequireOne,
		},
		timeout: DefaultPublishTimeout,
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, ev OrderEvent) error {
	msg, err := toMessage(ev)
	if err != nil {
		return err
	}
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish %s for order %d: %w", ev.Kind, ev.OrderID, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

func toMessage(ev OrderEvent) (kafka.Message, error) {
	value, err := json.Marshal(ev)
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{
		Key:   []byte(ev.Key()),
		Value: value,
		Headers: []kafka.Header{
			{Key: "kind", Value: []byte(ev.Kind)},
		},
	}, nil
}

// LogPublisher only logs events; it is used when no brokers are configured.
type LogPublisher struct {
	Logger *slog.Logger
}

func (p LogPublisher) Publish(ctx context.Context, ev OrderEvent) error {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "Order event",
		"kind", ev.Kind,
		"key", ev.Key(),
		"order_id", ev.OrderID,
		"status", ev.Status,
		"total", ev.Total.StringFixed(2),
		"lines", len(ev.Lines),
	)
	return nil
}

func (LogPublisher) Close() error { return nil }
