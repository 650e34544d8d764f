package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/washwala/laundry-api/logging"
	"github.com/washwala/laundry-api/models"
)

// EventType names a lifecycle event
type EventType string

const (
	EventOrderPlaced        EventType = "ORDER_PLACED"
	EventOrderStatusChanged EventType = "ORDER_STATUS_CHANGED"
	EventOrderCancelled     EventType = "ORDER_CANCELLED"
	EventReviewCreated      EventType = "REVIEW_CREATED"
	EventReviewReplied      EventType = "REVIEW_REPLIED"
)

// Event is a committed lifecycle change handed to notification sinks
type Event struct {
	ID          string             `json:"id"`
	Type        EventType          `json:"type"`
	OrderID     uint               `json:"order_id"`
	OrderNumber string             `json:"order_number"`
	CustomerID  uint               `json:"customer_id"`
	LaundryID   uint               `json:"laundry_id"`
	ActorID     uint               `json:"actor_id"`
	FromStatus  models.OrderStatus `json:"from_status,omitempty"`
	ToStatus    models.OrderStatus `json:"to_status,omitempty"`
	ReviewID    uint               `json:"review_id,omitempty"`
	Title       string             `json:"title"`
	Message     string             `json:"message"`
	OccurredAt  time.Time          `json:"occurred_at"`
}

// Notifier delivers lifecycle events. Implementations must not assume the
// caller will retry.
type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

// MultiNotifier fans an event out to every sink and joins their errors
type MultiNotifier []Notifier

func NewMultiNotifier(notifiers ...Notifier) MultiNotifier {
	filtered := make(MultiNotifier, 0, len(notifiers))
	for _, n := range notifiers {
		if n != nil {
			filtered = append(filtered, n)
		}
	}
	return filtered
}

func (m MultiNotifier) Notify(ctx context.Context, event Event) error {
	var notifyErr error
	for _, n := range m {
		notifyErr = errors.Join(notifyErr, n.Notify(ctx, event))
	}
	return notifyErr
}

// LogNotifier writes events to the structured log
type LogNotifier struct {
	log *slog.Logger
}

func NewLogNotifier(log *slog.Logger) *LogNotifier {
	return &LogNotifier{log: logging.OrDiscard(log)}
}

func (n *LogNotifier) Notify(ctx context.Context, event Event) error {
	logging.FromContext(ctx, n.log).Info("lifecycle event",
		"event_id", event.ID,
		"event_type", event.Type,
		"order_id", event.OrderID,
		"order_number", event.OrderNumber,
		"from_status", event.FromStatus,
		"to_status", event.ToStatus,
	)
	return nil
}

// dispatcher stamps events and hands them to a Notifier after commit.
// Delivery failures are logged and never reach the caller.
type dispatcher struct {
	notifier Notifier
	log      *slog.Logger
	now      func() time.Time
}

func (d dispatcher) dispatch(ctx context.Context, events ...Event) {
	if d.notifier == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	for _, event := range events {
		event.ID = uuid.NewString()
		event.OccurredAt = d.now().UTC()
		if err := d.notifier.Notify(ctx, event); err != nil {
			logging.FromContext(ctx, d.log).Error("failed to deliver notification",
				"event_type", event.Type, "order_id", event.OrderID, "error", err)
		}
	}
}

func orderEvent(eventType EventType, order *models.Order, actorID uint) Event {
	return Event{
		Type:        eventType,
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		CustomerID:  order.CustomerID,
		LaundryID:   order.LaundryID,
		ActorID:     actorID,
	}
}
