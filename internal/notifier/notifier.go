// Package notifier dispatches order lifecycle events to the notification
// queue. Delivery is best-effort: the orchestrator never observes the
// outcome, and a failed publish must never fail the order operation it
// belongs to.
package notifier

import (
	"encoding/json"
	"fmt"
	"time"

	"ordersvc/internal/models"
	"ordersvc/pkg/rabbitmq"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderEventItem is the per-line summary carried in an order event.
type OrderEventItem struct {
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
}

// OrderEvent is the payload consumed by the notification service. EventID
// lets consumers deduplicate redeliveries.
type OrderEvent struct {
	EventID     string           `json:"event_id"`
	UserID      uint             `json:"user_id"`
	OrderID     uint             `json:"order_id"`
	Status      string           `json:"status"`
	TotalAmount decimal.Decimal  `json:"total_amount"`
	Items       []OrderEventItem `json:"items"`
	EmittedAt   time.Time        `json:"emitted_at"`
}

// NewOrderEvent builds the event payload for an order's current state.
func NewOrderEvent(order *models.Order) OrderEvent {
	items := make([]OrderEventItem, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, OrderEventItem{
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			Price:       item.Price,
		})
	}
	return OrderEvent{
		EventID:     uuid.New().String(),
		UserID:      order.UserID,
		OrderID:     order.ID,
		Status:      string(order.Status),
		TotalAmount: order.TotalAmount,
		Items:       items,
		EmittedAt:   time.Now().UTC(),
	}
}

// Notifier delivers order events.
type Notifier interface {
	NotifyOrderEvent(event OrderEvent) error
}

// RabbitMQNotifier publishes order events to the RabbitMQ order-events
// queue.
type RabbitMQNotifier struct {
	client *rabbitmq.Client
}

// NewRabbitMQNotifier creates a notifier backed by the given client.
func NewRabbitMQNotifier(client *rabbitmq.Client) *RabbitMQNotifier {
	return &RabbitMQNotifier{client: client}
}

// NotifyOrderEvent marshals and publishes the event.
func (n *RabbitMQNotifier) NotifyOrderEvent(event OrderEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal order event: %w", err)
	}
	return n.client.Publish(body)
}
