package models

import (
	"time"

	"github.com/google/uuid"
)

// EventType names an order lifecycle event.
type EventType string

const (
	EventOrderCreated       EventType = "order.created"
	EventOrderStatusUpdated EventType = "order.status_updated"
	EventOrderDeleted       EventType = "order.deleted"
)

// OrderEvent is published to the message broker after a successful mutation.
type OrderEvent struct {
	EventID      string    `json:"eventId"`
	Type         EventType `json:"type"`
	OrderID      uint64    `json:"orderId"`
	CustomerName string    `json:"customerName,omitempty"`
	Status       Status    `json:"status,omitempty"`
	Total        float64   `json:"total,omitempty"`
	OccurredAt   time.Time `json:"occurredAt"`
}

// NewOrderEvent builds an event describing order with a fresh event id.
func NewOrderEvent(t EventType, order Order) OrderEvent {
	return OrderEvent{
		EventID:      uuid.NewString(),
		Type:         t,
		OrderID:      order.ID,
		CustomerName: order.CustomerName,
		Status:       order.Status,
		Total:        order.Total,
		OccurredAt:   time.Now().UTC(),
	}
}
