package domain

import (
	"encoding/json"
	"time"
)

const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status.changed"
)

// OrderEvent is the payload written to the outbox and published to Kafka.
type OrderEvent struct {
	ID             string          `json:"id" bson:"_id"`
	Type           string          `json:"type" bson:"type"`
	OrderID        int64           `json:"order_id" bson:"order_id"`
	PreviousStatus OrderStatus     `json:"previous_status,omitempty" bson:"previous_status,omitempty"`
	CurrentStatus  OrderStatus     `json:"current_status" bson:"current_status"`
	ActorID        string          `json:"actor_id,omitempty" bson:"actor_id,omitempty"`
	OccurredAt     time.Time       `json:"occurred_at" bson:"occurred_at"`
	Data           json.RawMessage `json:"data,omitempty" bson:"-"`
}
