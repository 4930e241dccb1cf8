package domain

import "time"

// OrderCreatedEvent is published on order.created once an order has been
// recorded. Consumers use EventID for deduplication.
type OrderCreatedEvent struct {
	EventID   string    `json:"eventId"`
	OrderID   string    `json:"orderId"`
	ItemID    string    `json:"itemId"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"createdAt"`
}
