package order

import (
	"context"

	"github.com/mokcj0825/mall-order-api/internal/domain/money"
)

// Event is a domain notification produced by the aggregate. The factory and
// AttachPayment return pending events instead of queueing them internally;
// the placement service dispatches them after the order is safely persisted.
type Event interface {
	EventName() string
}

// EventItem is the item projection carried by CreatedEvent.
type EventItem struct {
	ProductID string
	SKUID     string
	Quantity  int
}

// CreatedEvent is published once an order has been constructed and persisted.
type CreatedEvent struct {
	OrderID string
	UserID  string
	Number  string
	Total   money.Money
	Items   []EventItem
}

func (CreatedEvent) EventName() string { return "order.created" }

// PaymentInitiatedEvent is published once a payment has been started for an
// order.
type PaymentInitiatedEvent struct {
	OrderID   string
	PaymentID string
	Amount    money.Money
	Method    string
}

func (PaymentInitiatedEvent) EventName() string { return "order.payment_initiated" }

// Sink receives domain events. Delivery is fire-and-forget from the caller's
// perspective; implementations handle their own failures.
type Sink interface {
	Publish(ctx context.Context, events ...Event)
}
