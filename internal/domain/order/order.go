// Package order contains the order aggregate, the pricing calculator, and
// the placement service that orchestrates them.
package order

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/mokcj0825/mall-order-api/internal/domain/money"
)

// Sentinel errors for order validation.
var (
	ErrNotFound             = errors.New("order not found")
	ErrNoItems              = errors.New("order must contain at least one item")
	ErrDiscountExceedsTotal = errors.New("discount cannot exceed order total")
)

// InvalidQuantityError indicates a line item has a non-positive quantity.
type InvalidQuantityError struct {
	ProductID string
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be greater than 0 for product %s", e.ProductID)
}

// AmountMismatchError indicates the supplied final amount does not equal
// total − discount + shipping on the rounded representation.
type AmountMismatchError struct {
	Want money.Money
	Got  money.Money
}

func (e *AmountMismatchError) Error() string {
	return fmt.Sprintf("final amount mismatch: expected %s, got %s", e.Want, e.Got)
}

// Status is the order lifecycle state. Orders are created PENDING; the
// transitions to PAID, CANCELLED and COMPLETED belong to payment callback
// and fulfilment flows outside this service.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusPaid      Status = "PAID"
	StatusCancelled Status = "CANCELLED"
	StatusCompleted Status = "COMPLETED"
)

// Item is one purchased line, created from reserved stock and immutable
// thereafter.
type Item struct {
	ProductID    string
	SKUID        string
	Quantity     int
	Price        money.Money
	ProductName  string
	ProductImage string
}

// NewItem builds a validated order line.
func NewItem(productID, skuID string, quantity int, price money.Money, name, image string) (Item, error) {
	if quantity <= 0 {
		return Item{}, &InvalidQuantityError{ProductID: productID}
	}
	return Item{
		ProductID:    productID,
		SKUID:        skuID,
		Quantity:     quantity,
		Price:        price,
		ProductName:  name,
		ProductImage: image,
	}, nil
}

// Subtotal is unit price times quantity.
func (it Item) Subtotal() (money.Money, error) {
	return it.Price.MulInt(it.Quantity)
}

// Breakdown is the four-amount decomposition of an order's cost.
type Breakdown struct {
	Total       money.Money
	Discount    money.Money
	ShippingFee money.Money
	Final       money.Money
}

// Order is the aggregate root. It owns its item list and amounts; after
// construction the only permitted mutation is AttachPayment.
type Order struct {
	ID                string
	Number            string
	UserID            string
	Items             []Item
	Total             money.Money
	Discount          money.Money
	ShippingFee       money.Money
	Final             money.Money
	Status            Status
	ShippingAddressID string
	CouponCode        string
	Remark            string
	PaymentID         string
	CreatedAt         time.Time
}

// CreateParams is the validated input for Factory.Create.
type CreateParams struct {
	UserID            string
	Items             []Item
	Breakdown         Breakdown
	ShippingAddressID string
	CouponCode        string
	Remark            string
}

// Factory builds orders. The clock, the ID source and the random suffix are
// injected so construction is deterministic under test.
type Factory struct {
	newID      func() string
	now        func() time.Time
	randSuffix func() int
}

// NewFactory returns a Factory with production defaults: UUIDv7 identifiers
// (time-ordered, so listings sort by creation), the wall clock, and a random
// order number suffix.
func NewFactory() *Factory {
	return &Factory{
		newID:      func() string { return uuid.Must(uuid.NewV7()).String() },
		now:        time.Now,
		randSuffix: func() int { return rand.IntN(10000) },
	}
}

// Create builds and validates an order in one step and returns it together
// with the pending OrderCreated event. Validation failure leaves nothing
// observable: no order, no event.
func (f *Factory) Create(p CreateParams) (*Order, []Event, error) {
	now := f.now()
	o := &Order{
		ID:                f.newID(),
		Number:            f.orderNumber(now),
		UserID:            p.UserID,
		Items:             p.Items,
		Total:             p.Breakdown.Total,
		Discount:          p.Breakdown.Discount,
		ShippingFee:       p.Breakdown.ShippingFee,
		Final:             p.Breakdown.Final,
		Status:            StatusPending,
		ShippingAddressID: p.ShippingAddressID,
		CouponCode:        p.CouponCode,
		Remark:            p.Remark,
		CreatedAt:         now,
	}

	if err := o.validate(); err != nil {
		return nil, nil, err
	}

	eventItems := make([]EventItem, len(o.Items))
	for i, it := range o.Items {
		eventItems[i] = EventItem{
			ProductID: it.ProductID,
			SKUID:     it.SKUID,
			Quantity:  it.Quantity,
		}
	}

	created := CreatedEvent{
		OrderID: o.ID,
		UserID:  o.UserID,
		Number:  o.Number,
		Total:   o.Total,
		Items:   eventItems,
	}
	return o, []Event{created}, nil
}

// orderNumber renders the human-facing number: ORD + unix millis + a
// zero-padded 4-digit random suffix. Collisions within the same millisecond
// are possible and tolerated; the UUID remains the unique key.
func (f *Factory) orderNumber(now time.Time) string {
	return fmt.Sprintf("ORD%d%04d", now.UnixMilli(), f.randSuffix())
}

// validate enforces the aggregate invariants. The first violated rule is
// reported. Negative amounts cannot occur here: money.Money already rejects
// them at construction.
func (o *Order) validate() error {
	if len(o.Items) == 0 {
		return ErrNoItems
	}

	if o.Discount.GreaterThan(o.Total) {
		return ErrDiscountExceedsTotal
	}

	afterDiscount, err := o.Total.Sub(o.Discount)
	if err != nil {
		return err
	}
	want, err := afterDiscount.Add(o.ShippingFee)
	if err != nil {
		return err
	}

	if !o.Final.Equal(want) {
		return &AmountMismatchError{Want: want, Got: o.Final}
	}
	return nil
}

// AttachPayment records the payment identifier and returns the pending
// PaymentInitiated event. The status intentionally stays PENDING: moving to
// PAID is the job of the payment confirmation callback, which this service
// does not handle.
func (o *Order) AttachPayment(paymentID, method string) Event {
	o.PaymentID = paymentID
	return PaymentInitiatedEvent{
		OrderID:   o.ID,
		PaymentID: paymentID,
		Amount:    o.Final,
		Method:    method,
	}
}
