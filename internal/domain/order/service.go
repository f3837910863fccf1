package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/mokcj0825/mall-order-api/internal/domain/coupon"
	"github.com/mokcj0825/mall-order-api/internal/domain/money"
	"github.com/mokcj0825/mall-order-api/internal/domain/payment"
	"github.com/mokcj0825/mall-order-api/internal/domain/product"
	"github.com/mokcj0825/mall-order-api/internal/domain/user"
)

const estimatedDeliveryAfter = 48 * time.Hour

// Repository defines persistence operations for orders.
type Repository interface {
	// Create persists the order, its items, the stock decrement and the
	// coupon consumption in one transaction. couponID is empty when no
	// coupon was applied.
	Create(ctx context.Context, o *Order, couponID string) error
	AttachPayment(ctx context.Context, orderID, paymentID string) error
	GetByID(ctx context.Context, id string) (*Order, error)
}

// PlaceOrderRequest is the input for placing an order.
type PlaceOrderRequest struct {
	UserID            string
	Items             []product.Line
	ShippingAddressID string
	CouponCode        string
	PaymentMethod     string
	Remark            string
}

// PlaceOrderResult is the output of a successfully placed order.
type PlaceOrderResult struct {
	Order             *Order
	Payment           *payment.Intent
	EstimatedDelivery time.Time
}

// Service orchestrates order placement: user check, stock reservation,
// coupon resolution, pricing, aggregate construction, persistence, payment
// initiation and event publication.
type Service struct {
	users    user.Repository
	stock    product.Reserver
	coupons  coupon.Resolver
	calc     *Calculator
	factory  *Factory
	orders   Repository
	payments payment.Gateway
	events   Sink
	lg       *zap.Logger

	now func() time.Time
}

// NewService creates an order placement Service.
func NewService(
	users user.Repository,
	stock product.Reserver,
	coupons coupon.Resolver,
	calc *Calculator,
	factory *Factory,
	orders Repository,
	payments payment.Gateway,
	events Sink,
	lg *zap.Logger,
) *Service {
	return &Service{
		users:    users,
		stock:    stock,
		coupons:  coupons,
		calc:     calc,
		factory:  factory,
		orders:   orders,
		payments: payments,
		events:   events,
		lg:       lg,
		now:      time.Now,
	}
}

// PlaceOrder runs the full placement flow. Failures before the order is
// persisted release the stock reservation and unlock the coupon; after
// persistence the order row stays PENDING and only the error propagates.
// Events are published only once the order is safely stored.
func (s *Service) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*PlaceOrderResult, error) {
	if len(req.Items) == 0 {
		return nil, ErrNoItems
	}
	for _, ln := range req.Items {
		if ln.Quantity <= 0 {
			return nil, &InvalidQuantityError{ProductID: ln.ProductID}
		}
	}

	u, err := s.users.GetByID(ctx, req.UserID)
	if err != nil {
		return nil, errors.Wrap(err, "get user")
	}
	if u.Status != user.StatusEnabled {
		return nil, user.ErrDisabled
	}

	products, err := s.stock.Reserve(ctx, req.Items)
	if err != nil {
		return nil, errors.Wrap(err, "reserve stock")
	}

	var cpn *coupon.Coupon
	if req.CouponCode != "" {
		cpn, err = s.coupons.Resolve(ctx, req.CouponCode, req.UserID)
		if err != nil {
			s.releaseStock(ctx, req.Items)
			return nil, errors.Wrap(err, "resolve coupon")
		}
	}

	breakdown, err := s.calc.Calculate(ctx, products, req.Items, u.Tier, cpn, req.ShippingAddressID)
	if err != nil {
		s.compensate(ctx, req.Items, cpn)
		return nil, err
	}

	items, err := buildItems(products, req.Items)
	if err != nil {
		s.compensate(ctx, req.Items, cpn)
		return nil, err
	}

	o, events, err := s.factory.Create(CreateParams{
		UserID:            req.UserID,
		Items:             items,
		Breakdown:         breakdown,
		ShippingAddressID: req.ShippingAddressID,
		CouponCode:        req.CouponCode,
		Remark:            req.Remark,
	})
	if err != nil {
		s.compensate(ctx, req.Items, cpn)
		return nil, err
	}

	couponID := ""
	if cpn != nil {
		couponID = cpn.ID
	}
	if err := s.orders.Create(ctx, o, couponID); err != nil {
		s.compensate(ctx, req.Items, cpn)
		return nil, errors.Wrap(err, "persist order")
	}

	intent, err := s.payments.Initiate(ctx, payment.Request{
		OrderID: o.ID,
		Amount:  o.Final,
		Method:  req.PaymentMethod,
		UserID:  req.UserID,
	})
	if err != nil {
		// The order is already persisted; it stays PENDING without a
		// payment and the customer can retry from their order list.
		return nil, errors.Wrap(err, "initiate payment")
	}

	events = append(events, o.AttachPayment(intent.PaymentID, req.PaymentMethod))

	if err := s.orders.AttachPayment(ctx, o.ID, intent.PaymentID); err != nil {
		return nil, errors.Wrap(err, "attach payment")
	}

	s.events.Publish(ctx, events...)

	s.lg.Info("order placed",
		zap.String("order_id", o.ID),
		zap.String("order_number", o.Number),
		zap.String("user_id", o.UserID),
		zap.String("final_amount", o.Final.String()),
	)

	return &PlaceOrderResult{
		Order:             o,
		Payment:           intent,
		EstimatedDelivery: s.now().Add(estimatedDeliveryAfter),
	}, nil
}

// GetOrder loads a persisted order.
func (s *Service) GetOrder(ctx context.Context, id string) (*Order, error) {
	return s.orders.GetByID(ctx, id)
}

// buildItems snapshots the reserved product data into order lines.
func buildItems(products []product.Product, lines []product.Line) ([]Item, error) {
	byID := make(map[string]product.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	items := make([]Item, 0, len(lines))
	for _, ln := range lines {
		p, ok := byID[ln.ProductID]
		if !ok {
			return nil, errors.Wrapf(product.ErrNotFound, "product %s", ln.ProductID)
		}
		price, err := money.From(p.Price)
		if err != nil {
			return nil, errors.Wrapf(err, "price of product %s", ln.ProductID)
		}
		item, err := NewItem(ln.ProductID, ln.SKUID, ln.Quantity, price, p.Name, p.Image)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// compensate rolls back the side effects acquired so far. Compensation
// failures are logged, not returned: the original error matters more.
func (s *Service) compensate(ctx context.Context, lines []product.Line, cpn *coupon.Coupon) {
	s.releaseStock(ctx, lines)
	if cpn != nil {
		if err := s.coupons.Unlock(ctx, cpn.ID); err != nil {
			s.lg.Warn("failed to unlock coupon",
				zap.String("coupon_id", cpn.ID), zap.Error(err))
		}
	}
}

func (s *Service) releaseStock(ctx context.Context, lines []product.Line) {
	if err := s.stock.Release(ctx, lines); err != nil {
		s.lg.Warn("failed to release stock reservation", zap.Error(err))
	}
}
