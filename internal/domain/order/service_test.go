package order

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mokcj0825/mall-order-api/internal/domain/coupon"
	"github.com/mokcj0825/mall-order-api/internal/domain/payment"
	"github.com/mokcj0825/mall-order-api/internal/domain/product"
	"github.com/mokcj0825/mall-order-api/internal/domain/user"
)

// --- Mock collaborators ---

type mockUserRepo struct {
	user *user.User
	err  error
}

func (m *mockUserRepo) GetByID(_ context.Context, _ string) (*user.User, error) {
	return m.user, m.err
}

type mockReserver struct {
	products      []product.Product
	reserveErr    error
	reserved      []product.Line
	released      []product.Line
	releaseCalled int
}

func (m *mockReserver) Reserve(_ context.Context, lines []product.Line) ([]product.Product, error) {
	if m.reserveErr != nil {
		return nil, m.reserveErr
	}
	m.reserved = lines
	return m.products, nil
}

func (m *mockReserver) Release(_ context.Context, lines []product.Line) error {
	m.releaseCalled++
	m.released = lines
	return nil
}

type mockResolver struct {
	coupon     *coupon.Coupon
	err        error
	unlockedID string
}

func (m *mockResolver) Resolve(_ context.Context, _, _ string) (*coupon.Coupon, error) {
	return m.coupon, m.err
}

func (m *mockResolver) Unlock(_ context.Context, id string) error {
	m.unlockedID = id
	return nil
}

type mockOrderRepo struct {
	created      *Order
	couponID     string
	createErr    error
	attachedID   string
	attachedPay  string
	attachErr    error
	getResult    *Order
	getErr       error
}

func (m *mockOrderRepo) Create(_ context.Context, o *Order, couponID string) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.created = o
	m.couponID = couponID
	return nil
}

func (m *mockOrderRepo) AttachPayment(_ context.Context, orderID, paymentID string) error {
	m.attachedID = orderID
	m.attachedPay = paymentID
	return m.attachErr
}

func (m *mockOrderRepo) GetByID(_ context.Context, _ string) (*Order, error) {
	return m.getResult, m.getErr
}

type mockGateway struct {
	intent *payment.Intent
	err    error
	last   payment.Request
}

func (m *mockGateway) Initiate(_ context.Context, req payment.Request) (*payment.Intent, error) {
	m.last = req
	return m.intent, m.err
}

type mockSink struct {
	published []Event
}

func (m *mockSink) Publish(_ context.Context, events ...Event) {
	m.published = append(m.published, events...)
}

// --- Fixture ---

type fixture struct {
	users   *mockUserRepo
	stock   *mockReserver
	coupons *mockResolver
	orders  *mockOrderRepo
	gateway *mockGateway
	sink    *mockSink
	svc     *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		users: &mockUserRepo{user: &user.User{
			ID:       "u1",
			Username: "tester",
			Status:   user.StatusEnabled,
			Tier:     user.TierVIP,
		}},
		stock: &mockReserver{products: []product.Product{
			{ID: "p1", Name: "Mechanical Keyboard", Price: decimal.NewFromInt(100), Image: "kb.jpg", Stock: 97},
		}},
		coupons: &mockResolver{},
		orders:  &mockOrderRepo{},
		gateway: &mockGateway{intent: &payment.Intent{
			PaymentID:  "pay-1",
			QRCodeURL:  "weixin://wxpay/bizpayurl?pr=mockorder-1",
			ExpireTime: time.Date(2025, 6, 15, 12, 30, 0, 0, time.UTC),
		}},
		sink: &mockSink{},
	}

	factory := NewFactory()
	factory.newID = func() string { return "order-1" }
	factory.now = func() time.Time { return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC) }
	factory.randSuffix = func() int { return 7 }

	f.svc = NewService(
		f.users, f.stock, f.coupons,
		NewCalculator(&mockQuoter{}),
		factory,
		f.orders, f.gateway, f.sink,
		zap.NewNop(),
	)
	return f
}

func placeRequest() PlaceOrderRequest {
	return PlaceOrderRequest{
		UserID:            "u1",
		Items:             []product.Line{{ProductID: "p1", SKUID: "sku1", Quantity: 3}},
		ShippingAddressID: "addr-1",
		PaymentMethod:     payment.MethodWechatPay,
	}
}

// --- Tests ---

func TestService_PlaceOrder(t *testing.T) {
	f := newFixture(t)

	res, err := f.svc.PlaceOrder(context.Background(), placeRequest())
	require.NoError(t, err)
	require.NotNil(t, res)

	o := res.Order
	// 3 × 100 = 300, VIP 5% → 15, post-discount 285 ships free.
	assert.Equal(t, "300.00", o.Total.Decimal().StringFixed(2))
	assert.Equal(t, "15.00", o.Discount.Decimal().StringFixed(2))
	assert.Equal(t, "0.00", o.ShippingFee.Decimal().StringFixed(2))
	assert.Equal(t, "285.00", o.Final.Decimal().StringFixed(2))
	assert.Equal(t, StatusPending, o.Status)
	assert.Regexp(t, orderNumberPattern, o.Number)
	assert.Equal(t, "pay-1", o.PaymentID)

	require.Len(t, o.Items, 1)
	assert.Equal(t, "Mechanical Keyboard", o.Items[0].ProductName)

	// Persisted, payment attached, both events published.
	require.NotNil(t, f.orders.created)
	assert.Equal(t, "order-1", f.orders.attachedID)
	assert.Equal(t, "pay-1", f.orders.attachedPay)
	require.Len(t, f.sink.published, 2)
	assert.Equal(t, "order.created", f.sink.published[0].EventName())
	assert.Equal(t, "order.payment_initiated", f.sink.published[1].EventName())

	// Payment request carried the final amount.
	assert.Equal(t, "order-1", f.gateway.last.OrderID)
	assert.True(t, f.gateway.last.Amount.Equal(o.Final))

	assert.WithinDuration(t, time.Now().Add(estimatedDeliveryAfter), res.EstimatedDelivery, time.Minute)
}

func TestService_PlaceOrder_EmptyItems(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.PlaceOrder(context.Background(), PlaceOrderRequest{UserID: "u1"})
	require.ErrorIs(t, err, ErrNoItems)
	assert.Empty(t, f.sink.published)
}

func TestService_PlaceOrder_InvalidQuantity(t *testing.T) {
	f := newFixture(t)
	req := placeRequest()
	req.Items[0].Quantity = 0

	_, err := f.svc.PlaceOrder(context.Background(), req)

	var iq *InvalidQuantityError
	require.ErrorAs(t, err, &iq)
	assert.Empty(t, f.stock.reserved)
}

func TestService_PlaceOrder_DisabledUser(t *testing.T) {
	f := newFixture(t)
	f.users.user.Status = user.StatusDisabled

	_, err := f.svc.PlaceOrder(context.Background(), placeRequest())
	require.ErrorIs(t, err, user.ErrDisabled)
	assert.Empty(t, f.stock.reserved)
}

func TestService_PlaceOrder_OutOfStock(t *testing.T) {
	f := newFixture(t)
	f.stock.reserveErr = errors.Wrap(product.ErrOutOfStock, "sku1")

	_, err := f.svc.PlaceOrder(context.Background(), placeRequest())
	require.ErrorIs(t, err, product.ErrOutOfStock)
	assert.Empty(t, f.sink.published)
}

func TestService_PlaceOrder_CouponExpiredReleasesStock(t *testing.T) {
	f := newFixture(t)
	f.coupons.err = coupon.ErrExpired

	req := placeRequest()
	req.CouponCode = "OLD"

	_, err := f.svc.PlaceOrder(context.Background(), req)
	require.ErrorIs(t, err, coupon.ErrExpired)

	assert.Equal(t, 1, f.stock.releaseCalled)
	assert.Nil(t, f.orders.created)
	assert.Empty(t, f.sink.published)
}

func TestService_PlaceOrder_CouponApplied(t *testing.T) {
	f := newFixture(t)
	f.coupons.coupon = &coupon.Coupon{
		ID:           "c1",
		Code:         "FLAT100",
		DiscountType: coupon.DiscountFixedAmount,
		Value:        decimal.NewFromInt(100),
		MinAmount:    decimal.NewFromInt(200),
	}

	req := placeRequest()
	req.CouponCode = "FLAT100"

	res, err := f.svc.PlaceOrder(context.Background(), req)
	require.NoError(t, err)

	// 300 − (15 member + 100 coupon) = 185, below threshold → fee 10.
	assert.Equal(t, "115.00", res.Order.Discount.Decimal().StringFixed(2))
	assert.Equal(t, "10.00", res.Order.ShippingFee.Decimal().StringFixed(2))
	assert.Equal(t, "195.00", res.Order.Final.Decimal().StringFixed(2))
	assert.Equal(t, "c1", f.orders.couponID)
}

func TestService_PlaceOrder_PersistFailureCompensates(t *testing.T) {
	f := newFixture(t)
	f.coupons.coupon = &coupon.Coupon{
		ID:           "c1",
		Code:         "FLAT100",
		DiscountType: coupon.DiscountFixedAmount,
		Value:        decimal.NewFromInt(100),
		MinAmount:    decimal.NewFromInt(200),
	}
	f.orders.createErr = errors.New("constraint violation")

	req := placeRequest()
	req.CouponCode = "FLAT100"

	_, err := f.svc.PlaceOrder(context.Background(), req)
	require.Error(t, err)

	assert.Equal(t, 1, f.stock.releaseCalled)
	assert.Equal(t, "c1", f.coupons.unlockedID)
	assert.Empty(t, f.sink.published)
}

func TestService_PlaceOrder_UnsupportedPaymentMethod(t *testing.T) {
	f := newFixture(t)
	f.gateway.err = payment.ErrUnsupportedMethod
	f.gateway.intent = nil

	req := placeRequest()
	req.PaymentMethod = "cash_on_delivery"

	_, err := f.svc.PlaceOrder(context.Background(), req)
	require.ErrorIs(t, err, payment.ErrUnsupportedMethod)

	// The order is already persisted at this point; it stays PENDING and no
	// events go out. The reservation is not released: persistence converted
	// it into a real decrement.
	require.NotNil(t, f.orders.created)
	assert.Equal(t, StatusPending, f.orders.created.Status)
	assert.Zero(t, f.stock.releaseCalled)
	assert.Empty(t, f.sink.published)
}

func TestService_GetOrder(t *testing.T) {
	f := newFixture(t)
	f.orders.getResult = &Order{ID: "order-1"}

	o, err := f.svc.GetOrder(context.Background(), "order-1")
	require.NoError(t, err)
	assert.Equal(t, "order-1", o.ID)

	f.orders.getResult = nil
	f.orders.getErr = ErrNotFound

	_, err = f.svc.GetOrder(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)
}
