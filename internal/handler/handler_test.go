package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mokcj0825/mall-order-api/internal/domain/coupon"
	"github.com/mokcj0825/mall-order-api/internal/domain/money"
	"github.com/mokcj0825/mall-order-api/internal/domain/order"
	"github.com/mokcj0825/mall-order-api/internal/domain/payment"
	"github.com/mokcj0825/mall-order-api/internal/domain/product"
	"github.com/mokcj0825/mall-order-api/internal/domain/user"
)

type stubOrderService struct {
	placeResult *order.PlaceOrderResult
	placeErr    error
	getOrder    *order.Order
	getErr      error

	lastPlace order.PlaceOrderRequest
}

func (s *stubOrderService) PlaceOrder(_ context.Context, req order.PlaceOrderRequest) (*order.PlaceOrderResult, error) {
	s.lastPlace = req
	if s.placeErr != nil {
		return nil, s.placeErr
	}
	return s.placeResult, nil
}

func (s *stubOrderService) GetOrder(_ context.Context, id string) (*order.Order, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.getOrder, nil
}

func newTestRouter(svc OrderService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	New(svc, zap.NewNop()).Routes(r.Group("/api"))
	return r
}

func amount(t *testing.T, s string) money.Money {
	t.Helper()
	m, err := money.From(decimal.RequireFromString(s))
	require.NoError(t, err)
	return m
}

func sampleOrder(t *testing.T) *order.Order {
	t.Helper()
	return &order.Order{
		ID:     "order-1",
		Number: "ORD17499888000000042",
		UserID: "u1",
		Items: []order.Item{{
			ProductID:   "p1",
			Quantity:    2,
			Price:       amount(t, "150.00"),
			ProductName: "Keyboard",
		}},
		Total:             amount(t, "300.00"),
		Discount:          amount(t, "15.00"),
		ShippingFee:       amount(t, "0.00"),
		Final:             amount(t, "285.00"),
		Status:            order.StatusPending,
		ShippingAddressID: "addr-1",
		CreatedAt:         time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC),
	}
}

const createOrderBody = `{
	"userId": "u1",
	"items": [{"productId": "p1", "quantity": 2}],
	"shippingAddressId": "addr-1",
	"paymentMethod": "wechat_pay"
}`

func TestCreateOrder(t *testing.T) {
	expire := time.Date(2025, 6, 15, 12, 30, 0, 0, time.UTC)
	svc := &stubOrderService{
		placeResult: &order.PlaceOrderResult{
			Order: sampleOrder(t),
			Payment: &payment.Intent{
				PaymentID:  "pay-1",
				QRCodeURL:  "weixin://wxpay/bizpayurl?pr=mockorder-1",
				ExpireTime: expire,
			},
			EstimatedDelivery: expire.Add(48 * time.Hour),
		},
	}
	r := newTestRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/order/create-with-payment", strings.NewReader(createOrderBody))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "order-1", resp["orderId"])
	assert.Equal(t, "ORD17499888000000042", resp["orderNumber"])
	assert.Equal(t, "PENDING", resp["status"])
	assert.InDelta(t, 300.0, resp["totalAmount"], 0.001)
	assert.InDelta(t, 285.0, resp["finalAmount"], 0.001)

	pi, ok := resp["paymentInfo"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "pay-1", pi["paymentId"])
	assert.Equal(t, "weixin://wxpay/bizpayurl?pr=mockorder-1", pi["qrCodeUrl"])

	assert.Equal(t, "u1", svc.lastPlace.UserID)
	assert.Equal(t, []product.Line{{ProductID: "p1", Quantity: 2}}, svc.lastPlace.Items)
	assert.Equal(t, "wechat_pay", svc.lastPlace.PaymentMethod)
}

func TestCreateOrder_BadRequestBody(t *testing.T) {
	r := newTestRouter(&stubOrderService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/order/create-with-payment", strings.NewReader(`{"items": []}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateOrder_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"no items", order.ErrNoItems, http.StatusBadRequest},
		{"unsupported payment method", payment.ErrUnsupportedMethod, http.StatusBadRequest},
		{"user not found", user.ErrNotFound, http.StatusNotFound},
		{"user disabled", user.ErrDisabled, http.StatusForbidden},
		{"out of stock", product.ErrOutOfStock, http.StatusConflict},
		{"product not found", product.ErrNotFound, http.StatusUnprocessableEntity},
		{"coupon not found", coupon.ErrNotFound, http.StatusUnprocessableEntity},
		{"coupon expired", coupon.ErrExpired, http.StatusUnprocessableEntity},
		{"amount mismatch", &order.AmountMismatchError{}, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRouter(&stubOrderService{placeErr: tt.err})

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/order/create-with-payment", strings.NewReader(createOrderBody))
			req.Header.Set("Content-Type", "application/json")
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)

			var resp errorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantStatus, resp.Code)
		})
	}
}

func TestGetOrder(t *testing.T) {
	r := newTestRouter(&stubOrderService{getOrder: sampleOrder(t)})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/order/order-1", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "order-1", resp["orderId"])
	assert.Nil(t, resp["paymentInfo"])

	items, ok := resp["items"].([]any)
	require.True(t, ok)
	require.Len(t, items, 1)
	item := items[0].(map[string]any)
	assert.Equal(t, "Keyboard", item["productName"])
	assert.InDelta(t, 150.0, item["price"], 0.001)
}

func TestGetOrder_NotFound(t *testing.T) {
	r := newTestRouter(&stubOrderService{getErr: order.ErrNotFound})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/order/missing", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}
