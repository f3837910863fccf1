package notify

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/mokcj0825/mall-order-api/internal/domain/money"
	"github.com/mokcj0825/mall-order-api/internal/domain/order"
)

func TestLogSink_Publish(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	sink := NewLogSink(zap.New(core))

	created := order.CreatedEvent{
		OrderID: "order-1",
		UserID:  "u1",
		Number:  "ORD17499888000000042",
		Total:   money.MustFrom(decimal.NewFromInt(300)),
		Items: []order.EventItem{
			{ProductID: "p1", SKUID: "sku1", Quantity: 3},
		},
	}
	initiated := order.PaymentInitiatedEvent{
		OrderID:   "order-1",
		PaymentID: "pay-1",
		Amount:    money.MustFrom(decimal.NewFromInt(285)),
		Method:    "wechat_pay",
	}

	sink.Publish(context.Background(), created, initiated)

	// Email + SMS + operation log for creation, one entry for payment.
	assert.Equal(t, 4, logs.Len())
	assert.Equal(t, 1, logs.FilterMessage("sending order confirmation email").Len())
	assert.Equal(t, 1, logs.FilterMessage("sending order created sms").Len())
	assert.Equal(t, 1, logs.FilterMessage("recording operation log").Len())
	assert.Equal(t, 1, logs.FilterMessage("payment initiated").Len())
}

func TestCreatedPayload(t *testing.T) {
	payload := createdPayload(order.CreatedEvent{
		OrderID: "order-1",
		UserID:  "u1",
		Number:  "ORD1",
		Total:   money.MustFrom(decimal.RequireFromString("99.9")),
		Items: []order.EventItem{
			{ProductID: "p1", SKUID: "sku1", Quantity: 2},
			{ProductID: "p2", SKUID: "sku2", Quantity: 1},
		},
	})

	var got struct {
		OrderID     string  `json:"orderId"`
		UserID      string  `json:"userId"`
		OrderNumber string  `json:"orderNumber"`
		TotalAmount float64 `json:"totalAmount"`
		Items       []struct {
			ProductID string `json:"productId"`
			SKUID     string `json:"skuId"`
			Quantity  int    `json:"quantity"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(payload, &got))

	assert.Equal(t, "order-1", got.OrderID)
	assert.Equal(t, "ORD1", got.OrderNumber)
	assert.InDelta(t, 99.90, got.TotalAmount, 0.001)
	require.Len(t, got.Items, 2)
	assert.Equal(t, "sku2", got.Items[1].SKUID)
}

func TestPaymentPayload(t *testing.T) {
	payload := paymentPayload(order.PaymentInitiatedEvent{
		OrderID:   "order-1",
		PaymentID: "pay-1",
		Amount:    money.MustFrom(decimal.NewFromInt(285)),
		Method:    "alipay",
	})

	var got map[string]any
	require.NoError(t, json.Unmarshal(payload, &got))
	assert.Equal(t, "pay-1", got["paymentId"])
	assert.Equal(t, "alipay", got["paymentMethod"])
	assert.EqualValues(t, 285, got["amount"])
}
