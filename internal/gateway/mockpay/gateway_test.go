package mockpay

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mokcj0825/mall-order-api/internal/domain/money"
	"github.com/mokcj0825/mall-order-api/internal/domain/payment"
)

func fixedGateway(t *testing.T) (*Gateway, time.Time) {
	t.Helper()
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	g := New(zap.NewNop())
	g.now = func() time.Time { return now }
	return g, now
}

func TestGateway_InitiateWechat(t *testing.T) {
	g, now := fixedGateway(t)

	intent, err := g.Initiate(context.Background(), payment.Request{
		OrderID: "order-1",
		Amount:  money.MustFrom(decimal.RequireFromString("99.90")),
		Method:  payment.MethodWechatPay,
		UserID:  "u1",
	})
	require.NoError(t, err)

	assert.Equal(t, "pay_wechat_1749988800000", intent.PaymentID)
	assert.Equal(t, "weixin://wxpay/bizpayurl?pr=mockorder-1", intent.QRCodeURL)
	assert.Equal(t, now.Add(intentTTL), intent.ExpireTime)
	assert.NotEmpty(t, intent.TransactionID)
}

func TestGateway_InitiateAlipay(t *testing.T) {
	g, now := fixedGateway(t)

	intent, err := g.Initiate(context.Background(), payment.Request{
		OrderID: "order-2",
		Amount:  money.MustFrom(decimal.RequireFromString("15.00")),
		Method:  payment.MethodAlipay,
		UserID:  "u1",
	})
	require.NoError(t, err)

	assert.Equal(t, "pay_alipay_1749988800000", intent.PaymentID)
	assert.Equal(t, "https://qr.alipay.com/mockorder-2", intent.QRCodeURL)
	assert.Equal(t, now.Add(intentTTL), intent.ExpireTime)
}

func TestGateway_InitiateUnsupportedMethod(t *testing.T) {
	g, _ := fixedGateway(t)

	intent, err := g.Initiate(context.Background(), payment.Request{
		OrderID: "order-3",
		Amount:  money.MustFrom(decimal.RequireFromString("10.00")),
		Method:  "bank_transfer",
	})
	require.ErrorIs(t, err, payment.ErrUnsupportedMethod)
	assert.Nil(t, intent)
}
