// Package mockpay is a simulated payment gateway. It produces payment
// intents with the same shape as the real WeChat Pay and Alipay native-QR
// flows without performing any network I/O.
package mockpay

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mokcj0825/mall-order-api/internal/domain/payment"
)

const intentTTL = 30 * time.Minute

// Gateway implements payment.Gateway against simulated providers.
type Gateway struct {
	lg  *zap.Logger
	now func() time.Time
}

// New creates a mock Gateway.
func New(lg *zap.Logger) *Gateway {
	return &Gateway{lg: lg, now: time.Now}
}

// Initiate routes the request to the provider matching the method tag.
// Unrecognized tags fail with payment.ErrUnsupportedMethod.
func (g *Gateway) Initiate(_ context.Context, req payment.Request) (*payment.Intent, error) {
	g.lg.Info("initiating payment",
		zap.String("order_id", req.OrderID),
		zap.String("method", req.Method),
		zap.String("amount", req.Amount.String()),
		zap.String("user_id", req.UserID),
	)

	var intent *payment.Intent
	switch req.Method {
	case payment.MethodWechatPay:
		intent = g.wechatPay(req)
	case payment.MethodAlipay:
		intent = g.alipay(req)
	default:
		return nil, errors.Wrapf(payment.ErrUnsupportedMethod, "%q", req.Method)
	}

	g.lg.Info("payment initiated",
		zap.String("payment_id", intent.PaymentID),
		zap.String("qr_code_url", intent.QRCodeURL),
		zap.Time("expire_time", intent.ExpireTime),
	)
	return intent, nil
}

// wechatPay mimics the transactions/native response: a weixin:// QR code
// payload and a 30 minute expiry.
func (g *Gateway) wechatPay(req payment.Request) *payment.Intent {
	now := g.now()
	return &payment.Intent{
		PaymentID:     fmt.Sprintf("pay_wechat_%d", now.UnixMilli()),
		QRCodeURL:     "weixin://wxpay/bizpayurl?pr=mock" + req.OrderID,
		TransactionID: txnID("wx", now),
		ExpireTime:    now.Add(intentTTL),
	}
}

// alipay mimics the trade.precreate response.
func (g *Gateway) alipay(req payment.Request) *payment.Intent {
	now := g.now()
	return &payment.Intent{
		PaymentID:     fmt.Sprintf("pay_alipay_%d", now.UnixMilli()),
		QRCodeURL:     "https://qr.alipay.com/mock" + req.OrderID,
		TransactionID: txnID("ali", now),
		ExpireTime:    now.Add(intentTTL),
	}
}

func txnID(prefix string, now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return fmt.Sprintf("%s_%d_%s", prefix, now.UnixMilli(), suffix)
}
