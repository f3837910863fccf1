// Package payment defines the payment initiation contract.
package payment

import (
	"context"
	"time"

	"github.com/go-faster/errors"

	"github.com/mokcj0825/mall-order-api/internal/domain/money"
)

// Supported payment method tags.
const (
	MethodWechatPay = "wechat_pay"
	MethodAlipay    = "alipay"
)

// ErrUnsupportedMethod is returned for payment method tags the gateway does
// not recognize.
var ErrUnsupportedMethod = errors.New("unsupported payment method")

// Request carries everything a gateway needs to start a payment.
type Request struct {
	OrderID string
	Amount  money.Money
	Method  string
	UserID  string
}

// Intent is the handle returned by a successfully initiated payment.
type Intent struct {
	PaymentID     string
	QRCodeURL     string
	TransactionID string
	ExpireTime    time.Time
}

// Gateway initiates payments with an external provider.
type Gateway interface {
	Initiate(ctx context.Context, req Request) (*Intent, error)
}
