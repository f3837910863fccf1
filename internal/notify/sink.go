// Package notify implements the domain event sink. It simulates the
// downstream side effects of order placement (confirmation email, SMS and
// an operation log entry) as structured log output.
package notify

import (
	"context"

	"github.com/go-faster/jx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mokcj0825/mall-order-api/internal/domain/order"
)

// LogSink dispatches order events to the simulated notification channels.
// Publish never fails the caller: delivery problems are logged and dropped,
// matching the fire-and-forget contract.
type LogSink struct {
	lg *zap.Logger
}

// NewLogSink creates a LogSink writing through the given logger.
func NewLogSink(lg *zap.Logger) *LogSink {
	return &LogSink{lg: lg}
}

// Publish fans each event out to its handlers. Handlers for one event run
// concurrently; events are processed in order so payment-initiated never
// precedes order-created for the same order.
func (s *LogSink) Publish(ctx context.Context, events ...order.Event) {
	for _, ev := range events {
		switch e := ev.(type) {
		case order.CreatedEvent:
			s.orderCreated(ctx, e)
		case order.PaymentInitiatedEvent:
			s.paymentInitiated(ctx, e)
		default:
			s.lg.Warn("unknown event type", zap.String("event", ev.EventName()))
		}
	}
}

func (s *LogSink) orderCreated(ctx context.Context, e order.CreatedEvent) {
	payload := createdPayload(e)

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.lg.Info("sending order confirmation email",
			zap.String("template", "order_confirmation"),
			zap.String("order_number", e.Number),
			zap.ByteString("payload", payload),
		)
		return nil
	})
	g.Go(func() error {
		s.lg.Info("sending order created sms",
			zap.String("template", "order_created"),
			zap.String("order_number", e.Number),
		)
		return nil
	})
	g.Go(func() error {
		s.lg.Info("recording operation log",
			zap.String("action", "CREATE_ORDER"),
			zap.String("user_id", e.UserID),
			zap.String("order_id", e.OrderID),
		)
		return nil
	})
	if err := g.Wait(); err != nil {
		s.lg.Warn("order created notification failed", zap.Error(err))
	}
}

func (s *LogSink) paymentInitiated(_ context.Context, e order.PaymentInitiatedEvent) {
	s.lg.Info("payment initiated",
		zap.String("order_id", e.OrderID),
		zap.String("payment_id", e.PaymentID),
		zap.String("method", e.Method),
		zap.ByteString("payload", paymentPayload(e)),
	)
}

// createdPayload renders the order-created notification body: order id,
// user id, order number, total and the product/SKU/quantity item list.
func createdPayload(e order.CreatedEvent) []byte {
	var w jx.Writer
	w.ObjStart()
	w.FieldStart("orderId")
	w.Str(e.OrderID)
	w.Comma()
	w.FieldStart("userId")
	w.Str(e.UserID)
	w.Comma()
	w.FieldStart("orderNumber")
	w.Str(e.Number)
	w.Comma()
	w.FieldStart("totalAmount")
	w.RawStr(e.Total.Decimal().StringFixed(2))
	w.Comma()
	w.FieldStart("items")
	w.ArrStart()
	for i, it := range e.Items {
		if i > 0 {
			w.Comma()
		}
		w.ObjStart()
		w.FieldStart("productId")
		w.Str(it.ProductID)
		w.Comma()
		w.FieldStart("skuId")
		w.Str(it.SKUID)
		w.Comma()
		w.FieldStart("quantity")
		w.Int(it.Quantity)
		w.ObjEnd()
	}
	w.ArrEnd()
	w.ObjEnd()
	return w.Buf
}

// paymentPayload renders the payment-initiated notification body.
func paymentPayload(e order.PaymentInitiatedEvent) []byte {
	var w jx.Writer
	w.ObjStart()
	w.FieldStart("orderId")
	w.Str(e.OrderID)
	w.Comma()
	w.FieldStart("paymentId")
	w.Str(e.PaymentID)
	w.Comma()
	w.FieldStart("amount")
	w.RawStr(e.Amount.Decimal().StringFixed(2))
	w.Comma()
	w.FieldStart("paymentMethod")
	w.Str(e.Method)
	w.ObjEnd()
	return w.Buf
}
