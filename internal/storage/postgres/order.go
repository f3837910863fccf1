package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/mokcj0825/mall-order-api/internal/domain/money"
	"github.com/mokcj0825/mall-order-api/internal/domain/order"
)

const (
	createOrderSQL = `INSERT INTO orders (id, order_number, user_id, total_amount, discount_amount,
		shipping_fee, final_amount, status, shipping_address_id, coupon_code, remark, payment_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	createOrderItemSQL = `INSERT INTO order_items (order_id, product_id, sku_id, quantity, price, product_name, product_image)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	commitStockSQL = `UPDATE products SET stock = stock - $2, reserved = reserved - $2
		WHERE id = $1 AND reserved >= $2`

	consumeCouponSQL = `UPDATE coupons SET status = 'USED' WHERE id = $1 AND status = 'LOCKED'`

	attachPaymentSQL = `UPDATE orders SET payment_id = $2 WHERE id = $1`

	getOrderByIDSQL = `SELECT id, order_number, user_id, total_amount, discount_amount,
		shipping_fee, final_amount, status, shipping_address_id, coupon_code, remark, payment_id, created_at
		FROM orders WHERE id = $1`

	getOrderItemsSQL = `SELECT product_id, sku_id, quantity, price, product_name, product_image
		FROM order_items WHERE order_id = $1 ORDER BY id`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists the order and its items, converts the stock reservations
// into real decrements and consumes the coupon, all in one transaction.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order, couponID string) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, createOrderSQL,
			o.ID, o.Number, o.UserID,
			o.Total.Decimal(), o.Discount.Decimal(), o.ShippingFee.Decimal(), o.Final.Decimal(),
			string(o.Status), o.ShippingAddressID, o.CouponCode, o.Remark, o.PaymentID, o.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("creating order %q: %w", o.ID, err)
		}

		for _, item := range o.Items {
			_, err = tx.Exec(ctx, createOrderItemSQL,
				o.ID, item.ProductID, item.SKUID, item.Quantity,
				item.Price.Decimal(), item.ProductName, item.ProductImage,
			)
			if err != nil {
				return fmt.Errorf("creating order item %q: %w", item.ProductID, err)
			}

			tag, err := tx.Exec(ctx, commitStockSQL, item.ProductID, item.Quantity)
			if err != nil {
				return fmt.Errorf("committing stock for product %q: %w", item.ProductID, err)
			}
			if tag.RowsAffected() == 0 {
				return errors.Errorf("stock reservation lost for product %q", item.ProductID)
			}
		}

		if couponID != "" {
			tag, err := tx.Exec(ctx, consumeCouponSQL, couponID)
			if err != nil {
				return fmt.Errorf("consuming coupon %q: %w", couponID, err)
			}
			if tag.RowsAffected() == 0 {
				return errors.Errorf("coupon lock lost for coupon %q", couponID)
			}
		}

		return nil
	})
}

// AttachPayment records the payment identifier on a persisted order.
func (r *OrderRepository) AttachPayment(ctx context.Context, orderID, paymentID string) error {
	tag, err := r.pool.Exec(ctx, attachPaymentSQL, orderID, paymentID)
	if err != nil {
		return fmt.Errorf("attaching payment to order %q: %w", orderID, err)
	}
	if tag.RowsAffected() == 0 {
		return errors.Wrapf(order.ErrNotFound, "%q", orderID)
	}
	return nil
}

// GetByID returns a single order with its items.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, getOrderByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}

	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}

	itemRows, err := r.pool.Query(ctx, getOrderItemsSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting items for order %q: %w", id, err)
	}
	o.Items, err = pgx.CollectRows(itemRows, scanOrderItem)
	if err != nil {
		return nil, fmt.Errorf("getting items for order %q: %w", id, err)
	}

	return &o, nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o      order.Order
		status string

		total, discount, shippingFee, final decimal.Decimal
	)
	err := row.Scan(
		&o.ID, &o.Number, &o.UserID,
		&total, &discount, &shippingFee, &final,
		&status, &o.ShippingAddressID, &o.CouponCode, &o.Remark, &o.PaymentID, &o.CreatedAt,
	)
	if err != nil {
		return order.Order{}, err
	}
	o.Status = order.Status(status)
	if o.Total, err = money.From(total); err != nil {
		return order.Order{}, err
	}
	if o.Discount, err = money.From(discount); err != nil {
		return order.Order{}, err
	}
	if o.ShippingFee, err = money.From(shippingFee); err != nil {
		return order.Order{}, err
	}
	if o.Final, err = money.From(final); err != nil {
		return order.Order{}, err
	}
	return o, nil
}

func scanOrderItem(row pgx.CollectableRow) (order.Item, error) {
	var (
		item  order.Item
		price decimal.Decimal
	)
	err := row.Scan(&item.ProductID, &item.SKUID, &item.Quantity, &price, &item.ProductName, &item.ProductImage)
	if err != nil {
		return order.Item{}, err
	}
	item.Price, err = money.From(price)
	return item, err
}
