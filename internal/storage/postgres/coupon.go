package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/mokcj0825/mall-order-api/internal/domain/coupon"
)

const (
	getCouponByCodeSQL = `SELECT id, code, discount_type, value, min_amount, max_discount, expires_at
		FROM coupons WHERE UPPER(code) = UPPER($1) AND status = 'ACTIVE'`

	lockCouponSQL = `UPDATE coupons SET status = 'LOCKED', locked_by = $2
		WHERE id = $1 AND status = 'ACTIVE'`

	unlockCouponSQL = `UPDATE coupons SET status = 'ACTIVE', locked_by = NULL
		WHERE id = $1 AND status = 'LOCKED'`
)

var _ coupon.Repository = (*CouponRepository)(nil)

// CouponRepository implements coupon.Repository backed by PostgreSQL.
// A coupon moves ACTIVE -> LOCKED while an order is being placed and
// LOCKED -> USED once the order persists; Unlock returns it to ACTIVE.
type CouponRepository struct {
	pool *pgxpool.Pool
}

// NewCouponRepository returns a CouponRepository that uses the given pool.
func NewCouponRepository(pool *pgxpool.Pool) *CouponRepository {
	return &CouponRepository{pool: pool}
}

// FindByCode looks up an active coupon by its code (case-insensitive).
// Returns coupon.ErrNotFound when no matching active coupon exists.
func (r *CouponRepository) FindByCode(ctx context.Context, code string) (*coupon.Coupon, error) {
	rows, err := r.pool.Query(ctx, getCouponByCodeSQL, code)
	if err != nil {
		return nil, fmt.Errorf("finding coupon by code %q: %w", code, err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanCoupon)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, coupon.ErrNotFound
		}
		return nil, fmt.Errorf("finding coupon by code %q: %w", code, err)
	}
	return &c, nil
}

// Lock claims the coupon for the given user. Losing a race for the same
// coupon reports coupon.ErrNotFound since the coupon is no longer active.
func (r *CouponRepository) Lock(ctx context.Context, id, userID string) error {
	tag, err := r.pool.Exec(ctx, lockCouponSQL, id, userID)
	if err != nil {
		return fmt.Errorf("locking coupon %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return errors.Wrapf(coupon.ErrNotFound, "%q", id)
	}
	return nil
}

// Unlock returns a locked coupon to the active state.
func (r *CouponRepository) Unlock(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, unlockCouponSQL, id)
	if err != nil {
		return fmt.Errorf("unlocking coupon %q: %w", id, err)
	}
	return nil
}

func scanCoupon(row pgx.CollectableRow) (coupon.Coupon, error) {
	var (
		c            coupon.Coupon
		discountType string
		value        decimal.Decimal
		minAmount    decimal.Decimal
		maxDiscount  decimal.Decimal
		expiresAt    *time.Time
	)
	err := row.Scan(&c.ID, &c.Code, &discountType, &value, &minAmount, &maxDiscount, &expiresAt)
	c.DiscountType = coupon.DiscountType(discountType)
	c.Value = value
	c.MinAmount = minAmount
	c.MaxDiscount = maxDiscount
	if expiresAt != nil {
		c.ExpiresAt = *expiresAt
	}
	return c, err
}
