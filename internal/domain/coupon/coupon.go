// Package coupon holds coupon terms and the lookup/lock contract used during
// order placement.
package coupon

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// DiscountType is the closed set of supported coupon discount strategies.
// Any other tag fails pricing fast instead of defaulting.
type DiscountType string

const (
	// DiscountPercentage discounts a percentage of the order total,
	// optionally capped at MaxDiscount.
	DiscountPercentage DiscountType = "PERCENTAGE"
	// DiscountFixedAmount discounts a flat amount.
	DiscountFixedAmount DiscountType = "FIXED_AMOUNT"
)

var (
	// ErrNotFound is returned when a coupon code does not exist or is
	// already used or locked by another user.
	ErrNotFound = errors.New("coupon not found")
	// ErrExpired is returned when a coupon is past its expiry.
	ErrExpired = errors.New("coupon expired")
)

// Coupon is the terms of a single-use discount code.
type Coupon struct {
	ID           string
	Code         string
	DiscountType DiscountType
	Value        decimal.Decimal
	// MinAmount is the order total required for the coupon to take effect.
	// An order below it contributes zero discount rather than failing.
	MinAmount decimal.Decimal
	// MaxDiscount caps percentage discounts. Zero means no cap.
	MaxDiscount decimal.Decimal
	ExpiresAt   time.Time
}

// Resolver looks up a coupon by code on behalf of a user and locks it for the
// duration of the placement flow. Unlock releases the lock when the flow
// fails before the coupon is consumed.
type Resolver interface {
	Resolve(ctx context.Context, code, userID string) (*Coupon, error)
	Unlock(ctx context.Context, id string) error
}

// Repository provides coupon persistence operations.
type Repository interface {
	FindByCode(ctx context.Context, code string) (*Coupon, error)
	Lock(ctx context.Context, id, userID string) error
	Unlock(ctx context.Context, id string) error
}
