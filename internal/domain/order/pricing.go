package order

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/mokcj0825/mall-order-api/internal/domain/coupon"
	"github.com/mokcj0825/mall-order-api/internal/domain/money"
	"github.com/mokcj0825/mall-order-api/internal/domain/product"
	"github.com/mokcj0825/mall-order-api/internal/domain/shipping"
	"github.com/mokcj0825/mall-order-api/internal/domain/user"
)

var (
	hundred  = decimal.NewFromInt(100)
	vipRate  = decimal.RequireFromString("0.05")
	svipRate = decimal.RequireFromString("0.1")
)

// Calculator computes the price breakdown for an order. It is pure apart
// from the shipping quote lookup and safe for concurrent use.
type Calculator struct {
	shipping shipping.Quoter
}

// NewCalculator creates a Calculator using the given shipping quoter.
func NewCalculator(q shipping.Quoter) *Calculator {
	return &Calculator{shipping: q}
}

// Calculate prices the requested lines against the resolved products,
// applies the member tier and coupon discounts, quotes shipping on the
// post-discount amount, and returns the breakdown.
//
// Intermediate arithmetic runs on raw decimals; rounding happens once, when
// the final Money values are constructed. This keeps the breakdown exactly
// consistent with the aggregate's own total − discount + shipping check.
func (c *Calculator) Calculate(
	ctx context.Context,
	products []product.Product,
	lines []product.Line,
	tier user.Tier,
	cpn *coupon.Coupon,
	shippingAddressID string,
) (Breakdown, error) {
	byID := make(map[string]product.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	total := decimal.Zero
	for _, ln := range lines {
		p, ok := byID[ln.ProductID]
		if !ok {
			return Breakdown{}, errors.Wrapf(product.ErrNotFound, "product %s", ln.ProductID)
		}
		total = total.Add(p.Price.Mul(decimal.NewFromInt(int64(ln.Quantity))))
	}

	discount := memberDiscount(tier, total)

	couponPart, err := couponDiscount(cpn, total)
	if err != nil {
		return Breakdown{}, err
	}
	discount = discount.Add(couponPart)

	quote, err := c.shipping.Quote(ctx, shippingAddressID, total.Sub(discount))
	if err != nil {
		return Breakdown{}, errors.Wrap(err, "quote shipping")
	}

	return newBreakdown(total, discount, quote.Fee)
}

// memberDiscount applies the flat tier percentage. Tiers are mutually
// exclusive; unknown tiers get nothing.
func memberDiscount(tier user.Tier, total decimal.Decimal) decimal.Decimal {
	switch tier {
	case user.TierVIP:
		return total.Mul(vipRate)
	case user.TierSVIP:
		return total.Mul(svipRate)
	default:
		return decimal.Zero
	}
}

// couponDiscount computes the coupon contribution. A coupon below its
// minimum order amount contributes zero rather than failing; a discount type
// outside the closed enumeration fails fast.
func couponDiscount(c *coupon.Coupon, total decimal.Decimal) (decimal.Decimal, error) {
	if c == nil || total.LessThan(c.MinAmount) {
		return decimal.Zero, nil
	}

	switch c.DiscountType {
	case coupon.DiscountFixedAmount:
		return c.Value, nil
	case coupon.DiscountPercentage:
		d := total.Mul(c.Value).Div(hundred)
		if c.MaxDiscount.IsPositive() && d.GreaterThan(c.MaxDiscount) {
			d = c.MaxDiscount
		}
		return d, nil
	default:
		return decimal.Zero, errors.Errorf("unsupported discount type: %q", c.DiscountType)
	}
}

// newBreakdown converts the raw decimals into Money, which applies the
// rounding pass and the non-negativity checks. The final amount is derived
// from the rounded components, never from the raw decimals: rounding total,
// discount and fee independently and then rounding their raw combination can
// disagree on half-cent ties, and the aggregate's equality check is strict.
func newBreakdown(total, discount, fee decimal.Decimal) (Breakdown, error) {
	var (
		b   Breakdown
		err error
	)
	if b.Total, err = money.From(total); err != nil {
		return Breakdown{}, errors.Wrap(err, "total amount")
	}
	if b.Discount, err = money.From(discount); err != nil {
		return Breakdown{}, errors.Wrap(err, "discount amount")
	}
	if b.ShippingFee, err = money.From(fee); err != nil {
		return Breakdown{}, errors.Wrap(err, "shipping fee")
	}

	afterDiscount, err := b.Total.Sub(b.Discount)
	if err != nil {
		return Breakdown{}, errors.Wrap(err, "final amount")
	}
	if b.Final, err = afterDiscount.Add(b.ShippingFee); err != nil {
		return Breakdown{}, errors.Wrap(err, "final amount")
	}
	return b, nil
}
