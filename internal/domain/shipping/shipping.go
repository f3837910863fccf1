// Package shipping computes delivery fees for an order.
package shipping

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Quote is the outcome of a shipping fee lookup.
type Quote struct {
	Fee      decimal.Decimal
	IsRemote bool
}

// Quoter prices delivery for an address given the post-discount order amount.
type Quoter interface {
	Quote(ctx context.Context, addressID string, orderAmount decimal.Decimal) (Quote, error)
}

// AddressLookup resolves whether a shipping address is in a remote area.
type AddressLookup interface {
	IsRemote(ctx context.Context, addressID string) (bool, error)
}

// StandardQuoter implements the flat-rate fee table: orders at or above the
// free-shipping threshold ship free, everything else pays the base fee plus a
// surcharge for remote addresses.
type StandardQuoter struct {
	addresses AddressLookup

	freeThreshold   decimal.Decimal
	baseFee         decimal.Decimal
	remoteSurcharge decimal.Decimal
}

// NewStandardQuoter creates a StandardQuoter with the default fee table:
// free shipping from 200, base fee 10, remote surcharge 5.
func NewStandardQuoter(addresses AddressLookup) *StandardQuoter {
	return &StandardQuoter{
		addresses:       addresses,
		freeThreshold:   decimal.NewFromInt(200),
		baseFee:         decimal.NewFromInt(10),
		remoteSurcharge: decimal.NewFromInt(5),
	}
}

// Quote returns the fee for delivering orderAmount worth of goods to the
// given address. The threshold check happens before the address lookup, so
// free-shipping orders never touch storage.
func (q *StandardQuoter) Quote(ctx context.Context, addressID string, orderAmount decimal.Decimal) (Quote, error) {
	if orderAmount.GreaterThanOrEqual(q.freeThreshold) {
		return Quote{Fee: decimal.Zero}, nil
	}

	remote, err := q.addresses.IsRemote(ctx, addressID)
	if err != nil {
		return Quote{}, errors.Wrap(err, "lookup address")
	}

	fee := q.baseFee
	if remote {
		fee = fee.Add(q.remoteSurcharge)
	}
	return Quote{Fee: fee, IsRemote: remote}, nil
}
