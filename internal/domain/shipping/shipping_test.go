package shipping

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockAddressLookup struct {
	remote bool
	err    error
	calls  int
}

func (m *mockAddressLookup) IsRemote(_ context.Context, _ string) (bool, error) {
	m.calls++
	return m.remote, m.err
}

func TestStandardQuoter_Quote(t *testing.T) {
	tests := []struct {
		name    string
		amount  string
		remote  bool
		wantFee string
	}{
		{name: "at threshold ships free", amount: "200", wantFee: "0"},
		{name: "above threshold ships free", amount: "350.75", wantFee: "0"},
		{name: "just below threshold pays base fee", amount: "199.99", wantFee: "10"},
		{name: "remote address pays surcharge", amount: "50", remote: true, wantFee: "15"},
		{name: "zero amount pays base fee", amount: "0", wantFee: "10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lookup := &mockAddressLookup{remote: tt.remote}
			q := NewStandardQuoter(lookup)

			got, err := q.Quote(context.Background(), "addr-1", decimal.RequireFromString(tt.amount))
			require.NoError(t, err)

			assert.True(t, got.Fee.Equal(decimal.RequireFromString(tt.wantFee)),
				"expected fee %s, got %s", tt.wantFee, got.Fee)
			assert.Equal(t, tt.remote, got.IsRemote)
		})
	}
}

func TestStandardQuoter_FreeShippingSkipsLookup(t *testing.T) {
	lookup := &mockAddressLookup{}
	q := NewStandardQuoter(lookup)

	_, err := q.Quote(context.Background(), "addr-1", decimal.NewFromInt(250))
	require.NoError(t, err)
	assert.Zero(t, lookup.calls)
}

func TestStandardQuoter_LookupError(t *testing.T) {
	lookup := &mockAddressLookup{err: errors.New("db down")}
	q := NewStandardQuoter(lookup)

	_, err := q.Quote(context.Background(), "addr-1", decimal.NewFromInt(50))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lookup address")
}
