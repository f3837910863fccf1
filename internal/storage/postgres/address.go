package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mokcj0825/mall-order-api/internal/domain/shipping"
)

const getAddressRemoteSQL = `SELECT is_remote FROM shipping_addresses WHERE id = $1`

var _ shipping.AddressLookup = (*AddressRepository)(nil)

// AddressRepository implements shipping.AddressLookup backed by PostgreSQL.
type AddressRepository struct {
	pool *pgxpool.Pool
}

// NewAddressRepository returns an AddressRepository that uses the given pool.
func NewAddressRepository(pool *pgxpool.Pool) *AddressRepository {
	return &AddressRepository{pool: pool}
}

// IsRemote reports whether the address lies in a remote delivery region.
func (r *AddressRepository) IsRemote(ctx context.Context, addressID string) (bool, error) {
	var remote bool
	err := r.pool.QueryRow(ctx, getAddressRemoteSQL, addressID).Scan(&remote)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, errors.Errorf("shipping address %q not found", addressID)
		}
		return false, fmt.Errorf("getting shipping address %q: %w", addressID, err)
	}
	return remote, nil
}
