// Package product holds the catalog model and the stock reservation contract.
package product

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when a requested product or SKU does not exist.
	ErrNotFound = errors.New("product not found")
	// ErrOutOfStock is returned when a SKU cannot cover the requested quantity.
	ErrOutOfStock = errors.New("out of stock")
)

// Product is a catalog item with the price snapshot taken at reservation time.
type Product struct {
	ID    string
	Name  string
	Price decimal.Decimal
	Image string
	Stock int
}

// Line is one requested purchase line.
type Line struct {
	ProductID string
	SKUID     string
	Quantity  int
}

// Reserver validates stock for the requested lines and places a reservation
// that a later order persist converts into a real decrement. Release undoes
// the reservation when the surrounding flow fails.
type Reserver interface {
	Reserve(ctx context.Context, lines []Line) ([]Product, error)
	Release(ctx context.Context, lines []Line) error
}
