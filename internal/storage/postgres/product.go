package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/mokcj0825/mall-order-api/internal/domain/product"
)

const (
	getProductsByIDsSQL = `SELECT id, name, price, image, stock
		FROM products WHERE id = ANY($1) ORDER BY id`

	reserveStockSQL = `UPDATE products SET reserved = reserved + $2
		WHERE id = $1 AND stock - reserved >= $2`

	releaseStockSQL = `UPDATE products SET reserved = GREATEST(reserved - $2, 0)
		WHERE id = $1`

	productExistsSQL = `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`
)

var _ product.Reserver = (*ProductRepository)(nil)

// ProductRepository implements product.Reserver backed by PostgreSQL.
// Reservations are tracked in a reserved counter next to the stock count;
// persisting an order later converts them into a real decrement.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// Reserve places a stock reservation for every line and returns the matching
// product rows. The whole batch succeeds or none of it does.
func (r *ProductRepository) Reserve(ctx context.Context, lines []product.Line) ([]product.Product, error) {
	var products []product.Product
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		ids := make([]string, 0, len(lines))
		for _, l := range lines {
			tag, err := tx.Exec(ctx, reserveStockSQL, l.ProductID, l.Quantity)
			if err != nil {
				return fmt.Errorf("reserving stock for product %q: %w", l.ProductID, err)
			}
			if tag.RowsAffected() == 0 {
				var exists bool
				if err := tx.QueryRow(ctx, productExistsSQL, l.ProductID).Scan(&exists); err != nil {
					return fmt.Errorf("checking product %q: %w", l.ProductID, err)
				}
				if !exists {
					return errors.Wrapf(product.ErrNotFound, "%q", l.ProductID)
				}
				return errors.Wrapf(product.ErrOutOfStock, "%q", l.ProductID)
			}
			ids = append(ids, l.ProductID)
		}

		rows, err := tx.Query(ctx, getProductsByIDsSQL, ids)
		if err != nil {
			return fmt.Errorf("getting reserved products: %w", err)
		}
		products, err = pgx.CollectRows(rows, scanProduct)
		return err
	})
	if err != nil {
		return nil, err
	}
	return products, nil
}

// Release undoes a previous reservation.
func (r *ProductRepository) Release(ctx context.Context, lines []product.Line) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		for _, l := range lines {
			if _, err := tx.Exec(ctx, releaseStockSQL, l.ProductID, l.Quantity); err != nil {
				return fmt.Errorf("releasing stock for product %q: %w", l.ProductID, err)
			}
		}
		return nil
	})
}

func scanProduct(row pgx.CollectableRow) (product.Product, error) {
	var (
		p     product.Product
		price decimal.Decimal
	)
	err := row.Scan(&p.ID, &p.Name, &price, &p.Image, &p.Stock)
	p.Price = price
	return p, err
}
