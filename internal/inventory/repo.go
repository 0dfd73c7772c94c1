package inventory

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
)

// ErrProductNotFound: the SKU is unknown to the catalog. The stock check
// treats this as a hard failure for the whole order.
var ErrProductNotFound = errors.New("product not found")

type Repo struct{ DB *pgxpool.Pool }

func (r *Repo) FindBySKU(ctx context.Context, sku string) (*Product, error) {
	var p Product
	err := r.DB.QueryRow(ctx, `
		SELECT id, sku, name, stock, price_cents, created_at, updated_at
		FROM products WHERE sku=$1
	`, sku).Scan(&p.ID, &p.SKU, &p.Name, &p.Stock, &p.PriceCents, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "find product by sku")
	}
	return &p, nil
}

func (r *Repo) List(ctx context.Context) ([]Product, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, sku, name, stock, price_cents, created_at, updated_at
		FROM products ORDER BY sku
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.SKU, &p.Name, &p.Stock, &p.PriceCents, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
