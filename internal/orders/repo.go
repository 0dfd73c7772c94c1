package orders

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
)

type Repo struct{ DB *pgxpool.Pool }

// Create persists the order and its line items in one transaction.
func (r *Repo) Create(ctx context.Context, o *Order) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO orders(id, order_number, customer_id, status, total_cents)
		VALUES ($1, $2, $3, $4, $5)
	`, o.ID, o.OrderNumber, o.CustomerID, string(o.Status), o.TotalCents)
	if err != nil {
		return errors.Wrap(err, "insert order")
	}

	for _, it := range o.Items {
		_, err = tx.Exec(ctx, `
			INSERT INTO order_items(order_id, product_id, qty, price_cents)
			VALUES ($1, $2, $3, $4)`,
			o.ID, it.ProductID, it.Qty, it.PriceCents,
		)
		if err != nil {
			return errors.Wrap(err, "insert order item")
		}
	}

	return tx.Commit(ctx)
}

func (r *Repo) FindByOrderNumber(ctx context.Context, orderNumber string) (*Order, error) {
	var o Order
	err := r.DB.QueryRow(ctx, `
		SELECT id, order_number, customer_id, status, total_cents,
		       COALESCE(inventory_status,''), COALESCE(payment_status,''), COALESCE(payment_id,''),
		       created_at, updated_at
		FROM orders WHERE order_number=$1
	`, orderNumber).Scan(
		&o.ID, &o.OrderNumber, &o.CustomerID, &o.Status, &o.TotalCents,
		&o.InventoryStatus, &o.PaymentStatus, &o.PaymentID,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.DB.Query(ctx, `
		SELECT product_id, qty, price_cents FROM order_items WHERE order_id=$1
	`, o.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ProductID, &it.Qty, &it.PriceCents); err != nil {
			return nil, err
		}
		o.Items = append(o.Items, it)
	}
	return &o, rows.Err()
}

func (r *Repo) List(ctx context.Context) ([]Order, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, order_number, customer_id, status, total_cents,
		       COALESCE(inventory_status,''), COALESCE(payment_status,''), COALESCE(payment_id,''),
		       created_at, updated_at
		FROM orders ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(
			&o.ID, &o.OrderNumber, &o.CustomerID, &o.Status, &o.TotalCents,
			&o.InventoryStatus, &o.PaymentStatus, &o.PaymentID,
			&o.CreatedAt, &o.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// ApplyPaymentOutcome writes the payment markers and the resolved status.
// No optimistic-concurrency check: the resolution is pure in the incoming
// payment status, so a duplicate delivery is a redundant identical write.
func (r *Repo) ApplyPaymentOutcome(ctx context.Context, orderNumber, paymentStatus, paymentID string, status Status) error {
	ct, err := r.DB.Exec(ctx, `
		UPDATE orders
		SET payment_status=$2, payment_id=$3, status=$4, updated_at=now()
		WHERE order_number=$1
	`, orderNumber, paymentStatus, paymentID, string(status))
	if err != nil {
		return errors.Wrap(err, "update payment outcome")
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
