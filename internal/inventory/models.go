package inventory

import "time"

// Product is owned and mutated only by the inventory service; the order and
// payment services never see it directly.
type Product struct {
	ID         string    `json:"id"`
	SKU        string    `json:"sku"`
	Name       string    `json:"name"`
	Stock      int       `json:"stock"`
	PriceCents int       `json:"price_cents"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
