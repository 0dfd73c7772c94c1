package orders

import "time"

// Order is the aggregate owned by the order service. It is created in
// PENDING and only ever mutated by the payment-events consumer; line items
// and the total are fixed at creation.
type Order struct {
	ID          string    `json:"id"`
	OrderNumber string    `json:"order_number"`
	CustomerID  string    `json:"customer_id"`
	Status      Status    `json:"status"`
	TotalCents  int       `json:"total_cents"`
	Items       []Item    `json:"items"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Saga outcome markers. InventoryStatus is carried on the row but no
	// handler writes it: an order that fails its stock check never advances.
	InventoryStatus string `json:"inventory_status,omitempty"`
	PaymentStatus   string `json:"payment_status,omitempty"`
	PaymentID       string `json:"payment_id,omitempty"`
}

type Item struct {
	ProductID  string `json:"product_id"`
	Qty        int    `json:"qty"`
	PriceCents int    `json:"price_cents"`
}

// ItemInput is what order creation accepts; prices come from the caller and
// the total is computed once, here, never recomputed downstream.
type ItemInput struct {
	ProductID  string `json:"product_id"`
	Qty        int    `json:"qty"`
	PriceCents int    `json:"price_cents"`
}
