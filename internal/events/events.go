package events

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Event type tags carried in every payload and in the x-event-type header.
const (
	TypeOrderCreated     = "ORDER_CREATED"
	TypeInventoryUpdated = "INVENTORY_UPDATED"
	TypePaymentProcessed = "PAYMENT_PROCESSED"
)

// Payment outcome statuses carried by PaymentProcessed.
const (
	PaymentApproved = "APPROVED"
	PaymentRejected = "REJECTED"
	PaymentFailed   = "FAILED"
)

type Item struct {
	ProductID  string `json:"product_id"`
	Qty        int    `json:"qty"`
	PriceCents int    `json:"price_cents"`
}

// OrderCreated is published once per order by the order service.
type OrderCreated struct {
	EventID    string    `json:"event_id"`
	EventType  string    `json:"event_type"`
	OccurredAt time.Time `json:"occurred_at"`

	OrderID    string `json:"order_id"` // order number, e.g. ORD-1A2B3C4D
	CustomerID string `json:"customer_id"`
	Items      []Item `json:"items"`
	TotalCents int    `json:"total_cents"`
}

// InventoryUpdated is published exactly once per OrderCreated received,
// including the internal-error case (empty availability, error_message set).
type InventoryUpdated struct {
	EventID    string    `json:"event_id"`
	EventType  string    `json:"event_type"`
	OccurredAt time.Time `json:"occurred_at"`

	OrderID      string          `json:"order_id"`
	Availability map[string]bool `json:"availability"`
	AllAvailable bool            `json:"all_available"`
	ErrorMessage string          `json:"error_message,omitempty"`
}

// PaymentProcessed is published at most once per InventoryUpdated with
// all_available=true. AmountCents is simulated by the payment service; the
// real order total never travels this far down the chain.
type PaymentProcessed struct {
	EventID    string    `json:"event_id"`
	EventType  string    `json:"event_type"`
	OccurredAt time.Time `json:"occurred_at"`

	OrderID       string `json:"order_id"`
	PaymentID     string `json:"payment_id"`
	PaymentStatus string `json:"payment_status"` // APPROVED | REJECTED | FAILED
	PaymentMethod string `json:"payment_method"`
	AmountCents   int    `json:"amount_cents"`
	ErrorMessage  string `json:"error_message,omitempty"`
}

func NewEventID() string { return uuid.NewString() }

// ShortRef returns an 8-hex-char uppercase id with the given prefix,
// e.g. ShortRef("ORD") -> "ORD-1A2B3C4D". Used for order and payment numbers.
func ShortRef(prefix string) string {
	return prefix + "-" + strings.ToUpper(uuid.NewString()[:8])
}
