package redisx

import "time"

const (
	// Event dedup per consumer: dedup:{service}:{event_id} -> 1
	KeyDedup = "dedup:%s:%s"

	// Order status read cache: order_status:{order_number} -> {"status":"..."}
	KeyOrderStatus = "order_status:%s"

	// Saga step markers per order: hash saga:{order_number}
	// fields: created | inventory_checked | payment_processed -> timestamp
	KeySaga = "saga:%s"
)

const (
	FieldSagaCreated          = "created"
	FieldSagaInventoryChecked = "inventory_checked"
	FieldSagaPaymentProcessed = "payment_processed"
)

var (
	TTLDedup       = 48 * time.Hour
	TTLStatusCache = 5 * time.Minute
	TTLSaga        = 48 * time.Hour
)
