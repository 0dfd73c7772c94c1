package orders

import "github.com/ecommerce-saga/go-order-saga/internal/events"

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
	StatusFailed    Status = "FAILED"
)

// PENDING is the only state with outgoing transitions; the three payment
// outcomes are all terminal. There is no transition for inventory rejection:
// such orders stay PENDING because the payment service never emits for them.
var validNext = map[Status]map[Status]bool{
	StatusPending:   {StatusCompleted: true, StatusCancelled: true, StatusFailed: true},
	StatusCompleted: {},
	StatusCancelled: {},
	StatusFailed:    {},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

// ResolveFromPayment maps a payment outcome to the order's final status.
// Pure and total: any unrecognized payment status resolves to PENDING, so
// replays and duplicates are safe.
func ResolveFromPayment(paymentStatus string) Status {
	switch paymentStatus {
	case events.PaymentApproved:
		return StatusCompleted
	case events.PaymentRejected:
		return StatusCancelled
	case events.PaymentFailed:
		return StatusFailed
	default:
		return StatusPending
	}
}
