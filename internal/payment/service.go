package payment

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/ecommerce-saga/go-order-saga/internal/events"
	kafkax "github.com/ecommerce-saga/go-order-saga/internal/kafka"
	"github.com/ecommerce-saga/go-order-saga/internal/metrics"
	"github.com/ecommerce-saga/go-order-saga/internal/redisx"
)

const methodCreditCard = "CREDIT_CARD"

// AuthorizeFunc decides a payment attempt. The production implementation is
// non-deterministic (see NewAuthorizer); tests inject a deterministic one.
// A returned error means the attempt itself broke (infrastructure), which is
// reported as a FAILED outcome rather than a business rejection.
type AuthorizeFunc func(ctx context.Context, orderID string) (approved bool, err error)

// NewAuthorizer approves with the given probability after an artificial
// processing delay. The delay blocks only this handler's worker.
func NewAuthorizer(approvalRate float64, delay time.Duration) AuthorizeFunc {
	return func(ctx context.Context, orderID string) (bool, error) {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return false, ctx.Err()
		}
		return rand.Float64() < approvalRate, nil
	}
}

type Publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

type Service struct {
	Authorize   AuthorizeFunc
	Producer    Publisher // payment-events
	Redis       *redis.Client
	ServiceName string
}

// HandleInventoryUpdated simulates payment authorization for orders whose
// stock check passed. When all_available is false nothing is emitted and the
// order is left unresolved; only a payment outcome ever advances an order.
// At most one PaymentProcessed is published per eligible event.
func (s *Service) HandleInventoryUpdated(ctx context.Context, m kafkago.Message) error {
	ev, err := kafkax.Decode[events.InventoryUpdated](m.Value)
	if err != nil {
		metrics.EventsDropped.WithLabelValues(s.ServiceName).Inc()
		log.Error().Err(err).Msg("inventory event undecodable, dropped")
		return nil
	}
	if ev.EventType != events.TypeInventoryUpdated {
		return nil
	}
	if s.seenBefore(ctx, ev.EventID) {
		return nil
	}

	if !ev.AllAvailable {
		log.Warn().Str("order", ev.OrderID).Msg("stock unavailable, skipping payment")
		return nil
	}

	out := s.process(ctx, ev.OrderID)
	metrics.PaymentOutcomes.WithLabelValues(out.PaymentStatus).Inc()
	log.Info().
		Str("order", out.OrderID).
		Str("payment", out.PaymentID).
		Str("status", out.PaymentStatus).
		Msg("payment processed")

	s.Producer.Publish(nil, kafkax.MustMarshal(out),
		kafkago.Header{Key: "x-event-type", Value: []byte(events.TypePaymentProcessed)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
	return nil
}

func (s *Service) process(ctx context.Context, orderID string) events.PaymentProcessed {
	approved, err := s.Authorize(ctx, orderID)
	if err != nil {
		// Infrastructure failure, distinct from a business rejection.
		return events.PaymentProcessed{
			EventID:       events.NewEventID(),
			EventType:     events.TypePaymentProcessed,
			OccurredAt:    time.Now().UTC(),
			OrderID:       orderID,
			PaymentID:     "PAY-FAILED",
			PaymentStatus: events.PaymentFailed,
			PaymentMethod: methodCreditCard,
			AmountCents:   0,
			ErrorMessage:  err.Error(),
		}
	}

	out := events.PaymentProcessed{
		EventID:       events.NewEventID(),
		EventType:     events.TypePaymentProcessed,
		OccurredAt:    time.Now().UTC(),
		OrderID:       orderID,
		PaymentID:     events.ShortRef("PAY"),
		PaymentMethod: methodCreditCard,
		// The order's real total never travels past the order service, so
		// the simulated charge is a placeholder between 100.00 and 300.00.
		AmountCents: 10000 + rand.Intn(20001),
	}
	if approved {
		out.PaymentStatus = events.PaymentApproved
	} else {
		out.PaymentStatus = events.PaymentRejected
		out.ErrorMessage = "Fondos insuficientes"
	}
	return out
}

func (s *Service) seenBefore(ctx context.Context, eventID string) bool {
	if s.Redis == nil {
		return false
	}
	key := fmt.Sprintf(redisx.KeyDedup, s.ServiceName, eventID)
	if ok, _ := redisx.Exists(ctx, s.Redis, key); ok {
		return true
	}
	_ = s.Redis.Set(ctx, key, "1", redisx.TTLDedup).Err()
	return false
}
