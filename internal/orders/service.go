package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/ecommerce-saga/go-order-saga/internal/events"
	kafkax "github.com/ecommerce-saga/go-order-saga/internal/kafka"
	"github.com/ecommerce-saga/go-order-saga/internal/metrics"
	"github.com/ecommerce-saga/go-order-saga/internal/redisx"
)

// Store is the persistence contract the service needs; *Repo satisfies it.
type Store interface {
	Create(ctx context.Context, o *Order) error
	FindByOrderNumber(ctx context.Context, orderNumber string) (*Order, error)
	List(ctx context.Context) ([]Order, error)
	ApplyPaymentOutcome(ctx context.Context, orderNumber, paymentStatus, paymentID string, status Status) error
}

// Publisher is satisfied by *kafkax.Producer.
type Publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

type Service struct {
	Store    Store
	Producer Publisher // order-events
	Redis       *redis.Client
	ServiceName string
}

// CreateOrder validates the request, persists the order in PENDING, and
// publishes OrderCreated keyed by order number. Validation failures emit
// nothing and persist nothing.
func (s *Service) CreateOrder(ctx context.Context, customerID string, items []ItemInput) (*Order, error) {
	if len(items) == 0 {
		return nil, validationf("order has no items")
	}
	total := 0
	for _, it := range items {
		if it.Qty <= 0 {
			return nil, validationf("qty must be positive for product %s", it.ProductID)
		}
		if it.PriceCents < 0 {
			return nil, validationf("price must not be negative for product %s", it.ProductID)
		}
		total += it.Qty * it.PriceCents
	}

	o := &Order{
		ID:          uuid.NewString(),
		OrderNumber: events.ShortRef("ORD"),
		CustomerID:  customerID,
		Status:      StatusPending,
		TotalCents:  total,
	}
	for _, it := range items {
		o.Items = append(o.Items, Item(it))
	}

	if err := s.Store.Create(ctx, o); err != nil {
		return nil, err
	}
	metrics.OrdersCreated.Inc()
	log.Info().Str("order", o.OrderNumber).Int("total_cents", total).Msg("order created")

	s.cacheStatus(ctx, o.OrderNumber, StatusPending)
	s.markSagaStep(ctx, o.OrderNumber, redisx.FieldSagaCreated)

	ev := events.OrderCreated{
		EventID:    events.NewEventID(),
		EventType:  events.TypeOrderCreated,
		OccurredAt: time.Now().UTC(),
		OrderID:    o.OrderNumber,
		CustomerID: o.CustomerID,
		TotalCents: o.TotalCents,
	}
	for _, it := range o.Items {
		ev.Items = append(ev.Items, events.Item(it))
	}
	s.Producer.Publish(events.PartitionKey(o.OrderNumber), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(events.TypeOrderCreated)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
	return o, nil
}

func (s *Service) GetOrder(ctx context.Context, orderNumber string) (*Order, error) {
	return s.Store.FindByOrderNumber(ctx, orderNumber)
}

func (s *Service) ListOrders(ctx context.Context) ([]Order, error) {
	return s.Store.List(ctx)
}

// HandlePaymentProcessed is the payment-events consumer handler. Every
// failure is logged and swallowed so the offset commits: there is no retry
// and no dead letter in this pipeline.
func (s *Service) HandlePaymentProcessed(ctx context.Context, m kafkago.Message) error {
	ev, err := kafkax.Decode[events.PaymentProcessed](m.Value)
	if err != nil {
		metrics.EventsDropped.WithLabelValues(s.ServiceName).Inc()
		log.Error().Err(err).Msg("payment event undecodable, dropped")
		return nil
	}
	if ev.EventType != events.TypePaymentProcessed {
		return nil
	}
	if s.seenBefore(ctx, ev.EventID) {
		return nil
	}

	status := ResolveFromPayment(ev.PaymentStatus)
	if err := s.Store.ApplyPaymentOutcome(ctx, ev.OrderID, ev.PaymentStatus, ev.PaymentID, status); err != nil {
		metrics.EventsDropped.WithLabelValues(s.ServiceName).Inc()
		log.Error().Err(err).Str("order", ev.OrderID).Msg("payment outcome not applied, event dropped")
		return nil
	}

	s.cacheStatus(ctx, ev.OrderID, status)
	s.markSagaStep(ctx, ev.OrderID, redisx.FieldSagaPaymentProcessed)
	log.Info().
		Str("order", ev.OrderID).
		Str("payment_status", ev.PaymentStatus).
		Str("status", string(status)).
		Msg("order resolved from payment outcome")
	return nil
}

// seenBefore is best-effort event dedup; duplicates are harmless anyway
// because the status resolution is pure in the incoming payment status.
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

func (s *Service) cacheStatus(ctx context.Context, orderNumber string, status Status) {
	if s.Redis == nil {
		return
	}
	key := fmt.Sprintf(redisx.KeyOrderStatus, orderNumber)
	_ = s.Redis.Set(ctx, key, fmt.Sprintf(`{"status":%q}`, status), redisx.TTLStatusCache).Err()
}

func (s *Service) markSagaStep(ctx context.Context, orderNumber, field string) {
	if s.Redis == nil {
		return
	}
	key := fmt.Sprintf(redisx.KeySaga, orderNumber)
	_ = s.Redis.HSet(ctx, key, field, time.Now().UTC().Format(time.RFC3339)).Err()
	_ = s.Redis.Expire(ctx, key, redisx.TTLSaga).Err()
}
