package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/ecommerce-saga/go-order-saga/internal/events"
	kafkax "github.com/ecommerce-saga/go-order-saga/internal/kafka"
	"github.com/ecommerce-saga/go-order-saga/internal/metrics"
	"github.com/ecommerce-saga/go-order-saga/internal/redisx"
)

// ProductStore is the catalog lookup contract; *Repo satisfies it.
type ProductStore interface {
	FindBySKU(ctx context.Context, sku string) (*Product, error)
}

type Publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

type Service struct {
	Store       ProductStore
	Producer    Publisher // inventory-events
	Redis       *redis.Client
	ServiceName string
}

// HandleOrderCreated runs the read-only stock check and publishes exactly
// one InventoryUpdated per OrderCreated received — also on internal failure,
// where the event carries an empty availability map and the cause. Stock is
// never decremented here: this is a check, not a reservation. The only case
// that emits nothing is a malformed event with no items.
func (s *Service) HandleOrderCreated(ctx context.Context, m kafkago.Message) error {
	ev, err := kafkax.Decode[events.OrderCreated](m.Value)
	if err != nil {
		metrics.EventsDropped.WithLabelValues(s.ServiceName).Inc()
		log.Error().Err(err).Msg("order event undecodable, dropped")
		return nil
	}
	if ev.EventType != events.TypeOrderCreated {
		return nil
	}
	if s.seenBefore(ctx, ev.EventID) {
		return nil
	}

	if len(ev.Items) == 0 {
		metrics.EventsDropped.WithLabelValues(s.ServiceName).Inc()
		log.Warn().Str("order", ev.OrderID).Msg("order event has no items, dropped")
		return nil
	}

	availability, allAvailable, checkErr := s.checkStock(ctx, ev.Items)
	out := events.InventoryUpdated{
		EventID:      events.NewEventID(),
		EventType:    events.TypeInventoryUpdated,
		OccurredAt:   time.Now().UTC(),
		OrderID:      ev.OrderID,
		Availability: availability,
		AllAvailable: allAvailable,
	}
	if checkErr != nil {
		out.Availability = map[string]bool{}
		out.AllAvailable = false
		out.ErrorMessage = checkErr.Error()
		log.Error().Err(checkErr).Str("order", ev.OrderID).Msg("stock check failed")
	} else {
		log.Info().
			Str("order", ev.OrderID).
			Bool("all_available", allAvailable).
			Msg("stock check done")
	}

	s.markSagaStep(ctx, ev.OrderID)

	// Published unkeyed, like the rest of the downstream chain.
	s.Producer.Publish(nil, kafkax.MustMarshal(out),
		kafkago.Header{Key: "x-event-type", Value: []byte(events.TypeInventoryUpdated)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
	return nil
}

// checkStock evaluates each line item against current stock. An unknown SKU
// (or any lookup failure) aborts the loop and fails the whole order.
func (s *Service) checkStock(ctx context.Context, items []events.Item) (map[string]bool, bool, error) {
	availability := make(map[string]bool, len(items))
	allAvailable := true

	for _, it := range items {
		p, err := s.Store.FindBySKU(ctx, it.ProductID)
		if errors.Is(err, ErrProductNotFound) {
			return nil, false, fmt.Errorf("Producto no encontrado: %s", it.ProductID)
		}
		if err != nil {
			return nil, false, err
		}

		ok := p.Stock >= it.Qty
		availability[it.ProductID] = ok
		if !ok {
			allAvailable = false
			log.Warn().
				Str("product", it.ProductID).
				Int("stock", p.Stock).
				Int("required", it.Qty).
				Msg("insufficient stock")
		}
	}
	return availability, allAvailable, nil
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

func (s *Service) markSagaStep(ctx context.Context, orderNumber string) {
	if s.Redis == nil {
		return
	}
	key := fmt.Sprintf(redisx.KeySaga, orderNumber)
	_ = s.Redis.HSet(ctx, key, redisx.FieldSagaInventoryChecked, time.Now().UTC().Format(time.RFC3339)).Err()
	_ = s.Redis.Expire(ctx, key, redisx.TTLSaga).Err()
}
