package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "saga_events_published_total",
		Help: "Events handed to the Kafka producer, per topic.",
	}, []string{"topic"})

	EventsConsumed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "saga_events_consumed_total",
		Help: "Events read from Kafka, per topic.",
	}, []string{"topic"})

	EventsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "saga_events_dropped_total",
		Help: "Events swallowed by a handler (decode failure, unknown order, malformed payload), per service.",
	}, []string{"service"})

	OrdersCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "saga_orders_created_total",
		Help: "Orders accepted and persisted in PENDING.",
	})

	PaymentOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "saga_payment_outcomes_total",
		Help: "Simulated payment outcomes, per status.",
	}, []string{"status"})
)
