package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/ecommerce-saga/go-order-saga/internal/config"
	"github.com/ecommerce-saga/go-order-saga/internal/events"
	kafkax "github.com/ecommerce-saga/go-order-saga/internal/kafka"
	"github.com/ecommerce-saga/go-order-saga/internal/payment"
	"github.com/ecommerce-saga/go-order-saga/internal/redisx"
)

// Payment service: stateless. Consumes inventory-events and simulates
// authorization for orders whose stock check passed, publishing
// payment-events. Needs no database.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	prod := kafkax.NewProducer(cfg.KafkaBrokers, events.TopicPaymentEvents, 1024)
	prod.Start()

	svc := &payment.Service{
		Authorize:   payment.NewAuthorizer(cfg.PaymentApprovalRate, cfg.PaymentDelay),
		Producer:    prod,
		Redis:       rdb,
		ServiceName: cfg.ServiceName,
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	go func() {
		log.Info().Str("addr", cfg.MetricsAddr).Msg("metrics listening")
		if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
			log.Error().Err(err).Msg("metrics listener exit")
		}
	}()

	group := cfg.ConsumerGroup
	if group == "" {
		group = events.GroupPaymentService
	}
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, group, events.TopicInventoryEvents, cfg.ConsumerWorkers)
	go func() {
		log.Info().
			Str("group", group).
			Str("topic", events.TopicInventoryEvents).
			Int("workers", cfg.ConsumerWorkers).
			Msg("payment consumer started")
		if err := cons.Start(ctx, svc.HandleInventoryUpdated); err != nil {
			log.Error().Err(err).Msg("consumer exit")
			cancel()
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info().Msg("shutting down consumer...")
	cancel()
	time.Sleep(500 * time.Millisecond)
	prod.Close()
	prod.WaitClosed()
}
