package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/ecommerce-saga/go-order-saga/internal/config"
	"github.com/ecommerce-saga/go-order-saga/internal/events"
	"github.com/ecommerce-saga/go-order-saga/internal/httpx"
	kafkax "github.com/ecommerce-saga/go-order-saga/internal/kafka"
	"github.com/ecommerce-saga/go-order-saga/internal/orders"
	"github.com/ecommerce-saga/go-order-saga/internal/postgres"
	"github.com/ecommerce-saga/go-order-saga/internal/redisx"
)

// Order service: owns the Order aggregate. Serves the HTTP surface,
// publishes OrderCreated, and consumes payment-events to resolve final
// order statuses.
func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("db connect")
	}
	defer db.Close()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	prod := kafkax.NewProducer(cfg.KafkaBrokers, events.TopicOrderEvents, 1024)
	prod.Start()

	svc := &orders.Service{
		Store:       &orders.Repo{DB: db},
		Producer:    prod,
		Redis:       rdb,
		ServiceName: cfg.ServiceName,
	}

	router := httpx.NewRouter()
	oh := &httpx.OrdersHandler{Service: svc, Redis: rdb}
	oh.Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("HTTP listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	// payment-events consumer resolves final order statuses
	group := cfg.ConsumerGroup
	if group == "" {
		group = events.GroupOrderService
	}
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, group, events.TopicPaymentEvents, cfg.ConsumerWorkers)
	go func() {
		log.Info().Str("group", group).Str("topic", events.TopicPaymentEvents).Msg("payment consumer started")
		if err := cons.Start(ctx, svc.HandlePaymentProcessed); err != nil {
			log.Error().Err(err).Msg("consumer exit")
			cancel()
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info().Msg("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	cancel()          // stop consumer
	prod.Close()      // flush & close writer
	prod.WaitClosed() // drain
}
