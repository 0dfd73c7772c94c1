package main

import (
	"context"
	"encoding/json"
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
	"github.com/ecommerce-saga/go-order-saga/internal/inventory"
	kafkax "github.com/ecommerce-saga/go-order-saga/internal/kafka"
	"github.com/ecommerce-saga/go-order-saga/internal/postgres"
	"github.com/ecommerce-saga/go-order-saga/internal/redisx"
)

// Inventory service: owns the product catalog. Consumes order-events, runs
// the read-only stock check, and publishes inventory-events.
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

	prod := kafkax.NewProducer(cfg.KafkaBrokers, events.TopicInventoryEvents, 1024)
	prod.Start()

	repo := &inventory.Repo{DB: db}
	svc := &inventory.Service{
		Store:       repo,
		Producer:    prod,
		Redis:       rdb,
		ServiceName: cfg.ServiceName,
	}

	// metrics / health / catalog listener
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/products", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()
		ps, err := repo.List(ctx)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(ps)
	})
	go func() {
		log.Info().Str("addr", cfg.MetricsAddr).Msg("metrics listening")
		if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
			log.Error().Err(err).Msg("metrics listener exit")
		}
	}()

	group := cfg.ConsumerGroup
	if group == "" {
		group = events.GroupProductService
	}
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, group, events.TopicOrderEvents, cfg.ConsumerWorkers)
	go func() {
		log.Info().
			Str("group", group).
			Str("topic", events.TopicOrderEvents).
			Int("workers", cfg.ConsumerWorkers).
			Msg("inventory consumer started")
		if err := cons.Start(ctx, svc.HandleOrderCreated); err != nil {
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
