package main

import (
	"flag"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/ecommerce-saga/go-order-saga/internal/config"
)

func main() {
	_ = godotenv.Load()

	var (
		dir  = flag.String("dir", "migrations", "migrations directory")
		down = flag.Bool("down", false, "roll back all migrations instead of applying them")
	)
	flag.Parse()

	cfg := config.Load()
	m, err := migrate.New("file://"+*dir, cfg.PostgresDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("open migrations")
	}
	defer m.Close()

	if *down {
		err = m.Down()
	} else {
		err = m.Up()
	}
	if err != nil && err != migrate.ErrNoChange {
		log.Fatal().Err(err).Msg("migrate")
	}
	log.Info().Bool("down", *down).Msg("migrations done")
}
