package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"os"

	_ "github.com/lib/pq"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/logger"
)

func main() {
	// Parse command line flags
	rollback := flag.Bool("rollback", false, "Rollback the last migration")
	flag.Parse()

	log := logger.NewStderr("info", config.IsDevelopment())

	// DATABASE_URL wins over the FOODGRAM_DB_* settings
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		cfg, err := config.LoadConfig()
		if err != nil {
			log.Fatal().Err(err).Msg("failed to load configuration")
		}
		dsn = cfg.DSN()
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	migrations, err := database.LoadMigrations()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load migrations")
	}

	ctx := context.Background()
	if *rollback {
		m, err := database.RollbackLast(ctx, db, migrations, log)
		if errors.Is(err, database.ErrNoMigrations) {
			log.Info().Msg("no migrations to rollback")
			return
		}
		if err != nil {
			log.Fatal().Err(err).Msg("rollback failed")
		}
		log.Info().Str("version", m.Version).Msg("rollback completed successfully")
		return
	}

	applied, err := database.RunMigrations(ctx, db, migrations, log)
	if err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}
	log.Info().Int("applied", applied).Msg("all migrations completed successfully")
}
