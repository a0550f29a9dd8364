package main

import (
	"context"
	"log"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"ablab/adapters/gonumstats"
	"ablab/adapters/postgres"
	"ablab/internal"
	"ablab/internal/config"
	"ablab/internal/testkit"
	"ablab/ports"
	"ablab/ui"
)

func main() {
	// .env is optional; environment variables win either way.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	logger := internal.DefaultLogger
	dist := gonumstats.New()

	repo, err := buildRepository(cfg, logger)
	if err != nil {
		log.Fatalf("failed to set up experiment storage: %v", err)
	}

	server := ui.NewServer(cfg, repo, dist)
	if err := server.Run(); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}

// buildRepository picks postgres when DATABASE_URL is configured and falls
// back to the in-memory sample catalog otherwise. The postgres store is
// seeded with the sample experiments so both modes serve the same catalog.
func buildRepository(cfg *config.Config, logger *internal.Logger) (ports.ExperimentRepository, error) {
	if cfg.Database.URL == "" {
		logger.Info("no DATABASE_URL configured, using in-memory sample catalog")
		return testkit.NewCatalog(), nil
	}

	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		return nil, err
	}

	repo := postgres.NewExperimentRepository(db).(*postgres.ExperimentRepositoryImpl)
	ctx := context.Background()
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	for _, exp := range testkit.SampleExperiments() {
		e := exp
		if err := repo.Save(ctx, &e); err != nil {
			return nil, err
		}
	}
	logger.Info("connected to postgres, sample catalog seeded")
	return repo, nil
}
