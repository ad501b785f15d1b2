// Package app wires configuration to a catalog backend and the filter engine.
// Both binaries start through here.
package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"muscledynamics/workout-planner/internal/catalog"
	"muscledynamics/workout-planner/internal/config"
	"muscledynamics/workout-planner/internal/repository"
	"muscledynamics/workout-planner/internal/repository/memory"
	"muscledynamics/workout-planner/internal/repository/mongo"
	"muscledynamics/workout-planner/internal/repository/postgres"
	"muscledynamics/workout-planner/internal/service"
	"muscledynamics/workout-planner/internal/storage"
)

// Backend is an open catalog store.
type Backend struct {
	Repo  repository.ExerciseRepository
	close func()
}

// Close releases the underlying connection.
func (b *Backend) Close() {
	if b.close != nil {
		b.close()
	}
}

// OpenBackend connects the store selected by cfg.Driver and prepares its
// indexes or schema.
func OpenBackend(ctx context.Context, cfg config.DatabaseConfig) (*Backend, error) {
	switch cfg.Driver {
	case config.DriverMongo:
		store, err := mongo.Connect(ctx, cfg.URI, cfg.Name)
		if err != nil {
			return nil, fmt.Errorf("connect mongo: %w", err)
		}

		idxCtx, cancel := context.WithTimeout(ctx, time.Minute)
		mongo.EnsureExerciseIndexes(idxCtx, mongo.ExerciseCollection(store.DB))
		cancel()

		return &Backend{
			Repo: mongo.NewMongoExerciseRepository(store.DB),
			close: func() {
				log.Println("Disconnecting MongoDB...")
				if err := store.Close(); err != nil {
					log.Printf("ERROR: Failed to disconnect MongoDB: %v", err)
				}
			},
		}, nil

	case config.DriverPostgres:
		db, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := postgres.EnsureSchema(ctx, db); err != nil {
			db.Close()
			return nil, fmt.Errorf("ensure postgres schema: %w", err)
		}
		return &Backend{
			Repo: postgres.NewExerciseRepository(db),
			close: func() {
				log.Println("Closing PostgreSQL pool...")
				if err := db.Close(); err != nil {
					log.Printf("ERROR: Failed to close PostgreSQL pool: %v", err)
				}
			},
		}, nil

	case config.DriverMemory:
		log.Println("WARN: Using in-memory catalog; data is lost on exit.")
		return &Backend{Repo: memory.NewExerciseRepository()}, nil

	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

// NewExerciseService builds the filter engine with the configured image resolver.
func NewExerciseService(ctx context.Context, cfg *config.Config, repo repository.ExerciseRepository) (service.ExerciseService, error) {
	images, err := storage.NewImageResolver(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("init image storage: %w", err)
	}
	return service.NewExerciseService(repo, images, service.Options{
		DefaultLimit: cfg.Catalog.DefaultLimit,
		MaxLimit:     cfg.Catalog.MaxLimit,
		QueryTimeout: cfg.Catalog.QueryTimeout,
	}), nil
}

// Seed imports a seed file. Records rejected by the loader or the service are
// logged and skipped.
func Seed(ctx context.Context, svc service.ExerciseService, path string) (*service.ImportResult, error) {
	loaded, err := catalog.LoadFile(path)
	if err != nil {
		return nil, err
	}
	for _, s := range loaded.Skipped {
		log.Printf("WARN: Seed record %d (%q) skipped: %s", s.Index, s.Name, s.Reason)
	}
	res, err := svc.ImportExercises(ctx, loaded.Exercises)
	if err != nil {
		return res, err
	}
	for _, reason := range loaded.Skipped {
		res.Skipped = append(res.Skipped, reason.Reason)
	}
	log.Printf("INFO: Seeded %d exercises from %s (%d skipped)", res.Inserted, path, len(res.Skipped))
	return res, nil
}

// SeedIfEmpty imports path only when the catalog has no records yet.
func SeedIfEmpty(ctx context.Context, svc service.ExerciseService, path string) error {
	if path == "" {
		return nil
	}
	stats, err := svc.Stats(ctx)
	if err != nil {
		return err
	}
	if stats.TotalExercises > 0 {
		log.Printf("INFO: Catalog already holds %d exercises; skipping seed file", stats.TotalExercises)
		return nil
	}
	_, err = Seed(ctx, svc, path)
	return err
}
