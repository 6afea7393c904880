package cmd

import (
	"context"
	"fmt"

	"github.com/kozaktomas/facegate/internal/config"
	"github.com/kozaktomas/facegate/internal/embedder"
	"github.com/kozaktomas/facegate/internal/roster"
	"github.com/kozaktomas/facegate/internal/roster/postgres"
)

// openSnapshotBackend picks the durable backend for the roster:
// PostgreSQL when DATABASE_URL is set, the JSON snapshot file otherwise.
// The returned cleanup func closes the backend.
func openSnapshotBackend(cfg *config.Config) (roster.SnapshotStore, func(), error) {
	if cfg.Database.URL != "" {
		fmt.Println("Using PostgreSQL snapshot backend")
		store, err := postgres.NewStore(cfg.Database.URL, cfg.EmbeddingDim(), cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize PostgreSQL: %w", err)
		}
		return store, func() { store.Close() }, nil
	}

	fmt.Printf("Using snapshot file %s\n", cfg.Snapshot.Path)
	return roster.NewFileStore(cfg.Snapshot.Path), func() {}, nil
}

// loadRoster loads the enrolled population. A load failure degrades to
// an empty roster: the service stays reachable, every recognition
// reports no match until enrollments repopulate it.
func loadRoster(ctx context.Context, backend roster.SnapshotStore) *roster.Roster {
	r := roster.New(backend)
	if err := r.Load(ctx); err != nil {
		fmt.Printf("Warning: %v\n", err)
		fmt.Println("Starting with an empty roster")
		return r
	}
	fmt.Printf("Loaded %d enrolled students\n", r.Count())
	return r
}

// newEmbedder creates the embedding sidecar client from config.
func newEmbedder(cfg *config.Config) embedder.Provider {
	return embedder.NewClient(cfg.Embedding.URL, cfg.Embedding.Model)
}
