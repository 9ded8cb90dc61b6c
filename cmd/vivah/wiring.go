package main

import (
	"fmt"

	backend "github.com/redis/go-redis/v9"

	"github.com/sangamhq/vivah/internal/config"
	fileStore "github.com/sangamhq/vivah/pkg/adapters/file"
	"github.com/sangamhq/vivah/pkg/adapters/memory"
	redisStore "github.com/sangamhq/vivah/pkg/adapters/redis"
	"github.com/sangamhq/vivah/pkg/adapters/rest"
	"github.com/sangamhq/vivah/pkg/ports"
)

// buildStore constructs the progress store selected by the config.
// The redis client is returned when one was created, so serve mode can
// reuse it for distributed locking.
func buildStore(cfg *config.Config) (ports.ProgressStore, *backend.Client, error) {
	switch cfg.Store.Kind {
	case "", "memory":
		return memory.NewStore(), nil, nil
	case "file":
		return fileStore.New(cfg.Store.Path), nil, nil
	case "redis":
		client := backend.NewClient(&backend.Options{
			Addr:     cfg.Store.Addr,
			Password: cfg.Store.Password,
			DB:       cfg.Store.DB,
		})
		return redisStore.NewFromClient(client, redisStore.WithTTL(cfg.Store.TTL)), client, nil
	default:
		return nil, nil, fmt.Errorf("unknown store kind %q", cfg.Store.Kind)
	}
}

// buildBackend selects the hosted backend: REST when a base URL is
// configured, in-memory otherwise (development mode).
func buildBackend(cfg *config.Config) *ports.Backend {
	if cfg.Backend.BaseURL != "" {
		return rest.New(cfg.Backend.BaseURL, cfg.Backend.APIKey).Services()
	}
	return memory.NewBackend().Services()
}
