package kv

import (
	"context"
	"fmt"
	"time"
)

// Config selects and configures a backend.
type Config struct {
	Backend         string // "memory" or "redis"
	RedisURL        string
	JanitorInterval time.Duration // memory backend TTL sweep
}

// Constructors are registered by the backend packages' init via Register, so
// importing a backend makes it available here without an import cycle.
var constructors = map[string]func(cfg *Config) (Store, error){}

// Register makes a backend constructor available to NewStore.
func Register(name string, fn func(cfg *Config) (Store, error)) {
	constructors[name] = fn
}

// NewStore creates the configured store. A Redis backend that fails its
// startup ping is reported as an error; callers decide whether to fall back
// to memory.
func NewStore(ctx context.Context, cfg *Config) (Store, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	backend := cfg.Backend
	if backend == "" {
		backend = "memory"
	}

	fn, ok := constructors[backend]
	if !ok {
		return nil, fmt.Errorf("unknown kv backend: %s", backend)
	}

	store, err := fn(cfg)
	if err != nil {
		return nil, err
	}

	if err := store.Ping(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("kv backend %s unavailable: %w", backend, err)
	}

	return store, nil
}
