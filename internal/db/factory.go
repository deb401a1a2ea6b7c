package db

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/osstd/The-Blog/internal/db/backends/memory"
	"github.com/osstd/The-Blog/internal/db/backends/postgres"
	"github.com/osstd/The-Blog/internal/db/interfaces"
)

// Config holds database configuration.
type Config struct {
	Backend string // "memory" or "postgres"
	DSN     string // connection string for postgres
}

// NewDatabase creates a database instance for the configured backend.
func NewDatabase(config *Config, logger *zap.SugaredLogger) (interfaces.Database, error) {
	if config == nil {
		config = &Config{}
	}

	switch config.Backend {
	case "", "memory":
		logger.Infow("using in-memory database")
		return memory.NewDatabase(), nil
	case "postgres":
		if config.DSN == "" {
			return nil, fmt.Errorf("postgres backend requires a DSN")
		}
		return postgres.NewDatabase(config.DSN, logger), nil
	default:
		return nil, fmt.Errorf("unsupported database backend: %s", config.Backend)
	}
}

// NewInMemoryDatabase creates an in-memory database instance. Test helper.
func NewInMemoryDatabase() interfaces.Database {
	return memory.NewDatabase()
}

// ConnectAndMigrate connects to the database and creates the schema.
func ConnectAndMigrate(ctx context.Context, database interfaces.Database, schemas []*interfaces.Schema) error {
	if err := database.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if !database.IsHealthy(ctx) {
		return fmt.Errorf("database health check failed")
	}

	if err := database.Migrate(ctx, schemas); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	return nil
}
