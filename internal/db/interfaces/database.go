package interfaces

import "context"

// Database is the storage gateway. It is the only component permitted to
// issue transactional operations against the underlying store.
type Database interface {
	// Connect establishes a connection to the store.
	Connect(ctx context.Context) error

	// Disconnect closes the connection.
	Disconnect(ctx context.Context) error

	// IsHealthy reports whether the connection is usable.
	IsHealthy(ctx context.Context) bool

	// Transaction executes fn atomically: every repository operation made
	// with the context passed to fn commits together or not at all.
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Repository returns a repository bound to the given schema.
	Repository(schema *Schema) Repository

	// Migrate creates tables and indexes for the given schemas.
	Migrate(ctx context.Context, schemas []*Schema) error

	// Seed inserts initial data, skipping rows that already exist.
	Seed(ctx context.Context, schema *Schema, data []Row) error
}
