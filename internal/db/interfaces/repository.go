package interfaces

import "context"

// Repository provides CRUD operations for a single entity type. Reads
// return ErrNotFound explicitly rather than an empty row; writes surface
// ErrUniqueConstraint and ErrForeignKeyConstraint distinctly so callers can
// produce specific user-facing messages.
type Repository interface {
	// GetByID retrieves a single record by its ID.
	GetByID(ctx context.Context, id ID) (Row, error)

	// FindOne retrieves the first record matching the query.
	FindOne(ctx context.Context, query *Query) (Row, error)

	// FindMany retrieves the records matching the query.
	FindMany(ctx context.Context, query *Query) (*ResultPage, error)

	// Create inserts a new record and returns it with store-assigned fields.
	Create(ctx context.Context, data Row) (Row, error)

	// Update modifies an existing record by ID and returns the result.
	Update(ctx context.Context, id ID, data Row) (Row, error)

	// Delete removes a record by ID, cascading per the schema's foreign keys.
	Delete(ctx context.Context, id ID) error

	// Count returns the number of records matching the query.
	Count(ctx context.Context, query *Query) (int64, error)

	// Schema returns the schema this repository is bound to.
	Schema() *Schema
}
