package memory

import (
	"context"
	"sync"

	"github.com/osstd/The-Blog/internal/db/interfaces"
)

// Database implements the Database interface over process memory. It enforces
// the same constraints as the postgres backend (unique fields, unique
// indexes, foreign keys, cascade deletes) so tests exercise identical
// behavior.
type Database struct {
	mu        sync.RWMutex
	tables    map[string]map[int64]interfaces.Row // tableName -> id -> record
	nextID    map[string]int64
	schemas   map[string]*interfaces.Schema
	connected bool

	// txMu serializes transactions so a snapshot captures a consistent state.
	txMu sync.Mutex
}

// NewDatabase creates a new in-memory database.
func NewDatabase() *Database {
	return &Database{
		tables:  make(map[string]map[int64]interfaces.Row),
		nextID:  make(map[string]int64),
		schemas: make(map[string]*interfaces.Schema),
	}
}

// Connect marks the database as connected.
func (db *Database) Connect(ctx context.Context) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.connected = true
	return nil
}

// Disconnect drops all data and marks the database as disconnected.
func (db *Database) Disconnect(ctx context.Context) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.connected = false
	db.tables = make(map[string]map[int64]interfaces.Row)
	db.nextID = make(map[string]int64)
	return nil
}

// IsHealthy reports whether the database is connected.
func (db *Database) IsHealthy(ctx context.Context) bool {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.connected
}

// Transaction executes fn atomically. On error the full pre-transaction state
// is restored. Transactions are serialized against each other; repository
// calls inside fn use the plain context and operate on live tables.
func (db *Database) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	db.mu.RLock()
	connected := db.connected
	db.mu.RUnlock()
	if !connected {
		return interfaces.ErrDatabaseNotConnected
	}

	db.txMu.Lock()
	defer db.txMu.Unlock()

	snapshot, nextIDs := db.snapshot()

	if err := fn(ctx); err != nil {
		db.restore(snapshot, nextIDs)
		return err
	}

	return nil
}

func (db *Database) snapshot() (map[string]map[int64]interfaces.Row, map[string]int64) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	tables := make(map[string]map[int64]interfaces.Row, len(db.tables))
	for name, table := range db.tables {
		tableCopy := make(map[int64]interfaces.Row, len(table))
		for id, record := range table {
			recordCopy := make(interfaces.Row, len(record))
			for k, v := range record {
				recordCopy[k] = v
			}
			tableCopy[id] = recordCopy
		}
		tables[name] = tableCopy
	}

	nextIDs := make(map[string]int64, len(db.nextID))
	for name, id := range db.nextID {
		nextIDs[name] = id
	}

	return tables, nextIDs
}

func (db *Database) restore(tables map[string]map[int64]interfaces.Row, nextIDs map[string]int64) {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.tables = tables
	db.nextID = nextIDs
}

// Repository returns a repository for the given schema.
func (db *Database) Repository(schema *interfaces.Schema) interfaces.Repository {
	db.mu.Lock()
	db.schemas[schema.TableName] = schema
	if _, exists := db.tables[schema.TableName]; !exists {
		db.tables[schema.TableName] = make(map[int64]interfaces.Row)
	}
	db.mu.Unlock()

	return NewRepository(db, schema)
}

// Migrate registers schemas and creates their tables.
func (db *Database) Migrate(ctx context.Context, schemas []*interfaces.Schema) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if !db.connected {
		return interfaces.ErrDatabaseNotConnected
	}

	for _, schema := range schemas {
		db.schemas[schema.TableName] = schema
		if _, exists := db.tables[schema.TableName]; !exists {
			db.tables[schema.TableName] = make(map[int64]interfaces.Row)
		}
	}

	return nil
}

// Seed inserts initial data, skipping rows that violate a unique constraint
// (already seeded on a previous start).
func (db *Database) Seed(ctx context.Context, schema *interfaces.Schema, data []interfaces.Row) error {
	db.mu.RLock()
	connected := db.connected
	db.mu.RUnlock()
	if !connected {
		return interfaces.ErrDatabaseNotConnected
	}

	repo := db.Repository(schema)
	for _, record := range data {
		if _, err := repo.Create(ctx, record); err != nil {
			if isUniqueViolation(err) {
				continue
			}
			return err
		}
	}

	return nil
}

// Clear removes all data from all tables. Test helper.
func (db *Database) Clear() {
	db.mu.Lock()
	defer db.mu.Unlock()

	for tableName := range db.tables {
		db.tables[tableName] = make(map[int64]interfaces.Row)
	}
	db.nextID = make(map[string]int64)
}
