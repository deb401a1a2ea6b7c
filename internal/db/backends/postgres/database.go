package postgres

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/osstd/The-Blog/internal/db/interfaces"
)

type txContextKey struct{}

// querier is satisfied by both *pgxpool.Pool and pgx.Tx, so repositories run
// against whichever the context carries.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Database implements the Database interface on PostgreSQL via pgx.
type Database struct {
	dsn    string
	logger *zap.SugaredLogger

	mu   sync.RWMutex
	pool *pgxpool.Pool
}

// NewDatabase creates a postgres database for the given DSN.
func NewDatabase(dsn string, logger *zap.SugaredLogger) *Database {
	return &Database{dsn: dsn, logger: logger}
}

// Connect opens the connection pool and verifies it with a ping.
func (db *Database) Connect(ctx context.Context) error {
	pool, err := pgxpool.New(ctx, db.dsn)
	if err != nil {
		return &interfaces.DatabaseError{Op: "connect", Err: errors.New(err.Error())}
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return &interfaces.DatabaseError{Op: "connect", Err: errors.New(err.Error())}
	}

	db.mu.Lock()
	db.pool = pool
	db.mu.Unlock()

	db.logger.Infow("connected to postgres")
	return nil
}

// Disconnect closes the connection pool.
func (db *Database) Disconnect(ctx context.Context) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.pool != nil {
		db.pool.Close()
		db.pool = nil
	}
	return nil
}

// IsHealthy pings the pool.
func (db *Database) IsHealthy(ctx context.Context) bool {
	db.mu.RLock()
	pool := db.pool
	db.mu.RUnlock()

	if pool == nil {
		return false
	}
	return pool.Ping(ctx) == nil
}

// Transaction executes fn inside a database transaction. Repository calls
// made with the context passed to fn run on the transaction and commit or
// roll back together.
func (db *Database) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	db.mu.RLock()
	pool := db.pool
	db.mu.RUnlock()

	if pool == nil {
		return interfaces.ErrDatabaseNotConnected
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return &interfaces.DatabaseError{Op: "begin transaction", Err: errors.New(err.Error())}
	}

	txCtx := context.WithValue(ctx, txContextKey{}, tx)

	if err := fn(txCtx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			db.logger.Warnw("transaction rollback failed", "error", rbErr)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		if errors.Is(err, pgx.ErrTxClosed) {
			return interfaces.ErrTransactionCompleted
		}
		return &interfaces.DatabaseError{Op: "commit transaction", Err: errors.New(err.Error())}
	}

	return nil
}

// querier returns the transaction carried by ctx, or the pool.
func (db *Database) querier(ctx context.Context) (querier, error) {
	if tx, ok := ctx.Value(txContextKey{}).(pgx.Tx); ok {
		return tx, nil
	}

	db.mu.RLock()
	pool := db.pool
	db.mu.RUnlock()

	if pool == nil {
		return nil, interfaces.ErrDatabaseNotConnected
	}
	return pool, nil
}

// Repository returns a repository bound to the given schema.
func (db *Database) Repository(schema *interfaces.Schema) interfaces.Repository {
	return NewRepository(db, schema)
}

// Migrate creates tables and indexes for the schemas, in order. Production
// deployments run the goose migrations instead; this covers fresh
// environments where only the application runs.
func (db *Database) Migrate(ctx context.Context, schemas []*interfaces.Schema) error {
	q, err := db.querier(ctx)
	if err != nil {
		return err
	}

	for _, schema := range schemas {
		ddl := buildCreateTable(schema)
		if _, err := q.Exec(ctx, ddl); err != nil {
			return &interfaces.DatabaseError{Op: "migrate " + schema.TableName, Err: errors.New(err.Error())}
		}
		for _, index := range schema.Indexes {
			if _, err := q.Exec(ctx, buildCreateIndex(schema.TableName, index)); err != nil {
				return &interfaces.DatabaseError{Op: "migrate index " + index.Name, Err: errors.New(err.Error())}
			}
		}
	}

	return nil
}

// Seed inserts initial data, skipping rows that already exist.
func (db *Database) Seed(ctx context.Context, schema *interfaces.Schema, data []interfaces.Row) error {
	repo := db.Repository(schema)
	for _, record := range data {
		if _, err := repo.Create(ctx, record); err != nil {
			if errors.Is(err, interfaces.ErrUniqueConstraint) {
				continue
			}
			return err
		}
	}
	return nil
}

func buildCreateTable(schema *interfaces.Schema) string {
	var cols []string
	for _, name := range orderedFields(schema) {
		field := schema.Fields[name]
		if field.PrimaryKey {
			cols = append(cols, quoteIdent(name)+" BIGSERIAL PRIMARY KEY")
			continue
		}

		parts := []string{quoteIdent(name), sqlType(field.Type)}
		if !field.Nullable {
			parts = append(parts, "NOT NULL")
		}
		if field.Unique {
			parts = append(parts, "UNIQUE")
		}
		if field.DefaultValue != nil {
			parts = append(parts, "DEFAULT "+sqlLiteral(field.DefaultValue))
		}
		if fk := field.ForeignKey; fk != nil {
			onDelete := fk.OnDelete
			if onDelete == "" {
				onDelete = "RESTRICT"
			}
			parts = append(parts, fmt.Sprintf("REFERENCES %s(%s) ON DELETE %s",
				quoteIdent(fk.Table), quoteIdent(fk.Column), onDelete))
		}
		cols = append(cols, strings.Join(parts, " "))
	}

	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)",
		quoteIdent(schema.TableName), strings.Join(cols, ", "))
}

func buildCreateIndex(tableName string, index interfaces.Index) string {
	unique := ""
	if index.Unique {
		unique = "UNIQUE "
	}
	quoted := make([]string, len(index.Columns))
	for i, c := range index.Columns {
		quoted[i] = quoteIdent(c)
	}
	return fmt.Sprintf("CREATE %sINDEX IF NOT EXISTS %s ON %s (%s)",
		unique, quoteIdent(index.Name), quoteIdent(tableName), strings.Join(quoted, ", "))
}

// orderedFields returns field names deterministically: id first, timestamps
// last, the rest alphabetical.
func orderedFields(schema *interfaces.Schema) []string {
	var names []string
	for name := range schema.Fields {
		if name == "id" || name == "created_at" || name == "updated_at" {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	ordered := make([]string, 0, len(schema.Fields))
	if _, ok := schema.Fields["id"]; ok {
		ordered = append(ordered, "id")
	}
	ordered = append(ordered, names...)
	if _, ok := schema.Fields["created_at"]; ok {
		ordered = append(ordered, "created_at")
	}
	if _, ok := schema.Fields["updated_at"]; ok {
		ordered = append(ordered, "updated_at")
	}
	return ordered
}

func sqlType(fieldType string) string {
	switch fieldType {
	case "string":
		return "TEXT"
	case "int64":
		return "BIGINT"
	case "bool":
		return "BOOLEAN"
	case "float64":
		return "DOUBLE PRECISION"
	case "time":
		return "TIMESTAMPTZ"
	default:
		return "TEXT"
	}
}

func sqlLiteral(value interface{}) string {
	switch v := value.(type) {
	case bool:
		if v {
			return "TRUE"
		}
		return "FALSE"
	case string:
		return "'" + strings.ReplaceAll(v, "'", "''") + "'"
	default:
		return fmt.Sprintf("%v", v)
	}
}

func quoteIdent(name string) string {
	return `"` + name + `"`
}
