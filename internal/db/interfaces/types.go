package interfaces

import (
	"errors"
	"strconv"
)

// ID is a surrogate identifier assigned by the store on insert.
type ID int64

func (id ID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// Row is a single stored record keyed by column name.
type Row = map[string]interface{}

// Filter is an equality condition on a single field.
type Filter struct {
	Field string
	Value interface{}
}

// OrderBy represents sorting configuration.
type OrderBy struct {
	Field     string
	Direction string // "asc" or "desc"
}

// Query represents a query with filtering, sorting, and pagination.
// Conditions are combined with AND.
type Query struct {
	Where   []Filter
	OrderBy []OrderBy
	Limit   *int
	Offset  *int
}

// ResultPage holds query results together with the unpaginated total.
type ResultPage struct {
	Data  []Row
	Total int64
}

// Schema represents an entity schema definition.
type Schema struct {
	TableName string
	Fields    map[string]FieldSchema
	Indexes   []Index
}

// FieldSchema represents a column definition.
type FieldSchema struct {
	Type         string // "string", "int64", "bool", "float64", "time"
	Nullable     bool
	DefaultValue interface{}
	Unique       bool
	PrimaryKey   bool
	ForeignKey   *ForeignKey
}

// ForeignKey represents a foreign key constraint.
type ForeignKey struct {
	Table    string
	Column   string
	OnDelete string // "CASCADE" or "RESTRICT" (default)
}

// Index represents a database index.
type Index struct {
	Name    string
	Columns []string
	Unique  bool
}

// Sentinel errors shared by all backends. Callers branch on these; a
// backend's native error types never cross this boundary.
var (
	ErrNotFound             = errors.New("record not found")
	ErrUniqueConstraint     = errors.New("unique constraint violation")
	ErrForeignKeyConstraint = errors.New("foreign key constraint violation")
	ErrTransactionCompleted = errors.New("transaction already completed")
	ErrDatabaseNotConnected = errors.New("database not connected")
)

// DatabaseError wraps any backend failure not classified by a sentinel,
// carrying the operation name and a readable message instead of driver
// diagnostics.
type DatabaseError struct {
	Op  string
	Err error
}

func (e *DatabaseError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *DatabaseError) Unwrap() error {
	return e.Err
}
