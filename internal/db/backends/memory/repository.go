package memory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/osstd/The-Blog/internal/db/interfaces"
	"github.com/osstd/The-Blog/internal/db/query"
)

// Repository implements the Repository interface for in-memory storage.
type Repository struct {
	db        *Database
	schema    *interfaces.Schema
	builder   *query.Builder
	tableName string
}

// NewRepository creates an in-memory repository bound to a schema.
func NewRepository(db *Database, schema *interfaces.Schema) *Repository {
	return &Repository{
		db:        db,
		schema:    schema,
		builder:   query.NewBuilder(schema),
		tableName: schema.TableName,
	}
}

// GetByID retrieves a single record by its ID.
func (r *Repository) GetByID(ctx context.Context, id interfaces.ID) (interfaces.Row, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	table, exists := r.db.tables[r.tableName]
	if !exists {
		return nil, interfaces.ErrNotFound
	}

	record, exists := table[int64(id)]
	if !exists {
		return nil, interfaces.ErrNotFound
	}

	return copyRow(record), nil
}

// FindOne retrieves the first record matching the query.
func (r *Repository) FindOne(ctx context.Context, q *interfaces.Query) (interfaces.Row, error) {
	if q == nil {
		q = &interfaces.Query{}
	}

	limit := 1
	scoped := *q
	scoped.Limit = &limit

	result, err := r.FindMany(ctx, &scoped)
	if err != nil {
		return nil, err
	}
	if len(result.Data) == 0 {
		return nil, interfaces.ErrNotFound
	}

	return result.Data[0], nil
}

// FindMany retrieves the records matching the query.
func (r *Repository) FindMany(ctx context.Context, q *interfaces.Query) (*interfaces.ResultPage, error) {
	if q == nil {
		q = &interfaces.Query{}
	}

	r.db.mu.RLock()
	table, exists := r.db.tables[r.tableName]
	if !exists {
		r.db.mu.RUnlock()
		return &interfaces.ResultPage{Data: []interfaces.Row{}}, nil
	}

	records := make([]interfaces.Row, 0, len(table))
	for _, record := range table {
		records = append(records, copyRow(record))
	}
	r.db.mu.RUnlock()

	if len(q.Where) > 0 {
		filtered := records[:0]
		for _, record := range records {
			if r.builder.MatchesFilters(record, q.Where) {
				filtered = append(filtered, record)
			}
		}
		records = filtered
	}

	total := int64(len(records))

	records = r.builder.ApplySort(records, q.OrderBy)
	records = r.builder.ApplyPagination(records, q.Limit, q.Offset)

	return &interfaces.ResultPage{Data: records, Total: total}, nil
}

// Create inserts a new record, assigning the next ID for the table.
func (r *Repository) Create(ctx context.Context, data interfaces.Row) (interfaces.Row, error) {
	if err := r.builder.ValidateData(data); err != nil {
		return nil, &interfaces.DatabaseError{Op: "create " + r.tableName, Err: err}
	}

	record := copyRow(data)
	for fieldName, fieldSchema := range r.schema.Fields {
		if _, exists := record[fieldName]; !exists && fieldSchema.DefaultValue != nil {
			record[fieldName] = fieldSchema.DefaultValue
		}
	}

	now := time.Now().UTC()
	record["created_at"] = now
	record["updated_at"] = now

	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	table, exists := r.db.tables[r.tableName]
	if !exists {
		table = make(map[int64]interfaces.Row)
		r.db.tables[r.tableName] = table
	}

	if err := r.checkUnique(table, record, 0); err != nil {
		return nil, err
	}
	if err := r.checkForeignKeys(record); err != nil {
		return nil, err
	}

	r.db.nextID[r.tableName]++
	id := r.db.nextID[r.tableName]
	record["id"] = id
	table[id] = record

	return copyRow(record), nil
}

// Update modifies an existing record by ID.
func (r *Repository) Update(ctx context.Context, id interfaces.ID, data interfaces.Row) (interfaces.Row, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	table, exists := r.db.tables[r.tableName]
	if !exists {
		return nil, interfaces.ErrNotFound
	}

	existing, exists := table[int64(id)]
	if !exists {
		return nil, interfaces.ErrNotFound
	}

	updated := copyRow(existing)
	for k, v := range data {
		if k == "id" || k == "created_at" {
			continue
		}
		updated[k] = v
	}
	updated["updated_at"] = time.Now().UTC()

	if err := r.checkUnique(table, updated, int64(id)); err != nil {
		return nil, err
	}
	if err := r.checkForeignKeys(updated); err != nil {
		return nil, err
	}

	table[int64(id)] = updated
	return copyRow(updated), nil
}

// Delete removes a record by ID, cascading or restricting per the foreign
// keys declared by referencing schemas.
func (r *Repository) Delete(ctx context.Context, id interfaces.ID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	return r.db.deleteLocked(r.tableName, int64(id))
}

// Count returns the number of records matching the query.
func (r *Repository) Count(ctx context.Context, q *interfaces.Query) (int64, error) {
	if q == nil {
		q = &interfaces.Query{}
	}

	result, err := r.FindMany(ctx, &interfaces.Query{Where: q.Where})
	if err != nil {
		return 0, err
	}

	return result.Total, nil
}

// Schema returns the schema this repository is bound to.
func (r *Repository) Schema() *interfaces.Schema {
	return r.schema
}

func (r *Repository) checkUnique(table map[int64]interfaces.Row, record interfaces.Row, excludeID int64) error {
	for fieldName, fieldSchema := range r.schema.Fields {
		if !fieldSchema.Unique {
			continue
		}

		value, exists := record[fieldName]
		if !exists || value == nil {
			continue
		}

		for id, existing := range table {
			if id == excludeID {
				continue
			}
			if existing[fieldName] == value {
				return fmt.Errorf("%w: field '%s'", interfaces.ErrUniqueConstraint, fieldName)
			}
		}
	}

	for _, index := range r.schema.Indexes {
		if !index.Unique {
			continue
		}

		for id, existing := range table {
			if id == excludeID {
				continue
			}

			match := true
			for _, column := range index.Columns {
				if record[column] != existing[column] {
					match = false
					break
				}
			}
			if match {
				return fmt.Errorf("%w: index '%s'", interfaces.ErrUniqueConstraint, index.Name)
			}
		}
	}

	return nil
}

func (r *Repository) checkForeignKeys(record interfaces.Row) error {
	for fieldName, fieldSchema := range r.schema.Fields {
		if fieldSchema.ForeignKey == nil {
			continue
		}

		value, exists := record[fieldName]
		if !exists || value == nil {
			continue
		}

		refTable, exists := r.db.tables[fieldSchema.ForeignKey.Table]
		if !exists {
			return fmt.Errorf("%w: table '%s' does not exist", interfaces.ErrForeignKeyConstraint, fieldSchema.ForeignKey.Table)
		}

		found := false
		for _, refRecord := range refTable {
			if refRecord[fieldSchema.ForeignKey.Column] == value {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("%w: field '%s' references missing record", interfaces.ErrForeignKeyConstraint, fieldName)
		}
	}

	return nil
}

// deleteLocked removes a record and walks every registered schema for
// foreign keys pointing at the deleted table: CASCADE children are deleted
// recursively, anything else blocks the delete. Caller holds db.mu.
func (db *Database) deleteLocked(tableName string, id int64) error {
	table, exists := db.tables[tableName]
	if !exists {
		return interfaces.ErrNotFound
	}
	record, exists := table[id]
	if !exists {
		return interfaces.ErrNotFound
	}

	for _, schema := range db.schemas {
		for fieldName, fieldSchema := range schema.Fields {
			fk := fieldSchema.ForeignKey
			if fk == nil || fk.Table != tableName {
				continue
			}

			refValue := record[fk.Column]
			childTable := db.tables[schema.TableName]

			var children []int64
			for childID, child := range childTable {
				if child[fieldName] == refValue {
					children = append(children, childID)
				}
			}

			if len(children) == 0 {
				continue
			}
			if fk.OnDelete != "CASCADE" {
				return fmt.Errorf("%w: referenced by table '%s'", interfaces.ErrForeignKeyConstraint, schema.TableName)
			}
			for _, childID := range children {
				if err := db.deleteLocked(schema.TableName, childID); err != nil {
					return err
				}
			}
		}
	}

	delete(table, id)
	return nil
}

func copyRow(record interfaces.Row) interfaces.Row {
	result := make(interfaces.Row, len(record))
	for k, v := range record {
		result[k] = v
	}
	return result
}

func isUniqueViolation(err error) bool {
	return errors.Is(err, interfaces.ErrUniqueConstraint)
}
