package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/osstd/The-Blog/internal/db/interfaces"
	"github.com/osstd/The-Blog/internal/db/query"
)

// Repository implements the Repository interface on PostgreSQL.
type Repository struct {
	db        *Database
	schema    *interfaces.Schema
	builder   *query.Builder
	tableName string
	columns   []string
}

// NewRepository creates a postgres repository bound to a schema.
func NewRepository(db *Database, schema *interfaces.Schema) *Repository {
	return &Repository{
		db:        db,
		schema:    schema,
		builder:   query.NewBuilder(schema),
		tableName: schema.TableName,
		columns:   orderedFields(schema),
	}
}

func (r *Repository) selectColumns() string {
	quoted := make([]string, len(r.columns))
	for i, c := range r.columns {
		quoted[i] = quoteIdent(c)
	}
	return strings.Join(quoted, ", ")
}

// GetByID retrieves a single record by its ID.
func (r *Repository) GetByID(ctx context.Context, id interfaces.ID) (interfaces.Row, error) {
	q, err := r.db.querier(ctx)
	if err != nil {
		return nil, err
	}

	sql := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1",
		r.selectColumns(), quoteIdent(r.tableName))

	row, err := r.scanRow(q.QueryRow(ctx, sql, int64(id)))
	if err != nil {
		return nil, r.mapError("get "+r.tableName, err)
	}
	return row, nil
}

// FindOne retrieves the first record matching the query.
func (r *Repository) FindOne(ctx context.Context, qry *interfaces.Query) (interfaces.Row, error) {
	if qry == nil {
		qry = &interfaces.Query{}
	}

	limit := 1
	scoped := *qry
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
func (r *Repository) FindMany(ctx context.Context, qry *interfaces.Query) (*interfaces.ResultPage, error) {
	if qry == nil {
		qry = &interfaces.Query{}
	}

	q, err := r.db.querier(ctx)
	if err != nil {
		return nil, err
	}

	where, args := r.buildWhere(qry.Where)

	sql := fmt.Sprintf("SELECT %s FROM %s%s", r.selectColumns(), quoteIdent(r.tableName), where)
	if len(qry.OrderBy) > 0 {
		var orders []string
		for _, order := range qry.OrderBy {
			dir := "ASC"
			if order.Direction == "desc" {
				dir = "DESC"
			}
			orders = append(orders, quoteIdent(order.Field)+" "+dir)
		}
		sql += " ORDER BY " + strings.Join(orders, ", ")
	}
	if qry.Limit != nil {
		sql += fmt.Sprintf(" LIMIT %d", *qry.Limit)
	}
	if qry.Offset != nil {
		sql += fmt.Sprintf(" OFFSET %d", *qry.Offset)
	}

	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, r.mapError("find "+r.tableName, err)
	}
	defer rows.Close()

	data := []interfaces.Row{}
	for rows.Next() {
		row, err := r.scanValues(rows)
		if err != nil {
			return nil, r.mapError("find "+r.tableName, err)
		}
		data = append(data, row)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapError("find "+r.tableName, err)
	}

	var total int64
	countSQL := fmt.Sprintf("SELECT COUNT(*) FROM %s%s", quoteIdent(r.tableName), where)
	if err := q.QueryRow(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, r.mapError("count "+r.tableName, err)
	}

	return &interfaces.ResultPage{Data: data, Total: total}, nil
}

// Create inserts a new record and returns it with store-assigned fields.
func (r *Repository) Create(ctx context.Context, data interfaces.Row) (interfaces.Row, error) {
	if err := r.builder.ValidateData(data); err != nil {
		return nil, &interfaces.DatabaseError{Op: "create " + r.tableName, Err: err}
	}

	q, err := r.db.querier(ctx)
	if err != nil {
		return nil, err
	}

	record := make(interfaces.Row, len(data))
	for k, v := range data {
		record[k] = v
	}
	for fieldName, fieldSchema := range r.schema.Fields {
		if _, exists := record[fieldName]; !exists && fieldSchema.DefaultValue != nil {
			record[fieldName] = fieldSchema.DefaultValue
		}
	}

	now := time.Now().UTC()
	record["created_at"] = now
	record["updated_at"] = now

	var cols []string
	var placeholders []string
	var args []any
	i := 0
	for _, name := range r.columns {
		if name == "id" {
			continue
		}
		value, exists := record[name]
		if !exists {
			continue
		}
		i++
		cols = append(cols, quoteIdent(name))
		placeholders = append(placeholders, fmt.Sprintf("$%d", i))
		args = append(args, value)
	}

	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING %s",
		quoteIdent(r.tableName), strings.Join(cols, ", "),
		strings.Join(placeholders, ", "), r.selectColumns())

	row, err := r.scanRow(q.QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, r.mapError("create "+r.tableName, err)
	}
	return row, nil
}

// Update modifies an existing record by ID and returns the result.
func (r *Repository) Update(ctx context.Context, id interfaces.ID, data interfaces.Row) (interfaces.Row, error) {
	q, err := r.db.querier(ctx)
	if err != nil {
		return nil, err
	}

	var sets []string
	var args []any
	i := 0
	for _, name := range r.columns {
		if name == "id" || name == "created_at" || name == "updated_at" {
			continue
		}
		value, exists := data[name]
		if !exists {
			continue
		}
		i++
		sets = append(sets, fmt.Sprintf("%s = $%d", quoteIdent(name), i))
		args = append(args, value)
	}

	i++
	sets = append(sets, fmt.Sprintf("updated_at = $%d", i))
	args = append(args, time.Now().UTC())

	i++
	args = append(args, int64(id))

	sql := fmt.Sprintf("UPDATE %s SET %s WHERE id = $%d RETURNING %s",
		quoteIdent(r.tableName), strings.Join(sets, ", "), i, r.selectColumns())

	row, err := r.scanRow(q.QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, r.mapError("update "+r.tableName, err)
	}
	return row, nil
}

// Delete removes a record by ID. Cascades are declared in the DDL.
func (r *Repository) Delete(ctx context.Context, id interfaces.ID) error {
	q, err := r.db.querier(ctx)
	if err != nil {
		return err
	}

	sql := fmt.Sprintf("DELETE FROM %s WHERE id = $1", quoteIdent(r.tableName))
	tag, err := q.Exec(ctx, sql, int64(id))
	if err != nil {
		return r.mapError("delete "+r.tableName, err)
	}
	if tag.RowsAffected() == 0 {
		return interfaces.ErrNotFound
	}
	return nil
}

// Count returns the number of records matching the query.
func (r *Repository) Count(ctx context.Context, qry *interfaces.Query) (int64, error) {
	if qry == nil {
		qry = &interfaces.Query{}
	}

	q, err := r.db.querier(ctx)
	if err != nil {
		return 0, err
	}

	where, args := r.buildWhere(qry.Where)
	sql := fmt.Sprintf("SELECT COUNT(*) FROM %s%s", quoteIdent(r.tableName), where)

	var total int64
	if err := q.QueryRow(ctx, sql, args...).Scan(&total); err != nil {
		return 0, r.mapError("count "+r.tableName, err)
	}
	return total, nil
}

// Schema returns the schema this repository is bound to.
func (r *Repository) Schema() *interfaces.Schema {
	return r.schema
}

func (r *Repository) buildWhere(filters []interfaces.Filter) (string, []any) {
	if len(filters) == 0 {
		return "", nil
	}

	var conds []string
	var args []any
	for i, f := range filters {
		conds = append(conds, fmt.Sprintf("%s = $%d", quoteIdent(f.Field), i+1))
		args = append(args, f.Value)
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

type scannable interface {
	Scan(dest ...any) error
}

func (r *Repository) scanRow(row pgx.Row) (interfaces.Row, error) {
	return r.scanValues(row)
}

func (r *Repository) scanValues(src scannable) (interfaces.Row, error) {
	dests := make([]any, len(r.columns))
	for i := range dests {
		dests[i] = new(any)
	}
	if err := src.Scan(dests...); err != nil {
		return nil, err
	}

	row := make(interfaces.Row, len(r.columns))
	for i, name := range r.columns {
		row[name] = normalize(*(dests[i].(*any)))
	}
	return row, nil
}

// normalize keeps both backends returning the same Go types.
func normalize(value any) any {
	switch v := value.(type) {
	case int32:
		return int64(v)
	case float32:
		return float64(v)
	case time.Time:
		return v.UTC()
	default:
		return v
	}
}

// mapError translates pgx errors into the gateway sentinels. The driver's
// error types never leave this package.
func (r *Repository) mapError(op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return interfaces.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return fmt.Errorf("%w: %s", interfaces.ErrUniqueConstraint, pgErr.ConstraintName)
		case "23503":
			return fmt.Errorf("%w: %s", interfaces.ErrForeignKeyConstraint, pgErr.ConstraintName)
		}
		return &interfaces.DatabaseError{Op: op, Err: errors.New(pgErr.Message)}
	}

	return &interfaces.DatabaseError{Op: op, Err: errors.New(err.Error())}
}
