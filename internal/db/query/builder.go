package query

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/osstd/The-Blog/internal/db/interfaces"
)

// Builder evaluates queries against in-memory records and validates data
// against a schema.
type Builder struct {
	schema *interfaces.Schema
}

// NewBuilder creates a query builder for a schema.
func NewBuilder(schema *interfaces.Schema) *Builder {
	return &Builder{schema: schema}
}

// MatchesFilters checks whether a record satisfies every filter.
func (b *Builder) MatchesFilters(record interfaces.Row, filters []interfaces.Filter) bool {
	for _, f := range filters {
		value, exists := record[f.Field]
		if !exists {
			if f.Value == nil {
				continue
			}
			return false
		}
		if value != f.Value {
			return false
		}
	}
	return true
}

// ApplySort returns the records ordered by the OrderBy specification.
func (b *Builder) ApplySort(records []interfaces.Row, orderBy []interfaces.OrderBy) []interfaces.Row {
	if len(orderBy) == 0 {
		return records
	}

	sorted := make([]interfaces.Row, len(records))
	copy(sorted, records)

	sort.SliceStable(sorted, func(i, j int) bool {
		for _, order := range orderBy {
			cmp := compare(sorted[i][order.Field], sorted[j][order.Field])
			if cmp == 0 {
				continue
			}
			if order.Direction == "desc" {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})

	return sorted
}

func compare(a, b interface{}) int {
	switch av := a.(type) {
	case int64:
		if bv, ok := b.(int64); ok {
			switch {
			case av < bv:
				return -1
			case av > bv:
				return 1
			}
			return 0
		}
	case float64:
		if bv, ok := b.(float64); ok {
			switch {
			case av < bv:
				return -1
			case av > bv:
				return 1
			}
			return 0
		}
	case string:
		if bv, ok := b.(string); ok {
			return strings.Compare(av, bv)
		}
	case time.Time:
		if bv, ok := b.(time.Time); ok {
			switch {
			case av.Before(bv):
				return -1
			case av.After(bv):
				return 1
			}
			return 0
		}
	case bool:
		if bv, ok := b.(bool); ok {
			switch {
			case !av && bv:
				return -1
			case av && !bv:
				return 1
			}
			return 0
		}
	}
	return 0
}

// ApplyPagination applies limit and offset to the records.
func (b *Builder) ApplyPagination(records []interfaces.Row, limit, offset *int) []interfaces.Row {
	start := 0
	if offset != nil {
		start = *offset
	}

	if start >= len(records) {
		return []interfaces.Row{}
	}

	end := len(records)
	if limit != nil && start+*limit < end {
		end = start + *limit
	}

	return records[start:end]
}

// ValidateData validates data against the schema: required fields present,
// no unknown fields, values of the declared type. System fields (id,
// created_at, updated_at) are store-assigned and skipped.
func (b *Builder) ValidateData(data interfaces.Row) error {
	for fieldName := range data {
		if _, known := b.schema.Fields[fieldName]; !known {
			return fmt.Errorf("unknown field '%s'", fieldName)
		}
	}

	for fieldName, fieldSchema := range b.schema.Fields {
		if fieldName == "id" || fieldName == "created_at" || fieldName == "updated_at" {
			continue
		}

		value, exists := data[fieldName]
		if !exists {
			if !fieldSchema.Nullable && fieldSchema.DefaultValue == nil {
				return fmt.Errorf("field '%s' is required", fieldName)
			}
			continue
		}

		if value == nil {
			if !fieldSchema.Nullable {
				return fmt.Errorf("field '%s' cannot be null", fieldName)
			}
			continue
		}

		if err := validateFieldType(fieldName, value, fieldSchema.Type); err != nil {
			return err
		}
	}

	return nil
}

func validateFieldType(fieldName string, value interface{}, expectedType string) error {
	switch expectedType {
	case "string":
		if _, ok := value.(string); !ok {
			return fmt.Errorf("field '%s' must be a string", fieldName)
		}
	case "int64":
		if _, ok := value.(int64); !ok {
			return fmt.Errorf("field '%s' must be an int64", fieldName)
		}
	case "bool":
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("field '%s' must be a boolean", fieldName)
		}
	case "float64":
		if _, ok := value.(float64); !ok {
			return fmt.Errorf("field '%s' must be a float64", fieldName)
		}
	case "time":
		if _, ok := value.(time.Time); !ok {
			return fmt.Errorf("field '%s' must be a time value", fieldName)
		}
	}
	return nil
}
