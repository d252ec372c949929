package query

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// ErrUnknownField is returned when a filter or sort names a field the
// projection does not expose.
var ErrUnknownField = errors.New("unknown field")

// SortField is one ORDER BY term.
type SortField struct {
	Field      string
	Descending bool
}

// ParseSort parses a comma-separated sort string such as "kind,-created_at".
// A leading "-" sorts descending. Empty input returns nil.
func ParseSort(s string) []SortField {
	var fields []SortField
	for part := range strings.SplitSeq(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, desc := strings.CutPrefix(part, "-")
		fields = append(fields, SortField{Field: name, Descending: desc})
	}
	return fields
}

type condition struct {
	column string
	arg    any
}

// Builder accumulates equality conditions and ordering for a projection.
// Arguments are always bound as $n parameters.
type Builder struct {
	projection *Projection
	conditions []condition
	order      []SortField
	fallback   []SortField
	err        error
}

// NewBuilder creates a Builder that orders by defaultSort when no explicit
// order is set.
func NewBuilder(projection *Projection, defaultSort ...SortField) *Builder {
	return &Builder{
		projection: projection,
		fallback:   defaultSort,
	}
}

// WhereEquals adds field = value. Nil values and empty strings are skipped.
func (b *Builder) WhereEquals(field string, value any) *Builder {
	if isZero(value) {
		return b
	}
	col, ok := b.projection.Column(field)
	if !ok {
		b.fail(field)
		return b
	}
	b.conditions = append(b.conditions, condition{column: col, arg: value})
	return b
}

// OrderBy replaces the default ordering.
func (b *Builder) OrderBy(fields []SortField) *Builder {
	for _, f := range fields {
		if _, ok := b.projection.Column(f.Field); !ok {
			b.fail(f.Field)
			return b
		}
	}
	if len(fields) > 0 {
		b.order = fields
	}
	return b
}

// Err returns the first unknown field encountered.
func (b *Builder) Err() error {
	return b.err
}

// BuildCount returns a COUNT(*) statement over the current conditions.
func (b *Builder) BuildCount() (string, []any) {
	where, args := b.where()
	return fmt.Sprintf("SELECT COUNT(*) FROM %s%s", b.projection.Table(), where), args
}

// BuildPage returns a SELECT with ordering and bound LIMIT and OFFSET.
func (b *Builder) BuildPage(limit, offset int) (string, []any) {
	where, args := b.where()
	n := len(args)
	sql := fmt.Sprintf(
		"SELECT %s FROM %s%s%s LIMIT $%d OFFSET $%d",
		b.projection.Columns(),
		b.projection.Table(),
		where,
		b.orderBy(),
		n+1, n+2,
	)
	return sql, append(args, limit, offset)
}

func (b *Builder) fail(field string) {
	if b.err == nil {
		b.err = fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
}

func (b *Builder) where() (string, []any) {
	if len(b.conditions) == 0 {
		return "", nil
	}
	clauses := make([]string, len(b.conditions))
	args := make([]any, len(b.conditions))
	for i, c := range b.conditions {
		clauses[i] = fmt.Sprintf("%s = $%d", c.column, i+1)
		args[i] = c.arg
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func (b *Builder) orderBy() string {
	fields := b.order
	if len(fields) == 0 {
		fields = b.fallback
	}
	if len(fields) == 0 {
		return ""
	}

	parts := make([]string, len(fields))
	for i, f := range fields {
		col, _ := b.projection.Column(f.Field)
		dir := "ASC"
		if f.Descending {
			dir = "DESC"
		}
		parts[i] = col + " " + dir
	}
	return " ORDER BY " + strings.Join(parts, ", ")
}

func isZero(value any) bool {
	if value == nil {
		return true
	}
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return v.IsNil()
	case reflect.String:
		return v.Len() == 0
	}
	return false
}
