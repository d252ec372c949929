// Package query builds parameterized SELECT statements for filtered,
// sorted, and paginated reads over a single table.
package query

import "strings"

// Projection maps public field names to table columns. Only projected
// fields may be filtered or sorted on.
type Projection struct {
	table   string
	fields  map[string]string
	columns []string
}

// NewProjection creates an empty projection over table.
func NewProjection(table string) *Projection {
	return &Projection{
		table:  table,
		fields: make(map[string]string),
	}
}

// Project adds column to the select list, addressable as field.
func (p *Projection) Project(column, field string) *Projection {
	p.fields[field] = column
	p.columns = append(p.columns, column)
	return p
}

// Table returns the table name.
func (p *Projection) Table() string {
	return p.table
}

// Column returns the column behind field.
func (p *Projection) Column(field string) (string, bool) {
	col, ok := p.fields[field]
	return col, ok
}

// Columns returns the select list.
func (p *Projection) Columns() string {
	return strings.Join(p.columns, ", ")
}
