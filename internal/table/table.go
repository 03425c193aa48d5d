package table

import (
	"fmt"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
)

// Table is an ordered collection of equally sized columns.
type Table struct {
	columns map[string]Column
	order   []string
}

// New creates a Table from columns, preserving their order.
func New(columns ...Column) *Table {
	byName := make(map[string]Column, len(columns))
	order := make([]string, 0, len(columns))

	for _, c := range columns {
		byName[c.Name()] = c
		order = append(order, c.Name())
	}

	return &Table{columns: byName, order: order}
}

// Columns returns the column names in order.
func (t *Table) Columns() []string {
	if len(t.order) == 0 {
		return []string{}
	}
	return append([]string(nil), t.order...)
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if len(t.order) == 0 {
		return 0
	}
	if c, exists := t.columns[t.order[0]]; exists {
		return c.Len()
	}
	return 0
}

// Width returns the number of columns.
func (t *Table) Width() int {
	return len(t.columns)
}

// Column returns the column with the given name.
func (t *Table) Column(name string) (Column, bool) {
	c, exists := t.columns[name]
	return c, exists
}

// HasColumn checks if a column exists.
func (t *Table) HasColumn(name string) bool {
	_, exists := t.columns[name]
	return exists
}

// SameSchema reports whether both tables have the same columns in the
// same order with the same Arrow types.
func (t *Table) SameSchema(other *Table) bool {
	if other == nil || len(t.order) != len(other.order) {
		return false
	}
	for i, name := range t.order {
		if other.order[i] != name {
			return false
		}
		if !arrow.TypeEqual(t.columns[name].DataType(), other.columns[name].DataType()) {
			return false
		}
	}
	return true
}

// String returns a string representation of the table.
func (t *Table) String() string {
	if len(t.columns) == 0 {
		return "Table[empty]"
	}

	parts := []string{fmt.Sprintf("Table[%dx%d]", t.Len(), t.Width())}
	for _, name := range t.order {
		parts = append(parts, fmt.Sprintf("  %s: %s", name, t.columns[name].DataType().String()))
	}
	return strings.Join(parts, "\n")
}

// Release releases all underlying Arrow memory.
func (t *Table) Release() {
	for _, c := range t.columns {
		c.Release()
	}
}
