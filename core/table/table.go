// Package table implements the in-memory tabular data model shared by all
// pipeline stages: an ordered set of named numeric or categorical columns of
// equal length.
//
// Tables are immutable by convention. Every transformation returns a new
// Table, and unchanged columns are shared with the input.
package table

import (
	"fmt"
	"strings"

	"github.com/YuminosukeSato/housingeda/pkg/errors"
)

// Table is an ordered collection of equally long columns with unique names.
// A nil *Table is never a valid input to a stage.
type Table struct {
	cols  []*Column
	index map[string]int
	rows  int
}

// New builds a table from columns. Columns must have equal length and unique names.
func New(cols ...*Column) (*Table, error) {
	t := &Table{
		cols:  make([]*Column, 0, len(cols)),
		index: make(map[string]int, len(cols)),
	}
	for i, c := range cols {
		if c == nil {
			return nil, errors.NewInvalidInputError("table", fmt.Sprintf("column %d is nil", i))
		}
		if _, dup := t.index[c.Name()]; dup {
			return nil, errors.NewInvalidInputError("table", fmt.Sprintf("duplicate column name %q", c.Name()))
		}
		if i == 0 {
			t.rows = c.Len()
		} else if c.Len() != t.rows {
			return nil, errors.NewInvalidInputError("table",
				fmt.Sprintf("column %q has %d rows, expected %d", c.Name(), c.Len(), t.rows))
		}
		t.index[c.Name()] = len(t.cols)
		t.cols = append(t.cols, c)
	}
	return t, nil
}

// MustNew is like New but panics on error. Intended for tests and literals.
func MustNew(cols ...*Column) *Table {
	t, err := New(cols...)
	if err != nil {
		panic(err)
	}
	return t
}

// Empty reports whether t is nil or has no rows.
func (t *Table) Empty() bool {
	return t == nil || t.rows == 0
}

// Len returns the number of rows.
func (t *Table) Len() int { return t.rows }

// Width returns the number of columns.
func (t *Table) Width() int { return len(t.cols) }

// Names returns the column names in order.
func (t *Table) Names() []string {
	names := make([]string, len(t.cols))
	for i, c := range t.cols {
		names[i] = c.Name()
	}
	return names
}

// Columns returns the columns in order. The slice is a copy; columns are shared.
func (t *Table) Columns() []*Column {
	return append([]*Column(nil), t.cols...)
}

// Has reports whether a column exists.
func (t *Table) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Column returns the named column, or nil when it does not exist.
func (t *Table) Column(name string) *Column {
	i, ok := t.index[name]
	if !ok {
		return nil
	}
	return t.cols[i]
}

// IsNumeric reports whether the named column exists and is numeric.
func (t *Table) IsNumeric(name string) bool {
	c := t.Column(name)
	return c != nil && c.Kind() == Numeric
}

// Numeric returns a copy of the values of a numeric column.
func (t *Table) Numeric(name string) ([]float64, error) {
	c := t.Column(name)
	if c == nil {
		return nil, errors.NewMissingColumnError("table", []string{name}, t.Names())
	}
	if c.Kind() != Numeric {
		return nil, errors.NewInvalidInputError("table", fmt.Sprintf("column %q is categorical", name))
	}
	return c.Floats(), nil
}

// NumericNames returns the names of numeric columns in order.
func (t *Table) NumericNames() []string {
	var names []string
	for _, c := range t.cols {
		if c.Kind() == Numeric {
			names = append(names, c.Name())
		}
	}
	return names
}

// WithColumn returns a new table with col appended, or replacing the column
// of the same name in place.
func (t *Table) WithColumn(col *Column) (*Table, error) {
	if col == nil {
		return nil, errors.NewInvalidInputError("table", "column is nil")
	}
	if len(t.cols) > 0 && col.Len() != t.rows {
		return nil, errors.NewInvalidInputError("table",
			fmt.Sprintf("column %q has %d rows, expected %d", col.Name(), col.Len(), t.rows))
	}
	cols := t.Columns()
	if i, ok := t.index[col.Name()]; ok {
		cols[i] = col
	} else {
		cols = append(cols, col)
	}
	return New(cols...)
}

// Subset returns a new table holding the given rows, in that order.
func (t *Table) Subset(rows []int) *Table {
	cols := make([]*Column, len(t.cols))
	for i, c := range t.cols {
		cols[i] = c.Subset(rows)
	}
	out := &Table{cols: cols, index: make(map[string]int, len(cols)), rows: len(rows)}
	for i, c := range cols {
		out.index[c.Name()] = i
	}
	return out
}

// RowKey returns a string identifying the whole i-th row. Two rows have the
// same key exactly when every column holds the same value, with missing
// values equal to each other.
func (t *Table) RowKey(i int) string {
	var b strings.Builder
	for j, c := range t.cols {
		if j > 0 {
			b.WriteByte('\x1f')
		}
		b.WriteString(c.key(i))
	}
	return b.String()
}

// ResolveFeatures splits requested into names present in t and names that are
// not, both in request order. Repeated names are kept once.
func ResolveFeatures(t *Table, requested []string) (valid, invalid []string) {
	seen := make(map[string]bool, len(requested))
	for _, name := range requested {
		if seen[name] {
			continue
		}
		seen[name] = true
		if t != nil && t.Has(name) {
			valid = append(valid, name)
		} else {
			invalid = append(invalid, name)
		}
	}
	return valid, invalid
}
