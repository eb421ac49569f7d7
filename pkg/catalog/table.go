package catalog

import (
	"github.com/pkg/errors"
)

// MaxTableNameLen bounds table names.
const MaxTableNameLen = 64

// Row is an ordered sequence of values, always as long as the owning
// table's column list.
type Row struct {
	Values []Value
}

// Clone deep-copies the row, including string and blob payloads.
func (r Row) Clone() Row {
	vals := make([]Value, len(r.Values))
	for i, v := range r.Values {
		vals[i] = v.Clone()
	}
	return Row{Values: vals}
}

// Table is an in-memory heap of rows in insertion order. There is no
// clustering index; row position doubles as the row index stored by
// secondary indexes.
type Table struct {
	Name string
	ID   int64
	Def  TableDef
	Rows []Row
}

// NumRows returns the current row count.
func (t *Table) NumRows() int { return len(t.Rows) }

// AppendRow adds a row, padding missing trailing values with NULL. The row
// must not be longer than the column list.
func (t *Table) AppendRow(r Row) error {
	n := len(t.Def.Columns)
	if len(r.Values) > n {
		return errors.Errorf("table %s: row has %d values, table has %d columns", t.Name, len(r.Values), n)
	}
	for len(r.Values) < n {
		r.Values = append(r.Values, NewNull())
	}
	t.Rows = append(t.Rows, r)
	return nil
}

// RemoveRows compacts the table to the surviving row indices. keep must be
// sorted ascending. Row ordering of survivors is preserved; positions shift.
func (t *Table) RemoveRows(drop map[int]bool) {
	if len(drop) == 0 {
		return
	}
	out := t.Rows[:0]
	for i := range t.Rows {
		if !drop[i] {
			out = append(out, t.Rows[i])
		}
	}
	// release trailing slots so dropped payloads can be collected
	for i := len(out); i < len(t.Rows); i++ {
		t.Rows[i] = Row{}
	}
	t.Rows = out
}
