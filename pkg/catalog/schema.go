package catalog

import (
	"strings"
)

// ColumnFlag is the constraint bitset carried by a column definition.
type ColumnFlag uint8

const (
	FlagNullable ColumnFlag = 1 << iota
	FlagPrimaryKey
	FlagUnique
	FlagForeignKey
)

// ColumnDef defines one column of a table.
type ColumnDef struct {
	Name  string
	Type  DataType
	Flags ColumnFlag

	// Foreign-key target, set when FlagForeignKey is present.
	RefTable  string
	RefColumn string
}

// Nullable reports whether the column accepts NULL. Primary keys never do.
func (c ColumnDef) Nullable() bool {
	if c.Flags&FlagPrimaryKey != 0 {
		return false
	}
	return c.Flags&FlagNullable != 0
}

// Unique reports whether the column forbids duplicate non-NULL values.
// Primary key implies unique.
func (c ColumnDef) Unique() bool {
	return c.Flags&(FlagUnique|FlagPrimaryKey) != 0
}

// IsForeignKey reports whether the column references another table.
func (c ColumnDef) IsForeignKey() bool {
	return c.Flags&FlagForeignKey != 0
}

// TableDef is the schema of a table: ordered column definitions plus the
// strict flag. Strict tables reject inserts whose values cannot be coerced
// to the declared column type; lax tables keep the literal as written.
type TableDef struct {
	Columns []ColumnDef
	Strict  bool
}

// ColumnIndex finds a column by name, case-insensitively. Original case is
// preserved in the definition for display. Returns -1 when absent.
func (d *TableDef) ColumnIndex(name string) int {
	for i := range d.Columns {
		if strings.EqualFold(d.Columns[i].Name, name) {
			return i
		}
	}
	return -1
}

// ColumnNames returns the display names in declaration order.
func (d *TableDef) ColumnNames() []string {
	names := make([]string, len(d.Columns))
	for i, c := range d.Columns {
		names[i] = c.Name
	}
	return names
}
