package catalog

import (
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// Sentinel errors surfaced by catalog operations.
var (
	ErrTableExists   = errors.New("catalog: table already exists")
	ErrTableNotFound = errors.New("catalog: table not found")
	ErrNameTooLong   = errors.New("catalog: table name too long")
	ErrDuplicateCol  = errors.New("catalog: duplicate column name")
)

// Catalog owns every table and its statistics. One instance is threaded
// through the parser (name resolution), the planner (cost estimates), and
// the executor (mutation). Statement serialization is the caller's job;
// the catalog itself does no locking.
type Catalog struct {
	tables []*Table
	stats  map[int64]*TableStats
	nextID int64
}

// New creates an empty catalog.
func New() *Catalog {
	return &Catalog{stats: make(map[int64]*TableStats), nextID: 1}
}

// CreateTable registers a new table and assigns its id. Column names must
// be unique case-insensitively.
func (c *Catalog) CreateTable(name string, def TableDef) (*Table, error) {
	if len(name) > MaxTableNameLen {
		return nil, errors.Wrapf(ErrNameTooLong, "%q (%d chars)", name, len(name))
	}
	if t := c.TableByName(name); t != nil {
		return nil, errors.Wrapf(ErrTableExists, "%q", name)
	}
	seen := make(map[string]bool, len(def.Columns))
	for _, col := range def.Columns {
		key := strings.ToLower(col.Name)
		if seen[key] {
			return nil, errors.Wrapf(ErrDuplicateCol, "%q in table %q", col.Name, name)
		}
		seen[key] = true
	}
	t := &Table{Name: name, ID: c.nextID, Def: def}
	c.nextID++
	c.tables = append(c.tables, t)
	return t, nil
}

// RegisterTransient registers a pre-built table (join results) under a
// synthesized name. The caller must drop it before the next statement.
func (c *Catalog) RegisterTransient(t *Table) {
	t.ID = c.nextID
	c.nextID++
	c.tables = append(c.tables, t)
}

// DropTable removes a table by name.
func (c *Catalog) DropTable(name string) error {
	for i, t := range c.tables {
		if strings.EqualFold(t.Name, name) {
			c.tables = append(c.tables[:i], c.tables[i+1:]...)
			delete(c.stats, t.ID)
			return nil
		}
	}
	return errors.Wrapf(ErrTableNotFound, "%q", name)
}

// TableByName looks a table up case-insensitively. Returns nil when absent.
func (c *Catalog) TableByName(name string) *Table {
	for _, t := range c.tables {
		if strings.EqualFold(t.Name, name) {
			return t
		}
	}
	return nil
}

// TableByID looks a table up by numeric id. Returns nil when absent.
func (c *Catalog) TableByID(id int64) *Table {
	for _, t := range c.tables {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// Tables returns all tables sorted by name, for display.
func (c *Catalog) Tables() []*Table {
	out := make([]*Table, len(c.tables))
	copy(out, c.tables)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// TableNames returns the names of all tables, used for did-you-mean
// suggestions on unknown-table errors.
func (c *Catalog) TableNames() []string {
	names := make([]string, len(c.tables))
	for i, t := range c.tables {
		names[i] = t.Name
	}
	return names
}

// InvalidateStats drops the cached statistics for a table so the next
// planner touch resamples.
func (c *Catalog) InvalidateStats(id int64) {
	delete(c.stats, id)
}
