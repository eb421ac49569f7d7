// Package index implements the secondary index structures: a bucketed hash
// index for equality lookups and an in-memory B-tree for ordered range
// lookups. Both store owned copies of their keys and refer to rows by
// position in the owning table's row sequence.
package index

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/relishdb/relish/pkg/catalog"
)

// Common errors for index operations.
var (
	ErrIndexExists   = errors.New("index: index already exists")
	ErrIndexNotFound = errors.New("index: index not found")
	ErrBadColumn     = errors.New("index: column out of range")
)

// Capability describes which lookups an index structure can answer.
type Capability uint8

const (
	CapEquality Capability = 1 << iota
	CapRange
)

// Kind selects the backing structure at CREATE INDEX time.
type Kind int

const (
	KindHash Kind = iota
	KindBTree
)

// Index is the common surface of both structures. Row indices returned by
// lookups are positions in the table's row slice at the time of the last
// rebuild or maintenance operation.
type Index interface {
	Name() string
	TableName() string
	Column() int
	Caps() Capability

	Insert(key catalog.Value, rowIdx int)
	Delete(key catalog.Value, rowIdx int)
	Lookup(key catalog.Value) []int
	Len() int
}

// RangeIndex is the extra surface of order-preserving structures.
type RangeIndex interface {
	Index
	// Range emits row indices for keys in [lo, hi] in key order. A nil
	// bound is unbounded on that side; loIncl/hiIncl select open or
	// closed endpoints.
	Range(lo, hi *catalog.Value, loIncl, hiIncl bool) []int
}

// entry is one (key, row index) pair. Keys are cloned on insert so index
// lifetime is independent of row lifetime.
type entry struct {
	key    catalog.Value
	rowIdx int
}

// Manager tracks every index in the engine, keyed by name, and keeps them
// consistent with their base tables. Mutations that shift row positions
// mark covering indexes stale; stale indexes rebuild on next read.
type Manager struct {
	indexes []*managed

	btreeOrder  int
	hashBuckets int
}

type managed struct {
	idx   Index
	stale bool
}

// NewManager creates an empty index manager with default structure
// parameters.
func NewManager() *Manager {
	return NewManagerTuned(DefaultOrder, defaultBuckets)
}

// NewManagerTuned creates an empty index manager with explicit B-tree
// order and initial hash bucket count. Out-of-range values fall back to
// the defaults; bucket counts round down to a power of two.
func NewManagerTuned(btreeOrder, hashBuckets int) *Manager {
	if btreeOrder < 2 {
		btreeOrder = DefaultOrder
	}
	if hashBuckets < 1 {
		hashBuckets = defaultBuckets
	}
	for hashBuckets&(hashBuckets-1) != 0 {
		hashBuckets &= hashBuckets - 1
	}
	return &Manager{btreeOrder: btreeOrder, hashBuckets: hashBuckets}
}

// Create builds an index over the current contents of the table. The table
// is scanned once; NULL keys are not indexed.
func (m *Manager) Create(name string, t *catalog.Table, col int, kind Kind) (Index, error) {
	if m.ByName(name) != nil {
		return nil, errors.Wrapf(ErrIndexExists, "%q", name)
	}
	if col < 0 || col >= len(t.Def.Columns) {
		return nil, errors.Wrapf(ErrBadColumn, "%d on table %q", col, t.Name)
	}
	var idx Index
	switch kind {
	case KindBTree:
		idx = NewBTree(name, t.Name, col, m.btreeOrder)
	default:
		idx = NewHash(name, t.Name, col, m.hashBuckets)
	}
	populate(idx, t)
	m.indexes = append(m.indexes, &managed{idx: idx})
	return idx, nil
}

// Drop removes an index by name.
func (m *Manager) Drop(name string) error {
	for i, mi := range m.indexes {
		if strings.EqualFold(mi.idx.Name(), name) {
			m.indexes = append(m.indexes[:i], m.indexes[i+1:]...)
			return nil
		}
	}
	return errors.Wrapf(ErrIndexNotFound, "%q", name)
}

// DropTable removes every index covering the named table, as part of
// DROP TABLE.
func (m *Manager) DropTable(table string) {
	out := m.indexes[:0]
	for _, mi := range m.indexes {
		if !strings.EqualFold(mi.idx.TableName(), table) {
			out = append(out, mi)
		}
	}
	m.indexes = out
}

// ByName finds an index by name. Returns nil when absent.
func (m *Manager) ByName(name string) Index {
	for _, mi := range m.indexes {
		if strings.EqualFold(mi.idx.Name(), name) {
			return mi.idx
		}
	}
	return nil
}

// ForColumn returns the indexes covering (table, column). Fresh before use.
func (m *Manager) ForColumn(t *catalog.Table, col int) []Index {
	var out []Index
	for _, mi := range m.indexes {
		if strings.EqualFold(mi.idx.TableName(), t.Name) && mi.idx.Column() == col {
			m.freshen(mi, t)
			out = append(out, mi.idx)
		}
	}
	return out
}

// ForTable returns every index covering the table, for the .list summary.
func (m *Manager) ForTable(table string) []Index {
	var out []Index
	for _, mi := range m.indexes {
		if strings.EqualFold(mi.idx.TableName(), table) {
			out = append(out, mi.idx)
		}
	}
	return out
}

// Names lists every index name, for did-you-mean suggestions.
func (m *Manager) Names() []string {
	out := make([]string, len(m.indexes))
	for i, mi := range m.indexes {
		out[i] = mi.idx.Name()
	}
	return out
}

// OnInsert keeps covering indexes in lock-step with an appended row.
func (m *Manager) OnInsert(t *catalog.Table, rowIdx int) {
	row := t.Rows[rowIdx]
	for _, mi := range m.indexes {
		if !strings.EqualFold(mi.idx.TableName(), t.Name) || mi.stale {
			continue
		}
		key := row.Values[mi.idx.Column()]
		if key.IsNull() {
			continue
		}
		mi.idx.Insert(key, rowIdx)
	}
}

// OnUpdate replaces the indexed key for a row updated in place.
func (m *Manager) OnUpdate(t *catalog.Table, rowIdx int, old catalog.Row) {
	row := t.Rows[rowIdx]
	for _, mi := range m.indexes {
		if !strings.EqualFold(mi.idx.TableName(), t.Name) || mi.stale {
			continue
		}
		col := mi.idx.Column()
		oldKey, newKey := old.Values[col], row.Values[col]
		if catalog.Equal(oldKey, newKey) {
			continue
		}
		if !oldKey.IsNull() {
			mi.idx.Delete(oldKey, rowIdx)
		}
		if !newKey.IsNull() {
			mi.idx.Insert(newKey, rowIdx)
		}
	}
}

// OnDelete marks covering indexes stale: DELETE compacts the row slice, so
// every stored row position may shift. The next read rebuilds.
func (m *Manager) OnDelete(t *catalog.Table) {
	for _, mi := range m.indexes {
		if strings.EqualFold(mi.idx.TableName(), t.Name) {
			mi.stale = true
		}
	}
}

// MarkStale flags every index on the table for rebuild, the failure path
// when maintenance could not complete mid-statement.
func (m *Manager) MarkStale(table string) {
	for _, mi := range m.indexes {
		if strings.EqualFold(mi.idx.TableName(), table) {
			mi.stale = true
		}
	}
}

func (m *Manager) freshen(mi *managed, t *catalog.Table) {
	if !mi.stale {
		return
	}
	var rebuilt Index
	switch mi.idx.(type) {
	case *BTree:
		rebuilt = NewBTree(mi.idx.Name(), t.Name, mi.idx.Column(), m.btreeOrder)
	default:
		rebuilt = NewHash(mi.idx.Name(), t.Name, mi.idx.Column(), m.hashBuckets)
	}
	populate(rebuilt, t)
	mi.idx = rebuilt
	mi.stale = false
}

func populate(idx Index, t *catalog.Table) {
	col := idx.Column()
	for i, r := range t.Rows {
		key := r.Values[col]
		if key.IsNull() {
			continue
		}
		idx.Insert(key, i)
	}
}
