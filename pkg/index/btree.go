package index

import (
	"github.com/relishdb/relish/pkg/catalog"
)

// DefaultOrder is the B-tree order m: nodes hold at most 2m-1 entries and
// 2m children, at least m-1 entries except the root.
const DefaultOrder = 4

// BTree is a balanced multiway tree ordered by (key, row index). It answers
// both equality and range lookups; the composite ordering makes duplicate
// keys first-class instead of chaining them off a single entry.
type BTree struct {
	name   string
	table  string
	column int
	order  int
	root   *bnode
	size   int
}

type bnode struct {
	entries  []entry
	children []*bnode // nil for leaves
}

func (n *bnode) leaf() bool { return n.children == nil }

// NewBTree creates an empty B-tree index with the given order.
func NewBTree(name, table string, column, order int) *BTree {
	if order < 2 {
		order = DefaultOrder
	}
	return &BTree{name: name, table: table, column: column, order: order, root: &bnode{}}
}

func (t *BTree) Name() string      { return t.name }
func (t *BTree) TableName() string { return t.table }
func (t *BTree) Column() int       { return t.column }
func (t *BTree) Caps() Capability  { return CapEquality | CapRange }
func (t *BTree) Len() int          { return t.size }

func (t *BTree) maxEntries() int { return 2*t.order - 1 }
func (t *BTree) minEntries() int { return t.order - 1 }

// compareEntries orders entries by key, then row index. Values of mixed
// kinds (possible in lax tables) fall back to kind order so the tree stays
// totally ordered.
func compareEntries(a, b entry) int {
	if c := compareKeys(a.key, b.key); c != 0 {
		return c
	}
	switch {
	case a.rowIdx < b.rowIdx:
		return -1
	case a.rowIdx > b.rowIdx:
		return 1
	}
	return 0
}

func compareKeys(a, b catalog.Value) int {
	if c, ok := catalog.Compare(a, b); ok {
		return c
	}
	if a.Kind != b.Kind {
		return int(a.Kind) - int(b.Kind)
	}
	as, bs := a.String(), b.String()
	switch {
	case as < bs:
		return -1
	case as > bs:
		return 1
	}
	return 0
}

// Insert adds an entry, splitting full children pre-emptively on the way
// down so no node is ever over capacity.
func (t *BTree) Insert(key catalog.Value, rowIdx int) {
	e := entry{key: key.Clone(), rowIdx: rowIdx}
	if len(t.root.entries) == t.maxEntries() {
		old := t.root
		t.root = &bnode{children: []*bnode{old}}
		t.splitChild(t.root, 0)
	}
	t.insertNonFull(t.root, e)
	t.size++
}

func (t *BTree) insertNonFull(n *bnode, e entry) {
	i := len(n.entries)
	for i > 0 && compareEntries(e, n.entries[i-1]) < 0 {
		i--
	}
	if n.leaf() {
		n.entries = append(n.entries, entry{})
		copy(n.entries[i+1:], n.entries[i:])
		n.entries[i] = e
		return
	}
	if len(n.children[i].entries) == t.maxEntries() {
		t.splitChild(n, i)
		if compareEntries(e, n.entries[i]) > 0 {
			i++
		}
	}
	t.insertNonFull(n.children[i], e)
}

// splitChild splits the full child at position i, hoisting its median entry
// into n.
func (t *BTree) splitChild(n *bnode, i int) {
	child := n.children[i]
	mid := t.order - 1
	median := child.entries[mid]

	right := &bnode{entries: append([]entry(nil), child.entries[mid+1:]...)}
	if !child.leaf() {
		right.children = append([]*bnode(nil), child.children[mid+1:]...)
		child.children = child.children[:mid+1]
	}
	child.entries = child.entries[:mid]

	n.entries = append(n.entries, entry{})
	copy(n.entries[i+1:], n.entries[i:])
	n.entries[i] = median

	n.children = append(n.children, nil)
	copy(n.children[i+2:], n.children[i+1:])
	n.children[i+1] = right
}

// Lookup returns the row indices stored under the exact key.
func (t *BTree) Lookup(key catalog.Value) []int {
	var out []int
	t.walkRange(t.root, &key, &key, true, true, &out)
	return out
}

// Range emits row indices for keys in the given bounds, in key order.
func (t *BTree) Range(lo, hi *catalog.Value, loIncl, hiIncl bool) []int {
	var out []int
	t.walkRange(t.root, lo, hi, loIncl, hiIncl, &out)
	return out
}

// walkRange descends only into children whose key range can overlap the
// query bounds, emitting matches in order.
func (t *BTree) walkRange(n *bnode, lo, hi *catalog.Value, loIncl, hiIncl bool, out *[]int) {
	if n == nil {
		return
	}
	for i := 0; i <= len(n.entries); i++ {
		if !n.leaf() {
			// child i holds entries below entries[i] (or all above the
			// last entry when i == len); skip it when fully out of range
			if t.childMayOverlap(n, i, lo, hi, loIncl, hiIncl) {
				t.walkRange(n.children[i], lo, hi, loIncl, hiIncl, out)
			}
		}
		if i < len(n.entries) && inRange(n.entries[i].key, lo, hi, loIncl, hiIncl) {
			*out = append(*out, n.entries[i].rowIdx)
		}
	}
}

func (t *BTree) childMayOverlap(n *bnode, i int, lo, hi *catalog.Value, loIncl, hiIncl bool) bool {
	// entries[i-1] < child i <= entries[i]
	if i > 0 && hi != nil {
		c := compareKeys(n.entries[i-1].key, *hi)
		if c > 0 || (c == 0 && !hiIncl) {
			return false
		}
	}
	if i < len(n.entries) && lo != nil {
		c := compareKeys(n.entries[i].key, *lo)
		if c < 0 || (c == 0 && !loIncl) {
			return false
		}
	}
	return true
}

func inRange(key catalog.Value, lo, hi *catalog.Value, loIncl, hiIncl bool) bool {
	if lo != nil {
		c := compareKeys(key, *lo)
		if c < 0 || (c == 0 && !loIncl) {
			return false
		}
	}
	if hi != nil {
		c := compareKeys(key, *hi)
		if c > 0 || (c == 0 && !hiIncl) {
			return false
		}
	}
	return true
}

// Delete removes the entry for (key, rowIdx), rebalancing by borrow or
// merge so every non-root node keeps at least m-1 entries.
func (t *BTree) Delete(key catalog.Value, rowIdx int) {
	target := entry{key: key, rowIdx: rowIdx}
	if t.deleteFrom(t.root, target) {
		t.size--
	}
	if len(t.root.entries) == 0 && !t.root.leaf() {
		t.root = t.root.children[0]
	}
}

func (t *BTree) deleteFrom(n *bnode, target entry) bool {
	i := 0
	for i < len(n.entries) && compareEntries(target, n.entries[i]) > 0 {
		i++
	}
	found := i < len(n.entries) && compareEntries(target, n.entries[i]) == 0

	if n.leaf() {
		if !found {
			return false
		}
		n.entries = append(n.entries[:i], n.entries[i+1:]...)
		return true
	}

	if found {
		// swap with the predecessor or successor when a sibling subtree
		// can spare an entry, otherwise merge and retry in the merged child
		if len(n.children[i].entries) > t.minEntries() {
			pred := t.maxEntry(n.children[i])
			n.entries[i] = pred
			return t.deleteFrom(n.children[i], pred)
		}
		if len(n.children[i+1].entries) > t.minEntries() {
			succ := t.minEntry(n.children[i+1])
			n.entries[i] = succ
			return t.deleteFrom(n.children[i+1], succ)
		}
		t.mergeChildren(n, i)
		return t.deleteFrom(n.children[i], target)
	}

	// descend; top up the child first so a delete below cannot underflow it
	if len(n.children[i].entries) == t.minEntries() {
		t.ensureFill(n, i)
		// rebalancing may have moved the target's covering child
		i = 0
		for i < len(n.entries) && compareEntries(target, n.entries[i]) > 0 {
			i++
		}
		if i < len(n.entries) && compareEntries(target, n.entries[i]) == 0 {
			return t.deleteFrom(n, target)
		}
	}
	return t.deleteFrom(n.children[i], target)
}

func (t *BTree) maxEntry(n *bnode) entry {
	for !n.leaf() {
		n = n.children[len(n.children)-1]
	}
	return n.entries[len(n.entries)-1]
}

func (t *BTree) minEntry(n *bnode) entry {
	for !n.leaf() {
		n = n.children[0]
	}
	return n.entries[0]
}

// ensureFill guarantees child i of n holds more than the minimum before a
// descent that may delete from it.
func (t *BTree) ensureFill(n *bnode, i int) {
	child := n.children[i]
	if len(child.entries) > t.minEntries() {
		return
	}
	// borrow from left sibling
	if i > 0 && len(n.children[i-1].entries) > t.minEntries() {
		left := n.children[i-1]
		child.entries = append([]entry{n.entries[i-1]}, child.entries...)
		n.entries[i-1] = left.entries[len(left.entries)-1]
		left.entries = left.entries[:len(left.entries)-1]
		if !left.leaf() {
			child.children = append([]*bnode{left.children[len(left.children)-1]}, child.children...)
			left.children = left.children[:len(left.children)-1]
		}
		return
	}
	// borrow from right sibling
	if i+1 < len(n.children) && len(n.children[i+1].entries) > t.minEntries() {
		right := n.children[i+1]
		child.entries = append(child.entries, n.entries[i])
		n.entries[i] = right.entries[0]
		right.entries = right.entries[1:]
		if !right.leaf() {
			child.children = append(child.children, right.children[0])
			right.children = right.children[1:]
		}
		return
	}
	// merge with a sibling
	if i+1 < len(n.children) {
		t.mergeChildren(n, i)
	} else {
		t.mergeChildren(n, i-1)
	}
}

// mergeChildren folds child i+1 and the separating entry into child i.
func (t *BTree) mergeChildren(n *bnode, i int) {
	left, right := n.children[i], n.children[i+1]
	left.entries = append(left.entries, n.entries[i])
	left.entries = append(left.entries, right.entries...)
	if !left.leaf() {
		left.children = append(left.children, right.children...)
	}
	n.entries = append(n.entries[:i], n.entries[i+1:]...)
	n.children = append(n.children[:i+1], n.children[i+2:]...)
}
