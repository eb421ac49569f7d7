package index

import (
	"math"

	"github.com/relishdb/relish/pkg/catalog"
)

const (
	defaultBuckets = 16
	maxLoadFactor  = 4.0 // entries per bucket before growth
)

// Hash is a bucketed equality index. Each bucket is a chain of
// (key, row index) entries; the bucket count is a power of two grown on
// demand. Keys hash with per-type mixing so int 3 and float 3.0 land in
// different chains (equality between them is never asked of an index:
// the planner only plants same-typed literals).
type Hash struct {
	name    string
	table   string
	column  int
	buckets [][]entry
	size    int
}

// NewHash creates an empty hash index with the given bucket count, rounded
// up to a power of two.
func NewHash(name, table string, column, buckets int) *Hash {
	n := 1
	for n < buckets {
		n <<= 1
	}
	return &Hash{name: name, table: table, column: column, buckets: make([][]entry, n)}
}

func (h *Hash) Name() string      { return h.name }
func (h *Hash) TableName() string { return h.table }
func (h *Hash) Column() int       { return h.column }
func (h *Hash) Caps() Capability  { return CapEquality }
func (h *Hash) Len() int          { return h.size }

// Insert adds an entry; the key is cloned so the index owns its copy.
func (h *Hash) Insert(key catalog.Value, rowIdx int) {
	if float64(h.size+1) > maxLoadFactor*float64(len(h.buckets)) {
		h.grow()
	}
	b := h.bucketFor(key)
	h.buckets[b] = append(h.buckets[b], entry{key: key.Clone(), rowIdx: rowIdx})
	h.size++
}

// Delete removes the entry for (key, rowIdx) if present.
func (h *Hash) Delete(key catalog.Value, rowIdx int) {
	b := h.bucketFor(key)
	chain := h.buckets[b]
	for i := range chain {
		if chain[i].rowIdx == rowIdx && catalog.Equal(chain[i].key, key) {
			h.buckets[b] = append(chain[:i], chain[i+1:]...)
			h.size--
			return
		}
	}
}

// Lookup returns the row indices whose key equals the probe.
func (h *Hash) Lookup(key catalog.Value) []int {
	var out []int
	for _, e := range h.buckets[h.bucketFor(key)] {
		if catalog.Equal(e.key, key) {
			out = append(out, e.rowIdx)
		}
	}
	return out
}

func (h *Hash) bucketFor(key catalog.Value) int {
	return int(HashKey(key) & uint64(len(h.buckets)-1))
}

func (h *Hash) grow() {
	old := h.buckets
	h.buckets = make([][]entry, len(old)*2)
	for _, chain := range old {
		for _, e := range chain {
			b := h.bucketFor(e.key)
			h.buckets[b] = append(h.buckets[b], e)
		}
	}
}

// HashKey mixes a value into a 64-bit hash. Ints mix their bytes, floats
// use their bit pattern, strings use a multiplicative byte hash, dates and
// times use their encoded ordinal.
func HashKey(v catalog.Value) uint64 {
	switch v.Kind {
	case catalog.KindInt:
		return mixInt(uint64(v.Int))
	case catalog.KindFloat:
		return mixInt(math.Float64bits(v.Float))
	case catalog.KindString:
		return hashBytes([]byte(v.Str))
	case catalog.KindBlob:
		return hashBytes(v.Blob)
	case catalog.KindBool:
		if v.Bool {
			return mixInt(1)
		}
		return mixInt(0)
	case catalog.KindDecimal:
		return hashBytes([]byte(v.Decimal.String()))
	case catalog.KindDate:
		return mixInt(uint64(v.Date.Ordinal()))
	case catalog.KindTime:
		return mixInt(uint64(v.Time.Ordinal()))
	default:
		return 0
	}
}

func mixInt(x uint64) uint64 {
	x ^= x >> 33
	x *= 0xff51afd7ed558ccd
	x ^= x >> 33
	x *= 0xc4ceb9fe1a85ec53
	x ^= x >> 33
	return x
}

// hashBytes is the h = h*31 + c multiplicative byte hash.
func hashBytes(b []byte) uint64 {
	var h uint64
	for _, c := range b {
		h = h*31 + uint64(c)
	}
	return h
}
