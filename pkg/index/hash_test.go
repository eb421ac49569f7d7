package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relishdb/relish/pkg/catalog"
)

func TestHashInsertLookup(t *testing.T) {
	h := NewHash("idx", "t", 0, 4)
	h.Insert(catalog.NewInt(1), 10)
	h.Insert(catalog.NewInt(2), 20)
	h.Insert(catalog.NewInt(1), 30) // duplicate key

	assert.ElementsMatch(t, []int{10, 30}, h.Lookup(catalog.NewInt(1)))
	assert.Equal(t, []int{20}, h.Lookup(catalog.NewInt(2)))
	assert.Empty(t, h.Lookup(catalog.NewInt(99)))
	assert.Equal(t, 3, h.Len())
}

func TestHashDelete(t *testing.T) {
	h := NewHash("idx", "t", 0, 4)
	h.Insert(catalog.NewInt(1), 10)
	h.Insert(catalog.NewInt(1), 30)

	h.Delete(catalog.NewInt(1), 10)
	assert.Equal(t, []int{30}, h.Lookup(catalog.NewInt(1)))
	assert.Equal(t, 1, h.Len())

	// deleting an absent pair is a no-op
	h.Delete(catalog.NewInt(1), 10)
	h.Delete(catalog.NewInt(7), 1)
	assert.Equal(t, 1, h.Len())
}

func TestHashGrowKeepsEntries(t *testing.T) {
	h := NewHash("idx", "t", 0, 1)
	for i := 0; i < 200; i++ {
		h.Insert(catalog.NewInt(int64(i)), i)
	}
	require.Equal(t, 200, h.Len())
	for i := 0; i < 200; i++ {
		assert.Equal(t, []int{i}, h.Lookup(catalog.NewInt(int64(i))), "key %d after growth", i)
	}
}

func TestHashStringKeys(t *testing.T) {
	h := NewHash("idx", "t", 1, 8)
	h.Insert(catalog.NewString("alice"), 0)
	h.Insert(catalog.NewString("bob"), 1)
	assert.Equal(t, []int{0}, h.Lookup(catalog.NewString("alice")))
	assert.Empty(t, h.Lookup(catalog.NewString("Alice")), "string keys are case-sensitive")
}

func TestHashOwnsItsKeys(t *testing.T) {
	h := NewHash("idx", "t", 0, 4)
	blob := []byte("k1")
	h.Insert(catalog.NewBlob(blob), 5)
	blob[0] = 'z'
	assert.Equal(t, []int{5}, h.Lookup(catalog.NewBlob([]byte("k1"))))
}

func TestHashCaps(t *testing.T) {
	h := NewHash("idx", "t", 0, 4)
	assert.Equal(t, CapEquality, h.Caps())
	assert.Zero(t, h.Caps()&CapRange)
	assert.Equal(t, "idx", h.Name())
	assert.Equal(t, "t", h.TableName())
	assert.Equal(t, 0, h.Column())
}

func TestHashKeyTypeSeparation(t *testing.T) {
	// int 3 and float 3.0 hash apart; equality across them is the
	// evaluator's job, never the index's
	assert.NotEqual(t, HashKey(catalog.NewInt(3)), HashKey(catalog.NewFloat(3.0)))
	assert.Equal(t, HashKey(catalog.NewString("x")), HashKey(catalog.NewString("x")))
}
