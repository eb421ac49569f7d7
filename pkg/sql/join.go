package sql

import (
	"github.com/relishdb/relish/pkg/catalog"
	"github.com/relishdb/relish/pkg/index"
)

// joinRows combines the left and right row sets into concatenated rows
// per the join predicate. Hash join runs when the predicate is a pure
// equality between one column from each side and both inputs are
// non-empty; everything else falls back to nested loop.
func (e *Executor) joinRows(n *JoinNode, left, right [][]catalog.Value) ([][]catalog.Value, error) {
	if lc, rc, ok := equiJoinColumns(n); ok && len(left) > 0 && len(right) > 0 {
		return e.hashJoin(n, left, right, lc, rc)
	}
	return e.nestedLoopJoin(n, left, right)
}

// equiJoinColumns recognizes `left.col = right.col` predicates and returns
// the column positions relative to each input (left-local, right-local).
func equiJoinColumns(n *JoinNode) (int, int, bool) {
	bin, ok := n.On.(*BinaryExpr)
	if !ok || bin.Op != TOKEN_EQ {
		return 0, 0, false
	}
	a, ok := bin.Left.(*ColumnRef)
	if !ok {
		return 0, 0, false
	}
	b, ok := bin.Right.(*ColumnRef)
	if !ok {
		return 0, 0, false
	}
	if a.Col < n.LeftColumns && b.Col >= n.LeftColumns {
		return a.Col, b.Col - n.LeftColumns, true
	}
	if b.Col < n.LeftColumns && a.Col >= n.LeftColumns {
		return b.Col, a.Col - n.LeftColumns, true
	}
	return 0, 0, false
}

func (e *Executor) hashJoin(n *JoinNode, left, right [][]catalog.Value, leftCol, rightCol int) ([][]catalog.Value, error) {
	// The smaller input builds, except LEFT JOIN always probes from the
	// left so unmatched left rows can be padded.
	buildLeft := len(left) <= len(right)
	if n.Type == JoinLeft {
		buildLeft = false
	}

	build, probe := left, right
	buildCol, probeCol := leftCol, rightCol
	if !buildLeft {
		build, probe = right, left
		buildCol, probeCol = rightCol, leftCol
	}

	buckets := make(map[uint64][]int, len(build))
	for i, row := range build {
		key := row[buildCol]
		if key.IsNull() {
			continue
		}
		h := index.HashKey(key)
		buckets[h] = append(buckets[h], i)
	}

	var out [][]catalog.Value
	for _, pRow := range probe {
		key := pRow[probeCol]
		matched := false
		if !key.IsNull() {
			for _, bi := range buckets[index.HashKey(key)] {
				bRow := build[bi]
				if !catalog.Equal(key, bRow[buildCol]) {
					continue
				}
				matched = true
				if buildLeft {
					out = append(out, concatRows(bRow, pRow))
				} else {
					out = append(out, concatRows(pRow, bRow))
				}
			}
		}
		if !matched && n.Type == JoinLeft && !buildLeft {
			out = append(out, concatRows(pRow, nullRow(n.RightColumns)))
		}
	}
	return out, nil
}

func (e *Executor) nestedLoopJoin(n *JoinNode, left, right [][]catalog.Value) ([][]catalog.Value, error) {
	var out [][]catalog.Value
	for _, lRow := range left {
		matched := false
		for _, rRow := range right {
			combined := concatRows(lRow, rRow)
			ok, err := e.evalPredicate(&evalEnv{row: combined}, n.On)
			if err != nil {
				return nil, err
			}
			if ok {
				matched = true
				out = append(out, combined)
			}
		}
		if !matched && n.Type == JoinLeft {
			out = append(out, concatRows(lRow, nullRow(n.RightColumns)))
		}
	}
	return out, nil
}

func concatRows(a, b []catalog.Value) []catalog.Value {
	row := make([]catalog.Value, 0, len(a)+len(b))
	row = append(row, a...)
	return append(row, b...)
}

func nullRow(n int) []catalog.Value {
	row := make([]catalog.Value, n)
	for i := range row {
		row[i] = catalog.NewNull()
	}
	return row
}
