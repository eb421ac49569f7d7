package catalog

// Placeholder estimates used before a table has been sampled.
const (
	DefaultRowEstimate      = 1000
	DefaultDistinctEstimate = 100
)

// TableStats carries the row count and per-column distinct-value estimates
// the planner's cost model runs on. Stats are sampled lazily on the first
// planner touch and invalidated by writes.
type TableStats struct {
	RowCount int64
	Distinct []int64 // per column, parallel to the table's column list
}

// Stats returns the statistics for a table, sampling them on first use.
// An unknown id yields placeholder estimates.
func (c *Catalog) Stats(id int64) *TableStats {
	if s, ok := c.stats[id]; ok {
		return s
	}
	t := c.TableByID(id)
	if t == nil {
		return &TableStats{
			RowCount: DefaultRowEstimate,
			Distinct: []int64{DefaultDistinctEstimate},
		}
	}
	s := sampleStats(t)
	c.stats[id] = s
	return s
}

// sampleStats walks the table once and counts exact distinct values per
// column. Exact counting is affordable because the engine is bounded to
// small in-memory datasets.
func sampleStats(t *Table) *TableStats {
	s := &TableStats{
		RowCount: int64(t.NumRows()),
		Distinct: make([]int64, len(t.Def.Columns)),
	}
	if s.RowCount == 0 {
		// A sampled empty table is an exact answer, not a missing one.
		// Distinct stays at 1 so selectivity never divides by zero.
		for i := range s.Distinct {
			s.Distinct[i] = 1
		}
		return s
	}
	for col := range t.Def.Columns {
		seen := make(map[string]bool, len(t.Rows))
		for _, r := range t.Rows {
			v := r.Values[col]
			if v.IsNull() {
				continue
			}
			seen[v.Kind.String()+"\x00"+v.String()] = true
		}
		n := int64(len(seen))
		if n == 0 {
			n = 1
		}
		s.Distinct[col] = n
	}
	return s
}

// DistinctFor returns the distinct estimate for one column, defaulting when
// the column is out of range.
func (s *TableStats) DistinctFor(col int) int64 {
	if col < 0 || col >= len(s.Distinct) {
		return DefaultDistinctEstimate
	}
	return s.Distinct[col]
}
