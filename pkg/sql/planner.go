package sql

import (
	"fmt"

	"github.com/relishdb/relish/pkg/catalog"
	"github.com/relishdb/relish/pkg/index"
)

// Planner chooses the physical access path for each scan by comparing the
// estimated cost of a sequential scan against index-backed alternatives.
// Estimates come from lazily sampled column statistics.
type Planner struct {
	cat    *catalog.Catalog
	idxMgr *index.Manager
}

// NewPlanner creates a planner over the given catalog and indexes.
func NewPlanner(cat *catalog.Catalog, idxMgr *index.Manager) *Planner {
	return &Planner{cat: cat, idxMgr: idxMgr}
}

// PlanType indicates the chosen access path.
type PlanType int

const (
	PlanSeqScan PlanType = iota
	PlanIndexScan
)

// Cost model constants: the multipliers absorb tuple-at-a-time work.
const (
	seqScanCostFactor   = 1.1
	indexScanCostFactor = 1.5
)

// Plan is the physical access path for one scan. For index scans the
// search key is deep-copied so the plan is self-contained.
type Plan struct {
	Type      PlanType
	TableID   int64
	TableName string
	Cost      float64

	// index-scan fields
	IndexName string
	Column    int
	Op        TokenType
	Key       catalog.Value
}

// Explain renders the plan for EXPLAIN output.
func (p *Plan) Explain() string {
	switch p.Type {
	case PlanIndexScan:
		return fmt.Sprintf("IndexScan on %s using %s (cost=%.1f)", p.TableName, p.IndexName, p.Cost)
	default:
		return fmt.Sprintf("SeqScan on %s (cost=%.1f)", p.TableName, p.Cost)
	}
}

// PlanScan picks the access path for one table scan with an optional
// predicate.
func (p *Planner) PlanScan(t *catalog.Table, pred Expression) *Plan {
	stats := p.cat.Stats(t.ID)
	plan := &Plan{
		Type:      PlanSeqScan,
		TableID:   t.ID,
		TableName: t.Name,
		Cost:      seqScanCostFactor * float64(stats.RowCount),
	}
	if pred == nil {
		return plan
	}

	col, op, key, ok := simpleComparison(pred)
	if !ok {
		return plan
	}

	sel := selectivity(op, stats.DistinctFor(col))
	idxCost := indexScanCostFactor * float64(stats.RowCount) * sel
	if idxCost >= plan.Cost {
		return plan
	}

	idx := p.pickIndex(t, col, op)
	if idx == nil {
		return plan
	}
	return &Plan{
		Type:      PlanIndexScan,
		TableID:   t.ID,
		TableName: t.Name,
		Cost:      idxCost,
		IndexName: idx.Name(),
		Column:    col,
		Op:        op,
		Key:       key.Clone(),
	}
}

// pickIndex returns an index on the column whose capabilities cover the
// operator. Equality prefers hash access; range predicates need an ordered
// structure.
func (p *Planner) pickIndex(t *catalog.Table, col int, op TokenType) index.Index {
	candidates := p.idxMgr.ForColumn(t, col)
	if len(candidates) == 0 {
		return nil
	}
	if op == TOKEN_EQ {
		for _, idx := range candidates {
			if _, isHash := idx.(*index.Hash); isHash {
				return idx
			}
		}
		return candidates[0] // a B-tree answers equality too
	}
	for _, idx := range candidates {
		if idx.Caps()&index.CapRange != 0 {
			return idx
		}
	}
	return nil
}

// selectivity estimates the fraction of rows an operator keeps, given the
// column's distinct-value count.
func selectivity(op TokenType, distinct int64) float64 {
	if distinct < 1 {
		distinct = 1
	}
	d := float64(distinct)
	switch op {
	case TOKEN_EQ:
		return 1 / d
	case TOKEN_NE:
		return (d - 1) / d
	case TOKEN_LT, TOKEN_LE, TOKEN_GT, TOKEN_GE:
		return 0.3
	case TOKEN_LIKE:
		return 0.1
	default:
		return 0.1
	}
}

// simpleComparison recognizes `column OP literal` (either operand order),
// the only shape eligible for index access. For a flipped `literal OP
// column` the operator is mirrored.
func simpleComparison(pred Expression) (col int, op TokenType, key catalog.Value, ok bool) {
	bin, isBin := pred.(*BinaryExpr)
	if !isBin || !bin.Op.IsComparison() {
		return 0, 0, catalog.Value{}, false
	}
	if ref, isRef := bin.Left.(*ColumnRef); isRef {
		if lit, isLit := bin.Right.(*LiteralExpr); isLit && !lit.Value.IsNull() {
			return ref.Col, bin.Op, lit.Value, true
		}
	}
	if ref, isRef := bin.Right.(*ColumnRef); isRef {
		if lit, isLit := bin.Left.(*LiteralExpr); isLit && !lit.Value.IsNull() {
			return ref.Col, mirrorOp(bin.Op), lit.Value, true
		}
	}
	return 0, 0, catalog.Value{}, false
}

func mirrorOp(op TokenType) TokenType {
	switch op {
	case TOKEN_LT:
		return TOKEN_GT
	case TOKEN_LE:
		return TOKEN_GE
	case TOKEN_GT:
		return TOKEN_LT
	case TOKEN_GE:
		return TOKEN_LE
	default:
		return op
	}
}
