package sql

import (
	"math"

	"github.com/relishdb/relish/pkg/catalog"
)

type aggState int

const (
	aggEmpty aggState = iota
	aggAccumulating
	aggFinalized
)

// accumulator folds rows for one aggregate expression. It moves from
// empty to accumulating on the first non-skipped input and refuses
// further input once finalized.
type accumulator struct {
	fn       TokenType
	star     bool
	distinct bool
	state    aggState

	count  int64
	sumInt int64
	sumF   float64
	asF    bool // sum has widened to float
	best   catalog.Value
	seen   map[string]bool
}

func newAccumulator(agg *AggregateExpr) *accumulator {
	a := &accumulator{fn: agg.Func, star: agg.Star, distinct: agg.Distinct}
	if a.distinct {
		a.seen = make(map[string]bool)
	}
	return a
}

// distinctKey identifies a value for DISTINCT purposes. Floats are keyed
// by their bit pattern so only bit-identical floats collapse.
func distinctKey(v catalog.Value) string {
	if v.Kind == catalog.KindFloat {
		bits := math.Float64bits(v.Float)
		return "f\x00" + string([]byte{
			byte(bits >> 56), byte(bits >> 48), byte(bits >> 40), byte(bits >> 32),
			byte(bits >> 24), byte(bits >> 16), byte(bits >> 8), byte(bits),
		})
	}
	return v.Kind.String() + "\x00" + v.String()
}

// Add folds one input value. For COUNT(*) the value is ignored and every
// row counts. Otherwise NULL inputs are skipped.
func (a *accumulator) Add(v catalog.Value) error {
	if a.state == aggFinalized {
		return execErr(ErrRuntime, "aggregate already finalized")
	}
	if a.star {
		a.state = aggAccumulating
		a.count++
		return nil
	}
	if v.IsNull() {
		return nil
	}
	if a.distinct {
		key := distinctKey(v)
		if a.seen[key] {
			return nil
		}
		a.seen[key] = true
	}
	a.state = aggAccumulating
	a.count++

	switch a.fn {
	case TOKEN_COUNT:
		// count already bumped

	case TOKEN_SUM, TOKEN_AVG:
		switch v.Kind {
		case catalog.KindInt:
			if a.asF {
				a.sumF += float64(v.Int)
				break
			}
			next := a.sumInt + v.Int
			// two's-complement overflow check
			if (a.sumInt > 0 && v.Int > 0 && next < 0) || (a.sumInt < 0 && v.Int < 0 && next > 0) {
				return execErr(ErrIntegerOverflow, "SUM overflows 64-bit integer")
			}
			a.sumInt = next
		case catalog.KindFloat, catalog.KindDecimal:
			if !a.asF {
				a.asF = true
				a.sumF = float64(a.sumInt)
			}
			a.sumF += v.AsFloat()
		default:
			return execErr(ErrTypeMismatch, "%s expects numeric input, got %s", describeToken(a.fn), v.Kind)
		}

	case TOKEN_MIN, TOKEN_MAX:
		if a.best.Kind == catalog.KindNull && a.count == 1 {
			a.best = v.Clone()
			return nil
		}
		cmp, ok := catalog.Compare(v, a.best)
		if !ok {
			return execErr(ErrTypeMismatch, "%s over mixed types %s and %s", describeToken(a.fn), v.Kind, a.best.Kind)
		}
		if (a.fn == TOKEN_MIN && cmp < 0) || (a.fn == TOKEN_MAX && cmp > 0) {
			a.best = v.Clone()
		}
	}
	return nil
}

// Finalize produces the aggregate result. An empty accumulator yields 0
// for COUNT and NULL for everything else.
func (a *accumulator) Finalize() catalog.Value {
	state := a.state
	a.state = aggFinalized
	if state == aggEmpty {
		if a.fn == TOKEN_COUNT {
			return catalog.NewInt(0)
		}
		return catalog.NewNull()
	}
	switch a.fn {
	case TOKEN_COUNT:
		return catalog.NewInt(a.count)
	case TOKEN_SUM:
		if a.asF {
			return catalog.NewFloat(a.sumF)
		}
		return catalog.NewInt(a.sumInt)
	case TOKEN_AVG:
		sum := a.sumF
		if !a.asF {
			sum = float64(a.sumInt)
		}
		return catalog.NewFloat(sum / float64(a.count))
	case TOKEN_MIN, TOKEN_MAX:
		return a.best
	}
	return catalog.NewNull()
}
