package sql

import (
	"math"
	"testing"

	"github.com/relishdb/relish/pkg/catalog"
)

func addAll(t *testing.T, a *accumulator, vals ...catalog.Value) {
	t.Helper()
	for _, v := range vals {
		if err := a.Add(v); err != nil {
			t.Fatalf("add %v: %v", v, err)
		}
	}
}

func TestAccumulatorCountStar(t *testing.T) {
	a := newAccumulator(&AggregateExpr{Func: TOKEN_COUNT, Star: true})
	addAll(t, a, catalog.NewInt(1), catalog.NewNull(), catalog.NewString("x"))
	got := a.Finalize()
	if got.Int != 3 {
		t.Fatalf("COUNT(*) = %v, want 3", got)
	}
}

func TestAccumulatorCountSkipsNull(t *testing.T) {
	a := newAccumulator(&AggregateExpr{Func: TOKEN_COUNT})
	addAll(t, a, catalog.NewInt(1), catalog.NewNull(), catalog.NewInt(2))
	if got := a.Finalize(); got.Int != 2 {
		t.Fatalf("COUNT = %v, want 2", got)
	}
}

func TestAccumulatorEmpty(t *testing.T) {
	for _, fn := range []TokenType{TOKEN_SUM, TOKEN_AVG, TOKEN_MIN, TOKEN_MAX} {
		a := newAccumulator(&AggregateExpr{Func: fn})
		if got := a.Finalize(); !got.IsNull() {
			t.Errorf("empty %s = %v, want NULL", describeToken(fn), got)
		}
	}
	a := newAccumulator(&AggregateExpr{Func: TOKEN_COUNT})
	if got := a.Finalize(); got.Kind != catalog.KindInt || got.Int != 0 {
		t.Errorf("empty COUNT = %v, want 0", got)
	}
}

func TestAccumulatorSumStaysInt(t *testing.T) {
	a := newAccumulator(&AggregateExpr{Func: TOKEN_SUM})
	addAll(t, a, catalog.NewInt(1), catalog.NewInt(2), catalog.NewInt(3))
	got := a.Finalize()
	if got.Kind != catalog.KindInt || got.Int != 6 {
		t.Fatalf("SUM = %v", got)
	}
}

func TestAccumulatorSumWidensToFloat(t *testing.T) {
	a := newAccumulator(&AggregateExpr{Func: TOKEN_SUM})
	addAll(t, a, catalog.NewInt(1), catalog.NewFloat(0.5), catalog.NewInt(2))
	got := a.Finalize()
	if got.Kind != catalog.KindFloat || got.Float != 3.5 {
		t.Fatalf("SUM = %v", got)
	}
}

func TestAccumulatorSumOverflow(t *testing.T) {
	a := newAccumulator(&AggregateExpr{Func: TOKEN_SUM})
	addAll(t, a, catalog.NewInt(math.MaxInt64))
	err := a.Add(catalog.NewInt(1))
	if err == nil {
		t.Fatal("want overflow error")
	}
	ee, ok := err.(*ExecError)
	if !ok || ee.Code != ErrIntegerOverflow {
		t.Fatalf("got %v", err)
	}
}

func TestAccumulatorSumNegativeOverflow(t *testing.T) {
	a := newAccumulator(&AggregateExpr{Func: TOKEN_SUM})
	addAll(t, a, catalog.NewInt(math.MinInt64))
	if err := a.Add(catalog.NewInt(-1)); err == nil {
		t.Fatal("want overflow error")
	}
}

func TestAccumulatorSumRejectsStrings(t *testing.T) {
	a := newAccumulator(&AggregateExpr{Func: TOKEN_SUM})
	err := a.Add(catalog.NewString("x"))
	if err == nil {
		t.Fatal("want type error")
	}
	if ee := err.(*ExecError); ee.Code != ErrTypeMismatch {
		t.Fatalf("got %v", err)
	}
}

func TestAccumulatorAvg(t *testing.T) {
	a := newAccumulator(&AggregateExpr{Func: TOKEN_AVG})
	addAll(t, a, catalog.NewInt(1), catalog.NewInt(2), catalog.NewInt(3))
	got := a.Finalize()
	if got.Kind != catalog.KindFloat || got.Float != 2.0 {
		t.Fatalf("AVG = %v", got)
	}
}

func TestAccumulatorMinMax(t *testing.T) {
	min := newAccumulator(&AggregateExpr{Func: TOKEN_MIN})
	max := newAccumulator(&AggregateExpr{Func: TOKEN_MAX})
	for _, v := range []catalog.Value{
		catalog.NewInt(5), catalog.NewNull(), catalog.NewInt(2), catalog.NewInt(9),
	} {
		addAll(t, min, v)
		addAll(t, max, v)
	}
	if got := min.Finalize(); got.Int != 2 {
		t.Errorf("MIN = %v", got)
	}
	if got := max.Finalize(); got.Int != 9 {
		t.Errorf("MAX = %v", got)
	}
}

func TestAccumulatorMinMixedTypes(t *testing.T) {
	a := newAccumulator(&AggregateExpr{Func: TOKEN_MIN})
	addAll(t, a, catalog.NewInt(1))
	if err := a.Add(catalog.NewString("x")); err == nil {
		t.Fatal("want type error for MIN over mixed kinds")
	}
}

func TestAccumulatorDistinct(t *testing.T) {
	a := newAccumulator(&AggregateExpr{Func: TOKEN_COUNT, Distinct: true})
	addAll(t, a,
		catalog.NewInt(1), catalog.NewInt(1), catalog.NewInt(2),
		catalog.NewString("1"), // not the same as integer 1
	)
	if got := a.Finalize(); got.Int != 3 {
		t.Fatalf("COUNT(DISTINCT) = %v, want 3", got)
	}
}

func TestDistinctFloatsByBitPattern(t *testing.T) {
	// Runtime 0.1+0.2 is not bit-identical to 0.3, so both count.
	// The sum must happen at runtime; folding the constants would
	// round the result to exactly 0.3.
	x, y := 0.1, 0.2
	a := newAccumulator(&AggregateExpr{Func: TOKEN_COUNT, Distinct: true})
	addAll(t, a, catalog.NewFloat(x+y), catalog.NewFloat(0.3))
	if got := a.Finalize(); got.Int != 2 {
		t.Fatalf("COUNT(DISTINCT) = %v, want 2", got)
	}

	a = newAccumulator(&AggregateExpr{Func: TOKEN_COUNT, Distinct: true})
	addAll(t, a, catalog.NewFloat(1.5), catalog.NewFloat(1.5))
	if got := a.Finalize(); got.Int != 1 {
		t.Fatalf("bit-identical floats should collapse, got %v", got)
	}
}

func TestAccumulatorRefusesInputAfterFinalize(t *testing.T) {
	a := newAccumulator(&AggregateExpr{Func: TOKEN_SUM})
	addAll(t, a, catalog.NewInt(1))
	a.Finalize()
	if err := a.Add(catalog.NewInt(2)); err == nil {
		t.Fatal("want error after finalize")
	}
}

func TestAccumulatorMinClonesBest(t *testing.T) {
	a := newAccumulator(&AggregateExpr{Func: TOKEN_MIN})
	blob := []byte("abc")
	addAll(t, a, catalog.NewBlob(blob))
	blob[0] = 'z'
	got := a.Finalize()
	if string(got.Blob) != "abc" {
		t.Fatalf("MIN result shares input backing array: %q", got.Blob)
	}
}
