package sql

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/relishdb/relish/pkg/catalog"
)

// The executor carries two distinct evaluators. The predicate evaluator
// answers "does this row qualify" in WHERE/JOIN context, where NULL
// propagates to false. The scalar evaluator produces a value in
// SELECT/aggregate-argument/ORDER BY context, where NULL propagates
// per-operator.

// evalEnv is the evaluation environment for one row: the working row
// (single-table or combined join row) plus the per-statement execution
// context used for aggregate results and subqueries.
type evalEnv struct {
	row []catalog.Value
	ctx *execContext
}

// evalPredicate reports whether the row satisfies the expression.
func (e *Executor) evalPredicate(env *evalEnv, expr Expression) (bool, error) {
	switch ex := expr.(type) {
	case *BinaryExpr:
		switch ex.Op {
		case TOKEN_AND:
			left, err := e.evalPredicate(env, ex.Left)
			if err != nil || !left {
				return false, err
			}
			return e.evalPredicate(env, ex.Right)
		case TOKEN_OR:
			left, err := e.evalPredicate(env, ex.Left)
			if err != nil {
				return false, err
			}
			if left {
				return true, nil
			}
			return e.evalPredicate(env, ex.Right)
		case TOKEN_EQ, TOKEN_NE, TOKEN_LT, TOKEN_LE, TOKEN_GT, TOKEN_GE:
			left, err := e.evalScalar(env, ex.Left)
			if err != nil {
				return false, err
			}
			right, err := e.evalScalar(env, ex.Right)
			if err != nil {
				return false, err
			}
			return compareWithOp(left, right, ex.Op)
		}
		// arithmetic in boolean position
		v, err := e.evalScalar(env, expr)
		if err != nil {
			return false, err
		}
		return truthy(v), nil

	case *UnaryExpr:
		if ex.Op == TOKEN_NOT {
			inner, err := e.evalPredicate(env, ex.Expr)
			if err != nil {
				return false, err
			}
			return !inner, nil
		}

	case *LikeExpr:
		val, err := e.evalScalar(env, ex.Expr)
		if err != nil {
			return false, err
		}
		pat, err := e.evalScalar(env, ex.Pattern)
		if err != nil {
			return false, err
		}
		if val.IsNull() || pat.IsNull() {
			return false, nil
		}
		if val.Kind != catalog.KindString || pat.Kind != catalog.KindString {
			return false, execErr(ErrTypeMismatch, "LIKE requires string operands, got %s and %s", val.Kind, pat.Kind)
		}
		matched := MatchLike(val.Str, pat.Str)
		if ex.Not {
			return !matched, nil
		}
		return matched, nil

	case *BetweenExpr:
		val, err := e.evalScalar(env, ex.Expr)
		if err != nil {
			return false, err
		}
		if val.IsNull() {
			return false, nil
		}
		low, err := e.evalScalar(env, ex.Low)
		if err != nil {
			return false, err
		}
		high, err := e.evalScalar(env, ex.High)
		if err != nil {
			return false, err
		}
		geLow, err := compareWithOp(val, low, TOKEN_GE)
		if err != nil {
			return false, err
		}
		leHigh, err := compareWithOp(val, high, TOKEN_LE)
		if err != nil {
			return false, err
		}
		result := geLow && leHigh
		if ex.Not {
			return !result, nil
		}
		return result, nil

	case *IsNullExpr:
		val, err := e.evalScalar(env, ex.Expr)
		if err != nil {
			return false, err
		}
		if ex.Not {
			return !val.IsNull(), nil
		}
		return val.IsNull(), nil

	case *InExpr:
		left, err := e.evalScalar(env, ex.Left)
		if err != nil {
			return false, err
		}
		if left.IsNull() {
			return false, nil
		}
		found := false
		if ex.Sub != nil {
			res, err := e.runSelect(ex.Sub)
			if err != nil {
				return false, err
			}
			for _, row := range res.Rows {
				if len(row) > 0 && catalog.Equal(left, row[0]) {
					found = true
					break
				}
			}
		} else {
			for _, vExpr := range ex.Values {
				v, err := e.evalScalar(env, vExpr)
				if err != nil {
					return false, err
				}
				if catalog.Equal(left, v) {
					found = true
					break
				}
			}
		}
		if ex.Not {
			return !found, nil
		}
		return found, nil

	case *ExistsExpr:
		res, err := e.runSelect(ex.Sub)
		if err != nil {
			return false, err
		}
		exists := len(res.Rows) > 0
		if ex.Not {
			return !exists, nil
		}
		return exists, nil

	case *LiteralExpr:
		return truthy(ex.Value), nil

	case *ColumnRef, *FuncCallExpr, *SubqueryExpr, *AggregateExpr:
		v, err := e.evalScalar(env, expr)
		if err != nil {
			return false, err
		}
		return truthy(v), nil
	}
	return false, execErr(ErrRuntime, "cannot evaluate %T as condition", expr)
}

func truthy(v catalog.Value) bool {
	switch v.Kind {
	case catalog.KindBool:
		return v.Bool
	case catalog.KindInt:
		return v.Int != 0
	default:
		return false
	}
}

func compareWithOp(left, right catalog.Value, op TokenType) (bool, error) {
	if left.IsNull() || right.IsNull() {
		return false, nil
	}
	cmp, ok := catalog.Compare(left, right)
	if !ok {
		return false, execErr(ErrTypeMismatch, "cannot compare %s with %s", left.Kind, right.Kind)
	}
	switch op {
	case TOKEN_EQ:
		return cmp == 0, nil
	case TOKEN_NE:
		return cmp != 0, nil
	case TOKEN_LT:
		return cmp < 0, nil
	case TOKEN_LE:
		return cmp <= 0, nil
	case TOKEN_GT:
		return cmp > 0, nil
	case TOKEN_GE:
		return cmp >= 0, nil
	}
	return false, execErr(ErrRuntime, "unknown comparison operator")
}

// evalScalar produces the value of an expression for one row. An Error
// value anywhere in the tree becomes a statement-level failure here.
func (e *Executor) evalScalar(env *evalEnv, expr Expression) (catalog.Value, error) {
	v, err := e.evalScalarInner(env, expr)
	if err != nil {
		return catalog.Value{}, err
	}
	if v.IsError() {
		return catalog.Value{}, execErr(ErrRuntime, "%s", v.ErrMsg)
	}
	return v, nil
}

func (e *Executor) evalScalarInner(env *evalEnv, expr Expression) (catalog.Value, error) {
	switch ex := expr.(type) {
	case *LiteralExpr:
		return ex.Value, nil

	case *ColumnRef:
		if env.row == nil || ex.Col < 0 || ex.Col >= len(env.row) {
			return catalog.Value{}, execErr(ErrRuntime, "column %q unavailable in this context", ex.Name)
		}
		return env.row[ex.Col], nil

	case *BinaryExpr:
		switch ex.Op {
		case TOKEN_AND, TOKEN_OR, TOKEN_EQ, TOKEN_NE, TOKEN_LT, TOKEN_LE, TOKEN_GT, TOKEN_GE:
			b, err := e.evalPredicate(env, ex)
			if err != nil {
				return catalog.Value{}, err
			}
			return catalog.NewBool(b), nil
		}
		left, err := e.evalScalar(env, ex.Left)
		if err != nil {
			return catalog.Value{}, err
		}
		right, err := e.evalScalar(env, ex.Right)
		if err != nil {
			return catalog.Value{}, err
		}
		return evalArithmetic(left, right, ex.Op)

	case *UnaryExpr:
		switch ex.Op {
		case TOKEN_MINUS:
			v, err := e.evalScalar(env, ex.Expr)
			if err != nil {
				return catalog.Value{}, err
			}
			return negate(v)
		case TOKEN_NOT:
			b, err := e.evalPredicate(env, ex.Expr)
			if err != nil {
				return catalog.Value{}, err
			}
			return catalog.NewBool(!b), nil
		}

	case *AggregateExpr:
		if env.ctx == nil || !env.ctx.inAggregate {
			return catalog.Value{}, execErr(ErrRuntime, "aggregate %s outside aggregate context", describeToken(ex.Func))
		}
		if ex.Index < 0 || ex.Index >= len(env.ctx.aggResults) {
			return catalog.Value{}, execErr(ErrRuntime, "aggregate result slot %d missing", ex.Index)
		}
		return env.ctx.aggResults[ex.Index], nil

	case *FuncCallExpr:
		args := make([]catalog.Value, len(ex.Args))
		for i, a := range ex.Args {
			v, err := e.evalScalar(env, a)
			if err != nil {
				return catalog.Value{}, err
			}
			args[i] = v
		}
		return evalFunction(ex.Name, args), nil

	case *SubqueryExpr:
		res, err := e.runSelect(ex.Sub)
		if err != nil {
			return catalog.Value{}, err
		}
		if len(res.Rows) == 0 || len(res.Rows[0]) == 0 {
			return catalog.NewNull(), nil
		}
		return res.Rows[0][0], nil

	case *LikeExpr, *BetweenExpr, *IsNullExpr, *InExpr, *ExistsExpr:
		b, err := e.evalPredicate(env, expr)
		if err != nil {
			return catalog.Value{}, err
		}
		return catalog.NewBool(b), nil
	}
	return catalog.Value{}, execErr(ErrRuntime, "cannot evaluate %T as value", expr)
}

func negate(v catalog.Value) (catalog.Value, error) {
	switch v.Kind {
	case catalog.KindNull:
		return v, nil
	case catalog.KindInt:
		return catalog.NewInt(-v.Int), nil
	case catalog.KindFloat:
		return catalog.NewFloat(-v.Float), nil
	case catalog.KindDecimal:
		return catalog.NewDecimal(v.Decimal.Neg()), nil
	}
	return catalog.Value{}, execErr(ErrTypeMismatch, "cannot negate %s", v.Kind)
}

// evalArithmetic implements +, -, *, /, %. NULL operands yield NULL.
// Integer pairs stay integer (division truncates); anything mixed widens
// to float, except decimal pairs which stay decimal. Division by zero
// yields NULL.
func evalArithmetic(left, right catalog.Value, op TokenType) (catalog.Value, error) {
	if left.IsNull() || right.IsNull() {
		return catalog.NewNull(), nil
	}
	if op == TOKEN_PLUS && left.Kind == catalog.KindString && right.Kind == catalog.KindString {
		return catalog.NewString(left.Str + right.Str), nil
	}
	if !left.IsNumeric() || !right.IsNumeric() {
		return catalog.Value{}, execErr(ErrTypeMismatch,
			"incompatible operand types %s and %s", left.Kind, right.Kind)
	}

	if left.Kind == catalog.KindInt && right.Kind == catalog.KindInt {
		a, b := left.Int, right.Int
		switch op {
		case TOKEN_PLUS:
			return catalog.NewInt(a + b), nil
		case TOKEN_MINUS:
			return catalog.NewInt(a - b), nil
		case TOKEN_STAR:
			return catalog.NewInt(a * b), nil
		case TOKEN_SLASH:
			if b == 0 {
				return catalog.NewNull(), nil
			}
			return catalog.NewInt(a / b), nil
		case TOKEN_PERCENT:
			if b == 0 {
				return catalog.NewNull(), nil
			}
			return catalog.NewInt(a % b), nil
		}
	}

	if left.Kind == catalog.KindDecimal || right.Kind == catalog.KindDecimal {
		if left.Kind != catalog.KindFloat && right.Kind != catalog.KindFloat {
			a, b := asDecimal(left), asDecimal(right)
			switch op {
			case TOKEN_PLUS:
				return catalog.NewDecimal(a.Add(b)), nil
			case TOKEN_MINUS:
				return catalog.NewDecimal(a.Sub(b)), nil
			case TOKEN_STAR:
				return catalog.NewDecimal(a.Mul(b)), nil
			case TOKEN_SLASH:
				if b.IsZero() {
					return catalog.NewNull(), nil
				}
				return catalog.NewDecimal(a.Div(b)), nil
			case TOKEN_PERCENT:
				if b.IsZero() {
					return catalog.NewNull(), nil
				}
				return catalog.NewDecimal(a.Mod(b)), nil
			}
		}
	}

	a, b := left.AsFloat(), right.AsFloat()
	switch op {
	case TOKEN_PLUS:
		return catalog.NewFloat(a + b), nil
	case TOKEN_MINUS:
		return catalog.NewFloat(a - b), nil
	case TOKEN_STAR:
		return catalog.NewFloat(a * b), nil
	case TOKEN_SLASH:
		if b == 0 {
			return catalog.NewNull(), nil
		}
		return catalog.NewFloat(a / b), nil
	case TOKEN_PERCENT:
		if b == 0 {
			return catalog.NewNull(), nil
		}
		return catalog.NewFloat(math.Mod(a, b)), nil
	}
	return catalog.Value{}, execErr(ErrRuntime, "unknown arithmetic operator")
}

func asDecimal(v catalog.Value) decimal.Decimal {
	switch v.Kind {
	case catalog.KindDecimal:
		return v.Decimal
	case catalog.KindInt:
		return decimal.NewFromInt(v.Int)
	default:
		return decimal.NewFromFloat(v.AsFloat())
	}
}

// compareForSort orders two values for ORDER BY: NULL sorts before every
// non-NULL value ascending; incomparable kinds tie.
func compareForSort(a, b catalog.Value) int {
	if a.IsNull() && b.IsNull() {
		return 0
	}
	if a.IsNull() {
		return -1
	}
	if b.IsNull() {
		return 1
	}
	if c, ok := catalog.Compare(a, b); ok {
		return c
	}
	return 0
}
