package sql

import (
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/relishdb/relish/pkg/catalog"
)

// evalFunction dispatches a scalar function call. Unknown names and bad
// arguments come back as Error values, which the evaluator turns into
// statement failures. Unless noted otherwise a NULL argument yields NULL.
func evalFunction(name string, args []catalog.Value) catalog.Value {
	switch strings.ToUpper(name) {
	case "ABS":
		return fnAbs(args)
	case "SQRT":
		return fnSqrt(args)
	case "POWER", "POW":
		return fnPower(args)
	case "MOD":
		return fnMod(args)
	case "ROUND":
		return fnRound(args)
	case "FLOOR":
		return fnFloorCeil(args, math.Floor)
	case "CEIL", "CEILING":
		return fnFloorCeil(args, math.Ceil)
	case "UPPER":
		return fnStringMap(args, strings.ToUpper)
	case "LOWER":
		return fnStringMap(args, strings.ToLower)
	case "LENGTH", "LEN":
		return fnLength(args)
	case "MID", "SUBSTRING", "SUBSTR":
		return fnMid(args)
	case "LEFT":
		return fnLeftRight(args, true)
	case "RIGHT":
		return fnLeftRight(args, false)
	case "CONCAT":
		return fnConcat(args)
	case "COALESCE":
		return fnCoalesce(args)
	case "NULLIF":
		return fnNullIf(args)
	case "NOW":
		return fnNow(args)
	case "DATEADD":
		return fnDateAdd(args)
	case "DATEDIFF":
		return fnDateDiff(args)
	case "EXTRACT":
		return fnExtract(args)
	}
	return catalog.NewError("unknown function %s", strings.ToUpper(name))
}

func argCount(name string, args []catalog.Value, want int) *catalog.Value {
	if len(args) != want {
		v := catalog.NewError("%s expects %d argument(s), got %d", name, want, len(args))
		return &v
	}
	return nil
}

func fnAbs(args []catalog.Value) catalog.Value {
	if e := argCount("ABS", args, 1); e != nil {
		return *e
	}
	v := args[0]
	switch v.Kind {
	case catalog.KindNull:
		return v
	case catalog.KindInt:
		if v.Int < 0 {
			return catalog.NewInt(-v.Int)
		}
		return v
	case catalog.KindFloat:
		return catalog.NewFloat(math.Abs(v.Float))
	case catalog.KindDecimal:
		return catalog.NewDecimal(v.Decimal.Abs())
	}
	return catalog.NewError("ABS expects a numeric argument, got %s", v.Kind)
}

func fnSqrt(args []catalog.Value) catalog.Value {
	if e := argCount("SQRT", args, 1); e != nil {
		return *e
	}
	v := args[0]
	if v.IsNull() {
		return v
	}
	if !v.IsNumeric() {
		return catalog.NewError("SQRT expects a numeric argument, got %s", v.Kind)
	}
	f := v.AsFloat()
	if f < 0 {
		return catalog.NewError("SQRT of negative value %g", f)
	}
	return catalog.NewFloat(math.Sqrt(f))
}

func fnPower(args []catalog.Value) catalog.Value {
	if e := argCount("POWER", args, 2); e != nil {
		return *e
	}
	if args[0].IsNull() || args[1].IsNull() {
		return catalog.NewNull()
	}
	if !args[0].IsNumeric() || !args[1].IsNumeric() {
		return catalog.NewError("POWER expects numeric arguments")
	}
	return catalog.NewFloat(math.Pow(args[0].AsFloat(), args[1].AsFloat()))
}

func fnMod(args []catalog.Value) catalog.Value {
	if e := argCount("MOD", args, 2); e != nil {
		return *e
	}
	a, b := args[0], args[1]
	if a.IsNull() || b.IsNull() {
		return catalog.NewNull()
	}
	if a.Kind == catalog.KindInt && b.Kind == catalog.KindInt {
		if b.Int == 0 {
			return catalog.NewNull()
		}
		return catalog.NewInt(a.Int % b.Int)
	}
	if !a.IsNumeric() || !b.IsNumeric() {
		return catalog.NewError("MOD expects numeric arguments")
	}
	if b.AsFloat() == 0 {
		return catalog.NewNull()
	}
	return catalog.NewFloat(math.Mod(a.AsFloat(), b.AsFloat()))
}

func fnRound(args []catalog.Value) catalog.Value {
	if len(args) != 1 && len(args) != 2 {
		return catalog.NewError("ROUND expects 1 or 2 arguments, got %d", len(args))
	}
	v := args[0]
	if v.IsNull() {
		return v
	}
	places := int64(0)
	if len(args) == 2 {
		if args[1].IsNull() {
			return catalog.NewNull()
		}
		if args[1].Kind != catalog.KindInt {
			return catalog.NewError("ROUND places must be an integer")
		}
		places = args[1].Int
	}
	switch v.Kind {
	case catalog.KindInt:
		return v
	case catalog.KindDecimal:
		return catalog.NewDecimal(v.Decimal.Round(int32(places)))
	case catalog.KindFloat:
		shift := math.Pow(10, float64(places))
		return catalog.NewFloat(math.Round(v.Float*shift) / shift)
	}
	return catalog.NewError("ROUND expects a numeric argument, got %s", v.Kind)
}

func fnFloorCeil(args []catalog.Value, f func(float64) float64) catalog.Value {
	if len(args) != 1 {
		return catalog.NewError("FLOOR/CEIL expects 1 argument, got %d", len(args))
	}
	v := args[0]
	switch v.Kind {
	case catalog.KindNull, catalog.KindInt:
		return v
	case catalog.KindFloat:
		return catalog.NewFloat(f(v.Float))
	case catalog.KindDecimal:
		return catalog.NewDecimal(decimal.NewFromFloat(f(v.Decimal.InexactFloat64())))
	}
	return catalog.NewError("FLOOR/CEIL expects a numeric argument, got %s", v.Kind)
}

func fnStringMap(args []catalog.Value, f func(string) string) catalog.Value {
	if len(args) != 1 {
		return catalog.NewError("UPPER/LOWER expects 1 argument, got %d", len(args))
	}
	v := args[0]
	if v.IsNull() {
		return v
	}
	if v.Kind != catalog.KindString {
		return catalog.NewError("expected a string argument, got %s", v.Kind)
	}
	return catalog.NewString(f(v.Str))
}

func fnLength(args []catalog.Value) catalog.Value {
	if e := argCount("LENGTH", args, 1); e != nil {
		return *e
	}
	v := args[0]
	switch v.Kind {
	case catalog.KindNull:
		return v
	case catalog.KindString:
		return catalog.NewInt(int64(len([]rune(v.Str))))
	case catalog.KindBlob:
		return catalog.NewInt(int64(len(v.Blob)))
	}
	return catalog.NewError("LENGTH expects a string argument, got %s", v.Kind)
}

// fnMid is 1-based: MID(s, start[, length]).
func fnMid(args []catalog.Value) catalog.Value {
	if len(args) != 2 && len(args) != 3 {
		return catalog.NewError("MID expects 2 or 3 arguments, got %d", len(args))
	}
	for _, a := range args {
		if a.IsNull() {
			return catalog.NewNull()
		}
	}
	if args[0].Kind != catalog.KindString || args[1].Kind != catalog.KindInt {
		return catalog.NewError("MID expects (string, int[, int])")
	}
	runes := []rune(args[0].Str)
	start := args[1].Int - 1
	if start < 0 {
		start = 0
	}
	if start >= int64(len(runes)) {
		return catalog.NewString("")
	}
	end := int64(len(runes))
	if len(args) == 3 {
		if args[2].Kind != catalog.KindInt {
			return catalog.NewError("MID expects (string, int[, int])")
		}
		if n := start + args[2].Int; n < end {
			end = n
		}
		if end < start {
			end = start
		}
	}
	return catalog.NewString(string(runes[start:end]))
}

func fnLeftRight(args []catalog.Value, left bool) catalog.Value {
	if len(args) != 2 {
		return catalog.NewError("LEFT/RIGHT expects 2 arguments, got %d", len(args))
	}
	if args[0].IsNull() || args[1].IsNull() {
		return catalog.NewNull()
	}
	if args[0].Kind != catalog.KindString || args[1].Kind != catalog.KindInt {
		return catalog.NewError("LEFT/RIGHT expects (string, int)")
	}
	runes := []rune(args[0].Str)
	n := args[1].Int
	if n < 0 {
		n = 0
	}
	if n > int64(len(runes)) {
		n = int64(len(runes))
	}
	if left {
		return catalog.NewString(string(runes[:n]))
	}
	return catalog.NewString(string(runes[int64(len(runes))-n:]))
}

// fnConcat treats NULL arguments as empty strings.
func fnConcat(args []catalog.Value) catalog.Value {
	var sb strings.Builder
	for _, a := range args {
		if a.IsNull() {
			continue
		}
		sb.WriteString(a.String())
	}
	return catalog.NewString(sb.String())
}

func fnCoalesce(args []catalog.Value) catalog.Value {
	for _, a := range args {
		if !a.IsNull() {
			return a
		}
	}
	return catalog.NewNull()
}

func fnNullIf(args []catalog.Value) catalog.Value {
	if e := argCount("NULLIF", args, 2); e != nil {
		return *e
	}
	if catalog.Equal(args[0], args[1]) {
		return catalog.NewNull()
	}
	return args[0]
}

func fnNow(args []catalog.Value) catalog.Value {
	if len(args) != 0 {
		return catalog.NewError("NOW expects no arguments")
	}
	t := time.Now()
	return catalog.NewDate(t.Year(), int(t.Month()), t.Day())
}

func toGoTime(v catalog.Value) (time.Time, bool) {
	switch v.Kind {
	case catalog.KindDate:
		return time.Date(v.Date.Year, time.Month(v.Date.Month), v.Date.Day, 0, 0, 0, 0, time.UTC), true
	case catalog.KindString:
		if d, ok := catalog.ParseDate(v.Str); ok {
			return toGoTime(d)
		}
	}
	return time.Time{}, false
}

// fnDateAdd is DATEADD(part, amount, date) where part is one of
// 'YEAR', 'MONTH', 'DAY'.
func fnDateAdd(args []catalog.Value) catalog.Value {
	if e := argCount("DATEADD", args, 3); e != nil {
		return *e
	}
	for _, a := range args {
		if a.IsNull() {
			return catalog.NewNull()
		}
	}
	if args[0].Kind != catalog.KindString || args[1].Kind != catalog.KindInt {
		return catalog.NewError("DATEADD expects (part, int, date)")
	}
	t, ok := toGoTime(args[2])
	if !ok {
		return catalog.NewError("DATEADD expects a date, got %s", args[2].Kind)
	}
	n := int(args[1].Int)
	switch strings.ToUpper(args[0].Str) {
	case "YEAR":
		t = t.AddDate(n, 0, 0)
	case "MONTH":
		t = t.AddDate(0, n, 0)
	case "DAY":
		t = t.AddDate(0, 0, n)
	default:
		return catalog.NewError("unknown date part %q", args[0].Str)
	}
	return catalog.NewDate(t.Year(), int(t.Month()), t.Day())
}

// fnDateDiff is DATEDIFF(from, to) in whole days.
func fnDateDiff(args []catalog.Value) catalog.Value {
	if e := argCount("DATEDIFF", args, 2); e != nil {
		return *e
	}
	if args[0].IsNull() || args[1].IsNull() {
		return catalog.NewNull()
	}
	from, ok := toGoTime(args[0])
	if !ok {
		return catalog.NewError("DATEDIFF expects dates, got %s", args[0].Kind)
	}
	to, ok := toGoTime(args[1])
	if !ok {
		return catalog.NewError("DATEDIFF expects dates, got %s", args[1].Kind)
	}
	return catalog.NewInt(int64(to.Sub(from).Hours() / 24))
}

// fnExtract is EXTRACT(part, value) for date and time parts.
func fnExtract(args []catalog.Value) catalog.Value {
	if e := argCount("EXTRACT", args, 2); e != nil {
		return *e
	}
	if args[0].IsNull() || args[1].IsNull() {
		return catalog.NewNull()
	}
	if args[0].Kind != catalog.KindString {
		return catalog.NewError("EXTRACT expects a part name")
	}
	part := strings.ToUpper(args[0].Str)
	v := args[1]
	if v.Kind == catalog.KindString {
		if d, ok := catalog.ParseDate(v.Str); ok {
			v = d
		} else if t, ok := catalog.ParseTime(v.Str); ok {
			v = t
		}
	}
	switch v.Kind {
	case catalog.KindDate:
		switch part {
		case "YEAR":
			return catalog.NewInt(int64(v.Date.Year))
		case "MONTH":
			return catalog.NewInt(int64(v.Date.Month))
		case "DAY":
			return catalog.NewInt(int64(v.Date.Day))
		}
	case catalog.KindTime:
		switch part {
		case "HOUR":
			return catalog.NewInt(int64(v.Time.Hour))
		case "MINUTE":
			return catalog.NewInt(int64(v.Time.Minute))
		case "SECOND":
			return catalog.NewInt(int64(v.Time.Second))
		}
	default:
		return catalog.NewError("EXTRACT expects a date or time, got %s", v.Kind)
	}
	return catalog.NewError("cannot extract %s from %s", part, v.Kind)
}
