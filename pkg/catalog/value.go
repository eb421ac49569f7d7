// Package catalog provides the type system, schema definitions, and the
// in-memory catalog of tables, indexes, and statistics.
package catalog

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

// DataType represents a column data type.
type DataType int

const (
	TypeUnknown DataType = iota
	TypeInt
	TypeFloat
	TypeString
	TypeBool
	TypeDecimal
	TypeBlob
	TypeDate
	TypeTime
)

// String returns the SQL name of the type.
func (t DataType) String() string {
	switch t {
	case TypeInt:
		return "INT"
	case TypeFloat:
		return "FLOAT"
	case TypeString:
		return "STRING"
	case TypeBool:
		return "BOOLEAN"
	case TypeDecimal:
		return "DECIMAL"
	case TypeBlob:
		return "BLOB"
	case TypeDate:
		return "DATE"
	case TypeTime:
		return "TIME"
	default:
		return "UNKNOWN"
	}
}

// ParseDataType converts a type name to DataType.
func ParseDataType(s string) DataType {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "INT", "INTEGER", "BIGINT":
		return TypeInt
	case "FLOAT", "REAL", "DOUBLE":
		return TypeFloat
	case "STRING", "TEXT", "VARCHAR":
		return TypeString
	case "BOOL", "BOOLEAN":
		return TypeBool
	case "DECIMAL", "NUMERIC":
		return TypeDecimal
	case "BLOB":
		return TypeBlob
	case "DATE":
		return TypeDate
	case "TIME":
		return TypeTime
	default:
		return TypeUnknown
	}
}

// ValueKind tags the variant held by a Value. NULL is its own kind, not a
// sentinel inside another kind. The Error kind is reserved for failed
// coercions and unknown functions; evaluation that sees it aborts the
// enclosing statement.
type ValueKind int

const (
	KindNull ValueKind = iota
	KindInt
	KindFloat
	KindString
	KindBool
	KindDecimal
	KindBlob
	KindDate
	KindTime
	KindError
)

// String returns the display name of the kind.
func (k ValueKind) String() string {
	switch k {
	case KindNull:
		return "NULL"
	case KindInt:
		return "INT"
	case KindFloat:
		return "FLOAT"
	case KindString:
		return "STRING"
	case KindBool:
		return "BOOLEAN"
	case KindDecimal:
		return "DECIMAL"
	case KindBlob:
		return "BLOB"
	case KindDate:
		return "DATE"
	case KindTime:
		return "TIME"
	case KindError:
		return "ERROR"
	default:
		return "?"
	}
}

// Date is a packed calendar date.
type Date struct {
	Year  int
	Month int
	Day   int
}

// Ordinal returns an integer that orders dates chronologically.
func (d Date) Ordinal() int64 {
	return int64(d.Year)*10000 + int64(d.Month)*100 + int64(d.Day)
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// TimeOfDay is a packed wall-clock time.
type TimeOfDay struct {
	Hour   int
	Minute int
	Second int
}

// Ordinal returns the number of seconds since midnight.
func (t TimeOfDay) Ordinal() int64 {
	return int64(t.Hour)*3600 + int64(t.Minute)*60 + int64(t.Second)
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
}

// Value is the tagged union flowing through the whole engine: storage,
// expression evaluation, aggregation, and query results all share it.
type Value struct {
	Kind    ValueKind
	Int     int64
	Float   float64
	Str     string
	Bool    bool
	Decimal decimal.Decimal
	Blob    []byte
	Date    Date
	Time    TimeOfDay
	ErrMsg  string
}

// NewNull creates a NULL value.
func NewNull() Value { return Value{Kind: KindNull} }

// NewInt creates an INT value.
func NewInt(v int64) Value { return Value{Kind: KindInt, Int: v} }

// NewFloat creates a FLOAT value.
func NewFloat(v float64) Value { return Value{Kind: KindFloat, Float: v} }

// NewString creates a STRING value.
func NewString(v string) Value { return Value{Kind: KindString, Str: v} }

// NewBool creates a BOOLEAN value.
func NewBool(v bool) Value { return Value{Kind: KindBool, Bool: v} }

// NewDecimal creates a DECIMAL value.
func NewDecimal(v decimal.Decimal) Value { return Value{Kind: KindDecimal, Decimal: v} }

// NewBlob creates a BLOB value. The byte slice is owned by the Value.
func NewBlob(v []byte) Value { return Value{Kind: KindBlob, Blob: v} }

// NewDate creates a DATE value.
func NewDate(y, m, d int) Value {
	return Value{Kind: KindDate, Date: Date{Year: y, Month: m, Day: d}}
}

// NewTime creates a TIME value.
func NewTime(h, m, s int) Value {
	return Value{Kind: KindTime, Time: TimeOfDay{Hour: h, Minute: m, Second: s}}
}

// NewError creates an Error value carrying the failure reason.
func NewError(format string, args ...interface{}) Value {
	return Value{Kind: KindError, ErrMsg: fmt.Sprintf(format, args...)}
}

// IsNull reports whether the value is NULL.
func (v Value) IsNull() bool { return v.Kind == KindNull }

// IsError reports whether the value is the error variant.
func (v Value) IsError() bool { return v.Kind == KindError }

// IsNumeric reports whether the value participates in arithmetic widening.
func (v Value) IsNumeric() bool {
	return v.Kind == KindInt || v.Kind == KindFloat || v.Kind == KindDecimal
}

// Clone deep-copies the value: string and blob payloads get fresh backing
// storage so rows can be duplicated without sharing.
func (v Value) Clone() Value {
	out := v
	if v.Kind == KindBlob && v.Blob != nil {
		out.Blob = make([]byte, len(v.Blob))
		copy(out.Blob, v.Blob)
	}
	// strings are immutable in Go; Str and ErrMsg copy by assignment
	return out
}

// String returns a human-readable representation (used by the formatter).
func (v Value) String() string {
	switch v.Kind {
	case KindNull:
		return "NULL"
	case KindInt:
		return strconv.FormatInt(v.Int, 10)
	case KindFloat:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	case KindString:
		return v.Str
	case KindBool:
		if v.Bool {
			return "true"
		}
		return "false"
	case KindDecimal:
		return v.Decimal.String()
	case KindBlob:
		return fmt.Sprintf("x'%x'", v.Blob)
	case KindDate:
		return v.Date.String()
	case KindTime:
		return v.Time.String()
	case KindError:
		return "ERROR: " + v.ErrMsg
	default:
		return "?"
	}
}

// AsFloat widens a numeric value to float64.
func (v Value) AsFloat() float64 {
	switch v.Kind {
	case KindInt:
		return float64(v.Int)
	case KindFloat:
		return v.Float
	case KindDecimal:
		f, _ := v.Decimal.Float64()
		return f
	default:
		return 0
	}
}

// KindForType maps a declared column type to the value kind it stores.
func KindForType(t DataType) ValueKind {
	switch t {
	case TypeInt:
		return KindInt
	case TypeFloat:
		return KindFloat
	case TypeString:
		return KindString
	case TypeBool:
		return KindBool
	case TypeDecimal:
		return KindDecimal
	case TypeBlob:
		return KindBlob
	case TypeDate:
		return KindDate
	case TypeTime:
		return KindTime
	default:
		return KindNull
	}
}

// Coerce converts a value to the kind stored by the target column type.
// Date and time columns accept their string literal forms; numeric kinds
// convert between each other. A value that cannot be converted comes back
// as the Error kind so callers can decide between strict rejection and
// keeping the literal as-is.
func Coerce(v Value, target DataType) Value {
	if v.IsNull() || v.IsError() {
		return v
	}
	want := KindForType(target)
	if v.Kind == want {
		return v
	}
	switch target {
	case TypeInt:
		n, err := toInt64(v)
		if err != nil {
			return NewError("%s", err.Error())
		}
		return NewInt(n)
	case TypeFloat:
		switch v.Kind {
		case KindInt:
			return NewFloat(float64(v.Int))
		case KindDecimal:
			f, _ := v.Decimal.Float64()
			return NewFloat(f)
		case KindString:
			f, err := cast.ToFloat64E(v.Str)
			if err != nil {
				return NewError("cannot coerce %q to FLOAT", v.Str)
			}
			return NewFloat(f)
		}
	case TypeDecimal:
		switch v.Kind {
		case KindInt:
			return NewDecimal(decimal.NewFromInt(v.Int))
		case KindFloat:
			return NewDecimal(decimal.NewFromFloat(v.Float))
		case KindString:
			d, err := decimal.NewFromString(v.Str)
			if err != nil {
				return NewError("cannot coerce %q to DECIMAL", v.Str)
			}
			return NewDecimal(d)
		}
	case TypeString:
		return NewString(v.String())
	case TypeBool:
		switch v.Kind {
		case KindInt:
			return NewBool(v.Int != 0)
		case KindString:
			b, err := cast.ToBoolE(v.Str)
			if err != nil {
				return NewError("cannot coerce %q to BOOLEAN", v.Str)
			}
			return NewBool(b)
		}
	case TypeBlob:
		if v.Kind == KindString {
			return NewBlob([]byte(v.Str))
		}
	case TypeDate:
		if v.Kind == KindString {
			d, ok := ParseDate(v.Str)
			if !ok {
				return NewError("cannot coerce %q to DATE", v.Str)
			}
			return d
		}
		if v.Kind == KindInt {
			// packed YYYYMMDD form
			n := v.Int
			return NewDate(int(n/10000), int(n/100%100), int(n%100))
		}
	case TypeTime:
		if v.Kind == KindString {
			t, ok := ParseTime(v.Str)
			if !ok {
				return NewError("cannot coerce %q to TIME", v.Str)
			}
			return t
		}
	}
	return NewError("cannot coerce %s to %s", v.Kind, target)
}

func toInt64(v Value) (int64, error) {
	switch v.Kind {
	case KindInt:
		return v.Int, nil
	case KindFloat:
		return int64(v.Float), nil
	case KindDecimal:
		return v.Decimal.IntPart(), nil
	case KindBool:
		if v.Bool {
			return 1, nil
		}
		return 0, nil
	case KindString:
		n, err := cast.ToInt64E(strings.TrimSpace(v.Str))
		if err != nil {
			return 0, fmt.Errorf("cannot coerce %q to INT", v.Str)
		}
		return n, nil
	}
	return 0, fmt.Errorf("cannot coerce %s to INT", v.Kind)
}

// ParseDate parses the YYYY-MM-DD literal form.
func ParseDate(s string) (Value, bool) {
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) != 3 {
		return Value{}, false
	}
	y, err1 := strconv.Atoi(parts[0])
	m, err2 := strconv.Atoi(parts[1])
	d, err3 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil || err3 != nil {
		return Value{}, false
	}
	if m < 1 || m > 12 || d < 1 || d > 31 {
		return Value{}, false
	}
	return NewDate(y, m, d), true
}

// ParseTime parses the HH:MM:SS literal form.
func ParseTime(s string) (Value, bool) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 3 {
		return Value{}, false
	}
	h, err1 := strconv.Atoi(parts[0])
	m, err2 := strconv.Atoi(parts[1])
	sec, err3 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil || err3 != nil {
		return Value{}, false
	}
	if h < 0 || h > 23 || m < 0 || m > 59 || sec < 0 || sec > 59 {
		return Value{}, false
	}
	return NewTime(h, m, sec), true
}

// Equal reports scalar equality between two values. Mixed int/float widens
// to float. NULL never equals anything, including NULL.
func Equal(a, b Value) bool {
	if a.IsNull() || b.IsNull() {
		return false
	}
	if c, ok := Compare(a, b); ok {
		return c == 0
	}
	return false
}

// Compare orders two non-NULL values. Returns false when the kinds cannot
// be compared. Mixed int/float/decimal comparisons widen to float; strings
// compare byte-wise; dates and times compare by encoded ordinal.
func Compare(a, b Value) (int, bool) {
	if a.IsNumeric() && b.IsNumeric() {
		if a.Kind == KindInt && b.Kind == KindInt {
			switch {
			case a.Int < b.Int:
				return -1, true
			case a.Int > b.Int:
				return 1, true
			}
			return 0, true
		}
		if a.Kind == KindDecimal && b.Kind == KindDecimal {
			return a.Decimal.Cmp(b.Decimal), true
		}
		af, bf := a.AsFloat(), b.AsFloat()
		switch {
		case af < bf:
			return -1, true
		case af > bf:
			return 1, true
		}
		return 0, true
	}
	if a.Kind != b.Kind {
		// string vs date/time compares through the literal form
		if a.Kind == KindString {
			if conv, ok := convertLiteral(a, b.Kind); ok {
				return Compare(conv, b)
			}
		}
		if b.Kind == KindString {
			if conv, ok := convertLiteral(b, a.Kind); ok {
				return Compare(a, conv)
			}
		}
		return 0, false
	}
	switch a.Kind {
	case KindString:
		return strings.Compare(a.Str, b.Str), true
	case KindBool:
		switch {
		case a.Bool == b.Bool:
			return 0, true
		case !a.Bool:
			return -1, true
		}
		return 1, true
	case KindDate:
		return cmpInt64(a.Date.Ordinal(), b.Date.Ordinal()), true
	case KindTime:
		return cmpInt64(a.Time.Ordinal(), b.Time.Ordinal()), true
	case KindBlob:
		return strings.Compare(string(a.Blob), string(b.Blob)), true
	}
	return 0, false
}

func convertLiteral(s Value, want ValueKind) (Value, bool) {
	switch want {
	case KindDate:
		return valueOK(ParseDate(s.Str))
	case KindTime:
		return valueOK(ParseTime(s.Str))
	}
	return Value{}, false
}

func valueOK(v Value, ok bool) (Value, bool) { return v, ok }

func cmpInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
