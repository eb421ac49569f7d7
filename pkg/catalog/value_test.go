package catalog

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoerceToInt(t *testing.T) {
	tests := []struct {
		name string
		in   Value
		want Value
	}{
		{"int passthrough", NewInt(42), NewInt(42)},
		{"float truncates", NewFloat(3.9), NewInt(3)},
		{"numeric string", NewString("17"), NewInt(17)},
		{"padded string", NewString("  17 "), NewInt(17)},
		{"bool true", NewBool(true), NewInt(1)},
		{"decimal", NewDecimal(decimal.NewFromFloat(2.75)), NewInt(2)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Coerce(tt.in, TypeInt))
		})
	}

	out := Coerce(NewString("nope"), TypeInt)
	assert.Equal(t, KindError, out.Kind)
}

func TestCoerceToFloatAndDecimal(t *testing.T) {
	assert.Equal(t, NewFloat(3), Coerce(NewInt(3), TypeFloat))
	assert.Equal(t, NewFloat(1.5), Coerce(NewString("1.5"), TypeFloat))
	assert.Equal(t, KindError, Coerce(NewString("x"), TypeFloat).Kind)

	d := Coerce(NewString("10.25"), TypeDecimal)
	require.Equal(t, KindDecimal, d.Kind)
	assert.True(t, d.Decimal.Equal(decimal.RequireFromString("10.25")))
	assert.Equal(t, KindError, Coerce(NewString("x"), TypeDecimal).Kind)
}

func TestCoerceToString(t *testing.T) {
	assert.Equal(t, NewString("42"), Coerce(NewInt(42), TypeString))
	assert.Equal(t, NewString("true"), Coerce(NewBool(true), TypeString))
	assert.Equal(t, NewString("2024-01-05"), Coerce(NewDate(2024, 1, 5), TypeString))
}

func TestCoerceToBool(t *testing.T) {
	assert.Equal(t, NewBool(true), Coerce(NewInt(1), TypeBool))
	assert.Equal(t, NewBool(false), Coerce(NewInt(0), TypeBool))
	assert.Equal(t, NewBool(true), Coerce(NewString("true"), TypeBool))
	assert.Equal(t, KindError, Coerce(NewString("maybe"), TypeBool).Kind)
}

func TestCoerceDateAndTime(t *testing.T) {
	assert.Equal(t, NewDate(2024, 3, 15), Coerce(NewString("2024-03-15"), TypeDate))
	assert.Equal(t, NewDate(2024, 3, 15), Coerce(NewInt(20240315), TypeDate))
	assert.Equal(t, KindError, Coerce(NewString("soonish"), TypeDate).Kind)

	assert.Equal(t, NewTime(9, 30, 0), Coerce(NewString("09:30:00"), TypeTime))
	assert.Equal(t, KindError, Coerce(NewString("9am"), TypeTime).Kind)
}

func TestCoercePassesNullAndError(t *testing.T) {
	assert.True(t, Coerce(NewNull(), TypeInt).IsNull())
	e := NewError("boom")
	assert.Equal(t, e, Coerce(e, TypeInt))
}

func TestParseDate(t *testing.T) {
	v, ok := ParseDate("2024-02-29")
	require.True(t, ok)
	assert.Equal(t, Date{Year: 2024, Month: 2, Day: 29}, v.Date)

	for _, bad := range []string{"2024-13-01", "2024-00-10", "2024-01-32", "2024-01", "abc"} {
		_, ok := ParseDate(bad)
		assert.False(t, ok, "ParseDate(%q)", bad)
	}
}

func TestParseTime(t *testing.T) {
	v, ok := ParseTime("23:59:59")
	require.True(t, ok)
	assert.Equal(t, TimeOfDay{Hour: 23, Minute: 59, Second: 59}, v.Time)

	for _, bad := range []string{"24:00:00", "12:60:00", "12:00:60", "12:00", "noon"} {
		_, ok := ParseTime(bad)
		assert.False(t, ok, "ParseTime(%q)", bad)
	}
}

func TestCompare(t *testing.T) {
	lt := func(a, b Value) {
		t.Helper()
		c, ok := Compare(a, b)
		require.True(t, ok)
		assert.Equal(t, -1, c, "%v < %v", a, b)
		c, ok = Compare(b, a)
		require.True(t, ok)
		assert.Equal(t, 1, c)
	}
	lt(NewInt(1), NewInt(2))
	lt(NewInt(1), NewFloat(1.5))
	lt(NewFloat(0.5), NewDecimal(decimal.NewFromInt(1)))
	lt(NewString("abc"), NewString("abd"))
	lt(NewBool(false), NewBool(true))
	lt(NewDate(2023, 12, 31), NewDate(2024, 1, 1))
	lt(NewTime(9, 0, 0), NewTime(9, 0, 1))
	lt(NewBlob([]byte("a")), NewBlob([]byte("b")))

	// string literals compare against dates and times
	lt(NewDate(2024, 1, 1), NewString("2024-06-01"))
	lt(NewString("08:00:00"), NewTime(9, 0, 0))

	_, ok := Compare(NewInt(1), NewString("1"))
	assert.False(t, ok, "int and non-numeric string do not compare")
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal(NewInt(3), NewFloat(3.0)))
	assert.True(t, Equal(NewString("x"), NewString("x")))
	assert.False(t, Equal(NewNull(), NewNull()), "NULL never equals NULL")
	assert.False(t, Equal(NewInt(1), NewNull()))
	assert.False(t, Equal(NewInt(1), NewString("1")))
}

func TestCloneIsolatesBlobs(t *testing.T) {
	src := NewBlob([]byte("abc"))
	cp := src.Clone()
	src.Blob[0] = 'z'
	assert.Equal(t, []byte("abc"), cp.Blob)
}

func TestValueString(t *testing.T) {
	assert.Equal(t, "NULL", NewNull().String())
	assert.Equal(t, "3.5", NewFloat(3.5).String())
	assert.Equal(t, "x'616263'", NewBlob([]byte("abc")).String())
	assert.Equal(t, "2024-01-05", NewDate(2024, 1, 5).String())
	assert.Equal(t, "09:05:00", NewTime(9, 5, 0).String())
}

func TestParseDataTypeAliases(t *testing.T) {
	assert.Equal(t, TypeInt, ParseDataType("integer"))
	assert.Equal(t, TypeString, ParseDataType("VARCHAR"))
	assert.Equal(t, TypeFloat, ParseDataType(" real "))
	assert.Equal(t, TypeDecimal, ParseDataType("NUMERIC"))
	assert.Equal(t, TypeUnknown, ParseDataType("flubber"))
}
