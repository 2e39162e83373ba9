package sheet

import (
	"math"
	"strconv"
	"strings"
)

// Coerce converts a raw cell into the typed value for field.
// Quantity yields int64; every other field yields string.
func Coerce(field string, c Cell) any {
	if strings.EqualFold(field, ColumnQuantity) {
		return CoerceQuantity(c)
	}
	return CoerceString(c)
}

// CoerceString renders a cell as text; blank cells become "".
// Numeric cells keep every digit, so phone numbers are never reformatted
// as floats or exponents.
func CoerceString(c Cell) string {
	return c.String()
}

// CoerceQuantity converts a cell to an integer. Text is parsed as an integer
// first, then as a float truncated toward zero. Anything else yields 0.
func CoerceQuantity(c Cell) int64 {
	switch c.Kind {
	case Number:
		return truncate(c.Num)
	case Text:
		s := strings.TrimSpace(c.Str)
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return truncate(f)
		}
		return 0
	default:
		return 0
	}
}

func truncate(f float64) int64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	t := math.Trunc(f)
	if t >= math.MaxInt64 || t < math.MinInt64 {
		return 0
	}
	return int64(t)
}
