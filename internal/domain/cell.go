package domain

import (
	"strconv"
)

// CellValue is one value of a pivot row. The variant always matches the
// column's declared value type: Integer columns hold IntegerCell, Numeric
// columns NumberCell, everything else TextCell; NullCell is allowed anywhere.
type CellValue interface {
	isCell()
}

// TextCell holds text, dates and reference display values.
type TextCell string

// NumberCell holds a Numeric value.
type NumberCell float64

// IntegerCell holds an Integer value.
type IntegerCell int64

// NullCell is the absent value.
type NullCell struct{}

func (TextCell) isCell()    {}
func (NumberCell) isCell()  {}
func (IntegerCell) isCell() {}
func (NullCell) isCell()    {}

// MarshalJSON encodes the absent value as JSON null.
func (NullCell) MarshalJSON() ([]byte, error) { return []byte("null"), nil }

// IsNull reports whether c is absent.
func IsNull(c CellValue) bool {
	_, ok := c.(NullCell)
	return ok || c == nil
}

// CellFloat returns the numeric value of c.
func CellFloat(c CellValue) (float64, bool) {
	switch v := c.(type) {
	case NumberCell:
		return float64(v), true
	case IntegerCell:
		return float64(v), true
	default:
		return 0, false
	}
}

// CellString renders c for text outputs; null renders as "".
func CellString(c CellValue) string {
	switch v := c.(type) {
	case TextCell:
		return string(v)
	case NumberCell:
		return strconv.FormatFloat(float64(v), 'f', -1, 64)
	case IntegerCell:
		return strconv.FormatInt(int64(v), 10)
	default:
		return ""
	}
}
