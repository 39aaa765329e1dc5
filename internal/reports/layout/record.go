package layout

import (
	"math"
	"strconv"
)

type valueKind uint8

const (
	kindString valueKind = iota
	kindInt
	kindDecimal
)

// Value is one printable field of a Record.
type Value struct {
	kind valueKind
	str  string
	num  int64
	dec  float64
}

// String wraps a text field.
func String(s string) Value {
	return Value{kind: kindString, str: s}
}

// Int wraps an integer field.
func Int(i int64) Value {
	return Value{kind: kindInt, num: i}
}

// Decimal wraps a decimal field. It renders with two fraction digits.
func Decimal(f float64) Value {
	return Value{kind: kindDecimal, dec: f}
}

// Text returns the natural (untruncated) text of the value.
func (v Value) Text() string {
	switch v.kind {
	case kindInt:
		return strconv.FormatInt(v.num, 10)
	case kindDecimal:
		return strconv.FormatFloat(v.dec, 'f', 2, 64)
	default:
		return v.str
	}
}

// Interface returns the value as a Go scalar (string, int64 or float64), for
// writers that keep numbers numeric.
func (v Value) Interface() interface{} {
	switch v.kind {
	case kindInt:
		return v.num
	case kindDecimal:
		return v.dec
	default:
		return v.str
	}
}

// Record is one row of already-formatted field values.
type Record []Value

// Texts returns the natural text of every field.
func (r Record) Texts() []string {
	out := make([]string, len(r))
	for i, v := range r {
		out[i] = v.Text()
	}
	return out
}

// Column describes a report column.
type Column struct {
	Label string  `json:"label"`
	Width float64 `json:"width"` // in points
}

// CharBudget is the maximum number of visible characters that fit the column
// for the given glyph width.
func (c Column) CharBudget(glyphWidth float64) int {
	if glyphWidth <= 0 {
		return 0
	}
	return int(math.Floor(c.Width / glyphWidth))
}

// Labels returns the column labels in order.
func Labels(columns []Column) []string {
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = c.Label
	}
	return out
}
