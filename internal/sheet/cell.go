// Package sheet turns raw workbook sheets into validated, typed rows.
package sheet

import (
	"strconv"
)

// Kind tags the variant held by a Cell.
type Kind uint8

const (
	Blank Kind = iota
	Text
	Number
)

// Cell is a single spreadsheet value as read from a workbook.
type Cell struct {
	Kind Kind
	Str  string
	Num  float64
}

// TextCell returns a text cell. An empty string is treated as blank.
func TextCell(s string) Cell {
	if s == "" {
		return Cell{Kind: Blank}
	}
	return Cell{Kind: Text, Str: s}
}

// NumberCell returns a numeric cell.
func NumberCell(n float64) Cell {
	return Cell{Kind: Number, Num: n}
}

// BlankCell returns an empty cell.
func BlankCell() Cell {
	return Cell{Kind: Blank}
}

// IsBlank reports whether the cell holds no value.
func (c Cell) IsBlank() bool {
	return c.Kind == Blank
}

// String returns the textual form of the cell. Numbers are rendered
// without exponent and without a trailing ".0".
func (c Cell) String() string {
	switch c.Kind {
	case Text:
		return c.Str
	case Number:
		return strconv.FormatFloat(c.Num, 'f', -1, 64)
	default:
		return ""
	}
}
