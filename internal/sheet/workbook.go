package sheet

import (
	"io"
)

// Workbook is every sheet of one file, in file order.
type Workbook struct {
	Sheets []Sheet
}

// Reader decodes one workbook format.
type Reader interface {
	// Name returns the unique name of the reader.
	Name() string
	// CanRead returns true if the reader handles files with this name.
	CanRead(filename string) bool
	// Read decodes the whole workbook held by r.
	Read(r io.ReadSeeker) (*Workbook, error)
}

// trimTrailingBlank drops blank rows at the end of a sheet and blank cells
// at the end of each row.
func trimTrailingBlank(rows [][]Cell) [][]Cell {
	for i, row := range rows {
		end := len(row)
		for end > 0 && row[end-1].IsBlank() {
			end--
		}
		rows[i] = row[:end]
	}

	end := len(rows)
	for end > 0 && len(rows[end-1]) == 0 {
		end--
	}
	return rows[:end]
}
