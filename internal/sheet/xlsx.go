package sheet

import (
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"
)

// XLSXReader reads Office Open XML workbooks.
type XLSXReader struct{}

func NewXLSXReader() *XLSXReader {
	return &XLSXReader{}
}

func (r *XLSXReader) Name() string {
	return "xlsx"
}

func (r *XLSXReader) CanRead(filename string) bool {
	return hasExtension(filename, "xlsx", "xlsm")
}

// Read decodes every sheet. A sheet whose rows cannot be read is kept
// with no rows, so it is reported as empty instead of failing the workbook.
func (r *XLSXReader) Read(rs io.ReadSeeker) (*Workbook, error) {
	f, err := excelize.OpenReader(rs)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	wb := &Workbook{}
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
		if err != nil {
			wb.Sheets = append(wb.Sheets, Sheet{Name: name})
			continue
		}

		cells := make([][]Cell, len(rows))
		for i, row := range rows {
			cells[i] = make([]Cell, len(row))
			for j, raw := range row {
				cells[i][j] = xlsxCell(f, name, j+1, i+1, raw)
			}
		}

		wb.Sheets = append(wb.Sheets, Sheet{Name: name, Rows: trimTrailingBlank(cells)})
	}

	return wb, nil
}

// xlsxCell classifies a raw value using the cell's stored type. Shared and
// inline strings stay text even when they look numeric ("0123").
func xlsxCell(f *excelize.File, sheetName string, col, row int, raw string) Cell {
	if raw == "" {
		return BlankCell()
	}

	axis, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return TextCell(raw)
	}

	typ, err := f.GetCellType(sheetName, axis)
	if err != nil {
		return TextCell(raw)
	}

	switch typ {
	case excelize.CellTypeNumber, excelize.CellTypeUnset, excelize.CellTypeDate:
		if n, err := strconv.ParseFloat(raw, 64); err == nil {
			return NumberCell(n)
		}
	}
	return TextCell(raw)
}
