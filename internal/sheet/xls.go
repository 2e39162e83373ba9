package sheet

import (
	"fmt"
	"io"

	"github.com/extrame/xls"
)

// maxXLSColumns is the BIFF8 column limit, used for rows stored without a
// ROW record.
const maxXLSColumns = 256

// XLSReader reads legacy BIFF (.xls) workbooks.
type XLSReader struct {
	charset string
}

func NewXLSReader() *XLSReader {
	return &XLSReader{charset: "utf-8"}
}

func (r *XLSReader) Name() string {
	return "xls"
}

func (r *XLSReader) CanRead(filename string) bool {
	return hasExtension(filename, "xls")
}

// Read decodes every sheet. Cell values come back as text; the coercer
// handles numeric quantities written as text.
func (r *XLSReader) Read(rs io.ReadSeeker) (wb *Workbook, err error) {
	// The BIFF decoder panics on some malformed streams.
	defer func() {
		if p := recover(); p != nil {
			wb, err = nil, fmt.Errorf("decoding xls: %v", p)
		}
	}()

	book, err := xls.OpenReader(rs, r.charset)
	if err != nil {
		return nil, err
	}
	if book == nil {
		return nil, fmt.Errorf("decoding xls: empty workbook")
	}

	wb = &Workbook{}
	for i := 0; i < book.NumSheets(); i++ {
		ws := book.GetSheet(i)
		if ws == nil {
			continue
		}

		var rows [][]Cell
		for ri := 0; ri <= int(ws.MaxRow); ri++ {
			row := xlsRow(ws, ri)
			if row == nil {
				rows = append(rows, nil)
				continue
			}

			last := row.LastCol()
			if last == 0 {
				last = maxXLSColumns
			}
			cells := make([]Cell, 0, last)
			for ci := 0; ci < last; ci++ {
				cells = append(cells, TextCell(row.Col(ci)))
			}
			rows = append(rows, cells)
		}

		wb.Sheets = append(wb.Sheets, Sheet{Name: ws.Name, Rows: trimTrailingBlank(rows)})
	}

	return wb, nil
}

// xlsRow returns row i of ws, or nil when the sheet has no such row.
// WorkSheet.Row dereferences the row before checking that it exists.
func xlsRow(ws *xls.WorkSheet, i int) (row *xls.Row) {
	defer func() {
		if recover() != nil {
			row = nil
		}
	}()
	return ws.Row(i)
}
