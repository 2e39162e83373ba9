package testutil

import (
	"testing"

	"github.com/xuri/excelize/v2"
)

// SheetSpec describes one sheet of a generated workbook. The first row is
// the header row.
type SheetSpec struct {
	Name string
	Rows [][]any
}

// WorkbookBytes builds an xlsx workbook in memory with the given sheets,
// in order.
func WorkbookBytes(t testing.TB, sheets ...SheetSpec) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	for i, sh := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sh.Name); err != nil {
				t.Fatalf("renaming first sheet: %v", err)
			}
		} else if _, err := f.NewSheet(sh.Name); err != nil {
			t.Fatalf("creating sheet %s: %v", sh.Name, err)
		}

		for r, row := range sh.Rows {
			axis, err := excelize.CoordinatesToCellName(1, r+1)
			if err != nil {
				t.Fatalf("cell name: %v", err)
			}
			values := row
			if err := f.SetSheetRow(sh.Name, axis, &values); err != nil {
				t.Fatalf("writing row %d of %s: %v", r+1, sh.Name, err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("writing workbook: %v", err)
	}
	return buf.Bytes()
}

// Header is the required header row.
func Header() []any {
	return []any{"Name", "Address", "Phone", "Product", "Quantity"}
}
