package sheet

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testdata/orders.xls holds three sheets:
//   - Orders: header, Ann (numeric phone, quantity "5"), a blank row, Bob
//     (text phone, integer quantity 3)
//   - Empty: no cells
//   - NoProduct: header without product, one row, stored without ROW records
func readOrdersXLS(t *testing.T) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", "orders.xls"))
	require.NoError(t, err)
	return data
}

func cellStrings(row []Cell) []string {
	out := make([]string, 0, len(row))
	for _, c := range row {
		out = append(out, c.String())
	}
	return out
}

func TestXLSReader_Read(t *testing.T) {
	wb, err := NewXLSReader().Read(bytes.NewReader(readOrdersXLS(t)))
	require.NoError(t, err)

	names := make([]string, 0, len(wb.Sheets))
	for _, s := range wb.Sheets {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"Orders", "Empty", "NoProduct"}, names)

	orders := wb.Sheets[0]
	require.Len(t, orders.Rows, 4)
	assert.Equal(t, []string{"Name", "Address", "Phone", "Product", "Quantity"}, cellStrings(orders.Rows[0]))
	assert.Equal(t, []string{"Ann", "Main St", "1234567", "Widget", "5"}, cellStrings(orders.Rows[1]))
	assert.Empty(t, orders.Rows[2], "blank rows between data rows are kept")
	assert.Equal(t, []string{"Bob", "Side St", "0800123", "Gadget", "3"}, cellStrings(orders.Rows[3]))
	assert.Equal(t, Text, orders.Rows[1][2].Kind)

	assert.True(t, wb.Sheets[1].Empty())
	assert.Empty(t, wb.Sheets[1].Rows)

	noProduct := wb.Sheets[2]
	require.Len(t, noProduct.Rows, 2)
	assert.Equal(t, []string{"Name", "Address", "Phone", "Quantity"}, cellStrings(noProduct.Rows[0]))
	assert.Equal(t, []string{"Dan", "Lane", "1", "1"}, cellStrings(noProduct.Rows[1]))
}

func TestXLSReader_Process(t *testing.T) {
	wb, err := NewRegistry().Read("orders.xls", readOrdersXLS(t))
	require.NoError(t, err)
	require.Len(t, wb.Sheets, 3)

	p := NewProcessor()

	out := p.Process(wb.Sheets[0], ModeInsert, 7)
	require.True(t, out.Valid, out.Message)
	require.Len(t, out.Records, 3)

	ann := out.Records[0]
	assert.Equal(t, "Ann", ann.Name)
	assert.Equal(t, "1234567", ann.Phone)
	assert.Equal(t, int64(5), ann.Quantity)
	assert.Equal(t, "Orders", ann.SheetName)
	assert.Equal(t, uint(7), ann.FileID)

	assert.Equal(t, "", out.Records[1].Name)
	assert.Equal(t, int64(0), out.Records[1].Quantity)

	bob := out.Records[2]
	assert.Equal(t, "0800123", bob.Phone)
	assert.Equal(t, int64(3), bob.Quantity)

	out = p.Process(wb.Sheets[1], ModePreview, 7)
	assert.Equal(t, MessageEmpty, out.Message)

	out = p.Process(wb.Sheets[2], ModePreview, 7)
	assert.False(t, out.Valid)
	assert.Equal(t, []string{"product"}, out.Missing)
}

func TestXLSReader_ReadByContent(t *testing.T) {
	wb, err := NewRegistry().Read("orders.xlsx", readOrdersXLS(t))
	require.NoError(t, err)
	require.Len(t, wb.Sheets, 3)
	assert.Equal(t, "Orders", wb.Sheets[0].Name)
}

func TestXLSReader_Garbage(t *testing.T) {
	_, err := NewXLSReader().Read(strings.NewReader(strings.Repeat("not a workbook ", 64)))
	assert.Error(t, err)
}
