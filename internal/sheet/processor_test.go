package sheet

import (
	"fmt"
	"testing"

	"github.com/sheet-uploader/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func header() []Cell {
	return []Cell{TextCell("Name"), TextCell("Address"), TextCell("Phone"), TextCell("Product"), TextCell("Quantity")}
}

func dataRow(i int) []Cell {
	return []Cell{
		TextCell(fmt.Sprintf("Customer %d", i)),
		TextCell(fmt.Sprintf("Street %d", i)),
		NumberCell(5550000 + float64(i)),
		TextCell("Widget"),
		NumberCell(float64(i)),
	}
}

func collect(o Outcome) []models.PreviewRow {
	var rows []models.PreviewRow
	for r := range o.PreviewRows() {
		rows = append(rows, r)
	}
	return rows
}

func TestProcessor_EmptySheet(t *testing.T) {
	p := NewProcessor()

	for _, s := range []Sheet{
		{Name: "Blank"},
		{Name: "HeaderOnly", Rows: [][]Cell{header()}},
	} {
		for _, mode := range []Mode{ModePreview, ModeInsert} {
			out := p.Process(s, mode, 1)
			assert.Equal(t, MessageEmpty, out.Message)
			assert.False(t, out.Valid)
			assert.Empty(t, collect(out))
			assert.Empty(t, out.Records)
			assert.NotNil(t, out.SheetOutcome().Rows)
		}
	}
}

func TestProcessor_MissingColumns(t *testing.T) {
	p := NewProcessor()
	s := Sheet{
		Name: "Bad",
		Rows: [][]Cell{
			{TextCell("Name"), TextCell("Address"), TextCell("Phone"), TextCell("Quantity")},
			{TextCell("a"), TextCell("b"), TextCell("c"), NumberCell(1)},
		},
	}

	out := p.Process(s, ModePreview, 1)
	assert.False(t, out.Valid)
	assert.Equal(t, "missing columns: product", out.Message)
	assert.Equal(t, []string{"product"}, out.Missing)
	assert.Empty(t, collect(out))
	assert.Equal(t, []string{"product"}, out.SheetOutcome().Missing)

	out = p.Process(s, ModeInsert, 1)
	assert.Empty(t, out.Records)
}

func TestProcessor_PreviewCapsAtTenRows(t *testing.T) {
	p := NewProcessor()
	rows := [][]Cell{header()}
	for i := 1; i <= 25; i++ {
		rows = append(rows, dataRow(i))
	}

	out := p.Process(Sheet{Name: "Big", Rows: rows}, ModePreview, 1)
	require.True(t, out.Valid)
	assert.Equal(t, MessageValid, out.Message)

	first := collect(out)
	require.Len(t, first, DefaultPreviewLimit)
	assert.Equal(t, "Customer 1", first[0].Name)
	assert.Equal(t, "5550001", first[0].Phone)
	assert.Equal(t, int64(10), first[9].Quantity)

	// The sequence is restartable.
	assert.Equal(t, first, collect(out))
	assert.Empty(t, out.Records)
}

func TestProcessor_InsertAnnotatesEveryRow(t *testing.T) {
	p := NewProcessor()
	rows := [][]Cell{header()}
	for i := 1; i <= 12; i++ {
		rows = append(rows, dataRow(i))
	}

	out := p.Process(Sheet{Name: "Orders", Rows: rows}, ModeInsert, 42)
	require.True(t, out.Valid)
	require.Len(t, out.Records, 12)
	for i, r := range out.Records {
		assert.Equal(t, "Orders", r.SheetName)
		assert.Equal(t, uint(42), r.FileID)
		assert.Equal(t, int64(i+1), r.Quantity)
	}
	assert.Empty(t, collect(out))
}

func TestProcessor_ProjectsAndDefaults(t *testing.T) {
	p := NewProcessor()
	s := Sheet{
		Name: "Messy",
		Rows: [][]Cell{
			{TextCell("id"), TextCell(" QUANTITY "), TextCell("product"), TextCell("Phone"), TextCell("notes"), TextCell("address"), TextCell("NAME")},
			{NumberCell(1), TextCell("5.0"), TextCell("Gadget"), TextCell("0800-123"), TextCell("x"), TextCell("Main St"), TextCell("Ann")},
			{NumberCell(2), TextCell("abc"), TextCell("Gadget"), BlankCell(), BlankCell(), BlankCell(), TextCell("Bob")},
			{NumberCell(3), NumberCell(2.9)},
		},
	}

	out := p.Process(s, ModeInsert, 7)
	require.True(t, out.Valid)
	require.Len(t, out.Records, 3)

	assert.Equal(t, models.DataRecord{Name: "Ann", Address: "Main St", Phone: "0800-123", Product: "Gadget", Quantity: 5, SheetName: "Messy", FileID: 7}, out.Records[0])
	assert.Equal(t, models.DataRecord{Name: "Bob", Product: "Gadget", SheetName: "Messy", FileID: 7}, out.Records[1])
	assert.Equal(t, models.DataRecord{Quantity: 2, SheetName: "Messy", FileID: 7}, out.Records[2])
}

func TestProcessor_DuplicateHeaderUsesFirstColumn(t *testing.T) {
	p := NewProcessor()
	s := Sheet{
		Name: "Dup",
		Rows: [][]Cell{
			append(header(), TextCell("quantity")),
			{TextCell("n"), TextCell("a"), TextCell("p"), TextCell("w"), NumberCell(3), NumberCell(99)},
		},
	}

	out := p.Process(s, ModeInsert, 1)
	require.Len(t, out.Records, 1)
	assert.Equal(t, int64(3), out.Records[0].Quantity)
}
