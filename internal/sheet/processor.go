package sheet

import (
	"errors"
	"iter"

	"github.com/sheet-uploader/backend/internal/models"
)

// Mode selects what the processor produces for a valid sheet.
type Mode uint8

const (
	ModePreview Mode = iota
	ModeInsert
)

const (
	// MessageEmpty is reported for sheets without data rows.
	MessageEmpty = "sheet contains no data"
	// MessageValid is reported for sheets that passed validation.
	MessageValid = "sheet is valid"
	// DefaultPreviewLimit caps the rows returned by a preview.
	DefaultPreviewLimit = 10
)

// Sheet is one named table of a workbook. The first row holds the headers.
type Sheet struct {
	Name string
	Rows [][]Cell
}

// Empty reports whether the sheet has no data row below its header.
func (s Sheet) Empty() bool {
	return len(s.Rows) < 2
}

// Outcome is the result of processing one sheet.
type Outcome struct {
	Sheet   string
	Message string
	Valid   bool

	// Missing lists the absent required columns of a rejected sheet.
	Missing []string
	// Records is filled in insert mode only.
	Records []models.DataRecord

	preview []models.PreviewRow
}

// PreviewRows yields the preview rows. The sequence can be ranged over
// any number of times.
func (o Outcome) PreviewRows() iter.Seq[models.PreviewRow] {
	return func(yield func(models.PreviewRow) bool) {
		for _, r := range o.preview {
			if !yield(r) {
				return
			}
		}
	}
}

// SheetOutcome converts the outcome into its response form.
func (o Outcome) SheetOutcome() models.SheetOutcome {
	rows := make([]models.PreviewRow, 0, len(o.preview))
	for r := range o.PreviewRows() {
		rows = append(rows, r)
	}
	return models.SheetOutcome{
		Name:    o.Sheet,
		Message: o.Message,
		Rows:    rows,
		Missing: o.Missing,
	}
}

// Processor validates and coerces sheets against a fixed schema.
type Processor struct {
	Required     []string
	PreviewLimit int
}

// NewProcessor returns a processor for RequiredColumns.
func NewProcessor() *Processor {
	return &Processor{
		Required:     RequiredColumns,
		PreviewLimit: DefaultPreviewLimit,
	}
}

// Process validates a sheet and coerces its rows. Malformed content never
// produces an error: it degrades to defaults or to a rejected outcome.
func (p *Processor) Process(s Sheet, mode Mode, fileID uint) Outcome {
	out := Outcome{Sheet: s.Name}

	if s.Empty() {
		out.Message = MessageEmpty
		return out
	}

	columns := NormalizeColumns(s.Rows[0])
	if err := ValidateColumns(columns, p.Required); err != nil {
		out.Message = err.Error()
		var missing *MissingColumnsError
		if errors.As(err, &missing) {
			out.Missing = missing.Missing
		}
		return out
	}

	index := columnIndex(columns)
	out.Valid = true
	out.Message = MessageValid

	data := s.Rows[1:]
	switch mode {
	case ModePreview:
		limit := min(len(data), p.PreviewLimit)
		out.preview = make([]models.PreviewRow, 0, limit)
		for _, raw := range data[:limit] {
			out.preview = append(out.preview, coerceRow(raw, index))
		}
	case ModeInsert:
		out.Records = make([]models.DataRecord, 0, len(data))
		for _, raw := range data {
			out.Records = append(out.Records, coerceRow(raw, index).Record(s.Name, fileID))
		}
	}

	return out
}

// columnIndex maps each required column to the position of its first
// occurrence in the normalized header row.
func columnIndex(columns []string) map[string]int {
	index := make(map[string]int, len(columns))
	for i, c := range columns {
		if _, seen := index[c]; !seen {
			index[c] = i
		}
	}
	return index
}

func coerceRow(raw []Cell, index map[string]int) models.PreviewRow {
	cell := func(name string) Cell {
		i, ok := index[name]
		if !ok || i >= len(raw) {
			return BlankCell()
		}
		return raw[i]
	}

	return models.PreviewRow{
		Name:     CoerceString(cell(ColumnName)),
		Address:  CoerceString(cell(ColumnAddress)),
		Phone:    CoerceString(cell(ColumnPhone)),
		Product:  CoerceString(cell(ColumnProduct)),
		Quantity: CoerceQuantity(cell(ColumnQuantity)),
	}
}
