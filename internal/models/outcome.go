package models

// SheetOutcome is the per-sheet result of a preview.
type SheetOutcome struct {
	Name    string       `json:"name" msgpack:"name"`
	Message string       `json:"message" msgpack:"message"`
	Rows    []PreviewRow `json:"rows" msgpack:"rows"`
	Missing []string     `json:"missing,omitempty" msgpack:"missing,omitempty"`
}

// SheetSummary reports how many rows one sheet contributed to an insert.
type SheetSummary struct {
	Name    string   `json:"name"`
	Message string   `json:"message"`
	Rows    int      `json:"rows"`
	Missing []string `json:"missing,omitempty"`
}

// InsertSummary is the result of loading a workbook into the store.
type InsertSummary struct {
	FileID        uint           `json:"file_id"`
	Filename      string         `json:"filename"`
	TotalInserted int            `json:"total_inserted"`
	Sheets        []SheetSummary `json:"sheets"`
}

// ChartAggregate is the summed quantity of one product.
type ChartAggregate struct {
	Product string `json:"product" msgpack:"product"`
	Total   int64  `json:"total" msgpack:"total"`
}
