package sheet

import (
	"strings"
)

// Required column names, in the order they are reported and projected.
const (
	ColumnName     = "name"
	ColumnAddress  = "address"
	ColumnPhone    = "phone"
	ColumnProduct  = "product"
	ColumnQuantity = "quantity"
)

// RequiredColumns is the schema every sheet must satisfy.
var RequiredColumns = []string{
	ColumnName,
	ColumnAddress,
	ColumnPhone,
	ColumnProduct,
	ColumnQuantity,
}

// MissingColumnsError lists every required column absent from a sheet.
type MissingColumnsError struct {
	Missing []string
}

func (e *MissingColumnsError) Error() string {
	return "missing columns: " + strings.Join(e.Missing, ", ")
}

// ValidateColumns checks that every required name appears in columns.
// Matching is case-insensitive and exact; extra columns and ordering are ignored.
func ValidateColumns(columns, required []string) error {
	present := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		present[strings.ToLower(c)] = struct{}{}
	}

	var missing []string
	for _, r := range required {
		if _, ok := present[strings.ToLower(r)]; !ok {
			missing = append(missing, r)
		}
	}

	if len(missing) > 0 {
		return &MissingColumnsError{Missing: missing}
	}
	return nil
}
