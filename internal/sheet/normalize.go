package sheet

import "strings"

// NormalizeLabel converts a header cell to its canonical column name:
// textual form, surrounding whitespace trimmed, lowercased.
func NormalizeLabel(c Cell) string {
	return normalize(c.String())
}

// NormalizeColumns normalizes a header row.
func NormalizeColumns(headers []Cell) []string {
	out := make([]string, len(headers))
	for i, h := range headers {
		out[i] = NormalizeLabel(h)
	}
	return out
}

// NormalizeLabels normalizes column names that are already text.
// Applying it to its own output returns the same labels.
func NormalizeLabels(labels []string) []string {
	out := make([]string, len(labels))
	for i, l := range labels {
		out[i] = normalize(l)
	}
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
