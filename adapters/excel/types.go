package excel

// Table is tabular upload data in row-major string form, one header per column
type Table struct {
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
	Source  string     `json:"source"` // File name or path the table was read from
}

// ColumnIndex returns the position of the named header, or -1.
// Matching is case-insensitive on trimmed header names.
func (t *Table) ColumnIndex(name string) int {
	for i, h := range t.Headers {
		if equalFold(h, name) {
			return i
		}
	}
	return -1
}
