package excel

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"ablab/internal"
)

// DataReader reads experiment upload files. Both Excel and CSV files are
// supported; the format is picked from the file extension.
type DataReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
}

// NewDataReader creates a reader for the given file path
func NewDataReader(filePath string) *DataReader {
	ext := strings.ToLower(filepath.Ext(filePath))
	fileType := "xlsx"
	if ext == ".csv" {
		fileType = "csv"
	}
	return &DataReader{filePath: filePath, fileType: fileType}
}

// ReadTable reads the file into a Table. The first row is the header row.
func (r *DataReader) ReadTable() (*Table, error) {
	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s file not found: %s", strings.ToUpper(r.fileType), r.filePath)
	}

	switch r.fileType {
	case "csv":
		f, err := os.Open(r.filePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open CSV file: %w", err)
		}
		defer f.Close()
		return ReadCSV(f, filepath.Base(r.filePath))
	case "xlsx":
		return r.readExcelTable()
	default:
		return nil, fmt.Errorf("unsupported file type: %s", r.fileType)
	}
}

// readExcelTable reads Sheet1 into a Table
func (r *DataReader) readExcelTable() (*Table, error) {
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Sheet1")
	if err != nil {
		return nil, fmt.Errorf("failed to read Sheet1: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("Excel file needs a header row and at least one data row")
	}

	table := tableFromRows(rows, filepath.Base(r.filePath))
	internal.DefaultLogger.Info("[DataReader] Read %d rows x %d columns from %s",
		len(table.Rows), len(table.Headers), r.filePath)
	return table, nil
}

// ReadCSV reads CSV content from any reader into a Table. Used directly by
// the dashboard's upload handler, which has an in-memory multipart file
// rather than a path.
func ReadCSV(src io.Reader, source string) (*Table, error) {
	reader := csv.NewReader(src)
	reader.FieldsPerRecord = -1 // tolerate ragged rows, validated later

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("CSV needs a header row and at least one data row")
	}
	return tableFromRows(rows, source), nil
}

// ReadExcel reads xlsx content from an in-memory reader into a Table.
func ReadExcel(src io.Reader, source string) (*Table, error) {
	f, err := excelize.OpenReader(src)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel upload: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Sheet1")
	if err != nil {
		return nil, fmt.Errorf("failed to read Sheet1: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("Excel upload needs a header row and at least one data row")
	}
	return tableFromRows(rows, source), nil
}

func tableFromRows(rows [][]string, source string) *Table {
	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.TrimSpace(h)
	}
	return &Table{Headers: headers, Rows: rows[1:], Source: source}
}

func equalFold(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
