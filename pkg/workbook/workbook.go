package workbook

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Row is one data row of a sheet, keyed by the lowercased header cell.
type Row struct {
	Number int
	Cells  map[string]string
}

// Get returns the trimmed cell value for the given header key.
func (r Row) Get(key string) string {
	return strings.TrimSpace(r.Cells[strings.ToLower(key)])
}

// Has reports whether the row carries a non-empty value for the key.
func (r Row) Has(key string) bool {
	return r.Get(key) != ""
}

// ReadFile opens an uploaded workbook and returns the ordered data rows of
// its first sheet. The first row is treated as the header row.
func ReadFile(path string) ([]Row, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	return readFirstSheet(f)
}

// Read parses a workbook from a stream, used when the upload never touches disk.
func Read(r io.Reader) ([]Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook stream: %w", err)
	}
	defer f.Close() //nolint:errcheck

	return readFirstSheet(f)
}

func readFirstSheet(f *excelize.File) ([]Row, error) {
	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	raw, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	if len(raw) == 0 {
		return nil, nil
	}

	headers := make([]string, len(raw[0]))
	for i, h := range raw[0] {
		headers[i] = strings.ToLower(strings.TrimSpace(h))
	}

	rows := make([]Row, 0, len(raw)-1)
	for i, cells := range raw[1:] {
		row := Row{Number: i + 1, Cells: make(map[string]string, len(headers))}
		empty := true
		for j, value := range cells {
			if j >= len(headers) || headers[j] == "" {
				continue
			}
			trimmed := strings.TrimSpace(value)
			if trimmed != "" {
				empty = false
			}
			row.Cells[headers[j]] = trimmed
		}
		if empty {
			continue
		}
		rows = append(rows, row)
	}

	return rows, nil
}
