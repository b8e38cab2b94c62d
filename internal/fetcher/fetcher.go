// Package fetcher parses tabular uploads (CSV and XLSX) into header-keyed records.
package fetcher

import (
	"context"
	"io"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// Format is a supported upload format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// DetectFormat picks a format from a file name. Unknown extensions are
// treated as CSV.
func DetectFormat(filename string) Format {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		return FormatXLSX
	default:
		return FormatCSV
	}
}

// Record is one data row keyed by lower-cased header name.
type Record struct {
	Line   int
	Fields map[string]string
}

// Get returns the trimmed value for column, or "" when absent.
func (r Record) Get(column string) string {
	return strings.TrimSpace(r.Fields[strings.ToLower(column)])
}

// Has reports whether column was present in the header.
func (r Record) Has(column string) bool {
	_, ok := r.Fields[strings.ToLower(column)]
	return ok
}

// ReadTable reads every data row of an upload. The first row is the header.
func ReadTable(ctx context.Context, r io.Reader, format Format) ([]Record, error) {
	switch format {
	case FormatXLSX:
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, eris.Wrap(err, "fetcher: read xlsx upload")
		}
		rows, err := ReadXLSX(data, XLSXOptions{})
		if err != nil {
			return nil, err
		}
		return toRecords(rows), nil
	case FormatCSV:
		rowCh, errCh := StreamCSV(ctx, r, CSVOptions{LazyQuotes: true, TrimSpace: true})
		var rows [][]string
		for row := range rowCh {
			rows = append(rows, row)
		}
		if err := <-errCh; err != nil {
			return nil, err
		}
		return toRecords(rows), nil
	default:
		return nil, eris.Errorf("fetcher: unsupported format %q", format)
	}
}

func toRecords(rows [][]string) []Record {
	if len(rows) == 0 {
		return nil
	}
	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.ToLower(strings.TrimSpace(h))
	}

	records := make([]Record, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		fields := make(map[string]string, len(header))
		for j, name := range header {
			if name == "" {
				continue
			}
			if j < len(row) {
				fields[name] = row[j]
			} else {
				fields[name] = ""
			}
		}
		records = append(records, Record{Line: i + 2, Fields: fields})
	}
	return records
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
