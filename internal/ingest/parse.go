package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"waste-analytics-service/internal/model"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// DetectFormat picks the decoder for a source from its path extension and,
// for HTTP sources, the response content type.
func DetectFormat(location, contentType string) Format {
	loc := strings.ToLower(location)
	if i := strings.IndexAny(loc, "?#"); i >= 0 {
		loc = loc[:i]
	}
	if strings.HasSuffix(loc, ".xlsx") || strings.Contains(contentType, "spreadsheetml") {
		return FormatXLSX
	}
	return FormatCSV
}

// ParseCSV reads a header row followed by data rows.
func ParseCSV(r io.Reader) ([]model.Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return []model.Row{}, nil
		}
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	var records [][]string
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row %d: %w", len(records)+2, err)
		}
		records = append(records, rec)
	}
	return tableRows(header, records), nil
}

// ParseXLSX reads the first sheet of a workbook, header row first.
func ParseXLSX(r io.Reader) ([]model.Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return []model.Row{}, nil
	}
	table, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	if len(table) == 0 {
		return []model.Row{}, nil
	}
	return tableRows(table[0], table[1:]), nil
}

func tableRows(header []string, records [][]string) []model.Row {
	names := make([]string, len(header))
	for i, h := range header {
		names[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	rows := make([]model.Row, 0, len(records))
	for _, rec := range records {
		row := make(model.Row, len(names))
		empty := true
		for i, name := range names {
			if name == "" || i >= len(rec) {
				continue
			}
			cell := strings.TrimSpace(rec[i])
			if cell != "" {
				empty = false
			}
			row[name] = cell
		}
		if empty {
			continue
		}
		rows = append(rows, row)
	}
	return rows
}
