package md

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"
	"time"
)

var timestampLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05-07:00",
}

// CSVSource reads a price series from a CSV file with a header row.
type CSVSource struct {
	Path   string
	Symbol string
}

func (s CSVSource) Bars(ctx context.Context) ([]Bar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	file, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open price file: %w", err)
	}
	defer file.Close()

	bars, err := ReadCSV(file, s.Symbol)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.Path, err)
	}
	slog.Info("price series loaded", "source", "csv", "path", s.Path, "symbol", s.Symbol, "bars", len(bars))
	return bars, nil
}

// ReadCSV parses bars from r. Column names are matched case-insensitively;
// only a timestamp column and Close are required. An empty Close cell is read
// as a missing observation.
func ReadCSV(r io.Reader, symbol string) ([]Bar, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return []Bar{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	columns := indexColumns(header)
	timeCol, ok := firstColumn(columns, "date", "datetime", "timestamp", "time")
	if !ok {
		return nil, &MissingFieldError{Field: "Timestamp"}
	}
	closeCol, ok := firstColumn(columns, "close")
	if !ok {
		return nil, &MissingFieldError{Field: "Close"}
	}

	bars := make([]Bar, 0, 256)
	for row := 1; ; row++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}

		raw := cell(record, timeCol)
		if raw == "" {
			return nil, &MissingFieldError{Field: "Timestamp", Row: row}
		}
		ts, err := parseTimestamp(raw)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}

		bar := Bar{Symbol: symbol, Timestamp: ts}
		if bar.Close, err = parseOptional(record, closeCol); err != nil {
			return nil, fmt.Errorf("row %d: close: %w", row, err)
		}
		for name, dst := range map[string]*float64{
			"open":   &bar.Open,
			"high":   &bar.High,
			"low":    &bar.Low,
			"volume": &bar.Volume,
		} {
			col, ok := columns[name]
			if !ok {
				continue
			}
			if *dst, err = parseOptional(record, col); err != nil {
				return nil, fmt.Errorf("row %d: %s: %w", row, name, err)
			}
		}
		bars = append(bars, bar)
	}

	if err := checkOrder(bars); err != nil {
		return nil, err
	}
	return bars, nil
}

func indexColumns(header []string) map[string]int {
	columns := make(map[string]int, len(header))
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if _, dup := columns[key]; !dup {
			columns[key] = i
		}
	}
	return columns
}

func firstColumn(columns map[string]int, names ...string) (int, bool) {
	for _, name := range names {
		if idx, ok := columns[name]; ok {
			return idx, true
		}
	}
	return 0, false
}

func cell(record []string, idx int) string {
	if idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

func parseOptional(record []string, idx int) (float64, error) {
	raw := cell(record, idx)
	if raw == "" {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(raw, 64)
}

func parseTimestamp(value string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", value)
}
