// Package xlsx turns the first sheet of a workbook into records keyed by
// header name.
package xlsx

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	apperrors "pharmastock/internal/errors"
)

// Record is one data row. Line is the 1-based row number in the sheet, so the
// first record after the header is line 2.
type Record struct {
	Line   int
	Values map[string]string
}

// Get returns the trimmed cell under the given column, or "" when the row is
// short.
func (r Record) Get(column string) string {
	return r.Values[NormalizeHeader(column)]
}

// NormalizeHeader folds case and drops spaces, underscores and dashes, so
// "Batch Number", "batch_number" and "batchNumber" name the same column.
func NormalizeHeader(h string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(h)) {
		switch r {
		case ' ', '_', '-':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

type Reader struct {
	maxRows int
}

// NewReader returns a reader that refuses sheets with more than maxRows data
// rows. Zero means no limit.
func NewReader(maxRows int) *Reader {
	return &Reader{maxRows: maxRows}
}

// Read parses the active sheet. Every name in required must appear in the
// header row; other columns are kept but ignored by callers. Blank rows are
// skipped.
func (rd *Reader) Read(src io.Reader, required ...string) ([]Record, error) {
	f, err := excelize.OpenReader(src)
	if err != nil {
		return nil, apperrors.NewValidationError("file is not a readable .xlsx workbook", apperrors.ValidationDetail{
			Field:   "file",
			Message: err.Error(),
		})
	}
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, apperrors.NewValidationError("workbook is empty", apperrors.ValidationDetail{
			Field:   "file",
			Message: "the first sheet has no header row",
		})
	}

	header := make([]string, len(rows[0]))
	present := make(map[string]bool, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = NormalizeHeader(h)
		if header[i] != "" {
			present[header[i]] = true
		}
	}

	var missing []apperrors.ValidationDetail
	for _, col := range required {
		if !present[NormalizeHeader(col)] {
			missing = append(missing, apperrors.ValidationDetail{
				Field:   col,
				Message: fmt.Sprintf("column %q is missing from the header row", col),
			})
		}
	}
	if len(missing) > 0 {
		return nil, apperrors.NewValidationError("workbook header is incomplete", missing...)
	}

	records := make([]Record, 0, len(rows)-1)
	for i, row := range rows[1:] {
		rec := Record{Line: i + 2, Values: make(map[string]string, len(header))}
		blank := true
		for j, cell := range row {
			if j >= len(header) || header[j] == "" {
				continue
			}
			v := strings.TrimSpace(cell)
			if v != "" {
				blank = false
			}
			rec.Values[header[j]] = v
		}
		if blank {
			continue
		}

		if rd.maxRows > 0 && len(records) == rd.maxRows {
			return nil, apperrors.NewValidationError("workbook has too many rows", apperrors.ValidationDetail{
				Field:   "file",
				Message: fmt.Sprintf("at most %d data rows are accepted per upload", rd.maxRows),
			})
		}
		records = append(records, rec)
	}

	return records, nil
}
