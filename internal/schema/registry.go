// Package schema holds the expected column schema, optionally pinned by an
// uploaded baseline spreadsheet. The baseline is advisory: the normalizer
// logs mismatches but never rejects a record because of them.
package schema

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/xuri/excelize/v2"

	"recuento/internal/core"
)

type (
	// SheetSchema is the detected header of one baseline sheet.
	SheetSchema struct {
		Name   string   `json:"name"`
		Header []string `json:"header"`
	}

	// BaselineStatus describes the currently pinned baseline, if any.
	BaselineStatus struct {
		Available bool      `json:"available"`
		File      string    `json:"file,omitempty"`
		Columns   int       `json:"columns,omitempty"`
		SetAt     time.Time `json:"set_at,omitempty"`
	}

	// Registry is the process-wide schema state. Replacements are atomic;
	// readers always see either the previous baseline or the new one.
	Registry struct {
		mu     sync.RWMutex
		cols   []string
		sheets []SheetSchema
		file   string
		setAt  time.Time
	}
)

// NewRegistry returns a registry serving the built-in eleven-column schema
// until a baseline is uploaded.
func NewRegistry() *Registry {
	return &Registry{}
}

// SetBaseline replaces the baseline with the schema extracted from an
// uploaded workbook. The first non-empty sheet header becomes the expected
// column list.
func (r *Registry) SetBaseline(sheets []SheetSchema, file string) {
	var cols []string
	for _, s := range sheets {
		if len(s.Header) > 0 {
			cols = append([]string(nil), s.Header...)
			break
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cols = cols
	r.sheets = append([]SheetSchema(nil), sheets...)
	r.file = file
	r.setAt = time.Now()
}

// Current returns the expected column list: the baseline header when one is
// set, the built-in schema otherwise.
func (r *Registry) Current() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.cols) > 0 {
		return append([]string(nil), r.cols...)
	}
	return append([]string(nil), core.Headers...)
}

// Keys returns the snake_case record keys matching the current column list.
// Without a baseline these are the canonical built-in keys; baseline columns
// are normalized mechanically (lowercase, spaces to underscores).
func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.cols) == 0 {
		return append([]string(nil), core.ColumnKeys...)
	}
	keys := make([]string, len(r.cols))
	for i, col := range r.cols {
		keys[i] = columnKey(col)
	}
	return keys
}

func columnKey(col string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(col)), " ", "_")
}

// Sheets returns the detected per-sheet headers of the baseline workbook.
func (r *Registry) Sheets() []SheetSchema {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]SheetSchema(nil), r.sheets...)
}

// Status reports whether a baseline is pinned and where it came from.
func (r *Registry) Status() BaselineStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.file == "" {
		return BaselineStatus{}
	}
	return BaselineStatus{
		Available: true,
		File:      r.file,
		Columns:   len(r.cols),
		SetAt:     r.setAt,
	}
}

// headerScanRows bounds the per-sheet header search; real baselines carry
// the header within the first few rows, 50 is generous.
const headerScanRows = 50

// ReadWorkbookSchema extracts the header of every sheet in an xlsx workbook.
// The header is the first row with at least three non-empty cells, a
// heuristic tolerant of decorative title rows above the real header.
func ReadWorkbookSchema(reader io.Reader) ([]SheetSchema, error) {
	wb, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer wb.Close()

	var sheets []SheetSchema
	for _, name := range wb.GetSheetList() {
		rows, err := wb.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("read sheet %s: %w", name, err)
		}
		sheets = append(sheets, SheetSchema{Name: name, Header: findHeader(rows)})
	}
	return sheets, nil
}

func findHeader(rows [][]string) []string {
	for i, row := range rows {
		if i >= headerScanRows {
			break
		}
		var values []string
		for _, cell := range row {
			if v := strings.TrimSpace(cell); v != "" {
				values = append(values, v)
			}
		}
		if len(values) >= 3 {
			return values
		}
	}
	return nil
}
