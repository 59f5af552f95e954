// Package ledger owns the day-partitioned CSV ledger files. Every file keeps
// the fixed legacy layout: six blank rows, the store title on row 7, two more
// blank rows, the header on row 10, data rows from row 11, and optional
// trailing summary rows marked by a reserved prefix on the first cell.
package ledger

import (
	"fmt"
	"strings"

	"recuento/internal/core"
)

const (
	// TitleRowIndex is the zero-based row of the fixed title cell.
	TitleRowIndex = 6
	// HeaderRowIndex is the zero-based row of the column header.
	HeaderRowIndex = 9
	// DataRowIndex is the zero-based row where data starts.
	DataRowIndex = 10

	// TitleText is the constant store/channel label of the title row.
	TitleText = "TIENDA CANAL DIGITAL T-45-63"

	// TotalMarkerPrefix identifies trailing summary rows. New data rows are
	// always inserted before the first row carrying this prefix.
	TotalMarkerPrefix = "TOTAL DEV"
)

// CorruptLedgerError reports an existing day file whose structure does not
// match the fixed layout. It is surfaced, never silently repaired: rewriting
// a file we do not understand risks losing financial records.
type CorruptLedgerError struct {
	Bucket core.BucketKey
	File   string
	Reason string
}

func (e *CorruptLedgerError) Error() string {
	return fmt.Sprintf("corrupt ledger %s (bucket %s): %s", e.File, e.Bucket, e.Reason)
}

// isTotalMarker reports whether the row is a trailing summary row.
func isTotalMarker(row []string) bool {
	if len(row) == 0 {
		return false
	}
	return strings.HasPrefix(strings.ToUpper(strings.TrimSpace(row[0])), TotalMarkerPrefix)
}

// findTotalMarker returns the index of the first total-marker row, or -1.
func findTotalMarker(rows [][]string) int {
	for i, row := range rows {
		if isTotalMarker(row) {
			return i
		}
	}
	return -1
}

// insertionIndex computes where new data rows go: immediately before the
// first total-marker row if one exists, otherwise at end of file.
func insertionIndex(rows [][]string) int {
	if i := findTotalMarker(rows); i != -1 {
		return i
	}
	return len(rows)
}

// newFileRows builds the structural rows of a fresh day file: title and
// header at their reserved indices, no data rows.
func newFileRows(columns []string) [][]string {
	rows := make([][]string, DataRowIndex)
	rows[TitleRowIndex] = []string{TitleText}
	rows[HeaderRowIndex] = append([]string(nil), columns...)
	for i := range rows {
		if rows[i] == nil {
			rows[i] = []string{}
		}
	}
	return rows
}

// validateStructure checks that an existing file carries the expected header
// at the expected position. Mismatches come back as *CorruptLedgerError.
func validateStructure(bucket core.BucketKey, file string, rows [][]string, columns []string) error {
	if len(rows) <= HeaderRowIndex {
		return &CorruptLedgerError{
			Bucket: bucket,
			File:   file,
			Reason: fmt.Sprintf("only %d rows, header expected at row %d", len(rows), HeaderRowIndex+1),
		}
	}
	header := rows[HeaderRowIndex]
	if len(header) < len(columns) {
		return &CorruptLedgerError{
			Bucket: bucket,
			File:   file,
			Reason: fmt.Sprintf("header row has %d columns, want %d", len(header), len(columns)),
		}
	}
	for i, want := range columns {
		if !strings.EqualFold(strings.TrimSpace(header[i]), want) {
			return &CorruptLedgerError{
				Bucket: bucket,
				File:   file,
				Reason: fmt.Sprintf("header column %d is %q, want %q", i+1, header[i], want),
			}
		}
	}
	return nil
}
