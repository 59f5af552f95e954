// Package extract is the boundary to the image-to-fields extraction
// collaborator. Extraction is best effort: any field may come back blank,
// and a failed document never blocks the rest of the batch: the caller
// falls back to a placeholder record the user can fill in manually.
package extract

import (
	"context"
	"fmt"
	"time"

	"recuento/internal/core"
)

// ExtractionError reports a document the collaborator could not process.
type ExtractionError struct {
	Filename string
	Err      error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.Filename, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// Extractor turns a receipt image into a raw record of the eleven known
// fields, best effort.
type Extractor interface {
	Extract(ctx context.Context, image []byte, filename string) (core.RawRecord, error)
}

// PlaceholderRecord is the empty record used when extraction is unavailable
// or fails: blank fields, today's date, tipo devolucion.
func PlaceholderRecord(now time.Time) core.RawRecord {
	rec := make(core.RawRecord, len(core.ColumnKeys))
	for _, key := range core.ColumnKeys {
		rec[key] = ""
	}
	rec["tipo_documento"] = string(core.Devolucion)
	rec["fecha_operacion"] = now.Format("2006-01-02")
	return rec
}

// Mock is the extraction stand-in used without a configured vision backend.
type Mock struct {
	// Now is overridable for tests; defaults to time.Now.
	Now func() time.Time
}

// Extract returns the placeholder record for every document.
func (m *Mock) Extract(_ context.Context, _ []byte, _ string) (core.RawRecord, error) {
	now := time.Now
	if m.Now != nil {
		now = m.Now
	}
	return PlaceholderRecord(now()), nil
}
