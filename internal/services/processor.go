// Package services orchestrates the upload and save flows: extraction with
// placeholder fallback, normalization, day bucketing, and per-bucket ledger
// appends.
package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"recuento/internal/amqp"
	"recuento/internal/core"
	"recuento/internal/extract"
	"recuento/internal/ledger"
	"recuento/internal/schema"
)

type (
	// Document is one uploaded receipt image.
	Document struct {
		Filename string
		Data     []byte
	}

	// BucketFailure reports one bucket whose append was aborted. Other
	// buckets of the same batch are unaffected.
	BucketFailure struct {
		Bucket core.BucketKey `json:"bucket"`
		Rows   int            `json:"rows"`
		Error  string         `json:"error"`
	}

	// SaveResult names the day files touched by a save batch and the
	// buckets that failed. A batch with failures is a partial commit, not
	// a rollback: committed buckets stay committed.
	SaveResult struct {
		Files    []string        `json:"files"`
		Failures []BucketFailure `json:"failures,omitempty"`
		Issues   []RecordIssues  `json:"issues,omitempty"`
	}

	// RecordIssues ties validation issues back to the batch position of the
	// record that produced them.
	RecordIssues struct {
		Index  int               `json:"index"`
		Fields []core.FieldIssue `json:"fields"`
	}

	// Processor wires the core components together for one deployment.
	Processor struct {
		store     *ledger.Store
		registry  *schema.Registry
		extractor extract.Extractor
		events    *amqp.Client // nil when eventing is disabled
		style     core.SeparatorStyle
	}
)

// NewProcessor builds a processor. events may be nil.
func NewProcessor(store *ledger.Store, registry *schema.Registry, extractor extract.Extractor, events *amqp.Client, style core.SeparatorStyle) *Processor {
	return &Processor{
		store:     store,
		registry:  registry,
		extractor: extractor,
		events:    events,
		style:     style,
	}
}

// ExtractBatch runs the extraction collaborator over every document. A
// failed document yields the placeholder record so the user can fill the
// fields manually; one bad document never blocks the batch.
func (p *Processor) ExtractBatch(ctx context.Context, docs []Document) []core.RawRecord {
	records := make([]core.RawRecord, len(docs))
	for i, doc := range docs {
		rec, err := p.extractor.Extract(ctx, doc.Data, doc.Filename)
		if err != nil {
			slog.WarnContext(ctx, "Extraction failed, using placeholder",
				"file", doc.Filename, "error", err)
			rec = extract.PlaceholderRecord(time.Now())
		}
		records[i] = rec
	}
	return records
}

// Save normalizes the edited records, buckets them by operation date and
// appends each bucket to its day file. Buckets are written concurrently;
// writers for the same bucket are serialized by the store. Per-bucket
// failures are isolated and reported, never propagated to other buckets.
func (p *Processor) Save(ctx context.Context, raws []core.RawRecord) (SaveResult, error) {
	var result SaveResult

	entries := make([]core.Entry, len(raws))
	for i, raw := range raws {
		p.checkSchema(ctx, raw)
		entry, verr := core.Normalize(raw, p.style)
		if verr != nil {
			slog.WarnContext(ctx, "Record normalized with issues",
				"index", i, "error", verr)
			result.Issues = append(result.Issues, RecordIssues{Index: i, Fields: verr.Issues})
		}
		entries[i] = entry
	}

	buckets, keys := core.BucketEntries(entries)

	var mu sync.Mutex
	files := make(map[core.BucketKey]string, len(keys))
	g, gctx := errgroup.WithContext(ctx)
	for _, key := range keys {
		key := key
		batch := buckets[key]
		g.Go(func() error {
			file, err := p.store.EnsureFile(gctx, key)
			if err == nil {
				err = p.store.AppendEntries(gctx, file, batch)
			}
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				slog.ErrorContext(gctx, "Bucket append aborted",
					"bucket", key, "rows", len(batch), "error", err)
				result.Failures = append(result.Failures, BucketFailure{
					Bucket: key,
					Rows:   len(batch),
					Error:  err.Error(),
				})
				return nil // isolate: one bad bucket must not fail the batch
			}
			files[key] = ledger.FileName(key)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return result, err
	}

	// Report touched files in first-seen bucket order.
	for _, key := range keys {
		name, ok := files[key]
		if !ok {
			continue
		}
		result.Files = append(result.Files, name)
		if p.events != nil {
			if err := p.events.PublishLedgerAppended(ctx, string(key), name, len(buckets[key])); err != nil {
				slog.WarnContext(ctx, "Ledger event publish failed",
					"bucket", key, "error", err)
			}
		}
	}
	return result, nil
}

// checkSchema logs keys outside the pinned column set. The baseline is
// advisory: unexpected extractor output never blocks saving, but uploading
// a baseline changes which keys are flagged.
func (p *Processor) checkSchema(ctx context.Context, raw core.RawRecord) {
	keys := p.registry.Keys()
	known := make(map[string]bool, len(keys))
	for _, key := range keys {
		known[key] = true
	}
	for key := range raw {
		if !known[key] {
			slog.DebugContext(ctx, "Record key outside expected schema",
				"key", key, "columns", len(keys))
		}
	}
}
