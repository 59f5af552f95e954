package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"recuento/internal/amqp"
	"recuento/internal/core"
	"recuento/internal/report"
)

// ExportWorker consumes ledger append events and regenerates the affected
// month's report snapshot on disk. The report HTTP endpoint always builds
// fresh; these exports are standalone snapshots for downstream pickup.
type ExportWorker struct {
	reports *report.Aggregator
	dir     string
}

func NewExportWorker(reports *report.Aggregator, dir string) (*ExportWorker, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create reports directory: %w", err)
	}
	return &ExportWorker{reports: reports, dir: dir}, nil
}

// HandleAppendMessage rebuilds the monthly snapshot for the bucket named in
// the message. Sentinel-bucket appends carry no month and are skipped.
func (w *ExportWorker) HandleAppendMessage(ctx context.Context, msg *amqp.LedgerAppendedMessage) error {
	key := core.BucketKey(msg.Bucket)
	if key == core.UnknownBucket {
		slog.DebugContext(ctx, "Skipping sentinel bucket append", "bucket", msg.Bucket)
		return nil
	}

	date, err := time.Parse("20060102", string(key))
	if err != nil {
		return fmt.Errorf("parse bucket %s: %w", msg.Bucket, err)
	}
	year, month := date.Year(), int(date.Month())

	wb, err := w.reports.BuildMonthly(ctx, year, month)
	if err != nil {
		var re *report.ReportError
		if errors.As(err, &re) {
			// Day files may have been removed since the event was queued.
			slog.WarnContext(ctx, "No ledger files for month, skipping export",
				"year", year, "month", month)
			return nil
		}
		return fmt.Errorf("build monthly report: %w", err)
	}

	path := filepath.Join(w.dir, fmt.Sprintf("reporte_%04d_%02d.xlsx", year, month))
	// excelize's SaveAs validates the extension, so the temp name must end
	// in .xlsx; the rename into place keeps the write atomic.
	tmp := path + ".tmp.xlsx"
	if err := wb.SaveAs(tmp); err != nil {
		return fmt.Errorf("save report snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace report snapshot: %w", err)
	}

	slog.InfoContext(ctx, "Report snapshot exported",
		"year", year, "month", month, "file", filepath.Base(path))
	return nil
}
