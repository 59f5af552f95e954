// Package report builds the aggregated monthly spreadsheet from the day
// ledger files. Reports are derived artifacts: built fresh on every request,
// never cached.
package report

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"recuento/internal/core"
	"recuento/internal/ledger"
)

const (
	// SheetResumen is the summary sheet of the monthly report.
	SheetResumen = "Resumen"
	// SheetDetalle is the full entry listing of the monthly report.
	SheetDetalle = "Detalle"
)

// ReportError signals that no ledger files exist for the requested period.
// It is a reported empty-result condition, not a crash.
type ReportError struct {
	Year  int
	Month int
}

func (e *ReportError) Error() string {
	return fmt.Sprintf("no ledger files for %04d-%02d", e.Year, e.Month)
}

// Aggregator folds the day ledger files of a month into one report workbook.
type Aggregator struct {
	store *ledger.Store
}

// NewAggregator returns an aggregator reading from the given store.
func NewAggregator(store *ledger.Store) *Aggregator {
	return &Aggregator{store: store}
}

// tally accumulates a count and an amount for one grouping key. Invalid
// amounts count toward the row count but contribute nothing to the total.
type tally struct {
	count      int
	amount     decimal.Decimal
	devolucion int
	original   int
	devAmount  decimal.Decimal
	origAmount decimal.Decimal
}

func (t *tally) add(e core.Entry) {
	t.count++
	var amt decimal.Decimal
	if e.Monto.Valid {
		amt = e.Monto.Value
	}
	t.amount = t.amount.Add(amt)
	if e.Tipo == core.Original {
		t.original++
		t.origAmount = t.origAmount.Add(amt)
	} else {
		t.devolucion++
		t.devAmount = t.devAmount.Add(amt)
	}
}

// detailRow is one entry tagged with its source day file.
type detailRow struct {
	file  string
	entry core.Entry
}

// BuildMonthly reads every day file of the month (the unknown-date bucket is
// excluded) and emits a workbook with exactly two sheets, Resumen and
// Detalle. A month without day files fails with *ReportError before any
// output is produced.
func (a *Aggregator) BuildMonthly(ctx context.Context, year, month int) (*excelize.File, error) {
	keys, err := a.store.MonthBuckets(year, month)
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, &ReportError{Year: year, Month: month}
	}

	perDay := make(map[core.BucketKey]*tally)
	byTienda := make(map[string]*tally)
	byMedio := make(map[string]*tally)
	byMotivo := make(map[string]*tally)
	var monthTotal tally
	var details []detailRow

	for _, key := range keys {
		file, err := a.store.EnsureFile(ctx, key)
		if err != nil {
			return nil, err
		}
		entries, err := a.store.ListEntries(ctx, file, core.Date{}, core.Date{})
		if err != nil {
			return nil, err
		}
		day := perDay[key]
		if day == nil {
			day = &tally{}
			perDay[key] = day
		}
		for _, e := range entries {
			day.add(e)
			monthTotal.add(e)
			groupInto(byTienda, e.Tienda, e)
			groupInto(byMedio, e.MedioPago, e)
			groupInto(byMotivo, e.Motivo, e)
			details = append(details, detailRow{file: ledger.FileName(key), entry: e})
		}
	}

	slog.InfoContext(ctx, "Monthly report built",
		"year", year, "month", month,
		"days", len(keys), "entries", monthTotal.count)

	return render(year, month, keys, perDay, &monthTotal, byTienda, byMedio, byMotivo, details)
}

func groupInto(m map[string]*tally, key string, e core.Entry) {
	if key == "" {
		key = "(vacío)"
	}
	t := m[key]
	if t == nil {
		t = &tally{}
		m[key] = t
	}
	t.add(e)
}

func render(year, month int, keys []core.BucketKey, perDay map[core.BucketKey]*tally,
	total *tally, byTienda, byMedio, byMotivo map[string]*tally, details []detailRow) (*excelize.File, error) {

	wb := excelize.NewFile()
	if err := wb.SetSheetName("Sheet1", SheetResumen); err != nil {
		return nil, fmt.Errorf("rename summary sheet: %w", err)
	}
	if _, err := wb.NewSheet(SheetDetalle); err != nil {
		return nil, fmt.Errorf("create detail sheet: %w", err)
	}

	w := &sheetWriter{wb: wb, sheet: SheetResumen}
	w.row("REPORTE MENSUAL DEVOLUCIONES")
	w.row("Periodo", fmt.Sprintf("%04d-%02d", year, month))
	w.row("Total registros", total.count)
	w.row("Total monto devuelto", amountCell(total.amount))
	w.row("Devoluciones", total.devolucion, amountCell(total.devAmount))
	w.row("Originales", total.original, amountCell(total.origAmount))
	w.blank()

	w.row("Por día")
	w.row("FECHA", "DEVOLUCIONES", "MONTO DEVOLUCIONES", "ORIGINALES", "MONTO ORIGINALES", "TOTAL", "MONTO TOTAL")
	for _, key := range keys {
		t := perDay[key]
		w.row(string(key), t.devolucion, amountCell(t.devAmount), t.original, amountCell(t.origAmount), t.count, amountCell(t.amount))
	}
	w.row("TOTAL MES", total.devolucion, amountCell(total.devAmount), total.original, amountCell(total.origAmount), total.count, amountCell(total.amount))
	w.blank()

	w.table("Por tienda", "TIENDA", byTienda)
	w.table("Por medio de pago", "MEDIO DE PAGO", byMedio)
	w.table("Por motivo", "MOTIVO", byMotivo)
	if w.err != nil {
		return nil, fmt.Errorf("write summary sheet: %w", w.err)
	}

	d := &sheetWriter{wb: wb, sheet: SheetDetalle}
	header := append([]interface{}{"ARCHIVO"}, toCells(core.Headers)...)
	d.row(header...)
	for _, row := range details {
		cells := append([]interface{}{row.file}, toCells(row.entry.Fields())...)
		d.row(cells...)
	}
	if d.err != nil {
		return nil, fmt.Errorf("write detail sheet: %w", d.err)
	}

	return wb, nil
}

// sheetWriter appends rows to one sheet, tracking the next row index and the
// first write error.
type sheetWriter struct {
	wb    *excelize.File
	sheet string
	next  int
	err   error
}

func (w *sheetWriter) row(cells ...interface{}) {
	w.next++
	if w.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(1, w.next)
	if err != nil {
		w.err = err
		return
	}
	w.err = w.wb.SetSheetRow(w.sheet, cell, &cells)
}

func (w *sheetWriter) blank() {
	w.next++
}

func (w *sheetWriter) table(title, label string, groups map[string]*tally) {
	w.row(title)
	w.row(label, "CANTIDAD", "MONTO")
	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	// Largest amounts first, name as tie-breaker for determinism.
	sort.Slice(names, func(i, j int) bool {
		a, b := groups[names[i]], groups[names[j]]
		if !a.amount.Equal(b.amount) {
			return a.amount.GreaterThan(b.amount)
		}
		return names[i] < names[j]
	})
	for _, name := range names {
		t := groups[name]
		w.row(name, t.count, amountCell(t.amount))
	}
	w.blank()
}

// amountCell renders a decimal total as a float cell so spreadsheet tools
// treat it as numeric.
func amountCell(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

func toCells(values []string) []interface{} {
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return cells
}
