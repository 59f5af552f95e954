package core

import (
	"reflect"
	"testing"
)

func TestParseDocumentType(t *testing.T) {
	cases := []struct {
		in   string
		want DocumentType
	}{
		{"devolucion", Devolucion},
		{"original", Original},
		{"ORIGINAL", Original},
		{"  Original  ", Original},
		{"", Devolucion},
		{"factura", Devolucion},
	}
	for _, tc := range cases {
		if got := ParseDocumentType(tc.in); got != tc.want {
			t.Fatalf("ParseDocumentType(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestParseDate(t *testing.T) {
	d := ParseDate("2025-12-03")
	if d.IsUnknown() {
		t.Fatal("expected known date")
	}
	if d.ISO() != "2025-12-03" {
		t.Fatalf("ISO() = %q", d.ISO())
	}
	if !d.InMonth(2025, 12) {
		t.Fatal("expected date in 2025-12")
	}
	if d.InMonth(2025, 11) {
		t.Fatal("date should not match 2025-11")
	}

	for _, bad := range []string{"", "03/12/2025", "2025-13-01", "ayer"} {
		d := ParseDate(bad)
		if !d.IsUnknown() {
			t.Fatalf("ParseDate(%q) should be unknown", bad)
		}
		if d.ISO() != "" {
			t.Fatalf("unknown date ISO() = %q, want empty", d.ISO())
		}
		if d.InMonth(2025, 12) {
			t.Fatalf("unknown date should never match a month")
		}
	}
}

func TestEntryFieldsRoundTrip(t *testing.T) {
	e := Entry{
		TicketDevolucion: "D-100",
		TicketFactura:    "F-200",
		Caja:             "3",
		Tienda:           "T-45-63",
		Vendedor:         "MARIA",
		Monto:            ParseAmount("15.50", SeparatorAuto),
		MedioPago:        "EFECTIVO",
		Motivo:           "TALLA",
		Comentario:       "cliente cambió de opinión",
		Tipo:             Devolucion,
		Fecha:            NewDate(2025, 12, 3),
	}

	fields := e.Fields()
	if len(fields) != len(Headers) {
		t.Fatalf("Fields() length = %d, want %d", len(fields), len(Headers))
	}
	if fields[5] != "15.50" {
		t.Fatalf("monto field = %q, want 15.50", fields[5])
	}
	if fields[10] != "2025-12-03" {
		t.Fatalf("fecha field = %q", fields[10])
	}

	back := EntryFromRow(fields, SeparatorAuto)
	if !reflect.DeepEqual(back.Fields(), fields) {
		t.Fatalf("round trip mismatch:\n got %v\nwant %v", back.Fields(), fields)
	}
}

func TestEntryFromRowShortRow(t *testing.T) {
	e := EntryFromRow([]string{"D-1", "F-1"}, SeparatorAuto)
	if e.TicketDevolucion != "D-1" || e.TicketFactura != "F-1" {
		t.Fatalf("unexpected tickets: %+v", e)
	}
	if e.Tipo != Devolucion {
		t.Fatalf("missing tipo should default to devolucion, got %s", e.Tipo)
	}
	if !e.Fecha.IsUnknown() {
		t.Fatal("missing fecha should be unknown")
	}
}

func TestEntryRecordKeys(t *testing.T) {
	e := Entry{TicketDevolucion: "D-1", Tipo: Devolucion, Fecha: NewDate(2025, 1, 2)}
	rec := e.Record()
	if len(rec) != len(ColumnKeys) {
		t.Fatalf("Record() has %d keys, want %d", len(rec), len(ColumnKeys))
	}
	if rec["ticket_devolucion"] != "D-1" {
		t.Fatalf("ticket_devolucion = %q", rec["ticket_devolucion"])
	}
	if rec["fecha_operacion"] != "2025-01-02" {
		t.Fatalf("fecha_operacion = %q", rec["fecha_operacion"])
	}
	if rec["tipo_documento"] != "devolucion" {
		t.Fatalf("tipo_documento = %q", rec["tipo_documento"])
	}
}

func TestHeadersAndColumnKeysAligned(t *testing.T) {
	if len(Headers) != len(ColumnKeys) {
		t.Fatalf("Headers (%d) and ColumnKeys (%d) must be index-aligned", len(Headers), len(ColumnKeys))
	}
}
