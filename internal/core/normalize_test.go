package core

import (
	"strings"
	"testing"
)

func TestNormalizeCleanRecord(t *testing.T) {
	raw := RawRecord{
		"ticket_devolucion": "D-100",
		"ticket_factura":    "F-200",
		"caja":              "1",
		"tienda":            "T-45-63",
		"vendedor":          "JOSE",
		"monto_devuelto":    "15.50",
		"medio_pago":        "TARJETA",
		"motivo":            "DEFECTO",
		"comentario":        "",
		"tipo_documento":    "original",
		"fecha_operacion":   "2025-12-03",
	}

	entry, verr := Normalize(raw, SeparatorAuto)
	if verr != nil {
		t.Fatalf("unexpected issues: %v", verr)
	}
	if entry.Tipo != Original {
		t.Fatalf("tipo = %s, want original", entry.Tipo)
	}
	if entry.Monto.String() != "15.50" {
		t.Fatalf("monto = %q", entry.Monto.String())
	}
	if entry.Fecha.Bucket() != BucketKey("20251203") {
		t.Fatalf("bucket = %s", entry.Fecha.Bucket())
	}
}

func TestNormalizeCollectsIssues(t *testing.T) {
	raw := RawRecord{
		"monto_devuelto":  "quince",
		"fecha_operacion": "03/12/2025",
		"tipo_documento":  "factura",
	}

	entry, verr := Normalize(raw, SeparatorAuto)
	if verr == nil {
		t.Fatal("expected validation issues")
	}
	if len(verr.Issues) != 3 {
		t.Fatalf("got %d issues, want 3: %v", len(verr.Issues), verr)
	}

	// The entry is still usable: nothing is dropped.
	if entry.Monto.String() != "quince" {
		t.Fatalf("invalid amount not kept raw: %q", entry.Monto.String())
	}
	if entry.Fecha.Bucket() != UnknownBucket {
		t.Fatalf("unparseable date should route to %s, got %s", UnknownBucket, entry.Fecha.Bucket())
	}
	if entry.Tipo != Devolucion {
		t.Fatalf("unrecognized tipo should default to devolucion, got %s", entry.Tipo)
	}

	if !strings.Contains(verr.Error(), "monto_devuelto") {
		t.Fatalf("error string should name the field: %q", verr.Error())
	}
}

func TestNormalizeMissingFieldsAreBlank(t *testing.T) {
	entry, verr := Normalize(RawRecord{}, SeparatorAuto)
	if verr != nil {
		t.Fatalf("empty record should not raise issues: %v", verr)
	}
	if !entry.Fecha.IsUnknown() {
		t.Fatal("missing fecha should be unknown")
	}
	if entry.Monto.Valid || entry.Monto.Raw != "" {
		t.Fatalf("missing monto should be blank, got %+v", entry.Monto)
	}
	if entry.Tipo != Devolucion {
		t.Fatalf("missing tipo should default to devolucion, got %s", entry.Tipo)
	}
}

func TestNormalizeStripsControlCharacters(t *testing.T) {
	raw := RawRecord{"comentario": "linea\nuna\r\nsola\x00", "tienda": "  T-1  "}
	entry, _ := Normalize(raw, SeparatorAuto)
	if strings.ContainsAny(entry.Comentario, "\n\r\x00") {
		t.Fatalf("control characters survived: %q", entry.Comentario)
	}
	if entry.Tienda != "T-1" {
		t.Fatalf("tienda not trimmed: %q", entry.Tienda)
	}
}
