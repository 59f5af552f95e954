package core

import (
	"fmt"
	"strings"
)

type (
	// FieldIssue describes one field of a raw record that could not be
	// parsed cleanly. The entry is still saved; issues are surfaced to the
	// caller for manual correction.
	FieldIssue struct {
		Field  string `json:"field"`
		Reason string `json:"reason"`
	}

	// ValidationError collects the per-field issues found while normalizing
	// one raw record. It is advisory: normalization never drops a record.
	ValidationError struct {
		Issues []FieldIssue
	}
)

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		parts[i] = issue.Field + ": " + issue.Reason
	}
	return "invalid fields: " + strings.Join(parts, "; ")
}

// Normalize converts a raw record into a canonical Entry. The system favors
// capturing data over rejecting it: unparseable dates route the entry to the
// unknown-date bucket, unparseable amounts keep the raw string flagged, and
// unrecognized document types default to devolucion. The returned
// ValidationError is nil when every field parsed cleanly.
func Normalize(raw RawRecord, style SeparatorStyle) (Entry, *ValidationError) {
	var issues []FieldIssue

	get := func(key string) string {
		return sanitize(raw[key])
	}

	entry := Entry{
		TicketDevolucion: get("ticket_devolucion"),
		TicketFactura:    get("ticket_factura"),
		Caja:             get("caja"),
		Tienda:           get("tienda"),
		Vendedor:         get("vendedor"),
		MedioPago:        get("medio_pago"),
		Motivo:           get("motivo"),
		Comentario:       get("comentario"),
	}

	if fecha := get("fecha_operacion"); fecha != "" {
		entry.Fecha = ParseDate(fecha)
		if entry.Fecha.IsUnknown() {
			issues = append(issues, FieldIssue{
				Field:  "fecha_operacion",
				Reason: fmt.Sprintf("unparseable date %q, routed to %s", fecha, UnknownBucket),
			})
		}
	}

	if monto := get("monto_devuelto"); monto != "" {
		entry.Monto = ParseAmount(monto, style)
		if !entry.Monto.Valid {
			issues = append(issues, FieldIssue{
				Field:  "monto_devuelto",
				Reason: fmt.Sprintf("unparseable amount %q, kept as-is", monto),
			})
		}
	}

	tipo := get("tipo_documento")
	entry.Tipo = ParseDocumentType(tipo)
	if tipo != "" && DocumentType(strings.ToLower(tipo)) != entry.Tipo {
		issues = append(issues, FieldIssue{
			Field:  "tipo_documento",
			Reason: fmt.Sprintf("unrecognized type %q, defaulted to %s", tipo, Devolucion),
		})
	}

	if len(issues) > 0 {
		return entry, &ValidationError{Issues: issues}
	}
	return entry, nil
}

// sanitize trims whitespace and strips control characters except tab.
// Ledger rows are one CSV line per record, so newlines never survive input.
func sanitize(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 {
			return -1
		}
		return r
	}, s)
}
