package core

import (
	"strings"
	"time"
)

const (
	Devolucion DocumentType = "devolucion"
	Original   DocumentType = "original"
)

// Headers are the cells of the fixed header row in every day ledger file,
// in column order.
var Headers = []string{
	"TICKET DEVOLUCION",
	"TICKET FACTURA",
	"CAJA",
	"TIENDA",
	"VENDEDOR",
	"MONTO DEVUELTO",
	"MEDIO DE PAGO",
	"MOTIVO",
	"COMENTARIO",
	"TIPO",
	"FECHA",
}

// ColumnKeys are the snake_case record keys used by the upload/save payloads
// and the extractor output, index-aligned with Headers.
var ColumnKeys = []string{
	"ticket_devolucion",
	"ticket_factura",
	"caja",
	"tienda",
	"vendedor",
	"monto_devuelto",
	"medio_pago",
	"motivo",
	"comentario",
	"tipo_documento",
	"fecha_operacion",
}

type (
	// DocumentType distinguishes a return ticket from an original invoice.
	DocumentType string

	// RawRecord is an unvalidated record as received from the UI or the
	// extraction collaborator. Any key may be absent or blank.
	RawRecord map[string]string

	// Date is a calendar date. The zero value means the operation date is
	// unknown; such entries are routed to the sentinel bucket instead of
	// being rejected.
	Date struct {
		time.Time
	}

	// Entry is one canonical return/original-document record.
	Entry struct {
		TicketDevolucion string
		TicketFactura    string
		Caja             string
		Tienda           string
		Vendedor         string
		Monto            Amount
		MedioPago        string
		Motivo           string
		Comentario       string
		Tipo             DocumentType
		Fecha            Date
	}
)

// ParseDocumentType maps a raw value to one of the two recognized document
// types. Anything unrecognized (including blank) defaults to Devolucion,
// matching the editing UI's initial state.
func ParseDocumentType(s string) DocumentType {
	switch DocumentType(strings.ToLower(strings.TrimSpace(s))) {
	case Original:
		return Original
	default:
		return Devolucion
	}
}

// ParseDate parses an ISO YYYY-MM-DD date. Failure yields the unknown date.
func ParseDate(s string) Date {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}
	}
	return Date{Time: t}
}

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// IsUnknown reports whether the operation date is missing or unparseable.
func (d Date) IsUnknown() bool {
	return d.IsZero()
}

// ISO renders the date as YYYY-MM-DD, or "" when unknown.
func (d Date) ISO() string {
	if d.IsUnknown() {
		return ""
	}
	return d.Format("2006-01-02")
}

// InMonth reports whether the date is known and falls in the given month.
func (d Date) InMonth(year, month int) bool {
	return !d.IsUnknown() && d.Year() == year && int(d.Month()) == month
}

// Fields returns the entry's values in header-column order, ready to be
// written as one ledger data row.
func (e Entry) Fields() []string {
	return []string{
		e.TicketDevolucion,
		e.TicketFactura,
		e.Caja,
		e.Tienda,
		e.Vendedor,
		e.Monto.String(),
		e.MedioPago,
		e.Motivo,
		e.Comentario,
		string(e.Tipo),
		e.Fecha.ISO(),
	}
}

// EntryFromRow decodes one ledger data row back into an Entry. Short rows are
// padded with blanks; extra cells are ignored.
func EntryFromRow(row []string, style SeparatorStyle) Entry {
	values := make([]string, len(Headers))
	copy(values, row)
	return Entry{
		TicketDevolucion: values[0],
		TicketFactura:    values[1],
		Caja:             values[2],
		Tienda:           values[3],
		Vendedor:         values[4],
		Monto:            ParseAmount(values[5], style),
		MedioPago:        values[6],
		Motivo:           values[7],
		Comentario:       values[8],
		Tipo:             ParseDocumentType(values[9]),
		Fecha:            ParseDate(values[10]),
	}
}

// Record converts the entry back to its snake_case raw-record shape, used by
// the upload response so the UI can prefill the editing form.
func (e Entry) Record() RawRecord {
	fields := e.Fields()
	rec := make(RawRecord, len(ColumnKeys))
	for i, key := range ColumnKeys {
		rec[key] = fields[i]
	}
	return rec
}
