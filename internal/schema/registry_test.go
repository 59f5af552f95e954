package schema

import (
	"bytes"
	"reflect"
	"testing"

	"github.com/xuri/excelize/v2"

	"recuento/internal/core"
)

func TestRegistryDefaults(t *testing.T) {
	r := NewRegistry()
	if !reflect.DeepEqual(r.Current(), core.Headers) {
		t.Fatalf("Current() = %v, want built-in headers", r.Current())
	}
	if r.Status().Available {
		t.Fatal("fresh registry should report no baseline")
	}
	if len(r.Sheets()) != 0 {
		t.Fatalf("fresh registry Sheets() = %v", r.Sheets())
	}
}

func TestRegistrySetBaseline(t *testing.T) {
	r := NewRegistry()
	sheets := []SheetSchema{
		{Name: "Portada"}, // no header detected
		{Name: "Diciembre", Header: []string{"TICKET", "MONTO", "FECHA"}},
		{Name: "Enero", Header: []string{"A", "B", "C", "D"}},
	}
	r.SetBaseline(sheets, "baseline.xlsx")

	if got := r.Current(); !reflect.DeepEqual(got, []string{"TICKET", "MONTO", "FECHA"}) {
		t.Fatalf("Current() = %v, want first non-empty header", got)
	}

	status := r.Status()
	if !status.Available || status.File != "baseline.xlsx" || status.Columns != 3 {
		t.Fatalf("Status() = %+v", status)
	}
	if status.SetAt.IsZero() {
		t.Fatal("SetAt not recorded")
	}
	if len(r.Sheets()) != 3 {
		t.Fatalf("Sheets() = %v", r.Sheets())
	}

	// A second upload fully replaces the first.
	r.SetBaseline([]SheetSchema{{Name: "Hoja1", Header: []string{"X", "Y", "Z"}}}, "otro.xlsx")
	if got := r.Current(); !reflect.DeepEqual(got, []string{"X", "Y", "Z"}) {
		t.Fatalf("Current() after replace = %v", got)
	}
	if r.Status().File != "otro.xlsx" {
		t.Fatalf("Status().File = %s", r.Status().File)
	}
}

func TestRegistryKeys(t *testing.T) {
	r := NewRegistry()
	if !reflect.DeepEqual(r.Keys(), core.ColumnKeys) {
		t.Fatalf("Keys() = %v, want built-in record keys", r.Keys())
	}

	r.SetBaseline([]SheetSchema{
		{Name: "Hoja", Header: []string{"TICKET DEVOLUCION", " MONTO DEVUELTO ", "Fecha Operacion"}},
	}, "baseline.xlsx")
	want := []string{"ticket_devolucion", "monto_devuelto", "fecha_operacion"}
	if got := r.Keys(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Keys() = %v, want normalized baseline keys %v", got, want)
	}
}

func TestReadWorkbookSchema(t *testing.T) {
	wb := excelize.NewFile()
	defer wb.Close()

	// Decorative rows above the real header, which sits at row 4.
	title := []interface{}{"TIENDA CANAL DIGITAL T-45-63"}
	header := []interface{}{"TICKET DEVOLUCION", "MONTO DEVUELTO", "FECHA"}
	if err := wb.SetSheetRow("Sheet1", "A1", &title); err != nil {
		t.Fatalf("SetSheetRow: %v", err)
	}
	if err := wb.SetSheetRow("Sheet1", "A4", &header); err != nil {
		t.Fatalf("SetSheetRow: %v", err)
	}
	if _, err := wb.NewSheet("Vacia"); err != nil {
		t.Fatalf("NewSheet: %v", err)
	}

	var buf bytes.Buffer
	if err := wb.Write(&buf); err != nil {
		t.Fatalf("Write: %v", err)
	}

	sheets, err := ReadWorkbookSchema(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("ReadWorkbookSchema: %v", err)
	}
	if len(sheets) != 2 {
		t.Fatalf("got %d sheets, want 2", len(sheets))
	}
	want := []string{"TICKET DEVOLUCION", "MONTO DEVUELTO", "FECHA"}
	if !reflect.DeepEqual(sheets[0].Header, want) {
		t.Fatalf("sheet %s header = %v, want %v", sheets[0].Name, sheets[0].Header, want)
	}
	if sheets[1].Header != nil {
		t.Fatalf("empty sheet header = %v, want nil", sheets[1].Header)
	}
}

func TestReadWorkbookSchemaRejectsGarbage(t *testing.T) {
	if _, err := ReadWorkbookSchema(bytes.NewReader([]byte("not a workbook"))); err == nil {
		t.Fatal("expected error for non-xlsx input")
	}
}

func TestFindHeaderHeuristic(t *testing.T) {
	cases := []struct {
		name string
		rows [][]string
		want []string
	}{
		{"two cells is not a header", [][]string{{"a", "b"}}, nil},
		{"three cells is", [][]string{{"a", "b", "c"}}, []string{"a", "b", "c"}},
		{"blanks do not count", [][]string{{"a", "", "b", " "}}, nil},
		{"skips leading title rows", [][]string{{"TITULO"}, {}, {"x", "y", "z"}}, []string{"x", "y", "z"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := findHeader(tc.rows); !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("findHeader = %v, want %v", got, tc.want)
			}
		})
	}
}
