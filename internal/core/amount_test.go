package core

import "testing"

func TestParseAmountAuto(t *testing.T) {
	cases := []struct {
		in    string
		want  string
		valid bool
	}{
		{"15.50", "15.50", true},
		{"20,00", "20.00", true},
		{"$ 1250.75", "1250.75", true},
		{"L 300", "300.00", true},
		{"1.234,56", "1234.56", true},
		{"1,234.56", "1234.56", true},
		{"1.234.567", "1234567.00", true},
		{"1,234,567", "1234567.00", true},
		{"12", "12.00", true},
		{"12.345", "12.35", true}, // StringFixed rounds half away from zero
		{"12..3", "123.00", true}, // repeated separators read as thousands marks
		{"", "", false},
		{"abc", "abc", false},
		{"12a3", "12a3", false},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			a := ParseAmount(tc.in, SeparatorAuto)
			if a.Valid != tc.valid {
				t.Fatalf("ParseAmount(%q).Valid = %v, want %v", tc.in, a.Valid, tc.valid)
			}
			if a.String() != tc.want {
				t.Fatalf("ParseAmount(%q).String() = %q, want %q", tc.in, a.String(), tc.want)
			}
		})
	}
}

func TestParseAmountFixedStyles(t *testing.T) {
	cases := []struct {
		in    string
		style SeparatorStyle
		want  string
	}{
		{"1.234,56", SeparatorComma, "1234.56"},
		{"20,00", SeparatorComma, "20.00"},
		{"1,234.56", SeparatorDot, "1234.56"},
		{"15.50", SeparatorDot, "15.50"},
	}
	for _, tc := range cases {
		a := ParseAmount(tc.in, tc.style)
		if !a.Valid {
			t.Fatalf("ParseAmount(%q, %s) not valid", tc.in, tc.style)
		}
		if got := a.String(); got != tc.want {
			t.Fatalf("ParseAmount(%q, %s) = %q, want %q", tc.in, tc.style, got, tc.want)
		}
	}
}

func TestSeparatorStyleIsValid(t *testing.T) {
	for _, s := range []SeparatorStyle{SeparatorAuto, SeparatorComma, SeparatorDot} {
		if !s.IsValid() {
			t.Fatalf("expected %s to be valid", s)
		}
	}
	if SeparatorStyle("semicolon").IsValid() {
		t.Fatal("expected unknown style to be invalid")
	}
}

func TestAmountInvalidKeepsRaw(t *testing.T) {
	a := ParseAmount("  quince  ", SeparatorAuto)
	if a.Valid {
		t.Fatal("expected invalid amount")
	}
	if a.Raw != "quince" {
		t.Fatalf("Raw = %q, want trimmed original", a.Raw)
	}
	if a.String() != "quince" {
		t.Fatalf("String() = %q, want raw passthrough", a.String())
	}
}
