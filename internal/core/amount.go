package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// SeparatorAuto guesses the decimal separator: when both "," and "."
	// appear, the rightmost one is the decimal mark; a separator occurring
	// more than once is treated as a thousands separator.
	SeparatorAuto SeparatorStyle = "auto"
	// SeparatorComma treats "," as the decimal mark and "." as thousands.
	SeparatorComma SeparatorStyle = "comma"
	// SeparatorDot treats "." as the decimal mark and "," as thousands.
	SeparatorDot SeparatorStyle = "dot"
)

type (
	// SeparatorStyle selects the decimal separator convention for amount
	// parsing. The source data mixes locales, so the convention is
	// configurable rather than hard-coded.
	SeparatorStyle string

	// Amount is a monetary value. When parsing fails the raw input is kept
	// and Valid is false: the record is still saved so it can be corrected
	// manually later.
	Amount struct {
		Raw   string
		Value decimal.Decimal
		Valid bool
	}
)

// IsValid reports whether s names a known separator style.
func (s SeparatorStyle) IsValid() bool {
	switch s {
	case SeparatorAuto, SeparatorComma, SeparatorDot:
		return true
	}
	return false
}

// ParseAmount parses a monetary amount, stripping currency symbols and
// whitespace and normalizing the decimal separator per style. On failure the
// returned Amount carries the raw input with Valid=false.
func ParseAmount(s string, style SeparatorStyle) Amount {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return Amount{Raw: raw}
	}
	clean := strings.NewReplacer("$", "", "L", "", " ", "", "\u00a0", "").Replace(raw)
	clean = normalizeSeparators(clean, style)
	value, err := decimal.NewFromString(clean)
	if err != nil {
		return Amount{Raw: raw}
	}
	return Amount{Raw: raw, Value: value, Valid: true}
}

// String renders the canonical two-decimal form for valid amounts and the
// raw input otherwise. This is the representation persisted in ledger rows.
func (a Amount) String() string {
	if a.Valid {
		return a.Value.StringFixed(2)
	}
	return a.Raw
}

func normalizeSeparators(s string, style SeparatorStyle) string {
	switch style {
	case SeparatorComma:
		s = strings.ReplaceAll(s, ".", "")
		return strings.ReplaceAll(s, ",", ".")
	case SeparatorDot:
		return strings.ReplaceAll(s, ",", "")
	}

	comma := strings.LastIndex(s, ",")
	dot := strings.LastIndex(s, ".")
	switch {
	case comma == -1 && dot == -1:
		return s
	case comma > dot:
		s = strings.ReplaceAll(s, ".", "")
		if strings.Count(s, ",") > 1 {
			return strings.ReplaceAll(s, ",", "")
		}
		return strings.ReplaceAll(s, ",", ".")
	default:
		s = strings.ReplaceAll(s, ",", "")
		if strings.Count(s, ".") > 1 {
			return strings.ReplaceAll(s, ".", "")
		}
		return s
	}
}
