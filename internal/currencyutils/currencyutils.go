// Package currencyutils provides the locale-aware amount parsing shared by every source parser.
package currencyutils

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrEmptyAmount is returned when the amount cell is blank.
var ErrEmptyAmount = errors.New("empty amount")

var (
	// Anything that is not part of the number: currency codes and symbols,
	// letters, whitespace (including non-breaking spaces).
	noiseRe        = regexp.MustCompile(`[^0-9,.\-+()']`)
	// A leading zero never starts a thousands group: 0,500 and 0.500 are
	// decimals.
	dotThousandsRe = regexp.MustCompile(`^[1-9]\d{0,2}(\.\d{3})+$`)
	comThousandsRe = regexp.MustCompile(`^[1-9]\d{0,2}(,\d{3})+$`)
)

// ParseAmount parses a string representation of an amount into a decimal value.
// It handles "1,234.56", "1.234,56", "1234,56", "R$ -1.234,56", "(12.50)"
// and a trailing minus sign as in "150,00-". A lone separator followed by
// exactly three digits groups thousands, so "1.500" and "1,500" are both
// one thousand five hundred.
func ParseAmount(amountStr string) (decimal.Decimal, error) {
	standardized := StandardizeAmount(amountStr)
	if standardized == "" || standardized == "-" || standardized == "+" {
		return decimal.Zero, fmt.Errorf("failed to parse amount '%s': %w", amountStr, ErrEmptyAmount)
	}

	amount, err := decimal.NewFromString(standardized)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse amount '%s': %w", amountStr, err)
	}

	return amount, nil
}

// ParseNullAmount is ParseAmount returning a NullDecimal, invalid on error.
func ParseNullAmount(amountStr string) (decimal.NullDecimal, error) {
	amount, err := ParseAmount(amountStr)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(amount), nil
}

// StandardizeAmount converts various currency string formats to a form that
// decimal.NewFromString accepts.
func StandardizeAmount(amountStr string) string {
	s := noiseRe.ReplaceAllString(strings.TrimSpace(amountStr), "")
	s = strings.ReplaceAll(s, "'", "")
	if s == "" {
		return ""
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.Trim(s, "()")
	}
	if strings.HasSuffix(s, "-") {
		negative = true
		s = strings.TrimSuffix(s, "-")
	}
	s = strings.TrimPrefix(s, "+")
	if strings.HasPrefix(s, "-") {
		negative = true
		s = strings.TrimPrefix(s, "-")
	}

	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")
	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastDot < lastComma {
			// 1.234,56
			s = strings.ReplaceAll(s, ".", "")
			s = strings.ReplaceAll(s, ",", ".")
		} else {
			// 1,234.56
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		// 1,234 and 1,234,567 are thousands; 1234,5 and 1234,56 are decimal commas
		if comThousandsRe.MatchString(s) {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.ReplaceAll(s, ",", ".")
		}
	case dotThousandsRe.MatchString(s):
		// 1.500 and 1.234.567 are thousands in the decimal-comma locale
		s = strings.ReplaceAll(s, ".", "")
	}

	if negative {
		return "-" + s
	}
	return s
}

// FormatAmount renders an amount with two decimal places.
func FormatAmount(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}

// FormatNullAmount renders a NullDecimal, or "" when it is missing.
func FormatNullAmount(amount decimal.NullDecimal) string {
	if !amount.Valid {
		return ""
	}
	return FormatAmount(amount.Decimal)
}

// WithinTolerance reports whether |a-b| <= tolerance.
func WithinTolerance(a, b, tolerance decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(tolerance)
}

// Median returns the median of values, or zero for an empty slice.
// values is not modified.
func Median(values []decimal.Decimal) decimal.Decimal {
	if len(values) == 0 {
		return decimal.Zero
	}
	sorted := make([]decimal.Decimal, len(values))
	copy(sorted, values)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].LessThan(sorted[j]) })
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return sorted[mid-1].Add(sorted[mid]).Div(decimal.NewFromInt(2))
}
