package currencyutils

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name      string
		amountStr string
		expected  string
		hasError  bool
	}{
		{"Simple decimal", "123.45", "123.45", false},
		{"Negative decimal", "-123.45", "-123.45", false},
		{"Integer", "100", "100", false},
		{"Decimal comma", "123,45", "123.45", false},
		{"Negative decimal comma", "-150,00", "-150", false},
		{"US thousands", "1,234.56", "1234.56", false},
		{"Comma thousands only", "1,234", "1234", false},
		{"European thousands", "1.234,56", "1234.56", false},
		{"Dot thousands only", "1.234.567", "1234567", false},
		{"Single dot thousands group", "1.500", "1500", false},
		{"Brazilian currency without cents", "R$ 1.500", "1500", false},
		{"Negative dot thousands", "-12.500", "-12500", false},
		{"Leading zero dot decimal", "0.500", "0.5", false},
		{"Leading zero comma decimal", "0,500", "0.5", false},
		{"Two decimals stay decimal", "1.50", "1.5", false},
		{"Apostrophe thousands", "1'234.56", "1234.56", false},
		{"Brazilian currency", "R$ -2.500,00", "-2500", false},
		{"Euro symbol", "€123.45", "123.45", false},
		{"Currency code", "CHF 123.45", "123.45", false},
		{"Trailing minus", "150,00-", "-150", false},
		{"Parentheses", "(12.50)", "-12.5", false},
		{"Explicit plus", "+10,5", "10.5", false},
		{"Whitespace", "  123.45  ", "123.45", false},
		{"Empty", "", "", true},
		{"Only currency", "R$", "", true},
		{"Malformed", "123.45.67", "", true},
		{"Non-numeric", "abc", "", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result, err := ParseAmount(tc.amountStr)
			if tc.hasError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tc.expected).Equal(result),
				"Expected %s but got %s", tc.expected, result.String())
		})
	}
}

func TestParseAmount_EmptyIsDistinguishable(t *testing.T) {
	_, err := ParseAmount("   ")
	assert.ErrorIs(t, err, ErrEmptyAmount)
}

func TestParseNullAmount(t *testing.T) {
	amount, err := ParseNullAmount("0,00")
	require.NoError(t, err)
	assert.True(t, amount.Valid)
	assert.True(t, amount.Decimal.IsZero())

	missing, err := ParseNullAmount("n/a")
	assert.Error(t, err)
	assert.False(t, missing.Valid)
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "-150.00", FormatAmount(decimal.RequireFromString("-150")))
	assert.Equal(t, "", FormatNullAmount(decimal.NullDecimal{}))
	assert.Equal(t, "1.50", FormatNullAmount(decimal.NewNullDecimal(decimal.RequireFromString("1.5"))))
}

func TestWithinTolerance(t *testing.T) {
	tol := decimal.RequireFromString("0.01")
	assert.True(t, WithinTolerance(decimal.RequireFromString("80.00"), decimal.RequireFromString("80.01"), tol))
	assert.False(t, WithinTolerance(decimal.RequireFromString("70"), decimal.RequireFromString("80"), tol))
}

func TestMedian(t *testing.T) {
	tests := []struct {
		name   string
		values []string
		want   string
	}{
		{"empty", nil, "0"},
		{"odd", []string{"5", "1", "3"}, "3"},
		{"even", []string{"4", "1", "3", "2"}, "2.5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values := make([]decimal.Decimal, len(tt.values))
			for i, v := range tt.values {
				values[i] = decimal.RequireFromString(v)
			}
			got := Median(values)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s", got)
		})
	}
}
