package cardparser

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fjacquet/finledger/internal/dateutils"
	"fjacquet/finledger/internal/logging"
	"fjacquet/finledger/internal/models"
	"fjacquet/finledger/internal/parser"
	"fjacquet/finledger/internal/parsererror"
)

func source(t *testing.T, name, content string) parser.Source {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return parser.Source{Path: path, Kind: models.SourceCardExport, Account: models.AccountCreditCardA}
}

func TestParse_Delimiters(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"comma", "date,description,amount\n05/01/2026,LOJA XYZ 03/06,-150.00\n06/01/2026,PADARIA,\"-1,234.50\"\n"},
		{"semicolon with renamed columns", "Data;Lançamento;Valor (R$)\n05/01/2026;LOJA XYZ 03/06;-150,00\n06/01/2026;PADARIA;R$ -1.234,50\n"},
		{"reordered", "valor,data,descricao\n-150,05/01/2026,LOJA XYZ 03/06\n-1234.5,06/01/2026,PADARIA\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewAdapter(logging.NewMockLogger())
			out := p.Parse(context.Background(), source(t, "fatura_cartao_a_2026-01.csv", tt.content))

			require.False(t, out.Failed(), out.Diagnostics)
			require.Len(t, out.Records, 2)

			first := out.Records[0]
			assert.Equal(t, dateutils.NewDate(2026, 1, 5), first.Date)
			assert.Equal(t, "LOJA XYZ 03/06", first.DescriptionOriginal)
			require.True(t, first.Amount.Valid)
			assert.True(t, decimal.RequireFromString("-150").Equal(first.Amount.Decimal))
			assert.Equal(t, models.AccountCreditCardA, first.Account)
			assert.Equal(t, models.SourceCardExport, first.SourceKind)
			assert.Equal(t, 1, first.Row)

			assert.True(t, decimal.RequireFromString("-1234.50").Equal(out.Records[1].Amount.Decimal))
			assert.Equal(t, 2, out.Records[1].Row)
		})
	}
}

func TestParse_CoercionKeepsRow(t *testing.T) {
	p := NewAdapter(nil)
	out := p.Parse(context.Background(), source(t, "card.csv",
		"date,description,amount\nnot-a-date,MERCADO,abc\n,,\n07/01/2026,FARMACIA,-10\n"))

	require.False(t, out.Failed())
	require.Len(t, out.Records, 2)
	assert.True(t, out.Records[0].Date.IsZero())
	assert.False(t, out.Records[0].Amount.Valid)
	assert.Len(t, out.Diagnostics, 2)
	for _, d := range out.Diagnostics {
		assert.Equal(t, parsererror.SeverityWarning, d.Severity)
		assert.Equal(t, 1, d.Row)
	}
	assert.Equal(t, 3, out.Records[1].Row)
}

func TestParse_FileFailures(t *testing.T) {
	p := NewAdapter(nil)

	out := p.Parse(context.Background(), source(t, "empty.csv", "\n\n"))
	assert.True(t, out.Failed())
	assert.Empty(t, out.Records)

	out = p.Parse(context.Background(), source(t, "nodate.csv", "foo,bar\n1,2\n"))
	assert.True(t, out.Failed())
	assert.Equal(t, "format", out.Diagnostics[0].Kind)

	out = p.Parse(context.Background(), parser.Source{Path: filepath.Join(t.TempDir(), "missing.csv")})
	assert.True(t, out.Failed())
	assert.Equal(t, "io", out.Diagnostics[0].Kind)
}
