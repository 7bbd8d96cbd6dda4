package legacyparser

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fjacquet/finledger/internal/dateutils"
	"fjacquet/finledger/internal/models"
	"fjacquet/finledger/internal/parser"
)

func TestParse_KeepsSeeds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "planilha_historico.csv")
	content := "Data;Descrição;Valor;Conta;Categoria;Subcategoria\n" +
		"15/03/2024;ALUGUEL MARCO;-2.000,00;checking;Moradia;Aluguel\n" +
		"16/03/2024;PADARIA;-12,50;;Alimentação;\n" +
		";;;;;\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	src := parser.Source{Path: path, Kind: models.SourceLegacy, Account: models.AccountCreditCardA}
	out := NewAdapter(nil).Parse(context.Background(), src)

	require.False(t, out.Failed(), out.Diagnostics)
	require.Len(t, out.Records, 2)

	rent := out.Records[0]
	assert.Equal(t, dateutils.NewDate(2024, 3, 15), rent.Date)
	assert.Equal(t, models.AccountChecking, rent.Account, "account column overrides the file name")
	assert.Equal(t, "Moradia", rent.SeedCategory)
	assert.Equal(t, "Aluguel", rent.SeedSubcategory)
	assert.Equal(t, models.SourceLegacy, rent.SourceKind)

	bakery := out.Records[1]
	assert.Equal(t, models.AccountCreditCardA, bakery.Account)
	assert.Equal(t, "Alimentação", bakery.SeedCategory)
	assert.Empty(t, bakery.SeedSubcategory)
}

func TestParse_MissingColumns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy.csv")
	require.NoError(t, os.WriteFile(path, []byte("Data,Categoria\n01/01/2024,X\n"), 0o600))

	out := NewAdapter(nil).Parse(context.Background(), parser.Source{Path: path, Kind: models.SourceLegacy})
	assert.True(t, out.Failed())
	assert.Empty(t, out.Records)
}
