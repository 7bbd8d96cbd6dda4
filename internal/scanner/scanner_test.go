package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fjacquet/finledger/internal/common"
	"fjacquet/finledger/internal/config"
	"fjacquet/finledger/internal/dateutils"
	"fjacquet/finledger/internal/models"
)

func newScanner(t *testing.T, opts Options) *SourceScanner {
	t.Helper()
	cfg := config.Default()
	accounts, err := common.NewAccountTable(cfg.Accounts.Patterns)
	require.NoError(t, err)
	return NewSourceScanner(opts, accounts, common.NewInvoiceCalendar(cfg), nil)
}

func touch(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestScan(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "fatura_cartao_a_2026-01.csv"), "data,descricao,valor\n")
	touch(t, filepath.Join(dir, "extrato.ofx"), "<OFX>")
	touch(t, filepath.Join(dir, "2025", "extrato_conta_corrente.txt"), "05/01/2025\tX\t1\t-1,00\n")
	touch(t, filepath.Join(dir, "notes.md"), "ignore")
	touch(t, filepath.Join(dir, ".hidden", "secret.csv"), "a,b\n")
	touch(t, filepath.Join(dir, "ledger.csv"), "id,date\n")

	s := newScanner(t, Options{
		Extensions: []string{".csv", ".ofx", ".txt"},
		Recursive:  true,
		Exclude:    []string{filepath.Join(dir, "ledger.csv")},
	})
	result, err := s.Scan(dir)
	require.NoError(t, err)
	assert.Empty(t, result.Problems)
	require.Len(t, result.Sources, 3)

	byName := map[string]int{}
	for i, src := range result.Sources {
		byName[filepath.Base(src.Path)] = i
	}

	txt := result.Sources[byName["extrato_conta_corrente.txt"]]
	assert.Equal(t, models.SourceTextStmt, txt.Kind)
	assert.Equal(t, models.AccountChecking, txt.Account)
	assert.Nil(t, txt.Invoice)

	card := result.Sources[byName["fatura_cartao_a_2026-01.csv"]]
	assert.Equal(t, models.SourceCardExport, card.Kind)
	assert.Equal(t, models.AccountCreditCardA, card.Account)
	require.NotNil(t, card.Invoice)
	assert.Equal(t, dateutils.NewDate(2026, 1, 5), card.Invoice.DueDate)

	ofx := result.Sources[byName["extrato.ofx"]]
	assert.Equal(t, models.SourceMarkup, ofx.Kind)
	assert.Equal(t, models.AccountChecking, ofx.Account)

	for i := 1; i < len(result.Sources); i++ {
		assert.Less(t, result.Sources[i-1].Path, result.Sources[i].Path)
	}
}

func TestScan_NonRecursive(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "sub", "extrato.ofx"), "<OFX>")
	touch(t, filepath.Join(dir, "top.ofx"), "<OFX>")

	result, err := newScanner(t, Options{Extensions: []string{".ofx"}}).Scan(dir)
	require.NoError(t, err)
	require.Len(t, result.Sources, 1)
	assert.Equal(t, "top.ofx", filepath.Base(result.Sources[0].Path))
}

func TestScan_MissingDirectoryIsFatal(t *testing.T) {
	_, err := newScanner(t, Options{}).Scan(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}
