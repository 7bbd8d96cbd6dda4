package reconciler

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fjacquet/finledger/internal/config"
	"fjacquet/finledger/internal/dateutils"
	"fjacquet/finledger/internal/logging"
	"fjacquet/finledger/internal/models"
)

func rec(file string, kind models.SourceKind, account models.Account, row int, date time.Time, desc, amount string) models.RawTransaction {
	return models.RawTransaction{
		Date:                date,
		DescriptionOriginal: desc,
		Amount:              decimal.NewNullDecimal(decimal.RequireFromString(amount)),
		Account:             account,
		SourceFile:          file,
		SourceKind:          kind,
		Row:                 row,
	}
}

func batch(path string, kind models.SourceKind, records ...models.RawTransaction) FileBatch {
	return FileBatch{Path: path, Kind: kind, Records: records}
}

func defaultOptions(t *testing.T) Options {
	t.Helper()
	cfg := config.Default()
	cutoff, err := cfg.LegacyCutoff()
	require.NoError(t, err)
	return Options{
		LegacyCutoff:       cutoff,
		SettlementPatterns: cfg.Reconcile.SettlementPatterns,
		RefundPatterns:     cfg.Reconcile.RefundPatterns,
	}
}

func day(d int) time.Time { return dateutils.NewDate(2026, 1, d) }

func TestReconcile_SourcePreference(t *testing.T) {
	markup := batch("extrato.ofx", models.SourceMarkup,
		rec("extrato.ofx", models.SourceMarkup, models.AccountChecking, 1, day(4), "PIX", "-10"),
		rec("extrato.ofx", models.SourceMarkup, models.AccountChecking, 2, day(20), "TED", "-20"))
	text := batch("extrato.txt", models.SourceTextStmt,
		rec("extrato.txt", models.SourceTextStmt, models.AccountChecking, 1, day(10), "PIX ENVIADO", "-10"))
	laterText := batch("extrato_fev.txt", models.SourceTextStmt,
		rec("extrato_fev.txt", models.SourceTextStmt, models.AccountChecking, 1, dateutils.NewDate(2026, 2, 3), "TARIFA", "-1"))

	result := NewReconciler(defaultOptions(t), logging.NewMockLogger()).Reconcile([]FileBatch{markup, text, laterText})

	require.Len(t, result.Stats.DiscardedFiles, 1)
	assert.Equal(t, "extrato.txt", result.Stats.DiscardedFiles[0].Path)
	assert.Contains(t, result.Stats.DiscardedFiles[0].Reason, "extrato.ofx")
	assert.Equal(t, 1, result.Stats.DiscardedRecords)

	require.Len(t, result.Records, 3)
	for _, r := range result.Records {
		assert.NotEqual(t, "extrato.txt", r.SourceFile)
	}
}

func TestReconcile_SourcePreferenceIsPerAccount(t *testing.T) {
	markup := batch("a.ofx", models.SourceMarkup,
		rec("a.ofx", models.SourceMarkup, models.AccountCreditCardA, 1, day(4), "X", "-10"))
	text := batch("b.txt", models.SourceTextStmt,
		rec("b.txt", models.SourceTextStmt, models.AccountChecking, 1, day(4), "Y", "-10"))

	result := NewReconciler(defaultOptions(t), nil).Reconcile([]FileBatch{markup, text})
	assert.Empty(t, result.Stats.DiscardedFiles)
	assert.Len(t, result.Records, 2)
}

func TestReconcile_LegacyCutoff(t *testing.T) {
	legacy := batch("planilha.csv", models.SourceLegacy,
		rec("planilha.csv", models.SourceLegacy, models.AccountChecking, 1, dateutils.NewDate(2024, 12, 31), "ALUGUEL", "-2000"),
		rec("planilha.csv", models.SourceLegacy, models.AccountChecking, 2, dateutils.NewDate(2025, 1, 1), "ALUGUEL", "-2000"),
		rec("planilha.csv", models.SourceLegacy, models.AccountChecking, 3, dateutils.NewDate(2025, 6, 1), "UNICO", "-5"))

	result := NewReconciler(defaultOptions(t), nil).Reconcile([]FileBatch{legacy})
	require.Len(t, result.Records, 1)
	assert.Equal(t, 1, result.Records[0].Row)
	assert.Equal(t, 2, result.Stats.CutoffDrops)

	opts := defaultOptions(t)
	opts.LegacyCutoff = time.Time{}
	result = NewReconciler(opts, nil).Reconcile([]FileBatch{legacy})
	assert.Len(t, result.Records, 3)
}

func TestReconcile_SettlementFiltering(t *testing.T) {
	card := batch("fatura.csv", models.SourceCardExport,
		rec("fatura.csv", models.SourceCardExport, models.AccountCreditCardA, 1, day(5), "Pagamento efetuado", "2500"),
		rec("fatura.csv", models.SourceCardExport, models.AccountCreditCardA, 2, day(6), "ESTORNO PAGAMENTO EFETUADO", "30"),
		rec("fatura.csv", models.SourceCardExport, models.AccountCreditCardA, 3, day(7), "LOJA XYZ 03/06", "-150"))
	checking := batch("extrato.ofx", models.SourceMarkup,
		rec("extrato.ofx", models.SourceMarkup, models.AccountChecking, 1, day(4), "PAGAMENTO EFETUADO", "-2500"))

	result := NewReconciler(defaultOptions(t), nil).Reconcile([]FileBatch{card, checking})
	assert.Equal(t, 1, result.Stats.SettlementDrops)
	require.Len(t, result.Records, 3)

	descriptions := []string{}
	for _, r := range result.Records {
		descriptions = append(descriptions, r.DescriptionOriginal)
	}
	assert.ElementsMatch(t, []string{"ESTORNO PAGAMENTO EFETUADO", "LOJA XYZ 03/06", "PAGAMENTO EFETUADO"}, descriptions)
}

func TestReconcile_DuplicatesKeepHighestPriority(t *testing.T) {
	manual := batch("manual.csv", models.SourceManualEntry,
		rec("manual.csv", models.SourceManualEntry, models.AccountCreditCardB, 1, day(9), "MERCADO", "-80"))
	card := batch("fatura_b.csv", models.SourceCardExport,
		rec("fatura_b.csv", models.SourceCardExport, models.AccountCreditCardB, 4, day(9), "MERCADO", "-80.00"),
		rec("fatura_b.csv", models.SourceCardExport, models.AccountCreditCardB, 5, day(9), "MERCADO", "-80"))

	result := NewReconciler(defaultOptions(t), nil).Reconcile([]FileBatch{manual, card})
	require.Len(t, result.Records, 1)
	assert.Equal(t, models.SourceCardExport, result.Records[0].SourceKind)
	assert.Equal(t, 4, result.Records[0].Row)
	assert.Equal(t, 2, result.Stats.DuplicatesCollapsed)
	assert.Equal(t, 3, result.Stats.Input)
	assert.Equal(t, 1, result.Stats.Output)
}

func TestReconcile_OutputKeysUnique(t *testing.T) {
	var files []FileBatch
	for _, kind := range []models.SourceKind{models.SourceLegacy, models.SourceManualEntry, models.SourceCardExport} {
		path := string(kind) + ".csv"
		var records []models.RawTransaction
		for i := 1; i <= 5; i++ {
			records = append(records, rec(path, kind, models.AccountCreditCardC, i, dateutils.NewDate(2024, 5, i%3+1), "COMPRA", "-1"))
		}
		files = append(files, batch(path, kind, records...))
	}

	result := NewReconciler(defaultOptions(t), nil).Reconcile(files)
	seen := map[models.DedupKey]bool{}
	for _, r := range result.Records {
		assert.False(t, seen[r.Key()], "duplicate key %s", r.Key())
		seen[r.Key()] = true
	}
	assert.Len(t, result.Records, 3)
}

func TestGroupByAccount(t *testing.T) {
	mixed := batch("manual.csv", models.SourceManualEntry,
		rec("manual.csv", models.SourceManualEntry, models.AccountChecking, 1, day(2), "A", "-1"),
		rec("manual.csv", models.SourceManualEntry, models.AccountCreditCardA, 2, day(8), "B", "-1"),
		rec("manual.csv", models.SourceManualEntry, models.AccountChecking, 3, day(6), "C", "-1"))

	groups := GroupByAccount([]FileBatch{mixed})
	require.Len(t, groups, 2)
	assert.Equal(t, models.AccountChecking, groups[0].Account)
	assert.Len(t, groups[0].Files[0].Records, 2)
	assert.Equal(t, day(2), groups[0].DateRange.Start)
	assert.Equal(t, day(6), groups[0].DateRange.End)
	assert.Equal(t, models.AccountCreditCardA, groups[1].Account)
}
