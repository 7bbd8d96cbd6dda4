package pipeline

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fjacquet/finledger/internal/common"
	"fjacquet/finledger/internal/config"
	"fjacquet/finledger/internal/dateutils"
	"fjacquet/finledger/internal/factory"
	"fjacquet/finledger/internal/logging"
	"fjacquet/finledger/internal/models"
	"fjacquet/finledger/internal/reconciler"
	"fjacquet/finledger/internal/scanner"
	"fjacquet/finledger/internal/store"
	"fjacquet/finledger/internal/validation"
)

const cardExport = "date,description,amount\n" +
	"05/01/2026,LOJA XYZ 03/06,-150.00\n" +
	"04/01/2026,PAGAMENTO EFETUADO,2500.00\n"

const checkingStatement = `OFXHEADER:100
DATA:OFXSGML
CHARSET:1252

<OFX>
<BANKMSGSRSV1><STMTTRNRS><STMTRS>
<BANKACCTFROM><BANKID>0341<ACCTID>12345</BANKACCTFROM>
<BANKTRANLIST>
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20260104
<TRNAMT>-2500.00
<FITID>0001
<MEMO>PAGAMENTO EFETUADO
</STMTTRN>
</BANKTRANLIST>
</STMTRS></STMTTRNRS></BANKMSGSRSV1>
</OFX>
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func newPipeline(t *testing.T, dir string, docs store.Documents) (*Pipeline, *logging.MockLogger) {
	t.Helper()
	cfg := config.Default()
	logger := logging.NewMockLogger()

	accounts, err := common.NewAccountTable(cfg.Accounts.Patterns)
	require.NoError(t, err)
	registry, err := factory.NewRegistry(logger, accounts)
	require.NoError(t, err)
	cutoff, err := cfg.LegacyCutoff()
	require.NoError(t, err)

	scan := scanner.NewSourceScanner(scanner.Options{
		Extensions: cfg.Sources.Extensions,
		Recursive:  cfg.Sources.Recursive,
	}, accounts, common.NewInvoiceCalendar(cfg), logger)
	rec := reconciler.NewReconciler(reconciler.Options{
		LegacyCutoff:       cutoff,
		SettlementPatterns: cfg.Reconcile.SettlementPatterns,
		RefundPatterns:     cfg.Reconcile.RefundPatterns,
	}, logger)
	validator := validation.NewEngine(validation.ThresholdsFromConfig(cfg), logger)

	p := New(Options{SourceDir: dir, Transfers: cfg.Normalize.Transfers},
		&store.MockStore{Docs: docs}, scan, registry, rec, validator, logger)
	return p, logger
}

func TestRun_CardInstallmentAndCheckingSettlement(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "fatura_cartao_a_2026-01.csv", cardExport)
	writeFile(t, dir, "extrato_2026-01.ofx", checkingStatement)

	p, logger := newPipeline(t, dir, store.Documents{})
	result, err := p.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, result.Transactions, 2)

	card := result.Transactions[0]
	assert.Equal(t, dateutils.NewDate(2026, 1, 5), card.Date)
	assert.Equal(t, models.AccountCreditCardA, card.Account)
	assert.True(t, card.IsInstallment)
	require.NotNil(t, card.InstallmentIndex)
	require.NotNil(t, card.InstallmentTotal)
	assert.Equal(t, 3, *card.InstallmentIndex)
	assert.Equal(t, 6, *card.InstallmentTotal)
	assert.Equal(t, "2026-01", card.MonthKey)

	checking := result.Transactions[1]
	assert.Equal(t, models.AccountChecking, checking.Account)
	assert.Equal(t, "PAGAMENTO EFETUADO", checking.DescriptionOriginal)
	assert.True(t, decimal.NewFromInt(-2500).Equal(checking.Amount.Decimal))

	assert.Equal(t, 1, result.Stats.Reconcile.SettlementDrops, "card-side settlement is dropped")
	assert.Equal(t, 2, result.Stats.Parsed)
	assert.Equal(t, 2, result.Report.Summary.Transactions)
	assert.True(t, logger.HasEntry("INFO", "Pipeline run finished"))
}

func TestRun_Idempotent(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "fatura_cartao_a_2026-01.csv", cardExport)
	writeFile(t, dir, "extrato_2026-01.ofx", checkingStatement)

	p, _ := newPipeline(t, dir, store.Documents{})
	first, err := p.Run(context.Background())
	require.NoError(t, err)
	second, err := p.Run(context.Background())
	require.NoError(t, err)

	a, err := json.Marshal(first.Transactions)
	require.NoError(t, err)
	b, err := json.Marshal(second.Transactions)
	require.NoError(t, err)
	assert.JSONEq(t, string(a), string(b))
	assert.Equal(t, first.Report, second.Report)
	assert.Equal(t, first.Report.RunID, second.Report.RunID)
}

func TestRun_PrefersMarkupOverTextStatement(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "extrato_2026-01.ofx", checkingStatement)
	text := writeFile(t, dir, "extrato_2026-01.txt",
		"Data;Historico;Docto;Valor;Saldo\n"+
			"03/01/2026;SALDO ANTERIOR;;;3000,00\n"+
			"04/01/2026;PAGAMENTO EFETUADO;1;-2500,00;500,00\n"+
			"06/01/2026;TARIFA;2;-10,00;490,00\n")

	p, _ := newPipeline(t, dir, store.Documents{})
	result, err := p.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, result.Transactions, 1)
	assert.Equal(t, models.SourceMarkup, result.Transactions[0].SourceKind)

	var textEntry models.FileManifestEntry
	for _, e := range result.Manifest {
		if e.Path == text {
			textEntry = e
		}
	}
	assert.Equal(t, models.FileSkipped, textEntry.Status)
	assert.Contains(t, textEntry.Reason, "superseded")
	assert.Equal(t, 1, result.Stats.Skipped)

	integrity, ok := result.Report.Finding(validation.CheckSourceIntegrity)
	require.True(t, ok)
	assert.Equal(t, models.StatusPass, integrity.Status)
}

func TestRun_UnnamedTextStatementOverlapsMarkup(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "extrato_2026-01.ofx", checkingStatement)
	text := writeFile(t, dir, "movimentacao_2026-01.txt",
		"04/01/2026;PAGAMENTO EFETUADO;1;-2500,00;500,00\n"+
			"06/01/2026;TARIFA;2;-10,00;490,00\n")

	p, _ := newPipeline(t, dir, store.Documents{})
	result, err := p.Run(context.Background())
	require.NoError(t, err)

	var textEntry models.FileManifestEntry
	for _, e := range result.Manifest {
		if e.Path == text {
			textEntry = e
		}
	}
	assert.Equal(t, models.AccountChecking, textEntry.Account)
	assert.Equal(t, models.FileSkipped, textEntry.Status)
	require.Len(t, result.Transactions, 1)
	assert.Equal(t, models.SourceMarkup, result.Transactions[0].SourceKind)

	shape, ok := result.Report.Finding(validation.CheckShapeIntegrity)
	require.True(t, ok)
	assert.Equal(t, models.StatusPass, shape.Status)
}

const quietStatement = `OFXHEADER:100
DATA:OFXSGML

<OFX>
<BANKMSGSRSV1><STMTTRNRS><STMTRS>
<BANKACCTFROM><BANKID>0341<ACCTID>12345</BANKACCTFROM>
<BANKTRANLIST>
<DTSTART>20260101
<DTEND>20260131
<STMTTRN><DTPOSTED>20260102<TRNAMT>-35.00<FITID>1<MEMO>PADARIA
<STMTTRN><DTPOSTED>20260125<TRNAMT>-80.00<FITID>2<MEMO>FARMACIA
</BANKTRANLIST>
</STMTRS></STMTTRNRS></BANKMSGSRSV1>
</OFX>
`

func TestRun_DateContinuityFollowsStatementPeriods(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "extrato_2026-01.ofx", quietStatement)

	p, _ := newPipeline(t, dir, store.Documents{})
	result, err := p.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, result.Manifest, 1)
	entry := result.Manifest[0]
	assert.Equal(t, path, entry.Path)
	require.NotNil(t, entry.Period)
	assert.Equal(t, dateutils.NewDate(2026, 1, 1), entry.Period.Start)
	assert.Equal(t, dateutils.NewDate(2026, 1, 31), entry.Period.End)

	continuity, ok := result.Report.Finding(validation.CheckDateContinuity)
	require.True(t, ok)
	assert.Equal(t, models.StatusPass, continuity.Status, continuity.Message)

	writeFile(t, dir, "extrato_2026-03.ofx", strings.NewReplacer(
		"20260101", "20260301", "20260131", "20260331",
		"20260102", "20260302", "20260125", "20260325",
		"<FITID>1", "<FITID>3", "<FITID>2", "<FITID>4",
	).Replace(quietStatement))
	result, err = p.Run(context.Background())
	require.NoError(t, err)

	continuity, ok = result.Report.Finding(validation.CheckDateContinuity)
	require.True(t, ok)
	assert.Equal(t, models.StatusWarning, continuity.Status, "February is missing")
	gaps := continuity.Details["gaps"].([]map[string]interface{})
	require.Len(t, gaps, 1)
	assert.Equal(t, "2026-01-25", gaps[0]["from"])
	assert.Equal(t, "2026-03-02", gaps[0]["to"])
}

func TestRun_LegacyCutoffAndSeeds(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "planilha_historico.csv",
		"Data;Descrição;Valor;Conta;Categoria;Subcategoria\n"+
			"15/12/2024;ALUGUEL DEZEMBRO;-2.000,00;checking;Moradia;Aluguel\n"+
			"10/01/2025;ALUGUEL JANEIRO;-2.000,00;checking;Moradia;Aluguel\n")

	docs := store.Documents{
		Budget: map[string]models.BudgetMetadata{
			"Moradia": {Type: models.BudgetFixed, Limit: decimal.NewFromInt(2500)},
		},
	}
	p, _ := newPipeline(t, dir, docs)
	result, err := p.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, result.Transactions, 1)
	tx := result.Transactions[0]
	assert.Equal(t, "ALUGUEL DEZEMBRO", tx.DescriptionOriginal)
	assert.Equal(t, "Moradia", tx.Category)
	assert.Equal(t, "Aluguel", tx.Subcategory)
	assert.Equal(t, models.BudgetFixed, tx.CatType)
	assert.True(t, decimal.NewFromInt(2500).Equal(tx.BudgetLimit))
	assert.Equal(t, 1, result.Stats.Reconcile.CutoffDrops)
}

func TestRun_RulesAndOverrides(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "fatura_cartao_a_2026-01.csv", cardExport)

	docs := store.Documents{
		Rules: []models.CategoryRule{{Keyword: "LOJA XYZ", Category: "Compras", Subcategory: "Loja", Priority: 1}},
		BalanceOverrides: map[string]decimal.Decimal{
			"2026-01": decimal.NewFromInt(100),
		},
	}
	p, _ := newPipeline(t, dir, docs)
	result, err := p.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, result.Transactions, 1)
	assert.Equal(t, "Compras", result.Transactions[0].Category)
	assert.True(t, result.Transactions[0].BudgetDefaulted)
	assert.Contains(t, result.BalanceOverrides, "2026-01")

	completeness, ok := result.Report.Finding(validation.CheckCategorizationCompletion)
	require.True(t, ok)
	assert.Equal(t, models.StatusPass, completeness.Status)
}

func TestRun_FailedFileDoesNotAbort(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "fatura_cartao_a_2026-01.csv", cardExport)
	broken := writeFile(t, dir, "broken.csv", "foo,bar\n1,2\n")

	p, _ := newPipeline(t, dir, store.Documents{})
	result, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Len(t, result.Transactions, 1)
	assert.Equal(t, 1, result.Stats.Failed)
	for _, e := range result.Manifest {
		if e.Path == broken {
			assert.Equal(t, models.FileFailed, e.Status)
			assert.NotEmpty(t, e.Diagnostics)
		}
	}

	integrity, ok := result.Report.Finding(validation.CheckSourceIntegrity)
	require.True(t, ok)
	assert.Equal(t, models.StatusWarning, integrity.Status)
}

func TestRun_Errors(t *testing.T) {
	p, _ := newPipeline(t, filepath.Join(t.TempDir(), "missing"), store.Documents{})
	_, err := p.Run(context.Background())
	assert.Error(t, err)

	dir := t.TempDir()
	writeFile(t, dir, "fatura_cartao_a_2026-01.csv", cardExport)
	p, _ = newPipeline(t, dir, store.Documents{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSortLedger(t *testing.T) {
	txs := []models.Transaction{
		{ID: "b", RawTransaction: models.RawTransaction{Date: dateutils.NewDate(2026, 1, 1)}},
		{ID: "c", RawTransaction: models.RawTransaction{Date: dateutils.NewDate(2026, 1, 3)}},
		{ID: "a", RawTransaction: models.RawTransaction{Date: dateutils.NewDate(2026, 1, 1)}},
	}
	SortLedger(txs)
	assert.Equal(t, "c", txs[0].ID)
	assert.Equal(t, "a", txs[1].ID)
	assert.Equal(t, "b", txs[2].ID)
}
