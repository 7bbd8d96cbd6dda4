package common

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/gocarina/gocsv"

	"fjacquet/finledger/internal/currencyutils"
	"fjacquet/finledger/internal/dateutils"
	"fjacquet/finledger/internal/fileutils"
	"fjacquet/finledger/internal/logging"
	"fjacquet/finledger/internal/models"
)

// LedgerRow is the flat CSV form of a canonical transaction.
type LedgerRow struct {
	ID                 string `csv:"id"`
	Date               string `csv:"date"`
	MonthKey           string `csv:"month_key"`
	Account            string `csv:"account"`
	Description        string `csv:"description"`
	DescriptionClean   string `csv:"description_clean"`
	Amount             string `csv:"amount"`
	Category           string `csv:"category"`
	Subcategory        string `csv:"subcategory"`
	CatType            string `csv:"cat_type"`
	BudgetLimit        string `csv:"budget_limit"`
	IsInstallment      bool   `csv:"is_installment"`
	Installment        string `csv:"installment"`
	IsInternalTransfer bool   `csv:"is_internal_transfer"`
	IsRecurringMatch   bool   `csv:"is_recurring_match"`
	SourceKind         string `csv:"source_kind"`
	SourceFile         string `csv:"source_file"`
}

// ToLedgerRow flattens a transaction.
func ToLedgerRow(tx models.Transaction) LedgerRow {
	row := LedgerRow{
		ID:                 tx.ID,
		MonthKey:           tx.MonthKey,
		Account:            string(tx.Account),
		Description:        tx.DescriptionOriginal,
		DescriptionClean:   tx.DescriptionClean,
		Amount:             currencyutils.FormatNullAmount(tx.Amount),
		Category:           tx.Category,
		Subcategory:        tx.Subcategory,
		CatType:            string(tx.CatType),
		BudgetLimit:        currencyutils.FormatAmount(tx.BudgetLimit),
		IsInstallment:      tx.IsInstallment,
		IsInternalTransfer: tx.IsInternalTransfer,
		IsRecurringMatch:   tx.IsRecurringMatch,
		SourceKind:         string(tx.SourceKind),
		SourceFile:         tx.SourceFile,
	}
	if tx.HasDate() {
		row.Date = dateutils.ToISODate(tx.Date)
	}
	if tx.InstallmentIndex != nil && tx.InstallmentTotal != nil {
		row.Installment = strconv.Itoa(*tx.InstallmentIndex) + "/" + strconv.Itoa(*tx.InstallmentTotal)
	}
	return row
}

// MarshalLedgerCSV renders transactions as CSV with the given delimiter.
func MarshalLedgerCSV(transactions []models.Transaction, delimiter rune) ([]byte, error) {
	rows := make([]LedgerRow, 0, len(transactions))
	for _, tx := range transactions {
		rows = append(rows, ToLedgerRow(tx))
	}

	var buf bytes.Buffer
	csvWriter := csv.NewWriter(&buf)
	csvWriter.Comma = delimiter
	if err := gocsv.MarshalCSV(rows, gocsv.NewSafeCSVWriter(csvWriter)); err != nil {
		return nil, fmt.Errorf("error writing CSV data: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteLedgerCSV writes transactions to csvFile.
func WriteLedgerCSV(transactions []models.Transaction, csvFile string, delimiter rune, logger logging.Logger) error {
	data, err := MarshalLedgerCSV(transactions, delimiter)
	if err != nil {
		return err
	}
	if err := fileutils.WriteFile(csvFile, data, models.PermissionReportFile); err != nil {
		return fmt.Errorf("error writing ledger CSV: %w", err)
	}
	logger.Info("Wrote ledger CSV",
		logging.F(logging.FieldFile, csvFile),
		logging.F(logging.FieldCount, len(transactions)))
	return nil
}
