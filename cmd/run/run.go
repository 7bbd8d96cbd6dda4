// Package run implements the run command: one pipeline pass that writes
// the validation report and, optionally, the ledger as CSV.
package run

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"fjacquet/finledger/cmd/root"
	"fjacquet/finledger/internal/common"
	"fjacquet/finledger/internal/config"
	"fjacquet/finledger/internal/container"
	"fjacquet/finledger/internal/logging"
)

var (
	reportPath string
	ledgerPath string
)

// Cmd represents the run command
var Cmd = &cobra.Command{
	Use:   "run",
	Short: "Build the ledger and write the validation report",
	Long: `Scan the source directory, reconcile and categorize every transaction,
then write the validation report (JSON or YAML, chosen by extension) and,
when requested, the ledger as CSV.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := root.GetContainer()
		if err != nil {
			return err
		}
		return Execute(cmd.Context(), c, cmd.OutOrStdout())
	},
}

func init() {
	Cmd.Flags().StringVarP(&reportPath, "report", "r", "", "Report file (default: report.path from config)")
	Cmd.Flags().StringVarP(&ledgerPath, "ledger-csv", "l", "", "Also write the ledger to this CSV file")
}

// Execute runs the pipeline and writes its outputs.
func Execute(ctx context.Context, c *container.Container, out io.Writer) error {
	cfg := c.GetConfig()
	logger := c.GetLogger()

	result, err := c.GetPipeline().Run(ctx)
	if err != nil {
		return err
	}

	path := reportPath
	if path == "" {
		path = cfg.Report.Path
	}
	if err := c.GetReportGenerator().WriteFile(result.Report, path); err != nil {
		return err
	}

	csvPath := ledgerPath
	if csvPath == "" {
		csvPath = cfg.Report.LedgerCSV
	}
	if csvPath != "" {
		delimiter := ','
		if d := []rune(config.GetEnv("CSV_DELIMITER", ",")); len(d) > 0 {
			delimiter = d[0]
		}
		if err := common.WriteLedgerCSV(result.Transactions, csvPath, delimiter, logger); err != nil {
			return err
		}
	}

	logger.Info("Run complete",
		logging.F(logging.FieldCount, len(result.Transactions)),
		logging.F(logging.FieldStatus, string(result.Report.Status)))
	_, err = fmt.Fprintf(out, "%d transactions from %d files (%d skipped, %d failed); validation %s; report %s\n",
		len(result.Transactions), result.Stats.Files, result.Stats.Skipped, result.Stats.Failed,
		result.Report.Status, path)
	return err
}
