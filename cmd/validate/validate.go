// Package validate implements the validate command, which prints the
// checklist and fails when any check fails.
package validate

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"fjacquet/finledger/cmd/root"
	"fjacquet/finledger/internal/container"
	"fjacquet/finledger/internal/models"
	"fjacquet/finledger/internal/validation"
)

// ErrValidationFailed is returned when the report status is FAIL.
var ErrValidationFailed = errors.New("validation failed")

var format string

// Cmd represents the validate command
var Cmd = &cobra.Command{
	Use:   "validate",
	Short: "Run the pipeline and print the validation checklist",
	Long: `Run the pipeline without writing any file and print each validation
finding. The command exits with a non-zero status when a check fails.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := root.GetContainer()
		if err != nil {
			return err
		}
		return Execute(cmd.Context(), c, cmd.OutOrStdout())
	},
}

func init() {
	Cmd.Flags().StringVarP(&format, "format", "f", "", "Print the full report as json or yaml instead of the checklist")
}

// Execute runs the pipeline and prints its report.
func Execute(ctx context.Context, c *container.Container, out io.Writer) error {
	if format != "" {
		if err := validation.IsValidOutputFormat(format); err != nil {
			return err
		}
	}

	result, err := c.GetPipeline().Run(ctx)
	if err != nil {
		return err
	}

	if format != "" {
		data, err := c.GetReportGenerator().Generate(result.Report, format)
		if err != nil {
			return err
		}
		if _, err := out.Write(data); err != nil {
			return err
		}
	} else {
		PrintReport(out, result.Report)
	}

	if result.Report.Status == models.StatusFail {
		return ErrValidationFailed
	}
	return nil
}

func statusColor(status models.FindingStatus) *color.Color {
	switch status {
	case models.StatusFail:
		return color.New(color.FgRed, color.Bold)
	case models.StatusWarning:
		return color.New(color.FgYellow)
	}
	return color.New(color.FgGreen)
}

// PrintReport writes one line per finding followed by the overall status.
func PrintReport(out io.Writer, report *models.ValidationReport) {
	for _, f := range report.Findings {
		statusColor(f.Status).Fprintf(out, "%-8s", f.Status)
		fmt.Fprintf(out, " %-28s %s\n", f.CheckName, f.Message)
	}
	fmt.Fprintf(out, "\n%d transactions, %d files: ", report.Summary.Transactions, report.Summary.Files)
	statusColor(report.Status).Fprintf(out, "%s", report.Status)
	fmt.Fprintf(out, " (%d pass, %d warning, %d fail)\n", report.Summary.Pass, report.Summary.Warning, report.Summary.Fail)
}
