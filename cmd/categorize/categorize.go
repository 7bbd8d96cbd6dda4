// Package categorize handles the single-description categorization command
package categorize

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"fjacquet/finledger/cmd/root"
	"fjacquet/finledger/internal/categorizer"
	"fjacquet/finledger/internal/container"
	"fjacquet/finledger/internal/dateutils"
)

var (
	description string
	date        string
)

// Cmd represents the categorize command
var Cmd = &cobra.Command{
	Use:   "categorize",
	Short: "Categorize one transaction description",
	Long: `Categorize a description the way the pipeline would, using the rule
documents as they are on disk, and show which rule decided.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := root.GetContainer()
		if err != nil {
			return err
		}
		return Execute(c, cmd.OutOrStdout())
	},
}

func init() {
	Cmd.Flags().StringVarP(&description, "description", "t", "", "Transaction description to categorize")
	Cmd.Flags().StringVarP(&date, "date", "a", "", "Transaction date (default: today)")
	_ = Cmd.MarkFlagRequired("description")
}

// Execute categorizes the description flag and prints the outcome.
func Execute(c *container.Container, out io.Writer) error {
	if strings.TrimSpace(description) == "" {
		return fmt.Errorf("description is required for categorization")
	}
	when := dateutils.Day(time.Now())
	if date != "" {
		parsed, err := dateutils.ParseDate(date)
		if err != nil {
			return fmt.Errorf("invalid date: %w", err)
		}
		when = parsed
	}

	engine := c.NewCategorizer()
	match, ok := engine.Resolve(categorizer.Input{Description: description, Date: when})
	if !ok {
		_, err := fmt.Fprintf(out, "%q is uncategorized on %s\n", description, dateutils.ToISODate(when))
		return err
	}

	meta := engine.GetCategoryMetadata(match.Category)
	fmt.Fprintf(out, "Category:    %s\n", match.Category)
	fmt.Fprintf(out, "Subcategory: %s\n", match.Subcategory)
	fmt.Fprintf(out, "Budget:      %s, limit %s\n", meta.Type, meta.Limit.StringFixed(2))
	if match.Keyword != "" {
		fmt.Fprintf(out, "Matched:     %s rule %q\n", match.Strategy, match.Keyword)
	}
	_, err := fmt.Fprintf(out, "Renamed:     %s\n", engine.ApplyRenames(description))
	return err
}
