// Package rules manages the category rule document from the command line.
package rules

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"fjacquet/finledger/cmd/root"
	"fjacquet/finledger/internal/dateutils"
	"fjacquet/finledger/internal/models"
	"fjacquet/finledger/internal/store"
)

// AddFlags holds the flags of the add subcommand.
type AddFlags struct {
	Keyword     string
	Category    string
	Subcategory string
	Priority    int
	ValidFrom   string
	ValidUntil  string
}

var addFlags AddFlags

// Cmd represents the rules command
var Cmd = &cobra.Command{
	Use:   "rules",
	Short: "List or add category rules",
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List category rules in document order",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := root.GetContainer()
		if err != nil {
			return err
		}
		return List(c.GetStore(), cmd.OutOrStdout())
	},
}

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a keyword rule to the rule document",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := root.GetContainer()
		if err != nil {
			return err
		}
		rule, err := addFlags.Rule()
		if err != nil {
			return err
		}
		if err := c.GetStore().AddRule(rule); err != nil {
			return err
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "Added rule %q -> %s\n", rule.Keyword, rule.Category)
		return err
	},
}

func init() {
	addCmd.Flags().StringVarP(&addFlags.Keyword, "keyword", "k", "", "Keyword matched against descriptions")
	addCmd.Flags().StringVarP(&addFlags.Category, "category", "g", "", "Category assigned on match")
	addCmd.Flags().StringVar(&addFlags.Subcategory, "subcategory", "", "Optional subcategory")
	addCmd.Flags().IntVarP(&addFlags.Priority, "priority", "p", 0, "Higher priority wins")
	addCmd.Flags().StringVar(&addFlags.ValidFrom, "from", "", "First day the rule applies")
	addCmd.Flags().StringVar(&addFlags.ValidUntil, "until", "", "Last day the rule applies")
	_ = addCmd.MarkFlagRequired("keyword")
	_ = addCmd.MarkFlagRequired("category")

	Cmd.AddCommand(listCmd, addCmd)
}

func optionalDate(name, value string) (*time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	d, err := dateutils.ParseDate(value)
	if err != nil {
		return nil, fmt.Errorf("invalid --%s: %w", name, err)
	}
	return &d, nil
}

// Rule converts the flags into a rule.
func (f AddFlags) Rule() (models.CategoryRule, error) {
	from, err := optionalDate("from", f.ValidFrom)
	if err != nil {
		return models.CategoryRule{}, err
	}
	until, err := optionalDate("until", f.ValidUntil)
	if err != nil {
		return models.CategoryRule{}, err
	}
	return models.CategoryRule{
		Keyword:     strings.TrimSpace(f.Keyword),
		Category:    strings.TrimSpace(f.Category),
		Subcategory: strings.TrimSpace(f.Subcategory),
		Priority:    f.Priority,
		Validity:    models.Validity{ValidFrom: from, ValidUntil: until},
	}, nil
}

func formatDate(d *time.Time) string {
	if d == nil {
		return "-"
	}
	return dateutils.ToISODate(*d)
}

// List prints the rule document.
func List(s *store.Store, out io.Writer) error {
	rules := s.LoadRules()
	if len(rules) == 0 {
		_, err := fmt.Fprintln(out, "No rules defined")
		return err
	}
	for _, r := range rules {
		if _, err := fmt.Fprintf(out, "%4d  %-30s %-20s %-20s %s..%s\n",
			r.Priority, r.Keyword, r.Category, r.Subcategory, formatDate(r.ValidFrom), formatDate(r.ValidUntil)); err != nil {
			return err
		}
	}
	return nil
}
