// Package config provides Viper-based hierarchical configuration management
package config

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"fjacquet/finledger/internal/dateutils"
	"fjacquet/finledger/internal/models"
)

// EnvPrefix prefixes every environment override, e.g. FINLEDGER_LOG_LEVEL.
const EnvPrefix = "FINLEDGER"

// AccountPattern maps a filename regular expression to an account.
type AccountPattern struct {
	Pattern string `mapstructure:"pattern" yaml:"pattern"`
	Account string `mapstructure:"account" yaml:"account"`
}

// CardCycle holds the billing cycle days of a credit card.
type CardCycle struct {
	CloseDay int `mapstructure:"close_day" yaml:"close_day"`
	DueDay   int `mapstructure:"due_day" yaml:"due_day"`
}

// TransferSignature describes a self-transfer between the user's accounts.
// Direction is "any", "in" (amount > 0) or "out" (amount < 0); Account
// restricts the signature to one account when set.
type TransferSignature struct {
	Keyword   string `mapstructure:"keyword" yaml:"keyword"`
	Direction string `mapstructure:"direction" yaml:"direction"`
	Account   string `mapstructure:"account" yaml:"account"`
}

// Config represents the complete application configuration
type Config struct {
	Log struct {
		Level  string `mapstructure:"level" yaml:"level"`
		Format string `mapstructure:"format" yaml:"format"`
	} `mapstructure:"log" yaml:"log"`

	Sources struct {
		Directory  string   `mapstructure:"directory" yaml:"directory"`
		Recursive  bool     `mapstructure:"recursive" yaml:"recursive"`
		Extensions []string `mapstructure:"extensions" yaml:"extensions"`
	} `mapstructure:"sources" yaml:"sources"`

	Documents struct {
		Directory        string `mapstructure:"directory" yaml:"directory"`
		Rules            string `mapstructure:"rules" yaml:"rules"`
		Budget           string `mapstructure:"budget" yaml:"budget"`
		Renames          string `mapstructure:"renames" yaml:"renames"`
		Subcategories    string `mapstructure:"subcategories" yaml:"subcategories"`
		BalanceOverrides string `mapstructure:"balance_overrides" yaml:"balance_overrides"`
		Recurring        string `mapstructure:"recurring" yaml:"recurring"`
	} `mapstructure:"documents" yaml:"documents"`

	Accounts struct {
		Patterns []AccountPattern `mapstructure:"patterns" yaml:"patterns"`
	} `mapstructure:"accounts" yaml:"accounts"`

	Cards map[string]CardCycle `mapstructure:"cards" yaml:"cards"`

	Reconcile struct {
		LegacyCutoff       string   `mapstructure:"legacy_cutoff" yaml:"legacy_cutoff"`
		SettlementPatterns []string `mapstructure:"settlement_patterns" yaml:"settlement_patterns"`
		RefundPatterns     []string `mapstructure:"refund_patterns" yaml:"refund_patterns"`
	} `mapstructure:"reconcile" yaml:"reconcile"`

	Normalize struct {
		Transfers []TransferSignature `mapstructure:"transfers" yaml:"transfers"`
	} `mapstructure:"normalize" yaml:"normalize"`

	Validation struct {
		MaxGapDays             int     `mapstructure:"max_gap_days" yaml:"max_gap_days"`
		BalanceTolerance       float64 `mapstructure:"balance_tolerance" yaml:"balance_tolerance"`
		AmountMultiple         float64 `mapstructure:"amount_multiple" yaml:"amount_multiple"`
		TrailingWindow         int     `mapstructure:"trailing_window" yaml:"trailing_window"`
		MinHistory             int     `mapstructure:"min_history" yaml:"min_history"`
		UncategorizedThreshold float64 `mapstructure:"uncategorized_threshold" yaml:"uncategorized_threshold"`
	} `mapstructure:"validation" yaml:"validation"`

	Report struct {
		Path      string `mapstructure:"path" yaml:"path"`
		LedgerCSV string `mapstructure:"ledger_csv" yaml:"ledger_csv"`
	} `mapstructure:"report" yaml:"report"`
}

// InitializeConfig initializes Viper configuration with hierarchical loading:
// defaults, then the config file, then FINLEDGER_* environment variables.
// An empty configFile searches the usual locations for config.yaml.
func InitializeConfig(configFile string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("$HOME/.finledger")
		v.AddConfigPath(".finledger")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || configFile != "" {
			return nil, fmt.Errorf("failed to read config file %s: %w", v.ConfigFileUsed(), err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Default returns the configuration built from defaults alone, ignoring
// config files and the environment.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		panic(fmt.Sprintf("default configuration does not unmarshal: %v", err))
	}
	return &config
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("sources.directory", "data")
	v.SetDefault("sources.recursive", true)
	v.SetDefault("sources.extensions", []string{".csv", ".ofx", ".qfx", ".txt", ".tsv"})

	v.SetDefault("documents.directory", "config")
	v.SetDefault("documents.rules", "rules.yaml")
	v.SetDefault("documents.budget", "budget.yaml")
	v.SetDefault("documents.renames", "renames.yaml")
	v.SetDefault("documents.subcategories", "subcategories.yaml")
	v.SetDefault("documents.balance_overrides", "balance_overrides.yaml")
	v.SetDefault("documents.recurring", "recurring.yaml")

	// Order matters: the first matching pattern wins.
	v.SetDefault("accounts.patterns", []map[string]interface{}{
		{"pattern": `(?i)(adicional|additional|(card|cartao)[_ -]?c([^a-z]|$))`, "account": "credit_card_c"},
		{"pattern": `(?i)((card|cartao)[_ -]?b([^a-z]|$)|visa)`, "account": "credit_card_b"},
		{"pattern": `(?i)((card|cartao)[_ -]?a([^a-z]|$)|master|fatura)`, "account": "credit_card_a"},
		{"pattern": `(?i)(checking|conta[_ -]?corrente|extrato|\.(ofx|qfx)$)`, "account": "checking"},
	})

	v.SetDefault("cards", map[string]interface{}{
		"credit_card_a": map[string]interface{}{"close_day": 28, "due_day": 5},
		"credit_card_b": map[string]interface{}{"close_day": 3, "due_day": 10},
		"credit_card_c": map[string]interface{}{"close_day": 28, "due_day": 5},
	})

	v.SetDefault("reconcile.legacy_cutoff", "2025-01-01")
	v.SetDefault("reconcile.settlement_patterns", []string{
		"PAGAMENTO EFETUADO",
		"PAGAMENTO RECEBIDO",
		"PAGAMENTO FATURA",
		"PAGTO DEBITO AUTOMATICO",
		"PAYMENT RECEIVED",
	})
	v.SetDefault("reconcile.refund_patterns", []string{
		"ESTORNO",
		"CREDITO",
		"REEMBOLSO",
		"REFUND",
	})

	v.SetDefault("normalize.transfers", []map[string]interface{}{
		{"keyword": "TRANSFERENCIA ENTRE CONTAS", "direction": "any", "account": ""},
		{"keyword": "TED MESMA TITULARIDADE", "direction": "any", "account": ""},
		{"keyword": "PAGAMENTO FATURA", "direction": "out", "account": "checking"},
	})

	v.SetDefault("validation.max_gap_days", 10)
	v.SetDefault("validation.balance_tolerance", 0.01)
	v.SetDefault("validation.amount_multiple", 10.0)
	v.SetDefault("validation.trailing_window", 30)
	v.SetDefault("validation.min_history", 5)
	v.SetDefault("validation.uncategorized_threshold", 0.10)

	v.SetDefault("report.path", "validation_report.json")
	v.SetDefault("report.ledger_csv", "")
}

// validateConfig validates the configuration values
func validateConfig(config *Config) error {
	if _, err := logrus.ParseLevel(config.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %s", config.Log.Level)
	}

	if config.Log.Format != "text" && config.Log.Format != "json" {
		return fmt.Errorf("invalid log format: %s (must be 'text' or 'json')", config.Log.Format)
	}

	for i, p := range config.Accounts.Patterns {
		if _, err := regexp.Compile(p.Pattern); err != nil {
			return fmt.Errorf("accounts.patterns[%d]: invalid pattern %q: %w", i, p.Pattern, err)
		}
		if !models.ParseAccount(p.Account).IsKnown() {
			return fmt.Errorf("accounts.patterns[%d]: unknown account %q", i, p.Account)
		}
	}

	for name, cycle := range config.Cards {
		if !models.ParseAccount(name).IsCreditCard() {
			return fmt.Errorf("cards.%s: not a credit card account", name)
		}
		if cycle.CloseDay < 1 || cycle.CloseDay > 31 || cycle.DueDay < 1 || cycle.DueDay > 31 {
			return fmt.Errorf("cards.%s: close_day and due_day must be between 1 and 31", name)
		}
	}

	if _, err := config.LegacyCutoff(); err != nil {
		return err
	}

	for i, s := range config.Normalize.Transfers {
		if strings.TrimSpace(s.Keyword) == "" {
			return fmt.Errorf("normalize.transfers[%d]: keyword is required", i)
		}
		switch strings.ToLower(s.Direction) {
		case "", "any", "in", "out":
		default:
			return fmt.Errorf("normalize.transfers[%d]: direction must be any, in or out, got: %s", i, s.Direction)
		}
	}

	val := config.Validation
	if val.MaxGapDays < 1 {
		return fmt.Errorf("validation.max_gap_days must be positive, got: %d", val.MaxGapDays)
	}
	if val.BalanceTolerance < 0 {
		return fmt.Errorf("validation.balance_tolerance must not be negative, got: %f", val.BalanceTolerance)
	}
	if val.AmountMultiple <= 1 {
		return fmt.Errorf("validation.amount_multiple must be greater than 1, got: %f", val.AmountMultiple)
	}
	if val.TrailingWindow < 1 || val.MinHistory < 1 {
		return fmt.Errorf("validation.trailing_window and validation.min_history must be positive")
	}
	if val.UncategorizedThreshold < 0.0 || val.UncategorizedThreshold > 1.0 {
		return fmt.Errorf("validation.uncategorized_threshold must be between 0.0 and 1.0, got: %f", val.UncategorizedThreshold)
	}

	return nil
}

// LegacyCutoff parses reconcile.legacy_cutoff. An empty value disables the cutoff.
func (c *Config) LegacyCutoff() (time.Time, error) {
	if strings.TrimSpace(c.Reconcile.LegacyCutoff) == "" {
		return time.Time{}, nil
	}
	cutoff, err := dateutils.ParseDate(c.Reconcile.LegacyCutoff)
	if err != nil {
		return time.Time{}, fmt.Errorf("reconcile.legacy_cutoff: %w", err)
	}
	return cutoff, nil
}

// BalanceTolerance returns validation.balance_tolerance as a decimal.
func (c *Config) BalanceTolerance() decimal.Decimal {
	return decimal.NewFromFloat(c.Validation.BalanceTolerance)
}

// CardCycleFor returns the billing cycle configured for account.
func (c *Config) CardCycleFor(account models.Account) (CardCycle, bool) {
	for name, cycle := range c.Cards {
		if models.ParseAccount(name) == account {
			return cycle, true
		}
	}
	return CardCycle{}, false
}

// ConfigureLoggingFromConfig configures logging based on the Config struct
func ConfigureLoggingFromConfig(config *Config) *logrus.Logger {
	logger := logrus.New()

	logLevel, err := logrus.ParseLevel(strings.ToLower(config.Log.Level))
	if err != nil {
		logger.Warnf("Invalid log level '%s', using 'info'", config.Log.Level)
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	if strings.ToLower(config.Log.Format) == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	return logger
}
