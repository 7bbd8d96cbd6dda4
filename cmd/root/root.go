// Package root contains the root command for the application
package root

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"fjacquet/finledger/internal/config"
	"fjacquet/finledger/internal/container"
	"fjacquet/finledger/internal/logging"
)

// CommonFlags represents the flags shared by every subcommand.
type CommonFlags struct {
	ConfigFile   string
	SourceDir    string
	DocumentsDir string
	LogLevel     string
}

var (
	// Log is the shared logger instance for commands
	Log = logrus.New()

	// Cmd is the root command
	Cmd = &cobra.Command{
		Use:   "finledger",
		Short: "Reconcile, categorize and validate personal finance exports.",
		Long: `finledger reads card exports, bank statements and legacy spreadsheets
from a source directory, merges them into one deduplicated ledger,
categorizes every transaction and audits the result.`,
		Run: func(cmd *cobra.Command, args []string) {
			Log.Info("Welcome to finledger!")
			Log.Info("Use --help to see available commands")
		},
		SilenceErrors:     true,
		PersistentPreRunE: bootstrap,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if AppContainer != nil {
				if err := AppContainer.Close(); err != nil {
					Log.Warnf("Failed to close container: %v", err)
				}
			}
		},
	}

	// SharedFlags holds the persistent flag values.
	SharedFlags = CommonFlags{}

	// AppContainer is built once per invocation by the persistent pre-run.
	AppContainer *container.Container
)

// Init initializes the root command and all flags
func Init() {
	Cmd.PersistentFlags().StringVarP(&SharedFlags.ConfigFile, "config", "c", "", "Configuration file (default: search for config.yaml)")
	Cmd.PersistentFlags().StringVarP(&SharedFlags.SourceDir, "source", "s", "", "Source directory with exports")
	Cmd.PersistentFlags().StringVarP(&SharedFlags.DocumentsDir, "documents", "d", "", "Directory with rules, budget and other documents")
	Cmd.PersistentFlags().StringVar(&SharedFlags.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
}

// LoadConfig reads the configuration and applies command-line overrides.
func LoadConfig(flags CommonFlags) (*config.Config, error) {
	cfg, err := config.InitializeConfig(flags.ConfigFile)
	if err != nil {
		return nil, err
	}
	if flags.SourceDir != "" {
		cfg.Sources.Directory = flags.SourceDir
	}
	if flags.DocumentsDir != "" {
		cfg.Documents.Directory = flags.DocumentsDir
	}
	if flags.LogLevel != "" {
		if _, err := logrus.ParseLevel(flags.LogLevel); err != nil {
			return nil, fmt.Errorf("invalid log level: %s", flags.LogLevel)
		}
		cfg.Log.Level = flags.LogLevel
	}
	return cfg, nil
}

func bootstrap(cmd *cobra.Command, args []string) error {
	if _, err := config.LoadEnv(); err != nil {
		Log.Warnf("Failed to load .env file: %v", err)
	}

	cfg, err := LoadConfig(SharedFlags)
	if err != nil {
		return err
	}

	Log = config.ConfigureLoggingFromConfig(cfg)
	AppContainer, err = container.NewContainerWithLogger(cfg, logging.NewLogrusAdapterFromLogger(Log))
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	return nil
}

// GetContainer returns the container built for this invocation.
func GetContainer() (*container.Container, error) {
	if AppContainer == nil {
		return nil, fmt.Errorf("application container is not initialized")
	}
	return AppContainer, nil
}
