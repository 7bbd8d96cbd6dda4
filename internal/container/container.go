// Package container wires the application's dependencies from a Config.
// Every component is created once here and handed to its consumers through
// constructors.
package container

import (
	"fmt"

	"fjacquet/finledger/internal/categorizer"
	"fjacquet/finledger/internal/common"
	"fjacquet/finledger/internal/config"
	"fjacquet/finledger/internal/factory"
	"fjacquet/finledger/internal/logging"
	"fjacquet/finledger/internal/models"
	"fjacquet/finledger/internal/parser"
	"fjacquet/finledger/internal/pipeline"
	"fjacquet/finledger/internal/reconciler"
	"fjacquet/finledger/internal/report"
	"fjacquet/finledger/internal/scanner"
	"fjacquet/finledger/internal/store"
	"fjacquet/finledger/internal/validation"
)

// Container holds all application dependencies. It is immutable after
// creation; fields are reached through getters.
type Container struct {
	logger   logging.Logger
	config   *config.Config
	store    *store.Store
	accounts *common.AccountTable
	registry *parser.Registry

	validator *validation.Engine
	reporter  *report.ReportGenerator
	pipeline  *pipeline.Pipeline
}

// NewContainer creates and wires all application dependencies, logging
// through a logrus logger configured from cfg.
func NewContainer(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}
	return NewContainerWithLogger(cfg, logging.NewLogrusAdapterFromLogger(config.ConfigureLoggingFromConfig(cfg)))
}

// NewContainerWithLogger is NewContainer with an explicit logger.
func NewContainerWithLogger(cfg *config.Config, logger logging.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}

	docs := store.NewStore(cfg.Documents.Directory, store.DocumentFiles{
		Rules:            cfg.Documents.Rules,
		Budget:           cfg.Documents.Budget,
		Renames:          cfg.Documents.Renames,
		Subcategories:    cfg.Documents.Subcategories,
		BalanceOverrides: cfg.Documents.BalanceOverrides,
		Recurring:        cfg.Documents.Recurring,
	}, logger)

	accounts, err := common.NewAccountTable(cfg.Accounts.Patterns)
	if err != nil {
		return nil, fmt.Errorf("failed to build account table: %w", err)
	}

	registry, err := factory.NewRegistry(logger, accounts)
	if err != nil {
		return nil, fmt.Errorf("failed to build parser registry: %w", err)
	}

	cutoff, err := cfg.LegacyCutoff()
	if err != nil {
		return nil, err
	}

	var exclude []string
	if cfg.Report.LedgerCSV != "" {
		exclude = append(exclude, cfg.Report.LedgerCSV)
	}
	scan := scanner.NewSourceScanner(scanner.Options{
		Extensions: cfg.Sources.Extensions,
		Recursive:  cfg.Sources.Recursive,
		Exclude:    exclude,
	}, accounts, common.NewInvoiceCalendar(cfg), logger)

	rec := reconciler.NewReconciler(reconciler.Options{
		LegacyCutoff:       cutoff,
		SettlementPatterns: cfg.Reconcile.SettlementPatterns,
		RefundPatterns:     cfg.Reconcile.RefundPatterns,
	}, logger)

	validator := validation.NewEngine(validation.ThresholdsFromConfig(cfg), logger)

	run := pipeline.New(pipeline.Options{
		SourceDir: cfg.Sources.Directory,
		Transfers: cfg.Normalize.Transfers,
	}, docs, scan, registry, rec, validator, logger)

	logger.Info("Container initialized successfully",
		logging.F("parsers_count", len(registry.Kinds())),
		logging.F("source_directory", cfg.Sources.Directory))

	return &Container{
		logger:    logger,
		config:    cfg,
		store:     docs,
		accounts:  accounts,
		registry:  registry,
		validator: validator,
		reporter:  report.NewReportGenerator(logger),
		pipeline:  run,
	}, nil
}

// GetParser returns the parser registered for kind.
func (c *Container) GetParser(kind models.SourceKind) (parser.Parser, error) {
	return c.registry.Get(kind)
}

// GetRegistry returns the parser registry.
func (c *Container) GetRegistry() *parser.Registry {
	return c.registry
}

// GetLogger returns the container's logger instance.
func (c *Container) GetLogger() logging.Logger {
	return c.logger
}

// GetConfig returns the container's configuration instance.
func (c *Container) GetConfig() *config.Config {
	return c.config
}

// GetStore returns the configuration document store.
func (c *Container) GetStore() *store.Store {
	return c.store
}

// GetAccounts returns the filename to account table.
func (c *Container) GetAccounts() *common.AccountTable {
	return c.accounts
}

// GetValidator returns the validation engine.
func (c *Container) GetValidator() *validation.Engine {
	return c.validator
}

// GetReportGenerator returns the report writer.
func (c *Container) GetReportGenerator() *report.ReportGenerator {
	return c.reporter
}

// GetPipeline returns the pipeline.
func (c *Container) GetPipeline() *pipeline.Pipeline {
	return c.pipeline
}

// NewCategorizer builds a category engine from the documents as they are
// on disk now. Rules saved since the last call are picked up.
func (c *Container) NewCategorizer() *categorizer.Engine {
	return categorizer.NewEngine(c.store.LoadAll(), c.logger)
}

// Close releases container resources. Nothing holds open handles between
// runs, so it only logs.
func (c *Container) Close() error {
	c.logger.Info("Container closed")
	return nil
}
