// Package factory builds the source parsers and the registry that routes
// each discovered file to one of them.
package factory

import (
	"fmt"

	"fjacquet/finledger/internal/cardparser"
	"fjacquet/finledger/internal/common"
	"fjacquet/finledger/internal/legacyparser"
	"fjacquet/finledger/internal/logging"
	"fjacquet/finledger/internal/manualparser"
	"fjacquet/finledger/internal/models"
	"fjacquet/finledger/internal/ofxparser"
	"fjacquet/finledger/internal/parser"
	"fjacquet/finledger/internal/textparser"
)

// AllKinds lists every source kind a parser exists for.
var AllKinds = []models.SourceKind{
	models.SourceMarkup,
	models.SourceCardExport,
	models.SourceTextStmt,
	models.SourceManualEntry,
	models.SourceLegacy,
}

// GetParserWithLogger returns a new parser for kind. accounts is used by
// formats whose rows name their own account and may be nil.
func GetParserWithLogger(kind models.SourceKind, logger logging.Logger, accounts *common.AccountTable) (parser.Parser, error) {
	switch kind {
	case models.SourceCardExport:
		return cardparser.NewAdapter(logger), nil
	case models.SourceMarkup:
		return ofxparser.NewAdapter(logger), nil
	case models.SourceTextStmt:
		return textparser.NewAdapter(logger), nil
	case models.SourceLegacy:
		return legacyparser.NewAdapter(logger), nil
	case models.SourceManualEntry:
		return manualparser.NewAdapter(logger, accounts), nil
	default:
		return nil, fmt.Errorf("unknown parser type: %s", kind)
	}
}

// NewRegistry returns a registry holding one parser per known kind.
func NewRegistry(logger logging.Logger, accounts *common.AccountTable) (*parser.Registry, error) {
	registry, _ := parser.NewRegistry()
	for _, kind := range AllKinds {
		p, err := GetParserWithLogger(kind, logger, accounts)
		if err != nil {
			return nil, err
		}
		if err := registry.Register(p); err != nil {
			return nil, err
		}
	}
	return registry, nil
}
