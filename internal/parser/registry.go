package parser

import (
	"fmt"
	"sort"

	"fjacquet/finledger/internal/models"
)

// Registry maps each source kind to the parser handling it.
type Registry struct {
	parsers map[models.SourceKind]Parser
}

// NewRegistry creates a registry holding parsers. Registering two parsers
// for the same kind is an error.
func NewRegistry(parsers ...Parser) (*Registry, error) {
	r := &Registry{parsers: make(map[models.SourceKind]Parser, len(parsers))}
	for _, p := range parsers {
		if err := r.Register(p); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds p under its kind.
func (r *Registry) Register(p Parser) error {
	if _, exists := r.parsers[p.Kind()]; exists {
		return fmt.Errorf("parser for %s already registered", p.Kind())
	}
	r.parsers[p.Kind()] = p
	return nil
}

// Get returns the parser for kind.
func (r *Registry) Get(kind models.SourceKind) (Parser, error) {
	p, ok := r.parsers[kind]
	if !ok {
		return nil, fmt.Errorf("no parser registered for %s", kind)
	}
	return p, nil
}

// Kinds lists the registered kinds in priority order.
func (r *Registry) Kinds() []models.SourceKind {
	kinds := make([]models.SourceKind, 0, len(r.parsers))
	for k := range r.parsers {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i].Priority() < kinds[j].Priority() })
	return kinds
}
