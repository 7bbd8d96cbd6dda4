package categorizer

import (
	"time"

	"fjacquet/finledger/internal/models"
)

// Input is what a strategy sees of a transaction.
type Input struct {
	Description     string
	Date            time.Time
	SeedCategory    string
	SeedSubcategory string
}

// InputFor builds the strategy input for a raw record. Matching always
// uses the original description.
func InputFor(raw models.RawTransaction) Input {
	return Input{
		Description:     raw.DescriptionOriginal,
		Date:            raw.Date,
		SeedCategory:    raw.SeedCategory,
		SeedSubcategory: raw.SeedSubcategory,
	}
}

// Match is a resolved classification.
type Match struct {
	Category    string
	Subcategory string
	// Strategy names the strategy that decided the category.
	Strategy string
	// Keyword is the matching rule keyword, for rule matches.
	Keyword string
}

// Strategy is one way of resolving a category. Strategies are tried in
// order and the first that matches decides.
type Strategy interface {
	Name() string
	Categorize(in Input) (Match, bool)
}

// SeedStrategy keeps the category carried by legacy and manual rows.
type SeedStrategy struct{}

// Name implements Strategy.
func (SeedStrategy) Name() string { return "seed" }

// Categorize implements Strategy.
func (SeedStrategy) Categorize(in Input) (Match, bool) {
	if in.SeedCategory == "" {
		return Match{}, false
	}
	return Match{Category: in.SeedCategory, Subcategory: in.SeedSubcategory, Strategy: "seed"}, true
}
