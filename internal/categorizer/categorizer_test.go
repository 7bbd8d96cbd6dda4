package categorizer

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fjacquet/finledger/internal/dateutils"
	"fjacquet/finledger/internal/logging"
	"fjacquet/finledger/internal/models"
	"fjacquet/finledger/internal/store"
)

func date(y int, m time.Month, d int) *time.Time {
	t := dateutils.NewDate(y, m, d)
	return &t
}

func newEngine(docs store.Documents) *Engine {
	return NewEngine(docs, logging.NewMockLogger())
}

func TestCategorize_Precedence(t *testing.T) {
	docs := store.Documents{Rules: []models.CategoryRule{
		{Keyword: "uber", Category: "Transporte", Priority: 1},
		{Keyword: "uber eats", Category: "Alimentação", Subcategory: "Delivery", Priority: 1},
		{Keyword: "mercado", Category: "Mercado", Priority: 1},
		{Keyword: "mercado livre", Category: "Compras", Priority: 5},
		{Keyword: "farmacia", Category: "Saúde", Priority: 2},
		{Keyword: "farmácia", Category: "Outros", Priority: 2},
	}}
	e := newEngine(docs)
	on := dateutils.NewDate(2026, 1, 10)

	tests := []struct {
		name        string
		description string
		category    string
		subcategory string
	}{
		{"longest keyword breaks priority tie", "UBER EATS *PEDIDO", "Alimentação", "Delivery"},
		{"shorter keyword alone", "Uber *trip", "Transporte", ""},
		{"higher priority wins", "MERCADO LIVRE*LOJA", "Compras", ""},
		{"first defined breaks full tie", "Drogaria Farmácia Popular", "Saúde", ""},
		{"no match is uncategorized", "PADARIA CENTRAL", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cat, sub := e.Categorize(tt.description, on)
			assert.Equal(t, tt.category, cat)
			assert.Equal(t, tt.subcategory, sub)
		})
	}
}

func TestCategorize_IndependentOfDocumentOrder(t *testing.T) {
	low := models.CategoryRule{Keyword: "posto", Category: "Carro", Priority: 1}
	high := models.CategoryRule{Keyword: "posto", Category: "Combustível", Priority: 9}
	on := dateutils.NewDate(2026, 3, 1)

	a, _ := newEngine(store.Documents{Rules: []models.CategoryRule{low, high}}).Categorize("POSTO SHELL", on)
	b, _ := newEngine(store.Documents{Rules: []models.CategoryRule{high, low}}).Categorize("POSTO SHELL", on)
	assert.Equal(t, "Combustível", a)
	assert.Equal(t, a, b)
}

func TestCategorize_TemporalBounds(t *testing.T) {
	docs := store.Documents{Rules: []models.CategoryRule{
		{Keyword: "academia", Category: "Esporte", Priority: 1, Validity: models.Validity{ValidUntil: date(2025, 6, 30)}},
		{Keyword: "academia", Category: "Saúde", Priority: 0},
		{Keyword: "escola", Category: "Educação", Priority: 0, Validity: models.Validity{ValidFrom: date(2026, 2, 1), ValidUntil: date(2026, 12, 31)}},
	}}
	e := newEngine(docs)

	cat, _ := e.Categorize("ACADEMIA FIT", dateutils.NewDate(2025, 6, 30))
	assert.Equal(t, "Esporte", cat, "bounds are inclusive")
	cat, _ = e.Categorize("ACADEMIA FIT", dateutils.NewDate(2025, 7, 1))
	assert.Equal(t, "Saúde", cat, "expired rule never matches")

	cat, _ = e.Categorize("ESCOLA ABC", dateutils.NewDate(2026, 1, 31))
	assert.Empty(t, cat)
	cat, _ = e.Categorize("ESCOLA ABC", dateutils.NewDate(2026, 2, 1))
	assert.Equal(t, "Educação", cat)

	cat, _ = e.Categorize("ACADEMIA FIT", dateutils.NewDate(1990, 1, 1))
	assert.Equal(t, "Esporte", cat)
}

func TestCategorize_Deterministic(t *testing.T) {
	e := newEngine(store.Documents{Rules: []models.CategoryRule{
		{Keyword: "a", Category: "X", Priority: 1},
		{Keyword: "b", Category: "Y", Priority: 1},
	}})
	on := dateutils.NewDate(2026, 1, 1)
	first, _ := e.Categorize("A B", on)
	for i := 0; i < 50; i++ {
		got, _ := e.Categorize("A B", on)
		require.Equal(t, first, got)
	}
}

func TestSubcategoryRules(t *testing.T) {
	docs := store.Documents{
		Rules: []models.CategoryRule{
			{Keyword: "ifood", Category: "Alimentação", Priority: 1},
			{Keyword: "cinema", Category: "Lazer", Priority: 1},
		},
		SubcategoryRules: []models.SubcategoryRule{
			{Keyword: "ifood", Category: "Alimentação", Subcategory: "Delivery"},
			{Keyword: "cinema", Category: "Alimentação", Subcategory: "Pipoca"},
			{Keyword: "cinema", Subcategory: "Filmes"},
		},
	}
	e := newEngine(docs)
	on := dateutils.NewDate(2026, 1, 1)

	cat, sub := e.Categorize("IFOOD *RESTAURANTE", on)
	assert.Equal(t, "Alimentação", cat)
	assert.Equal(t, "Delivery", sub)

	cat, sub = e.Categorize("CINEMA CENTER", on)
	assert.Equal(t, "Lazer", cat)
	assert.Equal(t, "Filmes", sub, "scoped rule for another category is ignored")
}

func TestResolve_SeedWins(t *testing.T) {
	e := newEngine(store.Documents{
		Rules:            []models.CategoryRule{{Keyword: "aluguel", Category: "Casa", Priority: 1}},
		SubcategoryRules: []models.SubcategoryRule{{Keyword: "aluguel", Subcategory: "Mensal"}},
	})

	m, ok := e.Resolve(Input{Description: "ALUGUEL", Date: dateutils.NewDate(2024, 1, 1), SeedCategory: "Moradia"})
	require.True(t, ok)
	assert.Equal(t, "Moradia", m.Category)
	assert.Equal(t, "Mensal", m.Subcategory)
	assert.Equal(t, "seed", m.Strategy)

	m, ok = e.Resolve(Input{Description: "ALUGUEL", Date: dateutils.NewDate(2024, 1, 1)})
	require.True(t, ok)
	assert.Equal(t, "Casa", m.Category)
	assert.Equal(t, "rules", m.Strategy)

	_, ok = e.Resolve(Input{Description: "NADA"})
	assert.False(t, ok)
}

func TestGetCategoryMetadata(t *testing.T) {
	e := newEngine(store.Documents{Budget: map[string]models.BudgetMetadata{
		"Moradia": {Type: models.BudgetFixed, Limit: decimal.NewFromInt(3000)},
		"Lazer":   {Type: models.BudgetVariable, Limit: decimal.NewFromInt(400)},
	}})

	meta := e.GetCategoryMetadata("Moradia")
	assert.Equal(t, models.BudgetFixed, meta.Type)
	assert.True(t, decimal.NewFromInt(3000).Equal(meta.Limit))

	assert.Equal(t, models.BudgetFixed, e.GetCategoryMetadata("moradia").Type)

	explicit := e.GetCategoryMetadata("Lazer")
	assert.Equal(t, models.BudgetVariable, explicit.Type)
	assert.False(t, explicit.Default)

	unknown := e.GetCategoryMetadata("UnknownCategory")
	assert.Equal(t, models.BudgetVariable, unknown.Type)
	assert.True(t, unknown.Limit.IsZero())
	assert.True(t, unknown.Default)
}

func TestApplyRenames(t *testing.T) {
	e := newEngine(store.Documents{Renames: map[string]string{
		"NETFLIX.COM":        "Netflix",
		"PAG*":               "PagSeguro",
		"PAG*JOSEDASILVA":    "José da Silva",
		"supermercado extra": "Extra",
	}})

	assert.Equal(t, "Netflix", e.ApplyRenames("netflix.com"))
	assert.Equal(t, "José da Silva", e.ApplyRenames("PAG*JOSEDASILVA 02/03"))
	assert.Equal(t, "PagSeguro", e.ApplyRenames("PAG*OUTRO"))
	assert.Equal(t, "Extra", e.ApplyRenames("Supermercado  Extra   Loja 12"))
	assert.Equal(t, "PADARIA DO ZE", e.ApplyRenames("  PADARIA   DO ZE "))
}

func TestNormalize(t *testing.T) {
	e := newEngine(store.Documents{})
	assert.Equal(t, "CAFE COM ACUCAR", e.Normalize("  café   com  açúcar "))
}
