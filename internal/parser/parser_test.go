package parser

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fjacquet/finledger/internal/logging"
	"fjacquet/finledger/internal/models"
	"fjacquet/finledger/internal/parsererror"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDetectKind(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		file    string
		content string
		want    models.SourceKind
		ok      bool
	}{
		{"ofx extension", "extrato_2026.ofx", "OFXHEADER:100", models.SourceMarkup, true},
		{"qfx extension", "conta.QFX", "", models.SourceMarkup, true},
		{"ofx content in txt", "export.txt", "OFXHEADER:100\nDATA:OFXSGML\n<OFX>", models.SourceMarkup, true},
		{"text statement", "extrato.txt", "05/01/2026\tPIX\t123\t-10,00\t90,00", models.SourceTextStmt, true},
		{"tsv statement", "extrato.tsv", "", models.SourceTextStmt, true},
		{"manual by name", "manual_entries.csv", "date,description,amount", models.SourceManualEntry, true},
		{"manual by header", "extra.csv", "data;descricao;valor;conta;categoria;fonte", models.SourceManualEntry, true},
		{"legacy by name", "planilha_2024.csv", "date,description,amount", models.SourceLegacy, true},
		{"legacy by header", "old.csv", "Data,Descrição,Valor,Categoria,Subcategoria", models.SourceLegacy, true},
		{"card export", "fatura_cartao_a_2026-01.csv", "data,lançamento,valor", models.SourceCardExport, true},
		{"unsupported", "notes.pdf", "%PDF-1.4", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, dir, tt.file, tt.content)
			got, ok := DetectKind(path)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDetectKind_MissingFileFallsBackToExtension(t *testing.T) {
	got, ok := DetectKind(filepath.Join(t.TempDir(), "gone.csv"))
	assert.True(t, ok)
	assert.Equal(t, models.SourceCardExport, got)
}

type stubParser struct {
	BaseParser
	kind models.SourceKind
}

func (s *stubParser) Kind() models.SourceKind { return s.kind }

func (s *stubParser) Parse(ctx context.Context, src Source) ParseOutcome {
	out, ok := s.Begin(ctx, src)
	if !ok {
		return out
	}
	out.Records = append(out.Records, s.NewRecord(src, 1))
	return s.Finish(src, out)
}

func TestRegistry(t *testing.T) {
	card := &stubParser{BaseParser: NewBaseParser("card", nil), kind: models.SourceCardExport}
	markup := &stubParser{BaseParser: NewBaseParser("markup", nil), kind: models.SourceMarkup}

	reg, err := NewRegistry(card, markup)
	require.NoError(t, err)

	p, err := reg.Get(models.SourceMarkup)
	require.NoError(t, err)
	assert.Same(t, markup, p)

	_, err = reg.Get(models.SourceLegacy)
	assert.Error(t, err)

	assert.Equal(t, []models.SourceKind{models.SourceMarkup, models.SourceCardExport}, reg.Kinds())

	_, err = NewRegistry(card, card)
	assert.Error(t, err)
}

func TestBaseParser_Outcomes(t *testing.T) {
	logger := logging.NewMockLogger()
	p := &stubParser{BaseParser: NewBaseParser("stub", logger), kind: models.SourceTextStmt}
	src := Source{Path: "extrato.txt", Kind: models.SourceTextStmt, Account: models.AccountChecking}

	out := p.Parse(context.Background(), src)
	require.Len(t, out.Records, 1)
	assert.Equal(t, "extrato.txt", out.Records[0].SourceFile)
	assert.Equal(t, models.AccountChecking, out.Records[0].Account)
	assert.False(t, out.Failed())
	assert.True(t, logger.HasEntry("INFO", "Parsed source file"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out = p.Parse(ctx, src)
	assert.Empty(t, out.Records)
	assert.True(t, out.Failed())

	var warned ParseOutcome
	p.Warn(&warned, src, p.CoercionError(4, "amount", "abc", errors.New("bad")))
	require.Len(t, warned.Diagnostics, 1)
	assert.Equal(t, parsererror.SeverityWarning, warned.Diagnostics[0].Severity)
	assert.Equal(t, 4, warned.Diagnostics[0].Row)
	assert.Equal(t, "coercion", warned.Diagnostics[0].Kind)
	assert.False(t, warned.Failed())
}
