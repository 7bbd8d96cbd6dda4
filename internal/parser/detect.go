package parser

import (
	"bufio"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"fjacquet/finledger/internal/common"
	"fjacquet/finledger/internal/models"
	"fjacquet/finledger/internal/parsererror"
)

// sniffBytes bounds how much of a file DetectKind reads.
const sniffBytes = 4096

// Columns holds the header spellings shared by the tabular formats. The
// per-format parsers extend it with their own columns.
var Columns = common.HeaderSynonyms{
	"date":        {"data", "dt", "data lancamento", "data da compra", "transaction date", "posted"},
	"description": {"descricao", "historico", "lancamento", "estabelecimento", "memo", "desc"},
	"amount":      {"valor", "value", "valor (r$)", "valor r$", "montante", "quantia"},
	"account":     {"conta", "cartao", "card"},
	"category":    {"categoria", "cat"},
	"subcategory": {"subcategoria", "sub categoria", "subcat"},
	"source":      {"fonte", "origem", "origin"},
}

// sniff is what the kind rules look at.
type sniff struct {
	base   string
	ext    string
	head   string
	header []string
}

type kindRule struct {
	name  string
	match func(s sniff) bool
	kind  models.SourceKind
}

var (
	manualNameRe = regexp.MustCompile(`(?i)manual`)
	legacyNameRe = regexp.MustCompile(`(?i)(legacy|historico|planilha)`)
	markupHeadRe = regexp.MustCompile(`(?i)(OFXHEADER|<OFX>)`)
)

func hasExt(s sniff, exts ...string) bool {
	for _, e := range exts {
		if s.ext == e {
			return true
		}
	}
	return false
}

// kindRules is evaluated top to bottom; the first match decides the kind.
var kindRules = []kindRule{
	{"markup extension", func(s sniff) bool { return hasExt(s, ".ofx", ".qfx") }, models.SourceMarkup},
	{"markup content", func(s sniff) bool { return markupHeadRe.MatchString(s.head) }, models.SourceMarkup},
	{"text extension", func(s sniff) bool { return hasExt(s, ".txt", ".tsv") }, models.SourceTextStmt},
	{"manual name", func(s sniff) bool { return hasExt(s, ".csv") && manualNameRe.MatchString(s.base) }, models.SourceManualEntry},
	{"manual header", func(s sniff) bool {
		return hasExt(s, ".csv") &&
			Columns.Has(s.header, "account") && Columns.Has(s.header, "category") && Columns.Has(s.header, "source")
	}, models.SourceManualEntry},
	{"legacy name", func(s sniff) bool { return hasExt(s, ".csv") && legacyNameRe.MatchString(s.base) }, models.SourceLegacy},
	{"legacy header", func(s sniff) bool {
		return hasExt(s, ".csv") && Columns.Has(s.header, "category") && Columns.Has(s.header, "subcategory")
	}, models.SourceLegacy},
	{"delimited table", func(s sniff) bool { return hasExt(s, ".csv") }, models.SourceCardExport},
}

// DetectKind decides the source format of path from its extension, name and
// first bytes. It returns false for files no parser handles.
func DetectKind(path string) (models.SourceKind, bool) {
	s := sniff{
		base: filepath.Base(path),
		ext:  strings.ToLower(filepath.Ext(path)),
	}
	s.head, s.header = readHead(path)
	return detect(s)
}

func detect(s sniff) (models.SourceKind, bool) {
	for _, rule := range kindRules {
		if rule.match(s) {
			return rule.kind, true
		}
	}
	return "", false
}

// readHead returns the first bytes of path and its first non-blank line
// split on the sniffed delimiter. Unreadable files yield empty values and
// fail later in their parser, where the error is recorded.
func readHead(path string) (string, []string) {
	f, err := os.Open(path)
	if err != nil {
		return "", nil
	}
	defer f.Close()

	buf := make([]byte, sniffBytes)
	n, _ := bufio.NewReader(f).Read(buf)
	head := common.DecodeText(buf[:n], "")

	for _, line := range strings.Split(head, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		delimiter := common.SniffDelimiter(line, []rune{',', ';', '\t'})
		cells := strings.Split(line, string(delimiter))
		for i := range cells {
			cells[i] = strings.Trim(cells[i], "\"' ")
		}
		return head, cells
	}
	return head, nil
}

// RequireColumns returns an InvalidFormatError naming the first canonical
// column missing from header.
func RequireColumns(path string, synonyms common.HeaderSynonyms, header []string, columns ...string) error {
	for _, c := range columns {
		if !synonyms.Has(header, c) {
			return &parsererror.InvalidFormatError{
				FilePath:             path,
				ExpectedFormat:       "header with " + strings.Join(columns, ", "),
				ActualContentSnippet: strings.Join(header, " | "),
				Msg:                  "missing column " + c,
			}
		}
	}
	return nil
}
