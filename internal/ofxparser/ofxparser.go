// Package ofxparser reads markup bank statements (OFX/QFX). Both the SGML
// flavour of OFX 1.x and the XML flavour of OFX 2.x are accepted; files
// are decoded from their declared charset with a permissive fallback.
package ofxparser

import (
	"encoding/xml"
	"io"
	"regexp"
	"strings"

	"gopkg.in/xmlpath.v2"
)

// Block holds the fields read from one <STMTTRN> element.
type Block struct {
	Posted string
	Amount string
	Memo   string
	Name   string
	FITID  string
}

// Description is the memo, or the payee name when there is no memo.
func (b Block) Description() string {
	if memo := strings.TrimSpace(b.Memo); memo != "" {
		return memo
	}
	return strings.TrimSpace(b.Name)
}

var (
	sgmlCharsetRe = regexp.MustCompile(`(?im)^\s*CHARSET:\s*([A-Za-z0-9_-]+)`)
	xmlEncodingRe = regexp.MustCompile(`(?i)<\?xml[^>]*encoding=["']([^"']+)["']`)
	ofxRootRe     = regexp.MustCompile(`(?i)<OFX>`)
	bankAcctRe    = regexp.MustCompile(`(?i)<BANKACCTFROM>`)
	stmtOpenRe    = regexp.MustCompile(`(?i)<STMTTRN>`)
	stmtEndRe     = regexp.MustCompile(`(?i)</STMTTRN>|</BANKTRANLIST>`)
)

// fieldRe matches an SGML or XML element value; SGML leaves most
// elements unclosed so the value runs to the next tag or line end.
func fieldRe(tag string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)<` + tag + `>\s*([^<\r\n]*)`)
}

var (
	dtPostedRe = fieldRe("DTPOSTED")
	trnAmtRe   = fieldRe("TRNAMT")
	memoRe     = fieldRe("MEMO")
	nameRe     = fieldRe("NAME")
	fitIDRe    = fieldRe("FITID")
	dtStartRe  = fieldRe("DTSTART")
	dtEndRe    = fieldRe("DTEND")
)

// DeclaredCharset returns the charset named in the OFX header or the XML
// declaration, or "" when none is declared.
func DeclaredCharset(raw []byte) string {
	head := raw
	if len(head) > 1024 {
		head = head[:1024]
	}
	if m := xmlEncodingRe.FindSubmatch(head); m != nil {
		return string(m[1])
	}
	if m := sgmlCharsetRe.FindSubmatch(head); m != nil {
		return string(m[1])
	}
	return ""
}

// IsXML reports whether the decoded statement is the XML flavour.
func IsXML(content string) bool {
	return strings.HasPrefix(strings.TrimSpace(content), "<?xml")
}

// IsChecking reports whether the statement is for a bank account rather
// than a card.
func IsChecking(content string) bool {
	return bankAcctRe.MatchString(content)
}

// StatementRange returns the DTSTART and DTEND values of the transaction
// list. Both flavours carry them as simple elements.
func StatementRange(content string) (start, end string) {
	return firstValue(dtStartRe, content), firstValue(dtEndRe, content)
}

func firstValue(re *regexp.Regexp, block string) string {
	if m := re.FindStringSubmatch(block); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

// ScanSGML extracts transaction blocks by scanning for <STMTTRN> tags. A
// block ends at its closing tag, the next opening tag or the end of the
// transaction list.
func ScanSGML(content string) []Block {
	opens := stmtOpenRe.FindAllStringIndex(content, -1)
	blocks := make([]Block, 0, len(opens))
	for i, loc := range opens {
		end := len(content)
		if i+1 < len(opens) {
			end = opens[i+1][0]
		}
		body := content[loc[1]:end]
		if m := stmtEndRe.FindStringIndex(body); m != nil {
			body = body[:m[0]]
		}
		blocks = append(blocks, Block{
			Posted: firstValue(dtPostedRe, body),
			Amount: firstValue(trnAmtRe, body),
			Memo:   firstValue(memoRe, body),
			Name:   firstValue(nameRe, body),
			FITID:  firstValue(fitIDRe, body),
		})
	}
	return blocks
}

var (
	stmtPath     = xmlpath.MustCompile("//STMTTRN")
	dtPostedPath = xmlpath.MustCompile("DTPOSTED")
	trnAmtPath   = xmlpath.MustCompile("TRNAMT")
	memoPath     = xmlpath.MustCompile("MEMO")
	namePath     = xmlpath.MustCompile("NAME")
	fitIDPath    = xmlpath.MustCompile("FITID")
)

func pathValue(p *xmlpath.Path, node *xmlpath.Node) string {
	v, _ := p.String(node)
	return strings.TrimSpace(v)
}

// ReadXML extracts transaction blocks from an already UTF-8 decoded
// OFX 2.x document.
func ReadXML(content string) ([]Block, error) {
	decoder := xml.NewDecoder(strings.NewReader(content))
	decoder.Strict = false
	decoder.CharsetReader = func(_ string, input io.Reader) (io.Reader, error) {
		return input, nil
	}
	root, err := xmlpath.ParseDecoder(decoder)
	if err != nil {
		return nil, err
	}

	var blocks []Block
	iter := stmtPath.Iter(root)
	for iter.Next() {
		node := iter.Node()
		blocks = append(blocks, Block{
			Posted: pathValue(dtPostedPath, node),
			Amount: pathValue(trnAmtPath, node),
			Memo:   pathValue(memoPath, node),
			Name:   pathValue(namePath, node),
			FITID:  pathValue(fitIDPath, node),
		})
	}
	return blocks, nil
}
