package common

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding/charmap"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DecodeText converts raw file bytes to a UTF-8 string. A declared charset
// label (e.g. "ISO-8859-1", "1252") is honoured when known. Otherwise the
// bytes are used as-is when they are valid UTF-8 and read as Windows-1252
// when they are not, so a single bad byte never fails a whole file.
func DecodeText(data []byte, declared string) string {
	data = bytes.TrimPrefix(data, utf8BOM)

	if label := normalizeCharsetLabel(declared); label != "" {
		if enc, _ := charset.Lookup(label); enc != nil {
			if decoded, err := enc.NewDecoder().Bytes(data); err == nil {
				return string(decoded)
			}
		}
	}

	if utf8.Valid(data) {
		return string(data)
	}

	decoded, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		return strings.ToValidUTF8(string(data), "�")
	}
	return string(decoded)
}

// normalizeCharsetLabel maps OFX style labels ("1252", "USASCII") to names
// charset.Lookup understands.
func normalizeCharsetLabel(label string) string {
	label = strings.TrimSpace(strings.ToLower(label))
	switch label {
	case "", "none":
		return ""
	case "1252":
		return "windows-1252"
	case "usascii":
		return "us-ascii"
	case "8859-1", "iso8859-1":
		return "iso-8859-1"
	}
	return label
}
