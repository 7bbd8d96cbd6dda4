package categorizer

import (
	"sort"
	"strings"

	"fjacquet/finledger/internal/textutils"
)

type rename struct {
	fragment string
	clean    string
}

// renameTable holds the rename document ordered longest fragment first,
// then alphabetically, so lookups do not depend on map order.
type renameTable struct {
	exact     map[string]string
	fragments []rename
}

func newRenameTable(renames map[string]string) renameTable {
	t := renameTable{exact: make(map[string]string, len(renames))}
	for fragment, clean := range renames {
		key := textutils.Normalize(fragment)
		if key == "" {
			continue
		}
		if existing, ok := t.exact[key]; ok && existing <= clean {
			continue
		}
		t.exact[key] = clean
	}
	for key, clean := range t.exact {
		t.fragments = append(t.fragments, rename{fragment: key, clean: clean})
	}
	sort.Slice(t.fragments, func(i, j int) bool {
		a, b := t.fragments[i], t.fragments[j]
		if len(a.fragment) != len(b.fragment) {
			return len(a.fragment) > len(b.fragment)
		}
		return a.fragment < b.fragment
	})
	return t
}

func (t renameTable) apply(description string) string {
	normalized := textutils.Normalize(description)
	if clean, ok := t.exact[normalized]; ok {
		return clean
	}
	for _, r := range t.fragments {
		if strings.Contains(normalized, r.fragment) {
			return r.clean
		}
	}
	return textutils.CollapseSpaces(strings.TrimSpace(description))
}
