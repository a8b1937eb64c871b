// Package tabular locates columns in loosely formatted tables (CSV, XLSX,
// scraped HTML) by header aliases.
package tabular

import "strings"

// Norm lowercases a header and strips BOM, spaces, dashes, underscores and
// dots so "Modal Price", "modal_price" and "ModalPrice" compare equal.
func Norm(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "\uFEFF")
	s = strings.ToLower(s)
	return strings.NewReplacer(" ", "", "-", "", "_", "", ".", "", "\u00a0", "").Replace(s)
}

type Header map[string]int

func NewHeader(cols []string) Header {
	h := make(Header, len(cols))
	for i, c := range cols {
		if _, dup := h[Norm(c)]; !dup {
			h[Norm(c)] = i
		}
	}
	return h
}

// Find returns the index of the first alias present, or -1.
func (h Header) Find(aliases ...string) int {
	for _, a := range aliases {
		if idx, ok := h[Norm(a)]; ok {
			return idx
		}
	}
	return -1
}

// Has reports whether every index is present.
func Has(idx ...int) bool {
	for _, i := range idx {
		if i < 0 {
			return false
		}
	}
	return true
}

// Cell guards against short rows.
func Cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
