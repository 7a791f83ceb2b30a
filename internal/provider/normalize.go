package provider

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

var folder = cases.Fold()

// NormalizeName case-folds a show name and strips punctuation so that
// "Marvel's Agents of S.H.I.E.L.D." and "marvels agents of shield" compare equal.
func NormalizeName(name string) string {
	folded := folder.String(name)

	var sb strings.Builder
	sb.Grow(len(folded))
	space := false
	for _, r := range folded {
		switch {
		case unicode.IsSpace(r) || r == '_':
			space = true
			continue
		case r == '&':
			sb.WriteString(" and ")
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			// dropped without breaking words: "s.h.i.e.l.d" -> "shield"
			continue
		default:
			if space && sb.Len() > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteRune(r)
		}
		space = false
	}
	return strings.Join(strings.Fields(sb.String()), " ")
}
