// Package textutil normalizes product names for fuzzy comparison.
package textutil

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var foldAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// FoldAccents strips combining diacritical marks, so "Lácteos" becomes
// "Lacteos". Input that fails to transform is returned unchanged.
func FoldAccents(s string) string {
	out, _, err := transform.String(foldAccents, s)
	if err != nil {
		return s
	}
	return out
}

// NormalizeName lower-cases, accent-folds and token-sorts a product
// name. Receipt lines and catalog names abbreviate and reorder words
// differently, so comparisons happen on this canonical form.
func NormalizeName(s string) string {
	folded := strings.ToLower(FoldAccents(s))
	fields := strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	sort.Strings(fields)
	return strings.Join(fields, " ")
}
