package index

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Collator orders index labels alphabetically, ignoring case. It is not
// safe for concurrent use.
type Collator struct {
	c *collate.Collator
}

// NewCollator creates a collator for the root locale.
func NewCollator() *Collator {
	return &Collator{c: collate.New(language.Und, collate.IgnoreCase)}
}

// Compare orders a and b; labels equal under collation fall back to byte
// order so the result is total.
func (c *Collator) Compare(a, b string) int {
	if r := c.c.CompareString(a, b); r != 0 {
		return r
	}
	return strings.Compare(a, b)
}

// BucketKey returns the upper-cased first letter of label with diacritics
// removed, e.g. "Émile" → "E". It returns "" for an empty label.
//
// Folding differs from plain upper-casing on purpose: "Émile" and "Eve"
// share the E bucket instead of "É" getting a bucket of its own. Letters
// with no decomposition, such as "Ø", keep their own bucket.
func BucketKey(label string) string {
	if label == "" {
		return ""
	}
	folder := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(folder, label)
	if err != nil || folded == "" {
		folded = label
	}
	r, _ := utf8.DecodeRuneInString(folded)
	return string(unicode.ToUpper(r))
}
