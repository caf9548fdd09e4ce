// Package category maps free-text product category labels onto the two
// discount buckets the shop actually negotiates ("abogali" and "br" brand
// lines), tolerating the Arabic-script and transliterated spelling variants
// that show up in hand-entered data.
package category

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Canonical labels, the spellings kept on product and item snapshots.
const (
	LabelAbogali = "ابوغالي"
	LabelBR      = "بيار"
)

// Discount bucket keys. Labels not resolving to one of these carry no
// discount.
const (
	BucketAbogali = "abogali"
	BucketBR      = "br"
)

const tatweel = 'ـ'

// fold lowercases and strips combining marks (Arabic diacritics) and
// tatweel so spelling variants compare equal.
var fold = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	runes.Remove(runes.Predicate(func(r rune) bool { return r == tatweel })),
	norm.NFC,
	cases.Lower(language.Und),
)

// variants maps squashed folded spellings to their canonical label.
var variants = map[string]string{
	// Abogali brand line. Keys are stored pre-folded: hamza alef variants
	// (أبو...) reduce to plain alef under the fold transform.
	"ابوغالي":  LabelAbogali,
	"ابوغالى":  LabelAbogali,
	"abogali":  LabelAbogali,
	"aboghali": LabelAbogali,
	"abughali": LabelAbogali,
	"aboghaly": LabelAbogali,
	// BR brand line.
	"بيار": LabelBR,
	"بىار": LabelBR,
	"br":   LabelBR,
	"b.r":  LabelBR,
	"b.r.": LabelBR,
}

// buckets keys discount dispatch off the canonical label.
var buckets = map[string]string{
	LabelAbogali: BucketAbogali,
	LabelBR:      BucketBR,
}

// Normalize returns the canonical label for a known spelling variant, or
// the folded, whitespace-trimmed input unchanged otherwise (including the
// empty string).
func Normalize(raw string) string {
	folded, _, err := transform.String(fold, strings.TrimSpace(raw))
	if err != nil {
		folded = strings.ToLower(strings.TrimSpace(raw))
	}
	if label, ok := variants[squash(folded)]; ok {
		return label
	}
	return folded
}

// Bucket resolves a raw label to a discount bucket. ok is false for
// uncategorized labels, which participate in no discount.
func Bucket(raw string) (string, bool) {
	b, ok := buckets[Normalize(raw)]
	return b, ok
}

// squash drops all whitespace so "ابو غالي" and "ابوغالي" match.
func squash(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
