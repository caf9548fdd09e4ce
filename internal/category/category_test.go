package category

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeMapsSpellingVariants(t *testing.T) {
	abogali := []string{
		"ابوغالي",
		"ابو غالي",
		"أبو غالي", // hamza alef folds to plain alef
		"  ابوغالى ",
		"Abogali",
		"ABUGHALI",
		"abo ghali",
	}
	for _, v := range abogali {
		assert.Equal(t, LabelAbogali, Normalize(v), "variant %q", v)
	}

	br := []string{"BR", "br", "بي ار", "بى ار", "بي آر", "B.R."}
	for _, v := range br {
		assert.Equal(t, LabelBR, Normalize(v), "variant %q", v)
	}
}

func TestNormalizeKeepsCanonicalArabicLabels(t *testing.T) {
	// Snapshots keep the shop's Arabic spelling even for transliterated
	// input; only Bucket collapses to the dispatch key.
	assert.Equal(t, "ابوغالي", Normalize("Abogali"))
	assert.Equal(t, "بيار", Normalize("b.r"))

	b, ok := Bucket("ابوغالي")
	assert.True(t, ok)
	assert.Equal(t, BucketAbogali, b)
}

func TestNormalizePassthrough(t *testing.T) {
	assert.Equal(t, "", Normalize("  "))
	assert.Equal(t, "copper pipes", Normalize(" Copper Pipes "))
	assert.Equal(t, "مواسير", Normalize("مواسير"))
}

func TestBucket(t *testing.T) {
	b, ok := Bucket("ابو غالي")
	assert.True(t, ok)
	assert.Equal(t, BucketAbogali, b)

	_, ok = Bucket("copper pipes")
	assert.False(t, ok)
	_, ok = Bucket("")
	assert.False(t, ok)
}
