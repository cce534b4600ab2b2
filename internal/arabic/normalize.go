package arabic

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Arabic text arrives from clients in many visually-equivalent spellings:
// hamza-carrying alef forms, tāʾ marbūṭa vs hāʾ, alef maksūra vs yāʾ, and
// optional diacritics. Search must treat all of them as the same word, while
// stored text stays untouched for display.

// foldLetters maps letter variants to a canonical base form after the
// hamza/madda marks have been stripped by the NFD + mark-removal pass.
var foldLetters = runes.Map(func(r rune) rune {
	switch r {
	case 'ة': // tāʾ marbūṭa -> hāʾ
		return 'ه'
	case 'ى': // alef maksūra -> yāʾ
		return 'ي'
	}
	return r
})

// tatweel carries no meaning, it only stretches the glyph joining line.
var dropTatweel = runes.Remove(runes.Predicate(func(r rune) bool { return r == 'ـ' }))

// normalizer decomposes, drops combining marks (Arabic diacritics and the
// hamza/madda carried by alef variants), recomposes, then folds letters.
var normalizer = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
	foldLetters,
	dropTatweel,
)

// Normalize returns the canonical search form of s: letter variants folded,
// diacritics removed, case lowered and whitespace collapsed. It is applied to
// both sides of every comparison and never to stored display text.
func Normalize(s string) string {
	out, _, err := transform.String(normalizer, s)
	if err != nil {
		out = s
	}
	out = strings.ToLower(out)
	return strings.Join(strings.Fields(out), " ")
}

// sqlReplacements is the portable subset of Normalize expressible as nested
// REPLACE calls, used when the comparison has to happen inside the database.
// Order matters only in that multi-form letters come before mark stripping.
var sqlReplacements = [][2]string{
	{"أ", "ا"},
	{"إ", "ا"},
	{"آ", "ا"},
	{"ٱ", "ا"},
	{"ة", "ه"},
	{"ى", "ي"},
	{"ؤ", "و"},
	{"ئ", "ي"},
	{"ـ", ""},
	{"ً", ""}, // fathatan
	{"ٌ", ""}, // dammatan
	{"ٍ", ""}, // kasratan
	{"َ", ""}, // fatha
	{"ُ", ""}, // damma
	{"ِ", ""}, // kasra
	{"ّ", ""}, // shadda
	{"ْ", ""}, // sukun
}

// SQLNormalize wraps a column reference in the REPLACE chain so stored text
// can be compared in its normalized form without a shadow column.
func SQLNormalize(column string) string {
	expr := column
	for _, r := range sqlReplacements {
		expr = fmt.Sprintf("REPLACE(%s, '%s', '%s')", expr, r[0], r[1])
	}
	return "LOWER(" + expr + ")"
}
