package domain

import (
	"strings"
	"unicode"
)

// Normalize returns the canonical display form of a product name.
//
// Runes other than letters, digits, '_', '/' and whitespace become a space.
// The first token and every token longer than three runes are capitalized,
// the remaining tokens are lower-cased. Whitespace between tokens is kept
// as is; the result is trimmed.
func Normalize(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))

	var token []rune
	first := true
	flush := func() {
		if len(token) == 0 {
			return
		}
		b.WriteString(capWord(token, first))
		first = false
		token = token[:0]
	}

	for _, r := range raw {
		if !keepRune(r) {
			r = ' '
		}
		if unicode.IsSpace(r) {
			flush()
			b.WriteRune(r)
			continue
		}
		token = append(token, r)
	}
	flush()

	return strings.TrimSpace(b.String())
}

func keepRune(r rune) bool {
	return r == '_' || r == '/' ||
		unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r) ||
		unicode.IsSpace(r)
}

func capWord(word []rune, isFirst bool) string {
	out := make([]rune, len(word))
	for i, r := range word {
		out[i] = unicode.ToLower(r)
	}
	if isFirst || len(word) > 3 {
		out[0] = unicode.ToTitle(word[0])
	}
	return string(out)
}
