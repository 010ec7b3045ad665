package chat

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize lower-cases s, strips accents and collapses whitespace so that
// "Não  Vou" and "nao vou" compare equal
func Normalize(s string) string {
	// Chained transformers keep state, so build one per call
	folder := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(folder, s)
	if err != nil {
		folded = s
	}
	return strings.Join(strings.Fields(strings.ToLower(folded)), " ")
}

func words(s string) []string {
	return strings.FieldsFunc(Normalize(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// ContainsPhrase reports whether text contains phrase as whole words, ignoring
// case, accents and punctuation
func ContainsPhrase(text, phrase string) bool {
	needle := strings.Join(words(phrase), " ")
	if needle == "" {
		return false
	}
	haystack := " " + strings.Join(words(text), " ") + " "
	return strings.Contains(haystack, " "+needle+" ")
}

// IsPhrase reports whether the whole of text is phrase, ignoring case, accents
// and punctuation
func IsPhrase(text, phrase string) bool {
	needle := strings.Join(words(phrase), " ")
	return needle != "" && strings.Join(words(text), " ") == needle
}
