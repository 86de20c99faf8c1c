package script

import (
	"strings"
	"unicode"

	"github.com/joseph-ayodele/lyrics-extractor/internal/lexicon"
)

// trailingPunct is stripped before lookup and re-attached afterwards.
const trailingPunct = ".,;:!?"

// maxUnit is the longest map key tried by the greedy scan.
const maxUnit = 3

// Transliterator converts Latin transliteration to Devanagari with the
// lexicon table. It never fails: unknown characters pass through.
type Transliterator struct {
	lex *lexicon.Lexicon
}

// NewTransliterator creates a transliterator. A nil lexicon uses the embedded default.
func NewTransliterator(lex *lexicon.Lexicon) *Transliterator {
	if lex == nil {
		lex = lexicon.Default()
	}
	return &Transliterator{lex: lex}
}

// Transliterate converts each whitespace-separated word and joins them with
// single spaces. Words holding Devanagari pass through unnormalised.
func (t *Transliterator) Transliterate(text string) string {
	words := strings.Fields(text)
	out := make([]string, len(words))
	for i, w := range words {
		out[i] = t.Word(lexicon.NormalizeLatin(w))
	}
	return strings.Join(out, " ")
}

// Word converts one word: whole-word lookup first, then longest match of 3,
// 2 and 1 characters at each position.
func (t *Transliterator) Word(word string) string {
	stem := strings.TrimRight(word, trailingPunct)
	suffix := word[len(stem):]

	orig := []rune(stem)
	lower := make([]rune, len(orig))
	for i, r := range orig {
		lower[i] = unicode.ToLower(r)
	}

	if v, ok := t.lex.Lookup(string(lower)); ok {
		return v + suffix
	}

	var b strings.Builder
	for i := 0; i < len(lower); {
		matched := false
		for n := maxUnit; n >= 1; n-- {
			if i+n > len(lower) {
				continue
			}
			if v, ok := t.lex.Lookup(string(lower[i : i+n])); ok {
				b.WriteString(v)
				i += n
				matched = true
				break
			}
		}
		if !matched {
			b.WriteRune(orig[i])
			i++
		}
	}
	b.WriteString(suffix)
	return b.String()
}
