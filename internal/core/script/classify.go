// Package script repairs Devanagari/Latin confusions in recognised verse and
// converts transliterated lines to Devanagari.
package script

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/joseph-ayodele/lyrics-extractor/internal/lexicon"
)

// Class is the handling chosen for a line.
type Class int

const (
	// Unchanged lines are pure Devanagari, blank, or unclassifiable.
	Unchanged Class = iota
	// Diacritic lines are transliteration with extended-Latin marks.
	Diacritic
	// PlainTransliteration lines are ASCII that reads like transliterated verse.
	PlainTransliteration
	// Mixed lines hold Devanagari with stray Latin letters.
	Mixed
)

func (c Class) String() string {
	switch c {
	case Diacritic:
		return "diacritic"
	case PlainTransliteration:
		return "plain-transliteration"
	case Mixed:
		return "mixed"
	default:
		return "unchanged"
	}
}

const (
	maxDiacriticRunes = 100
	maxPlainRunes     = 80
	vocabularyRatio   = 0.3
)

// Features are the per-line facts the class is derived from. They are always
// computed from the line as it is now.
type Features struct {
	Devanagari bool
	Latin      bool
	Diacritics bool
	LongWords  bool // some whitespace-separated word is all letters and longer than 2
	Runes      int
}

// Classifier decides how each line is handled.
type Classifier struct {
	lex *lexicon.Lexicon
}

// NewClassifier creates a classifier. A nil lexicon uses the embedded default.
func NewClassifier(lex *lexicon.Lexicon) *Classifier {
	if lex == nil {
		lex = lexicon.Default()
	}
	return &Classifier{lex: lex}
}

// Features inspects a trimmed line.
func (c *Classifier) Features(line string) Features {
	f := Features{Runes: utf8.RuneCountInString(line)}
	for _, r := range line {
		switch {
		case isDevanagari(r):
			f.Devanagari = true
		case isLatinLetter(r):
			f.Latin = true
		}
		if strings.ContainsRune(c.lex.LineDiacritics, r) {
			f.Diacritics = true
		}
	}
	for _, w := range strings.Fields(line) {
		if utf8.RuneCountInString(w) > 2 && allLetters(w) {
			f.LongWords = true
			break
		}
	}
	return f
}

// Classify returns the handling for a trimmed line.
func (c *Classifier) Classify(line string) Class {
	if line == "" {
		return Unchanged
	}
	f := c.Features(line)
	switch {
	case f.Diacritics && !f.Devanagari && f.Runes < maxDiacriticRunes:
		return Diacritic
	case f.Latin && !f.Devanagari && f.LongWords && f.Runes < maxPlainRunes && c.LooksLikeTransliteration(line):
		return PlainTransliteration
	case f.Devanagari && f.Latin:
		return Mixed
	default:
		return Unchanged
	}
}

// LooksLikeTransliteration reports whether more than 30% of the words are
// known devotional vocabulary.
func (c *Classifier) LooksLikeTransliteration(text string) bool {
	words := strings.Fields(strings.ToLower(text))
	if len(words) == 0 {
		return false
	}
	hits := 0
	for _, w := range words {
		if c.lex.InVocabulary(w) {
			hits++
		}
	}
	return float64(hits)/float64(len(words)) > vocabularyRatio
}

func isDevanagari(r rune) bool { return r >= 0x0900 && r <= 0x097F }

func isLatinLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func allLetters(w string) bool {
	for _, r := range w {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
