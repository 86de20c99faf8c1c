// Package lexicon holds the devotional vocabulary, transliteration table and
// character sets shared by the scorer, the cleanup pipeline and the script
// corrector.
package lexicon

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"sync"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML []byte

// Ligature is an exact-string OCR repair. Both sides are used byte for byte.
type Ligature struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// Lexicon is read-only after Parse returns and safe to share across goroutines.
type Lexicon struct {
	Vocabulary      []string
	ScoreTerms      []string
	ScoreDiacritics string
	LineDiacritics  string
	Junk            string
	Ligatures       []Ligature

	translit map[string]string
	vocab    map[string]struct{}
}

type lexiconFile struct {
	Transliteration map[string]string `yaml:"transliteration"`
	Vocabulary      []string          `yaml:"vocabulary"`
	ScoreTerms      []string          `yaml:"score_terms"`
	ScoreDiacritics string            `yaml:"score_diacritics"`
	LineDiacritics  string            `yaml:"line_diacritics"`
	Junk            string            `yaml:"junk"`
	Ligatures       []Ligature        `yaml:"ligatures"`
}

var defaultLexicon = sync.OnceValue(func() *Lexicon {
	lx, err := Parse(defaultYAML)
	if err != nil {
		panic(fmt.Sprintf("lexicon: embedded default invalid: %v", err))
	}
	return lx
})

// Default returns the process-wide embedded lexicon. The YAML is parsed on
// first use. It panics only if the embedded file is malformed, which the
// package tests rule out.
func Default() *Lexicon {
	return defaultLexicon()
}

// Load reads a lexicon from path, or returns the embedded default when path is empty.
func Load(path string) (*Lexicon, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read lexicon %s: %w", path, err)
	}
	lx, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse lexicon %s: %w", path, err)
	}
	return lx, nil
}

// NormalizeLatin composes combining marks (NFC) in text without Devanagari.
// Text containing Devanagari is returned unchanged: NFC decomposes the nukta
// letters U+0958..U+095F.
func NormalizeLatin(s string) string {
	if strings.IndexFunc(s, isDevanagari) >= 0 {
		return s
	}
	return norm.NFC.String(s)
}

func isDevanagari(r rune) bool { return r >= 0x0900 && r <= 0x097F }

// Parse decodes and validates a YAML lexicon. Latin keys and terms are
// normalised and lower-cased so lookups can assume both; Devanagari values and
// ligatures are kept exactly as written.
func Parse(data []byte) (*Lexicon, error) {
	var raw lexiconFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	if len(raw.Transliteration) == 0 {
		return nil, fmt.Errorf("transliteration table is empty")
	}
	if len(raw.Vocabulary) == 0 {
		return nil, fmt.Errorf("vocabulary is empty")
	}

	lx := &Lexicon{
		ScoreDiacritics: NormalizeLatin(raw.ScoreDiacritics),
		LineDiacritics:  NormalizeLatin(raw.LineDiacritics),
		Junk:            raw.Junk,
		translit:        make(map[string]string, len(raw.Transliteration)),
		vocab:           make(map[string]struct{}, len(raw.Vocabulary)),
	}
	for k, v := range raw.Transliteration {
		key := strings.ToLower(NormalizeLatin(k))
		if key == "" || v == "" {
			return nil, fmt.Errorf("transliteration entry %q: empty key or value", k)
		}
		lx.translit[key] = v
	}
	for _, w := range raw.Vocabulary {
		w = strings.ToLower(NormalizeLatin(strings.TrimSpace(w)))
		if w == "" {
			continue
		}
		lx.Vocabulary = append(lx.Vocabulary, w)
		lx.vocab[w] = struct{}{}
	}
	for _, w := range raw.ScoreTerms {
		if w = strings.ToLower(NormalizeLatin(strings.TrimSpace(w))); w != "" {
			lx.ScoreTerms = append(lx.ScoreTerms, w)
		}
	}
	for _, l := range raw.Ligatures {
		if l.From == "" {
			return nil, fmt.Errorf("ligature with empty source")
		}
		// A replacement must shrink the text or repeated application never settles.
		if utf8.RuneCountInString(l.To) >= utf8.RuneCountInString(l.From) {
			return nil, fmt.Errorf("ligature %q -> %q must shorten the text", l.From, l.To)
		}
		lx.Ligatures = append(lx.Ligatures, l)
	}
	return lx, nil
}

// Lookup returns the Devanagari for an exact lower-case key.
func (l *Lexicon) Lookup(key string) (string, bool) {
	v, ok := l.translit[key]
	return v, ok
}

// Entries reports the size of the transliteration table.
func (l *Lexicon) Entries() int { return len(l.translit) }

// InVocabulary reports whether a lower-case word is a known transliterated term.
func (l *Lexicon) InVocabulary(word string) bool {
	_, ok := l.vocab[word]
	return ok
}
