// Package scoring ranks recognition candidates with a domain heuristic. Scores
// are only meaningful relative to other candidates from the same call.
package scoring

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/joseph-ayodele/lyrics-extractor/internal/lexicon"
)

// Tier is a threshold/bonus pair; the first tier whose threshold is exceeded applies.
type Tier struct {
	Over  int
	Bonus float64
}

// Profile holds the scoring weights.
type Profile struct {
	MinRunes        int // shorter trimmed texts score 0
	Base            float64
	LengthTiers     []Tier
	MixedScript     float64
	BalancedScript  float64
	BalanceLow      float64
	BalanceHigh     float64
	LineTiers       []Tier
	Punctuation     float64
	TermWeight      float64
	TermCap         float64
	DiacriticWeight float64
	DiacriticCap    float64
	JunkRatio       float64
	JunkPenalty     float64
	DigitRatio      float64
	DigitPenalty    float64
	Max             float64
}

// DefaultProfile returns the tuned weights.
func DefaultProfile() Profile {
	return Profile{
		MinRunes:        5,
		Base:            0.5,
		LengthTiers:     []Tier{{500, 0.6}, {300, 0.5}, {200, 0.4}, {100, 0.3}, {50, 0.2}},
		MixedScript:     0.6,
		BalancedScript:  0.3,
		BalanceLow:      0.1,
		BalanceHigh:     0.8,
		LineTiers:       []Tier{{15, 0.4}, {10, 0.3}, {5, 0.2}, {2, 0.1}},
		Punctuation:     0.15,
		TermWeight:      0.05,
		TermCap:         0.3,
		DiacriticWeight: 0.01,
		DiacriticCap:    0.2,
		JunkRatio:       0.1,
		JunkPenalty:     0.2,
		DigitRatio:      0.2,
		DigitPenalty:    0.1,
		Max:             10,
	}
}

const sentenceMarks = "।॥.?!"

// Scorer is a pure function of its profile, lexicon and input text.
type Scorer struct {
	profile Profile
	lex     *lexicon.Lexicon
}

// NewScorer creates a scorer. A nil lexicon uses the embedded default.
func NewScorer(p Profile, lex *lexicon.Lexicon) *Scorer {
	if lex == nil {
		lex = lexicon.Default()
	}
	return &Scorer{profile: p, lex: lex}
}

// Score returns a value in [0, profile.Max].
func (s *Scorer) Score(text string) float64 {
	p := s.profile
	if utf8.RuneCountInString(strings.TrimSpace(text)) < p.MinRunes {
		return 0
	}

	total := utf8.RuneCountInString(text)
	score := p.Base
	score += tierBonus(p.LengthTiers, total)

	var deva, latin, diacritics, junk, digits int
	for _, r := range text {
		if IsDevanagari(r) {
			deva++
		} else if IsLatinLetter(r) {
			latin++
		}
		// Devanagari digits count here too.
		if unicode.IsDigit(r) {
			digits++
		}
		if strings.ContainsRune(s.lex.ScoreDiacritics, r) {
			diacritics++
		}
		if strings.ContainsRune(s.lex.Junk, r) {
			junk++
		}
	}

	if deva > 0 && latin > 0 {
		score += p.MixedScript
		df := float64(deva) / float64(total)
		lf := float64(latin) / float64(total)
		if inRange(df, p.BalanceLow, p.BalanceHigh) && inRange(lf, p.BalanceLow, p.BalanceHigh) {
			score += p.BalancedScript
		}
	}

	score += tierBonus(p.LineTiers, nonBlankLines(text))

	if strings.ContainsAny(text, sentenceMarks) {
		score += p.Punctuation
	}

	lower := strings.ToLower(text)
	terms := 0
	for _, term := range s.lex.ScoreTerms {
		if strings.Contains(lower, term) {
			terms++
		}
	}
	if terms > 0 {
		score += min(p.TermCap, float64(terms)*p.TermWeight)
	}
	if diacritics > 0 {
		score += min(p.DiacriticCap, float64(diacritics)*p.DiacriticWeight)
	}

	if float64(junk) > float64(total)*p.JunkRatio {
		score -= p.JunkPenalty
	}
	if float64(digits) > float64(total)*p.DigitRatio {
		score -= p.DigitPenalty
	}
	return min(p.Max, max(0, score))
}

// IsDevanagari reports whether r is in the Devanagari block U+0900–U+097F.
func IsDevanagari(r rune) bool { return r >= 0x0900 && r <= 0x097F }

// IsLatinLetter reports whether r is an ASCII letter.
func IsLatinLetter(r rune) bool { return r < utf8.RuneSelf && unicode.IsLetter(r) }

func tierBonus(tiers []Tier, n int) float64 {
	for _, t := range tiers {
		if n > t.Over {
			return t.Bonus
		}
	}
	return 0
}

func inRange(v, lo, hi float64) bool { return v >= lo && v <= hi }

func nonBlankLines(text string) int {
	n := 0
	for _, ln := range strings.Split(text, "\n") {
		if strings.TrimSpace(ln) != "" {
			n++
		}
	}
	return n
}
