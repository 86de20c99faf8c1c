package scoring

import (
	"fmt"
	"sort"

	"github.com/joseph-ayodele/lyrics-extractor/internal/common"
	"github.com/joseph-ayodele/lyrics-extractor/internal/core/ocr"
)

// ErrNoCandidates means there was nothing to select from.
var ErrNoCandidates = fmt.Errorf("no candidates: %w", common.ErrNoText)

// ScoreAll fills in Score on every candidate. The untrimmed output is scored
// when present, so surrounding whitespace counts toward length and ratios.
func (s *Scorer) ScoreAll(cands []ocr.Candidate) {
	for i := range cands {
		text := cands[i].Raw
		if text == "" {
			text = cands[i].Text
		}
		cands[i].Score = s.Score(text)
	}
}

// Rank returns the candidates sorted by score, highest first. Equal scores
// keep discovery order. The input slice is not modified.
func Rank(cands []ocr.Candidate) []ocr.Candidate {
	out := make([]ocr.Candidate, len(cands))
	copy(out, cands)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

// Select returns the single best candidate.
func Select(cands []ocr.Candidate) (ocr.Candidate, error) {
	if len(cands) == 0 {
		return ocr.Candidate{}, ErrNoCandidates
	}
	return Rank(cands)[0], nil
}
