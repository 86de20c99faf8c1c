// Package export renders lyric sheets as CSV and XLSX.
package export

import (
	"strings"
	"unicode"
)

// LyricRow is one verse line with its romanisation and meaning.
type LyricRow struct {
	Hindi           string `json:"hindi"`
	Transliteration string `json:"transliteration"`
	Translation     string `json:"translation"`
}

// Cell is the first column: Hindi, then the transliteration on its own line.
func (r LyricRow) Cell() string {
	if r.Transliteration == "" {
		return r.Hindi
	}
	return r.Hindi + "\n" + r.Transliteration
}

// SplitVerses groups extracted text into rows. A Devanagari line opens a
// row; the next Latin line is its transliteration and the one after that
// its translation. A blank line closes the current row. Latin lines with
// no open row become rows of their own.
func SplitVerses(text string) []LyricRow {
	var (
		rows []LyricRow
		cur  *LyricRow
		fill int // 0 = transliteration next, 1 = translation next, 2 = full
	)
	flush := func() {
		if cur != nil {
			rows = append(rows, *cur)
			cur = nil
		}
	}
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			flush()
			continue
		}
		if hasDevanagari(line) || cur == nil || fill == 2 {
			flush()
			cur = &LyricRow{Hindi: line}
			fill = 0
			if !hasDevanagari(line) {
				fill = 2
			}
			continue
		}
		if fill == 0 {
			cur.Transliteration = line
		} else {
			cur.Translation = line
		}
		fill++
	}
	flush()
	return rows
}

func hasDevanagari(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Devanagari, r) {
			return true
		}
	}
	return false
}
