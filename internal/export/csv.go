package export

import "strings"

// CSV renders rows in the lyric-sheet layout: an optional `"title",` row,
// then `"hindi\ntransliteration","translation"` per row. Every field is
// quoted and rows are joined by a bare newline.
func CSV(title string, rows []LyricRow) string {
	lines := make([]string, 0, len(rows)+1)
	if title != "" {
		lines = append(lines, quote(title)+",")
	}
	for _, r := range rows {
		lines = append(lines, quote(r.Cell())+","+quote(r.Translation))
	}
	return strings.Join(lines, "\n")
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
