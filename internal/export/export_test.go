package export

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestCSV(t *testing.T) {
	rows := []LyricRow{
		{Hindi: "हरि बोल", Transliteration: "hari bol", Translation: `Say "Hari"`},
		{Hindi: "राधे राधे", Translation: "Radha"},
	}
	got := CSV("Kirtan", rows)
	want := "\"Kirtan\",\n" +
		"\"हरि बोल\nhari bol\",\"Say \"\"Hari\"\"\"\n" +
		"\"राधे राधे\",\"Radha\""
	if got != want {
		t.Fatalf("CSV mismatch:\n got %q\nwant %q", got, want)
	}
	if CSV("", rows[1:]) != "\"राधे राधे\",\"Radha\"" {
		t.Fatalf("title row must be omitted when empty: %q", CSV("", rows[1:]))
	}
	if CSV("", nil) != "" {
		t.Fatal("no rows and no title must yield empty output")
	}
}

func TestSplitVerses(t *testing.T) {
	text := "हरि बोल\nhari bol\nsay hari\n\nराधे राधे\nradhe radhe\nगोविंद\nstray english\nanother"
	rows := SplitVerses(text)
	want := []LyricRow{
		{Hindi: "हरि बोल", Transliteration: "hari bol", Translation: "say hari"},
		{Hindi: "राधे राधे", Transliteration: "radhe radhe"},
		{Hindi: "गोविंद", Transliteration: "stray english", Translation: "another"},
	}
	if len(rows) != len(want) {
		t.Fatalf("expected %d rows, got %d: %+v", len(want), len(rows), rows)
	}
	for i := range want {
		if rows[i] != want[i] {
			t.Errorf("row %d = %+v, want %+v", i, rows[i], want[i])
		}
	}
}

func TestSplitVersesLatinOnly(t *testing.T) {
	rows := SplitVerses("one\ntwo\r\n\n three ")
	if len(rows) != 3 || rows[0].Hindi != "one" || rows[1].Hindi != "two" || rows[2].Hindi != "three" {
		t.Fatalf("unexpected rows: %+v", rows)
	}
}

func TestXLSX(t *testing.T) {
	rows := []LyricRow{
		{Hindi: "हरि बोल", Transliteration: "hari bol", Translation: "say hari"},
		{Hindi: "राधे", Translation: "radha"},
	}
	data, err := XLSX(context.Background(), "Kirtan: Evening/1", rows, nil)
	if err != nil {
		t.Fatalf("XLSX: %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 1 || sheets[0] != "Kirtan Evening1" {
		t.Fatalf("unexpected sheets: %v", sheets)
	}
	check := func(cell, want string) {
		t.Helper()
		got, err := f.GetCellValue(sheets[0], cell)
		if err != nil {
			t.Fatalf("GetCellValue(%s): %v", cell, err)
		}
		if got != want {
			t.Fatalf("%s = %q, want %q", cell, got, want)
		}
	}
	check("A1", "Kirtan: Evening/1")
	check("A2", "हरि बोल\nhari bol")
	check("B2", "say hari")
	check("A3", "राधे")
	check("B3", "radha")
}

func TestWorkbookUniqueSheets(t *testing.T) {
	wb, err := NewWorkbook(nil)
	if err != nil {
		t.Fatalf("NewWorkbook: %v", err)
	}
	defer wb.Close()

	long := strings.Repeat("b", 40)
	var names []string
	for _, title := range []string{"bhajan", "Bhajan", "", long, long} {
		name, err := wb.AddSheet(title, []LyricRow{{Hindi: "x"}})
		if err != nil {
			t.Fatalf("AddSheet(%q): %v", title, err)
		}
		names = append(names, name)
	}
	want := []string{"bhajan", "Bhajan (2)", "Lyrics", strings.Repeat("b", 31), strings.Repeat("b", 27) + " (2)"}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("sheet %d = %q, want %q", i, names[i], want[i])
		}
	}
	if _, err := wb.Bytes(); err != nil {
		t.Fatalf("Bytes: %v", err)
	}
}

func TestEmptyWorkbook(t *testing.T) {
	wb, err := NewWorkbook(nil)
	if err != nil {
		t.Fatal(err)
	}
	defer wb.Close()
	data, err := wb.Bytes()
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if got := f.GetSheetList(); len(got) != 1 || got[0] != "Lyrics" {
		t.Fatalf("unexpected sheets: %v", got)
	}
}
