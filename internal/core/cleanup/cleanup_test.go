package cleanup

import (
	"testing"

	"github.com/joseph-ayodele/lyrics-extractor/internal/lexicon"
)

func TestClean(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"doubled danda", "हरि।।", "हरि।"},
		{"doubled double danda", "राधे॥॥", "राधे॥"},
		{"danda run", "हरि।।।।", "हरि।"},
		{"single pipe", "हरि बोल |", "हरि बोल ।"},
		{"double pipe", "हरि बोल ||", "हरि बोल ॥"},
		{"spaces", "हरि    बोल\tराधे", "हरि बोल राधे"},
		{"blank lines dropped", "\n  पहली  \n\n\r\nदूसरी\n  ", "पहली\nदूसरी"},
		{"ligature", "अाज अौर", "आज और"},
		{"chained ligature", "अाे", "आे"},
		{"empty", "   \n  ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Clean(tt.in); got != tt.want {
				t.Fatalf("Clean(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCleanIdempotent(t *testing.T) {
	inputs := []string{
		"हरि।।",
		"हरि बोल || राधे | |",
		"a  b\t\tc ।।।  ॥॥॥",
		"अाज\n\n  अौर ||||\r\nkripalu   ji",
		"|||",
		"।॥।॥",
	}
	for _, in := range inputs {
		once := Clean(in)
		if twice := Clean(once); twice != once {
			t.Errorf("not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestPipelineOrder(t *testing.T) {
	var seen []string
	step := func(name string) LineTransform {
		return func(s string) string {
			seen = append(seen, name)
			return s
		}
	}
	NewPipeline(step("a"), step("b")).Clean("x")
	if len(seen) != 2 || seen[0] != "a" || seen[1] != "b" {
		t.Fatalf("steps ran as %v", seen)
	}
}

func TestFixLigaturesCustom(t *testing.T) {
	fix := FixLigatures([]lexicon.Ligature{{From: "xx", To: "x"}})
	if got := fix("xxxx"); got != "x" {
		t.Fatalf("got %q, want x", got)
	}
}

func TestCleanKeepsNuktaLetters(t *testing.T) {
	// U+095D and U+095B are precomposed; normalisation would split them.
	padho := "\u092a\u095d\u094b"
	zara := "\u095b\u0930\u093e"
	tests := []struct {
		in   string
		want string
	}{
		{padho, padho},
		{"  " + zara + "   " + padho + " ||", zara + " " + padho + " ॥"},
	}
	for _, tt := range tests {
		if got := Clean(tt.in); got != tt.want {
			t.Errorf("Clean(%q) = % x, want % x", tt.in, got, tt.want)
		}
	}
}
