package series

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/riskibarqy/dota2-results/internal/domain/lobby"
)

func TestDisplay_GlyphCountAndOrientation(t *testing.T) {
	for format := 1; format <= 3; format++ {
		for wins := 0; wins <= format+1; wins++ {
			for side := 0; side <= 1; side++ {
				got := Display(wins, format, side)
				if n := utf8.RuneCountInString(got); n != format+1 {
					t.Fatalf("format=%d wins=%d side=%d: expected %d glyphs, got %d (%q)", format, wins, side, format+1, n, got)
				}
				if n := strings.Count(got, FilledGlyph); n != wins {
					t.Fatalf("format=%d wins=%d side=%d: expected %d filled, got %d", format, wins, side, wins, n)
				}
			}
		}
	}

	if got := Display(1, 2, 0); got != "◌◌●" {
		t.Fatalf("expected empties prepended for side 0, got %q", got)
	}
	if got := Display(1, 2, 1); got != "●◌◌" {
		t.Fatalf("expected empties appended for side 1, got %q", got)
	}
	if got := Display(1, 0, 0); got != "" {
		t.Fatalf("expected empty display without a series, got %q", got)
	}
}

func TestKey(t *testing.T) {
	if got := Key(555, lobby.TeamPair{A: 1, B: 2}, 9); got != "555" {
		t.Fatalf("unexpected key %q", got)
	}
	a := Key(0, lobby.TeamPair{A: 20, B: 10}, 9)
	b := Key(0, lobby.TeamPair{A: 10, B: 20}, 9)
	if a != b || a != "10-20@9" {
		t.Fatalf("expected order independent synthetic key, got %q and %q", a, b)
	}
}

func TestState_Decided(t *testing.T) {
	s := State{Format: 1, Wins: map[int64]int{1: 1, 2: 1}}
	if s.Decided() {
		t.Fatalf("1-1 in a best-of-3 is not decided")
	}
	s.Wins[1] = 2
	if !s.Decided() {
		t.Fatalf("2-1 in a best-of-3 is decided")
	}
}
