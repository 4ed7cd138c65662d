package series

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/riskibarqy/dota2-results/internal/domain/lobby"
)

const (
	FilledGlyph = "●"
	EmptyGlyph  = "◌"
)

// State tracks a best-of series. Format is the number of games needed to win
// minus one, so a best-of-3 has Format 1.
type State struct {
	Key    string         `json:"key"`
	Format int            `json:"format"`
	Wins   map[int64]int  `json:"wins"`
	Teams  lobby.TeamPair `json:"teams"`
	// Games holds the match ids already counted toward Wins.
	Games []int64 `json:"games"`
	// Settled marks a decided series that is hidden from listings but still
	// answers for its counted games until it goes stale.
	Settled   bool      `json:"settled,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s State) HasGame(matchID int64) bool {
	return matchID != 0 && slices.Contains(s.Games, matchID)
}

func (s State) WinsNeeded() int {
	return s.Format + 1
}

func (s State) MaxWins() int {
	best := 0
	for _, w := range s.Wins {
		best = max(best, w)
	}
	return best
}

func (s State) Decided() bool {
	return s.Format > 0 && s.MaxWins() >= s.WinsNeeded()
}

// Status is the outward view of a series after a game is recorded. Index 0
// is the first-listed (radiant) team.
type Status struct {
	Wins    [2]int    `json:"wins"`
	Display [2]string `json:"display"`
}

// Key returns the series id when present, else a key derived from the team
// pair and league so both orientations of a pairing share one series.
func Key(seriesID int64, pair lobby.TeamPair, leagueID int64) string {
	if seriesID > 0 {
		return fmt.Sprintf("%d", seriesID)
	}
	ordered := pair.Ordered()
	return fmt.Sprintf("%d-%d@%d", ordered.A, ordered.B, leagueID)
}

// Display renders wins as filled glyphs padded to format+1 slots. Empties sit
// away from the team name: prepended for side 0, appended for side 1.
func Display(wins, format, side int) string {
	if format <= 0 {
		return ""
	}
	slots := format + 1
	wins = min(max(wins, 0), slots)

	filled := strings.Repeat(FilledGlyph, wins)
	empty := strings.Repeat(EmptyGlyph, slots-wins)
	if side == 0 {
		return empty + filled
	}
	return filled + empty
}
