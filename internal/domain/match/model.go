package match

import "github.com/riskibarqy/dota2-results/internal/domain/lobby"

// Stub is one entry from the league match-history feed.
type Stub struct {
	MatchID       int64 `json:"match_id"`
	LeagueID      int64 `json:"league_id"`
	SeriesID      int64 `json:"series_id"`
	SeriesType    int   `json:"series_type"`
	RadiantTeamID int64 `json:"radiant_team_id"`
	DireTeamID    int64 `json:"dire_team_id"`
	StartTime     int64 `json:"start_time"`
}

func (s Stub) TeamPair() lobby.TeamPair {
	return lobby.TeamPair{A: s.RadiantTeamID, B: s.DireTeamID}
}

type TeamInfo struct {
	ID   int64  `json:"team_id"`
	Name string `json:"name"`
	Tag  string `json:"tag"`
	Logo int64  `json:"logo"`
}

type Player struct {
	AccountID int64 `json:"account_id"`
	Slot      int   `json:"player_slot"`
	HeroID    int   `json:"hero_id"`
	Kills     int   `json:"kills"`
	Deaths    int   `json:"deaths"`
	Assists   int   `json:"assists"`
}

// Details is the authoritative record for a finished match.
type Details struct {
	MatchID    int64    `json:"match_id"`
	LeagueID   int64    `json:"league_id"`
	Duration   int      `json:"duration"`
	RadiantWin bool     `json:"radiant_win"`
	Radiant    TeamInfo `json:"radiant"`
	Dire       TeamInfo `json:"dire"`
	Players    []Player `json:"players"`
	// Invalid is set when upstream reports the match as abandoned or unusable.
	Invalid bool `json:"invalid"`
}

// TeamResult is one side of a reconciled match. Index 0 is radiant.
type TeamResult struct {
	ID          int64      `json:"team_id"`
	Name        string     `json:"name"`
	Side        lobby.Side `json:"side"`
	Score       int        `json:"score"`
	Winner      bool       `json:"winner"`
	DisplayName string     `json:"display_name"`
	SeriesWins  int        `json:"series_wins"`
	WinsDisplay string     `json:"wins_display"`
}

// Result is a finished match merged with whatever live context was tracked.
type Result struct {
	MatchID    int64         `json:"match_id"`
	LeagueID   int64         `json:"league_id"`
	LeagueName string        `json:"league_name"`
	LeagueTier int           `json:"league_tier"`
	Duration   int           `json:"duration"`
	SeriesType int           `json:"series_type"`
	Teams      [2]TeamResult `json:"teams"`
	Lobby      *lobby.State  `json:"lobby,omitempty"`
}

func (r Result) TeamPair() lobby.TeamPair {
	return lobby.TeamPair{A: r.Teams[0].ID, B: r.Teams[1].ID}
}

func (r Result) WinnerID() int64 {
	if r.Teams[1].Winner {
		return r.Teams[1].ID
	}
	return r.Teams[0].ID
}
