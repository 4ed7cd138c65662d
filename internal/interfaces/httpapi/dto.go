package httpapi

import (
	"time"

	"github.com/riskibarqy/dota2-results/internal/domain/lobby"
)

type lobbyDTO struct {
	LobbyID     int64     `json:"lobby_id"`
	LeagueID    int64     `json:"league_id"`
	MatchID     int64     `json:"match_id,omitempty"`
	Radiant     string    `json:"radiant"`
	Dire        string    `json:"dire"`
	Duration    int       `json:"duration"`
	Score       [2]int    `json:"score"`
	GoldSamples int       `json:"gold_samples"`
	EventCount  int       `json:"event_count"`
	Finished    bool      `json:"finished"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type lobbyDetailDTO struct {
	lobbyDTO
	GoldHistory []lobby.GoldEntry `json:"gold_history"`
	Events      []lobby.Event     `json:"events"`
	Draft       lobby.Draft       `json:"draft"`
}

type leagueDTO struct {
	ID                 int64  `json:"id"`
	Name               string `json:"name"`
	Tier               int    `json:"tier"`
	StreamDelaySeconds int    `json:"stream_delay_seconds"`
	Tracked            bool   `json:"tracked"`
	SeenMatches        int    `json:"seen_matches"`
}

func toLobbyDTO(state lobby.State) lobbyDTO {
	radiant, dire := state.TeamNames()
	out := lobbyDTO{
		LobbyID:     state.LobbyID,
		LeagueID:    state.LeagueID,
		MatchID:     state.MatchID,
		Radiant:     radiant,
		Dire:        dire,
		Duration:    state.LastTimestamp,
		GoldSamples: len(state.GoldHistory),
		EventCount:  len(state.Events),
		Finished:    state.Finished,
		UpdatedAt:   state.UpdatedAt,
	}
	if board := state.LastSnapshot.Scoreboard; board != nil {
		out.Score = [2]int{board.Radiant.Score, board.Dire.Score}
	}
	return out
}
