package match

import "github.com/riskibarqy/dota2-results/internal/domain/lobby"

const (
	// DireSlotThreshold is the first player slot that belongs to dire.
	DireSlotThreshold = 128
	// MinValidDuration is the duration in seconds at or below which a scoreless
	// match is treated as not really played.
	MinValidDuration = 410
)

// Scores credits each player's deaths to the opposing side, matching the
// in-client scoreboard. Index 0 is radiant.
func Scores(players []Player) [2]int {
	var scores [2]int
	for _, p := range players {
		if p.Slot >= DireSlotThreshold {
			scores[0] += p.Deaths
			continue
		}
		scores[1] += p.Deaths
	}
	return scores
}

// IsValid rejects pickup lobbies without team names and scoreless short games.
func IsValid(scores [2]int, duration int, radiantName, direName string) bool {
	if radiantName == "" || direName == "" {
		return false
	}
	if scores[0]+scores[1] == 0 && duration <= MinValidDuration {
		return false
	}
	return true
}

// BuildResult derives scores, winner and bracketed display names from details.
func BuildResult(details Details) Result {
	scores := Scores(details.Players)
	teams := [2]TeamResult{
		{ID: details.Radiant.ID, Name: details.Radiant.Name, Side: lobby.SideRadiant, Score: scores[0], Winner: details.RadiantWin},
		{ID: details.Dire.ID, Name: details.Dire.Name, Side: lobby.SideDire, Score: scores[1], Winner: !details.RadiantWin},
	}
	for i := range teams {
		teams[i].DisplayName = teams[i].Name
		if teams[i].Winner {
			teams[i].DisplayName = "[" + teams[i].Name + "]"
		}
	}

	return Result{
		MatchID:  details.MatchID,
		LeagueID: details.LeagueID,
		Duration: details.Duration,
		Teams:    teams,
	}
}
