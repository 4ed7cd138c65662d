package steamapi

import (
	"strings"

	"github.com/riskibarqy/dota2-results/internal/domain/lobby"
	"github.com/riskibarqy/dota2-results/internal/domain/match"
)

// Player team values on the live roster. Anything else is a caster or
// spectator slot.
const (
	rosterRadiant = 0
	rosterDire    = 1

	fullLobbyPlayers = 10
)

type leagueListingEnvelope struct {
	Result struct {
		Leagues []leagueItem `json:"leagues"`
	} `json:"result"`
}

type leagueItem struct {
	LeagueID int64  `json:"leagueid"`
	Name     string `json:"name"`
	Tier     int    `json:"tier"`
}

type liveGamesEnvelope struct {
	Result struct {
		Games []liveGame `json:"games"`
	} `json:"result"`
}

type liveGame struct {
	Players           []livePlayer    `json:"players"`
	RadiantTeam       *liveTeam       `json:"radiant_team"`
	DireTeam          *liveTeam       `json:"dire_team"`
	LobbyID           int64           `json:"lobby_id"`
	MatchID           int64           `json:"match_id"`
	SeriesID          int64           `json:"series_id"`
	LeagueID          int64           `json:"league_id"`
	LeagueTier        int             `json:"league_tier"`
	StreamDelay       int             `json:"stream_delay_s"`
	SeriesType        int             `json:"series_type"`
	RadiantSeriesWins int             `json:"radiant_series_wins"`
	DireSeriesWins    int             `json:"dire_series_wins"`
	Scoreboard        *liveScoreboard `json:"scoreboard"`
}

type livePlayer struct {
	AccountID int64  `json:"account_id"`
	Name      string `json:"name"`
	HeroID    int    `json:"hero_id"`
	Team      int    `json:"team"`
}

type liveTeam struct {
	TeamName string `json:"team_name"`
	TeamID   int64  `json:"team_id"`
	TeamLogo int64  `json:"team_logo"`
}

type liveScoreboard struct {
	Duration float64       `json:"duration"`
	Radiant  liveTeamBoard `json:"radiant"`
	Dire     liveTeamBoard `json:"dire"`
}

type heroRef struct {
	HeroID int `json:"hero_id"`
}

type liveTeamBoard struct {
	Score         int               `json:"score"`
	TowerState    uint32            `json:"tower_state"`
	BarracksState uint32            `json:"barracks_state"`
	Picks         []heroRef         `json:"picks"`
	Bans          []heroRef         `json:"bans"`
	Players       []liveBoardPlayer `json:"players"`
}

type liveBoardPlayer struct {
	AccountID  int64 `json:"account_id"`
	HeroID     int   `json:"hero_id"`
	Kills      int   `json:"kills"`
	Death      int   `json:"death"`
	Assists    int   `json:"assists"`
	GoldPerMin int   `json:"gold_per_min"`
	NetWorth   int   `json:"net_worth"`
	Level      int   `json:"level"`
}

func (g liveGame) toSnapshot() lobby.Snapshot {
	snap := lobby.Snapshot{
		LobbyID:            g.LobbyID,
		LeagueID:           g.LeagueID,
		MatchID:            g.MatchID,
		LeagueTier:         g.LeagueTier,
		StreamDelaySeconds: g.StreamDelay,
		SeriesType:         g.SeriesType,
		RadiantSeriesWins:  g.RadiantSeriesWins,
		DireSeriesWins:     g.DireSeriesWins,
		RadiantTeam:        g.RadiantTeam.toRef(),
		DireTeam:           g.DireTeam.toRef(),
	}

	for _, p := range g.Players {
		var side lobby.Side
		switch p.Team {
		case rosterRadiant:
			side = lobby.SideRadiant
		case rosterDire:
			side = lobby.SideDire
		default:
			continue
		}
		snap.Players = append(snap.Players, lobby.LivePlayer{
			AccountID: p.AccountID,
			Name:      strings.TrimSpace(p.Name),
			HeroID:    p.HeroID,
			Side:      side,
		})
	}

	if g.Scoreboard != nil {
		snap.Scoreboard = &lobby.Scoreboard{
			Duration: int(g.Scoreboard.Duration),
			Radiant:  g.Scoreboard.Radiant.toBoard(),
			Dire:     g.Scoreboard.Dire.toBoard(),
		}
	}
	return snap
}

func (t *liveTeam) toRef() lobby.TeamRef {
	if t == nil {
		return lobby.TeamRef{}
	}
	return lobby.TeamRef{ID: t.TeamID, Name: strings.TrimSpace(t.TeamName), Logo: t.TeamLogo}
}

func (b liveTeamBoard) toBoard() lobby.TeamBoard {
	board := lobby.TeamBoard{
		Score:         b.Score,
		TowerState:    b.TowerState,
		BarracksState: b.BarracksState,
		Players:       make([]lobby.BoardPlayer, 0, len(b.Players)),
		Picks:         heroIDs(b.Picks),
		Bans:          heroIDs(b.Bans),
	}
	for _, p := range b.Players {
		board.Players = append(board.Players, lobby.BoardPlayer{
			AccountID:  p.AccountID,
			HeroID:     p.HeroID,
			Kills:      p.Kills,
			Deaths:     p.Death,
			Assists:    p.Assists,
			GoldPerMin: p.GoldPerMin,
			NetWorth:   p.NetWorth,
			Level:      p.Level,
		})
	}
	return board
}

func heroIDs(refs []heroRef) []int {
	if len(refs) == 0 {
		return nil
	}
	out := make([]int, 0, len(refs))
	for _, ref := range refs {
		out = append(out, ref.HeroID)
	}
	return out
}

type matchHistoryEnvelope struct {
	Result struct {
		Status  int            `json:"status"`
		Matches []historyMatch `json:"matches"`
	} `json:"result"`
}

type historyMatch struct {
	MatchID       int64 `json:"match_id"`
	StartTime     int64 `json:"start_time"`
	SeriesID      int64 `json:"series_id"`
	SeriesType    int   `json:"series_type"`
	RadiantTeamID int64 `json:"radiant_team_id"`
	DireTeamID    int64 `json:"dire_team_id"`
}

type matchDetailsEnvelope struct {
	Result matchDetails `json:"result"`
}

type matchDetails struct {
	Error         string          `json:"error"`
	MatchID       int64           `json:"match_id"`
	LeagueID      int64           `json:"leagueid"`
	Duration      int             `json:"duration"`
	RadiantWin    bool            `json:"radiant_win"`
	HumanPlayers  int             `json:"human_players"`
	RadiantTeamID int64           `json:"radiant_team_id"`
	RadiantName   string          `json:"radiant_name"`
	RadiantLogo   int64           `json:"radiant_logo"`
	DireTeamID    int64           `json:"dire_team_id"`
	DireName      string          `json:"dire_name"`
	DireLogo      int64           `json:"dire_logo"`
	Players       []detailsPlayer `json:"players"`
}

type detailsPlayer struct {
	AccountID int64 `json:"account_id"`
	Slot      int   `json:"player_slot"`
	HeroID    int   `json:"hero_id"`
	Kills     int   `json:"kills"`
	Deaths    int   `json:"deaths"`
	Assists   int   `json:"assists"`
}

// toDetails flags lobbies that ended short of a full roster as invalid.
func (d matchDetails) toDetails() match.Details {
	out := match.Details{
		MatchID:    d.MatchID,
		LeagueID:   d.LeagueID,
		Duration:   d.Duration,
		RadiantWin: d.RadiantWin,
		Radiant:    match.TeamInfo{ID: d.RadiantTeamID, Name: strings.TrimSpace(d.RadiantName), Logo: d.RadiantLogo},
		Dire:       match.TeamInfo{ID: d.DireTeamID, Name: strings.TrimSpace(d.DireName), Logo: d.DireLogo},
		Players:    make([]match.Player, 0, len(d.Players)),
		Invalid:    d.HumanPlayers > 0 && d.HumanPlayers < fullLobbyPlayers,
	}
	for _, p := range d.Players {
		out.Players = append(out.Players, match.Player{
			AccountID: p.AccountID,
			Slot:      p.Slot,
			HeroID:    p.HeroID,
			Kills:     p.Kills,
			Deaths:    p.Deaths,
			Assists:   p.Assists,
		})
	}
	return out
}

type teamInfoEnvelope struct {
	Result struct {
		Status int        `json:"status"`
		Teams  []teamInfo `json:"teams"`
	} `json:"result"`
}

type teamInfo struct {
	TeamID int64  `json:"team_id"`
	Name   string `json:"name"`
	Tag    string `json:"tag"`
	Logo   int64  `json:"logo"`
}
