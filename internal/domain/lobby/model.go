package lobby

import "time"

type Side string

const (
	SideRadiant Side = "radiant"
	SideDire    Side = "dire"
)

// TeamRef is the team identity carried on a live snapshot.
type TeamRef struct {
	ID   int64  `json:"team_id"`
	Name string `json:"team_name"`
	Logo int64  `json:"team_logo"`
}

// LivePlayer is a participant entry from the lobby roster.
type LivePlayer struct {
	AccountID int64  `json:"account_id"`
	Name      string `json:"name"`
	HeroID    int    `json:"hero_id"`
	Side      Side   `json:"side"`
}

type BoardPlayer struct {
	AccountID  int64 `json:"account_id"`
	HeroID     int   `json:"hero_id"`
	Kills      int   `json:"kills"`
	Deaths     int   `json:"deaths"`
	Assists    int   `json:"assists"`
	GoldPerMin int   `json:"gold_per_min"`
	NetWorth   int   `json:"net_worth"`
	Level      int   `json:"level"`
}

// TeamBoard is one side of the live scoreboard. TowerState and BarracksState
// are the per-side structure masks reported upstream.
type TeamBoard struct {
	Score         int           `json:"score"`
	TowerState    uint32        `json:"tower_state"`
	BarracksState uint32        `json:"barracks_state"`
	Players       []BoardPlayer `json:"players"`
	Picks         []int         `json:"picks"`
	Bans          []int         `json:"bans"`
}

type Scoreboard struct {
	Duration int       `json:"duration"`
	Radiant  TeamBoard `json:"radiant"`
	Dire     TeamBoard `json:"dire"`
}

// Snapshot is a point-in-time view of one live lobby. Scoreboard is nil for
// lobbies still in the pre-game phase.
type Snapshot struct {
	LobbyID            int64        `json:"lobby_id"`
	LeagueID           int64        `json:"league_id"`
	MatchID            int64        `json:"match_id"`
	LeagueTier         int          `json:"league_tier"`
	StreamDelaySeconds int          `json:"stream_delay_s"`
	SeriesType         int          `json:"series_type"`
	RadiantSeriesWins  int          `json:"radiant_series_wins"`
	DireSeriesWins     int          `json:"dire_series_wins"`
	RadiantTeam        TeamRef      `json:"radiant_team"`
	DireTeam           TeamRef      `json:"dire_team"`
	Players            []LivePlayer `json:"players"`
	Scoreboard         *Scoreboard  `json:"scoreboard,omitempty"`
}

func (s Snapshot) Duration() int {
	if s.Scoreboard == nil {
		return 0
	}
	return s.Scoreboard.Duration
}

func (s Snapshot) TeamPair() TeamPair {
	return TeamPair{A: s.RadiantTeam.ID, B: s.DireTeam.ID}
}

// TeamPair identifies a pairing independent of side order.
type TeamPair struct {
	A int64 `json:"a"`
	B int64 `json:"b"`
}

func (p TeamPair) Complete() bool {
	return p.A != 0 && p.B != 0
}

func (p TeamPair) Matches(other TeamPair) bool {
	if !p.Complete() || !other.Complete() {
		return false
	}
	return (p.A == other.A && p.B == other.B) || (p.A == other.B && p.B == other.A)
}

// Ordered returns the pair with the lower id first.
func (p TeamPair) Ordered() TeamPair {
	if p.A > p.B {
		return TeamPair{A: p.B, B: p.A}
	}
	return p
}

// Teams is the resolved team summary recorded once both sides are known.
type Teams struct {
	Radiant TeamRef `json:"radiant"`
	Dire    TeamRef `json:"dire"`
}

func (t Teams) Pair() TeamPair {
	return TeamPair{A: t.Radiant.ID, B: t.Dire.ID}
}

type GoldEntry struct {
	Time        int `json:"time"`
	RadiantGold int `json:"radiant_gold"`
	DireGold    int `json:"dire_gold"`
	Diff        int `json:"diff"`
}

type Pick struct {
	Side   Side   `json:"side"`
	HeroID int    `json:"hero_id"`
	Player string `json:"player"`
}

type Ban struct {
	Side   Side `json:"side"`
	HeroID int  `json:"hero_id"`
}

type Draft struct {
	Picks []Pick `json:"picks"`
	Bans  []Ban  `json:"bans"`
}

func (d Draft) Empty() bool {
	return len(d.Picks) == 0 && len(d.Bans) == 0
}

// State is the cumulative history the tracker keeps for one lobby.
type State struct {
	LobbyID       int64       `json:"lobby_id"`
	LeagueID      int64       `json:"league_id"`
	MatchID       int64       `json:"match_id"`
	LastTimestamp int         `json:"last_timestamp"`
	LastSnapshot  Snapshot    `json:"last_snapshot"`
	GoldHistory   []GoldEntry `json:"gold_history"`
	Events        []Event     `json:"events"`
	Draft         Draft       `json:"draft"`
	Teams         *Teams      `json:"teams,omitempty"`
	Finished      bool        `json:"finished"`
	// CorrelatedMatchID is the finished match this lobby was paired with.
	CorrelatedMatchID int64     `json:"correlated_match_id,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// TeamPair resolves the lobby's teams, preferring the recorded summary over
// the last snapshot's team fields.
func (s State) TeamPair() TeamPair {
	if s.Teams != nil && s.Teams.Pair().Complete() {
		return s.Teams.Pair()
	}
	return s.LastSnapshot.TeamPair()
}

// TeamNames mirrors TeamPair's precedence for display names.
func (s State) TeamNames() (string, string) {
	if s.Teams != nil && s.Teams.Pair().Complete() {
		return s.Teams.Radiant.Name, s.Teams.Dire.Name
	}
	return s.LastSnapshot.RadiantTeam.Name, s.LastSnapshot.DireTeam.Name
}

// Ended is raised when a tracked lobby stops appearing in the live feed.
type Ended struct {
	LobbyID  int64    `json:"lobby_id"`
	LeagueID int64    `json:"league_id"`
	MatchID  int64    `json:"match_id"`
	Teams    TeamPair `json:"teams"`
}
