package usecase

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/riskibarqy/dota2-results/internal/domain/lobby"
	"github.com/riskibarqy/dota2-results/internal/platform/logging"
)

const (
	defaultLobbyStaleAfter = 4 * time.Hour
	snapshotGapWarning     = 60
)

// IngestResult describes what the tracker did with one snapshot.
type IngestResult string

const (
	IngestSeeded    IngestResult = "seeded"
	IngestAccepted  IngestResult = "accepted"
	IngestDuplicate IngestResult = "duplicate"
	IngestSkipped   IngestResult = "skipped"
)

type StateTrackerConfig struct {
	StaleAfter time.Duration
}

// StateTracker keeps the cumulative history of every live lobby and detects
// lobbies that drop out of the live feed.
type StateTracker struct {
	mu         sync.Mutex
	repo       lobby.Repository
	logger     *logging.Logger
	lobbies    map[int64]*lobby.State
	touched    map[int64]struct{}
	staleAfter time.Duration
	now        func() time.Time
}

func NewStateTracker(repo lobby.Repository, cfg StateTrackerConfig, logger *logging.Logger) *StateTracker {
	staleAfter := cfg.StaleAfter
	if staleAfter <= 0 {
		staleAfter = defaultLobbyStaleAfter
	}
	return &StateTracker{
		repo:       repo,
		logger:     logging.OrDefault(logger).Named("state_tracker"),
		lobbies:    make(map[int64]*lobby.State),
		touched:    make(map[int64]struct{}),
		staleAfter: staleAfter,
		now:        time.Now,
	}
}

// Restore loads persisted lobbies. Lobbies already tracked in memory win.
func (t *StateTracker) Restore(ctx context.Context) (int, error) {
	states, err := t.repo.List(ctx)
	if err != nil {
		return 0, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	restored := 0
	for i := range states {
		state := states[i]
		if _, ok := t.lobbies[state.LobbyID]; ok {
			continue
		}
		t.lobbies[state.LobbyID] = &state
		restored++
	}
	return restored, nil
}

func (t *StateTracker) Ingest(ctx context.Context, snap lobby.Snapshot) IngestResult {
	if snap.LobbyID == 0 {
		return IngestSkipped
	}

	t.mu.Lock()
	existing, seen := t.lobbies[snap.LobbyID]
	if seen {
		t.touched[snap.LobbyID] = struct{}{}
	}
	if snap.Scoreboard == nil {
		t.mu.Unlock()
		t.logger.DebugContext(ctx, "snapshot without scoreboard", "lobby_id", snap.LobbyID, "league_id", snap.LeagueID)
		return IngestSkipped
	}

	now := t.now()
	if seen && existing.Finished {
		if existing.TeamPair().Matches(snap.TeamPair()) && snap.Duration() >= existing.LastTimestamp {
			existing.Finished = false
			t.logger.InfoContext(ctx, "lobby reappeared", "lobby_id", snap.LobbyID)
		} else {
			seen = false
		}
	}

	if !seen {
		state := seedState(snap, now)
		t.lobbies[snap.LobbyID] = state
		t.touched[snap.LobbyID] = struct{}{}
		out := cloneState(state)
		t.mu.Unlock()

		t.persist(ctx, out)
		return IngestSeeded
	}

	if snap.Duration() == existing.LastTimestamp {
		t.mu.Unlock()
		return IngestDuplicate
	}

	gap := snap.Duration() - existing.LastTimestamp
	applySnapshot(existing, snap, now)
	out := cloneState(existing)
	t.mu.Unlock()

	if gap > snapshotGapWarning {
		t.logger.WarnContext(ctx, "lobby snapshot gap", "lobby_id", snap.LobbyID, "gap_seconds", gap)
	}
	t.persist(ctx, out)
	return IngestAccepted
}

// FinishTick marks every tracked lobby that was not seen since the previous
// call as finished, then evicts stale lobbies.
func (t *StateTracker) FinishTick(ctx context.Context) []lobby.Ended {
	now := t.now()

	t.mu.Lock()
	ids := make([]int64, 0, len(t.lobbies))
	for id := range t.lobbies {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	var (
		ended    []lobby.Ended
		finished []lobby.State
		stale    []int64
	)
	for _, id := range ids {
		state := t.lobbies[id]
		if now.Sub(state.UpdatedAt) > t.staleAfter {
			delete(t.lobbies, id)
			stale = append(stale, id)
			continue
		}
		if _, ok := t.touched[id]; ok || state.Finished {
			continue
		}
		state.Finished = true
		finished = append(finished, cloneState(state))
		ended = append(ended, lobby.Ended{
			LobbyID:  state.LobbyID,
			LeagueID: state.LeagueID,
			MatchID:  state.MatchID,
			Teams:    state.TeamPair(),
		})
	}
	t.touched = make(map[int64]struct{})
	t.mu.Unlock()

	for _, state := range finished {
		t.persist(ctx, state)
	}
	for _, id := range stale {
		if err := t.repo.Delete(ctx, id); err != nil {
			t.logger.ErrorContext(ctx, "delete stale lobby failed", "lobby_id", id, "error", err)
		}
	}
	if len(ended) > 0 || len(stale) > 0 {
		t.logger.InfoContext(ctx, "tick finished", "ended", len(ended), "evicted", len(stale))
	}
	return ended
}

// Correlate finds the most recently updated lobby in leagueID whose teams
// match pair in either orientation.
func (t *StateTracker) Correlate(pair lobby.TeamPair, leagueID int64) (lobby.State, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	state := t.correlateLocked(pair, leagueID, 0)
	if state == nil {
		return lobby.State{}, false
	}
	return cloneState(state), true
}

func (t *StateTracker) LookupByTeamsAndLeague(pair lobby.TeamPair, leagueID int64) (lobby.State, bool) {
	return t.Correlate(pair, leagueID)
}

// Claim correlates like Correlate and binds the lobby to matchID, so another
// match between the same teams cannot reuse it. Claiming again for the same
// match returns the same lobby.
func (t *StateTracker) Claim(ctx context.Context, matchID int64, pair lobby.TeamPair, leagueID int64) (lobby.State, bool) {
	t.mu.Lock()
	state := t.correlateLocked(pair, leagueID, matchID)
	if state == nil {
		t.mu.Unlock()
		return lobby.State{}, false
	}
	changed := state.CorrelatedMatchID != matchID
	state.CorrelatedMatchID = matchID
	out := cloneState(state)
	t.mu.Unlock()

	if changed {
		t.persist(ctx, out)
	}
	return out, true
}

func (t *StateTracker) correlateLocked(pair lobby.TeamPair, leagueID, matchID int64) *lobby.State {
	if !pair.Complete() {
		return nil
	}

	candidates := make([]*lobby.State, 0, len(t.lobbies))
	for _, state := range t.lobbies {
		if state.LeagueID != leagueID || !state.TeamPair().Matches(pair) {
			continue
		}
		if state.CorrelatedMatchID != 0 && state.CorrelatedMatchID != matchID {
			continue
		}
		if matchID != 0 && state.MatchID == matchID {
			return state
		}
		candidates = append(candidates, state)
	}
	if len(candidates) == 0 {
		return nil
	}
	sort.Slice(candidates, func(i, j int) bool {
		if !candidates[i].UpdatedAt.Equal(candidates[j].UpdatedAt) {
			return candidates[i].UpdatedAt.After(candidates[j].UpdatedAt)
		}
		return candidates[i].LobbyID > candidates[j].LobbyID
	})
	return candidates[0]
}

func (t *StateTracker) Evict(ctx context.Context, lobbyID int64) {
	t.mu.Lock()
	delete(t.lobbies, lobbyID)
	delete(t.touched, lobbyID)
	t.mu.Unlock()

	if err := t.repo.Delete(ctx, lobbyID); err != nil {
		t.logger.ErrorContext(ctx, "delete lobby failed", "lobby_id", lobbyID, "error", err)
	}
}

func (t *StateTracker) Get(lobbyID int64) (lobby.State, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	state, ok := t.lobbies[lobbyID]
	if !ok {
		return lobby.State{}, false
	}
	return cloneState(state), true
}

// List returns copies of every tracked lobby ordered by lobby id.
func (t *StateTracker) List() []lobby.State {
	t.mu.Lock()
	out := make([]lobby.State, 0, len(t.lobbies))
	for _, state := range t.lobbies {
		out = append(out, cloneState(state))
	}
	t.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].LobbyID < out[j].LobbyID })
	return out
}

func (t *StateTracker) persist(ctx context.Context, state lobby.State) {
	if err := t.repo.Put(ctx, state); err != nil {
		t.logger.ErrorContext(ctx, "persist lobby failed", "lobby_id", state.LobbyID, "error", err)
	}
}

func seedState(snap lobby.Snapshot, now time.Time) *lobby.State {
	state := &lobby.State{
		LobbyID:       snap.LobbyID,
		LeagueID:      snap.LeagueID,
		MatchID:       snap.MatchID,
		LastTimestamp: snap.Duration(),
		LastSnapshot:  snap,
		GoldHistory:   []lobby.GoldEntry{},
		Events:        []lobby.Event{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	captureTeams(state, snap)
	captureDraft(state, snap)
	return state
}

func applySnapshot(state *lobby.State, snap lobby.Snapshot, now time.Time) {
	state.GoldHistory = append(state.GoldHistory, lobby.GoldAt(snap.Scoreboard))
	state.Events = append(state.Events, lobby.StructureEvents(state.LastSnapshot.Scoreboard, snap.Scoreboard)...)
	captureTeams(state, snap)
	captureDraft(state, snap)
	if snap.MatchID != 0 {
		state.MatchID = snap.MatchID
	}
	state.LastSnapshot = snap
	state.LastTimestamp = snap.Duration()
	state.UpdatedAt = now
}

func captureTeams(state *lobby.State, snap lobby.Snapshot) {
	if state.Teams != nil && state.Teams.Pair().Complete() {
		return
	}
	if !snap.TeamPair().Complete() {
		return
	}
	state.Teams = &lobby.Teams{Radiant: snap.RadiantTeam, Dire: snap.DireTeam}
}

func captureDraft(state *lobby.State, snap lobby.Snapshot) {
	board := snap.Scoreboard
	if board == nil || len(board.Radiant.Picks)+len(board.Dire.Picks) == 0 {
		return
	}

	names := make(map[int]string, len(snap.Players))
	for _, p := range snap.Players {
		if p.HeroID != 0 {
			names[p.HeroID] = p.Name
		}
	}

	draft := lobby.Draft{}
	sides := []struct {
		side lobby.Side
		team lobby.TeamBoard
	}{
		{lobby.SideRadiant, board.Radiant},
		{lobby.SideDire, board.Dire},
	}
	for _, s := range sides {
		for _, hero := range s.team.Picks {
			draft.Picks = append(draft.Picks, lobby.Pick{Side: s.side, HeroID: hero, Player: names[hero]})
		}
		for _, hero := range s.team.Bans {
			draft.Bans = append(draft.Bans, lobby.Ban{Side: s.side, HeroID: hero})
		}
	}
	state.Draft = draft
}

func cloneState(state *lobby.State) lobby.State {
	out := *state
	out.GoldHistory = slices.Clone(state.GoldHistory)
	out.Events = slices.Clone(state.Events)
	out.Draft.Picks = slices.Clone(state.Draft.Picks)
	out.Draft.Bans = slices.Clone(state.Draft.Bans)
	if state.Teams != nil {
		teams := *state.Teams
		out.Teams = &teams
	}
	return out
}
