package usecase

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/riskibarqy/dota2-results/internal/domain/lobby"
	"github.com/riskibarqy/dota2-results/internal/domain/series"
	"github.com/riskibarqy/dota2-results/internal/platform/logging"
)

const defaultSeriesStaleAfter = 12 * time.Hour

// SeriesTracker keeps running win counts per best-of series.
type SeriesTracker struct {
	mu         sync.Mutex
	repo       series.Repository
	logger     *logging.Logger
	series     map[string]*series.State
	staleAfter time.Duration
	now        func() time.Time
}

func NewSeriesTracker(repo series.Repository, staleAfter time.Duration, logger *logging.Logger) *SeriesTracker {
	if staleAfter <= 0 {
		staleAfter = defaultSeriesStaleAfter
	}
	return &SeriesTracker{
		repo:       repo,
		logger:     logging.OrDefault(logger).Named("series_tracker"),
		series:     make(map[string]*series.State),
		staleAfter: staleAfter,
		now:        time.Now,
	}
}

func (t *SeriesTracker) Restore(ctx context.Context) (int, error) {
	states, err := t.repo.List(ctx)
	if err != nil {
		return 0, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range states {
		state := states[i]
		if state.Wins == nil {
			state.Wins = make(map[int64]int)
		}
		t.series[state.Key] = &state
	}
	return len(states), nil
}

// RecordGame credits winner with one game of the series under key. A match
// already counted is not counted again. Formats <= 0 are not tracked.
func (t *SeriesTracker) RecordGame(ctx context.Context, key string, matchID int64, format int, teamIDs [2]int64, winner int64) series.Status {
	if format <= 0 || key == "" {
		return series.Status{}
	}

	t.mu.Lock()
	state := t.ensureLocked(key, format, teamIDs, matchID)
	if state.HasGame(matchID) {
		status := statusOf(*state, teamIDs)
		t.mu.Unlock()
		return status
	}
	state.Wins[winner] = min(state.Wins[winner]+1, format+1)
	if matchID != 0 {
		state.Games = append(state.Games, matchID)
	}
	state.UpdatedAt = t.now()
	status := statusOf(*state, teamIDs)
	out := cloneSeries(state)
	t.mu.Unlock()

	t.persist(ctx, out)
	return status
}

// Override replaces the counts with ones observed on the live feed.
func (t *SeriesTracker) Override(ctx context.Context, key string, matchID int64, format int, teamIDs [2]int64, wins [2]int) series.Status {
	if format <= 0 || key == "" {
		return series.Status{}
	}

	t.mu.Lock()
	state := t.ensureLocked(key, format, teamIDs, matchID)
	if state.Settled && state.HasGame(matchID) {
		status := statusOf(*state, teamIDs)
		t.mu.Unlock()
		return status
	}
	for i, id := range teamIDs {
		state.Wins[id] = min(max(wins[i], 0), format+1)
	}
	if !state.HasGame(matchID) && matchID != 0 {
		state.Games = append(state.Games, matchID)
	}
	state.UpdatedAt = t.now()
	status := statusOf(*state, teamIDs)
	out := cloneSeries(state)
	t.mu.Unlock()

	t.persist(ctx, out)
	return status
}

func (t *SeriesTracker) Status(key string, teamIDs [2]int64) (series.Status, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	state, ok := t.series[key]
	if !ok {
		return series.Status{}, false
	}
	return statusOf(*state, teamIDs), true
}

// Sweep settles decided series and drops series idle longer than the stale
// window. A settled series leaves the listing but still answers for the games
// it counted until it goes stale.
func (t *SeriesTracker) Sweep(ctx context.Context) int {
	now := t.now()

	t.mu.Lock()
	var (
		removed []string
		settled []series.State
	)
	for key, state := range t.series {
		switch {
		case now.Sub(state.UpdatedAt) > t.staleAfter:
			removed = append(removed, key)
		case state.Decided() && !state.Settled:
			state.Settled = true
			settled = append(settled, cloneSeries(state))
		}
	}
	for _, key := range removed {
		delete(t.series, key)
	}
	t.mu.Unlock()

	for _, state := range settled {
		t.persist(ctx, state)
	}
	for _, key := range removed {
		if err := t.repo.Delete(ctx, key); err != nil {
			t.logger.ErrorContext(ctx, "delete series failed", "series_key", key, "error", err)
		}
	}
	return len(removed) + len(settled)
}

func (t *SeriesTracker) List() []series.State {
	t.mu.Lock()
	out := make([]series.State, 0, len(t.series))
	for _, state := range t.series {
		if state.Settled {
			continue
		}
		out = append(out, cloneSeries(state))
	}
	t.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// ensureLocked returns the series for key. A decided series that has not
// counted matchID is over, so a fresh one replaces it.
func (t *SeriesTracker) ensureLocked(key string, format int, teamIDs [2]int64, matchID int64) *series.State {
	state, ok := t.series[key]
	if ok && (state.Settled || state.Decided()) && !state.HasGame(matchID) {
		ok = false
	}
	if !ok {
		state = &series.State{
			Key:    key,
			Format: format,
			Wins:   map[int64]int{teamIDs[0]: 0, teamIDs[1]: 0},
			Teams:  lobby.TeamPair{A: teamIDs[0], B: teamIDs[1]},
		}
		t.series[key] = state
	}
	if state.Wins == nil {
		state.Wins = make(map[int64]int)
	}
	return state
}

func (t *SeriesTracker) persist(ctx context.Context, state series.State) {
	if err := t.repo.Put(ctx, state); err != nil {
		t.logger.ErrorContext(ctx, "persist series failed", "series_key", state.Key, "error", err)
	}
}

func statusOf(state series.State, teamIDs [2]int64) series.Status {
	var status series.Status
	for i, id := range teamIDs {
		status.Wins[i] = state.Wins[id]
		status.Display[i] = series.Display(status.Wins[i], state.Format, i)
	}
	return status
}

func cloneSeries(state *series.State) series.State {
	out := *state
	out.Wins = make(map[int64]int, len(state.Wins))
	for id, w := range state.Wins {
		out.Wins[id] = w
	}
	out.Games = append([]int64(nil), state.Games...)
	return out
}
