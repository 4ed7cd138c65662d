package usecase

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/riskibarqy/dota2-results/internal/domain/league"
	"github.com/riskibarqy/dota2-results/internal/platform/logging"
)

const defaultLeagueRefreshInterval = 24 * time.Hour

type LeagueLister interface {
	ListLeagues(ctx context.Context) ([]league.League, error)
}

// LeagueDirectory caches the league listing and the match ids seen in each
// league's history feed.
type LeagueDirectory struct {
	mu           sync.Mutex
	upstream     LeagueLister
	repo         league.Repository
	logger       *logging.Logger
	leagues      map[int64]*league.League
	lastRefresh  time.Time
	refreshEvery time.Duration
	now          func() time.Time
}

func NewLeagueDirectory(upstream LeagueLister, repo league.Repository, refreshEvery time.Duration, logger *logging.Logger) *LeagueDirectory {
	if refreshEvery <= 0 {
		refreshEvery = defaultLeagueRefreshInterval
	}
	return &LeagueDirectory{
		upstream:     upstream,
		repo:         repo,
		logger:       logging.OrDefault(logger).Named("league_directory"),
		leagues:      make(map[int64]*league.League),
		refreshEvery: refreshEvery,
		now:          time.Now,
	}
}

// Restore loads the persisted directory. A non-empty directory counts as a
// fresh refresh so startup does not hit upstream immediately.
func (d *LeagueDirectory) Restore(ctx context.Context) (int, error) {
	items, err := d.repo.List(ctx)
	if err != nil {
		return 0, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	for i := range items {
		item := items[i]
		d.leagues[item.ID] = &item
	}
	if len(items) > 0 {
		d.lastRefresh = d.now()
	}
	return len(items), nil
}

func (d *LeagueDirectory) RefreshIfDue(ctx context.Context) (bool, error) {
	d.mu.Lock()
	due := d.lastRefresh.IsZero() || d.now().Sub(d.lastRefresh) >= d.refreshEvery
	d.mu.Unlock()
	if !due {
		return false, nil
	}
	return true, d.Refresh(ctx)
}

// Refresh replaces the directory with the upstream listing. Seen match ids
// and tracking flags carry over for leagues that still exist.
func (d *LeagueDirectory) Refresh(ctx context.Context) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.LeagueDirectory.Refresh")
	defer span.End()

	fetched, err := d.upstream.ListLeagues(ctx)
	if err != nil {
		return errors.Mark(errors.Wrap(err, "list leagues"), ErrDependencyUnavailable)
	}

	d.mu.Lock()
	next := make(map[int64]*league.League, len(fetched))
	for i := range fetched {
		item := fetched[i]
		if item.ID <= 0 {
			continue
		}
		if prev, ok := d.leagues[item.ID]; ok {
			item.LastSeenMatchIDs = slices.Clone(prev.LastSeenMatchIDs)
			item.Initializing = prev.Initializing
			item.Tracked = prev.Tracked
			if item.Tier == 0 {
				item.Tier = prev.Tier
			}
			if item.StreamDelaySeconds == 0 {
				item.StreamDelaySeconds = prev.StreamDelaySeconds
			}
		}
		next[item.ID] = &item
	}
	d.leagues = next
	d.lastRefresh = d.now()
	snapshot := d.listLocked()
	d.mu.Unlock()

	if err := d.repo.ReplaceAll(ctx, snapshot); err != nil {
		d.logger.ErrorContext(ctx, "persist league directory failed", "error", err)
	}
	d.logger.InfoContext(ctx, "league directory refreshed", "leagues", len(snapshot))
	return nil
}

func (d *LeagueDirectory) Get(leagueID int64) (league.League, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	item, ok := d.leagues[leagueID]
	if !ok {
		return league.League{}, false
	}
	return cloneLeague(item), true
}

func (d *LeagueDirectory) List() []league.League {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.listLocked()
}

// ObserveLive records tier and stream delay reported by a live lobby. Leagues
// missing from the listing get a placeholder entry.
func (d *LeagueDirectory) ObserveLive(ctx context.Context, leagueID int64, tier league.Tier, delaySeconds int) {
	if leagueID <= 0 {
		return
	}

	d.mu.Lock()
	item, ok := d.leagues[leagueID]
	if !ok {
		item = &league.League{ID: leagueID, Name: fmt.Sprintf("League %d", leagueID)}
		d.leagues[leagueID] = item
	}
	changed := !ok
	if tier > 0 && item.Tier != tier {
		item.Tier = tier
		changed = true
	}
	if delaySeconds > 0 && item.StreamDelaySeconds != delaySeconds {
		item.StreamDelaySeconds = delaySeconds
		changed = true
	}
	out := cloneLeague(item)
	d.mu.Unlock()

	if changed {
		d.persist(ctx, out)
	}
}

// BeginTracking marks a league for history checks. A league tracked for the
// first time starts in backfill so its existing history is not announced.
func (d *LeagueDirectory) BeginTracking(ctx context.Context, leagueID int64) {
	d.mu.Lock()
	item, ok := d.leagues[leagueID]
	if !ok {
		item = &league.League{ID: leagueID, Name: fmt.Sprintf("League %d", leagueID)}
		d.leagues[leagueID] = item
	}
	if item.Tracked {
		d.mu.Unlock()
		return
	}
	item.Tracked = true
	item.Initializing = len(item.LastSeenMatchIDs) == 0
	out := cloneLeague(item)
	d.mu.Unlock()

	d.persist(ctx, out)
}

// RecordSeen appends matchID to the league's seen list. It reports whether
// the id was new and whether the league is past its backfill.
func (d *LeagueDirectory) RecordSeen(ctx context.Context, leagueID, matchID int64) (isNew bool, notify bool) {
	d.mu.Lock()
	item, ok := d.leagues[leagueID]
	if !ok {
		item = &league.League{ID: leagueID, Name: fmt.Sprintf("League %d", leagueID), Tracked: true, Initializing: true}
		d.leagues[leagueID] = item
	}
	isNew = item.MarkSeen(matchID)
	notify = isNew && !item.Initializing
	out := cloneLeague(item)
	d.mu.Unlock()

	if isNew {
		d.persist(ctx, out)
	}
	return isNew, notify
}

func (d *LeagueDirectory) FinishBackfill(ctx context.Context, leagueID int64) {
	d.mu.Lock()
	item, ok := d.leagues[leagueID]
	if !ok || !item.Initializing {
		d.mu.Unlock()
		return
	}
	item.Initializing = false
	out := cloneLeague(item)
	d.mu.Unlock()

	d.logger.InfoContext(ctx, "league backfill complete", "league_id", leagueID, "seen", len(out.LastSeenMatchIDs))
	d.persist(ctx, out)
}

// ResetSeen clears the seen list so every match in the lookback is new again.
func (d *LeagueDirectory) ResetSeen(ctx context.Context, leagueID int64) {
	d.mu.Lock()
	item, ok := d.leagues[leagueID]
	if !ok {
		d.mu.Unlock()
		return
	}
	item.LastSeenMatchIDs = nil
	item.Initializing = false
	item.Tracked = true
	out := cloneLeague(item)
	d.mu.Unlock()

	d.persist(ctx, out)
}

func (d *LeagueDirectory) StreamDelay(leagueID int64) (time.Duration, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	item, ok := d.leagues[leagueID]
	if !ok || item.StreamDelaySeconds <= 0 {
		return 0, false
	}
	return item.StreamDelay(), true
}

func (d *LeagueDirectory) persist(ctx context.Context, item league.League) {
	if err := d.repo.Put(ctx, item); err != nil {
		d.logger.ErrorContext(ctx, "persist league failed", "league_id", item.ID, "error", err)
	}
}

func (d *LeagueDirectory) listLocked() []league.League {
	out := make([]league.League, 0, len(d.leagues))
	for _, item := range d.leagues {
		out = append(out, cloneLeague(item))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func cloneLeague(item *league.League) league.League {
	out := *item
	out.LastSeenMatchIDs = slices.Clone(item.LastSeenMatchIDs)
	return out
}
