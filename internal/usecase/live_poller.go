package usecase

import (
	"context"
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/panjf2000/ants/v2"
	"github.com/riskibarqy/dota2-results/internal/domain/league"
	"github.com/riskibarqy/dota2-results/internal/domain/lobby"
	"github.com/riskibarqy/dota2-results/internal/domain/match"
	"github.com/riskibarqy/dota2-results/internal/platform/logging"
)

const (
	defaultHotLeagueWindow = 10 * time.Minute
	defaultHistoryLookback = 7 * 24 * time.Hour
	defaultDemoLookback    = 365 * 24 * time.Hour
	defaultPollWorkers     = 8
	demoMatchesPerCycle    = 2
)

type LiveFeed interface {
	ListLiveGames(ctx context.Context) ([]lobby.Snapshot, error)
	ListRecentMatches(ctx context.Context, leagueID int64, since time.Time) ([]match.Stub, error)
}

type LivePollerConfig struct {
	HotWindow       time.Duration
	HistoryLookback time.Duration
	DemoLookback    time.Duration
	Workers         int
}

// PollSummary reports what one poll cycle observed.
type PollSummary struct {
	LiveGames  int           `json:"live_games"`
	Ended      []lobby.Ended `json:"ended"`
	HotLeagues int           `json:"hot_leagues"`
	Enqueued   int           `json:"enqueued"`
}

// LivePoller drives the live feed into the tracker and the history feed into
// the notification queue.
type LivePoller struct {
	mu        sync.Mutex
	feed      LiveFeed
	tracker   *StateTracker
	directory *LeagueDirectory
	queue     *NotificationQueue
	cfg       LivePollerConfig
	logger    *logging.Logger
	hot       map[int64]time.Time
	now       func() time.Time
}

func NewLivePoller(
	feed LiveFeed,
	tracker *StateTracker,
	directory *LeagueDirectory,
	queue *NotificationQueue,
	cfg LivePollerConfig,
	logger *logging.Logger,
) *LivePoller {
	if cfg.HotWindow <= 0 {
		cfg.HotWindow = defaultHotLeagueWindow
	}
	if cfg.HistoryLookback <= 0 {
		cfg.HistoryLookback = defaultHistoryLookback
	}
	if cfg.DemoLookback <= 0 {
		cfg.DemoLookback = defaultDemoLookback
	}
	if cfg.Workers <= 0 {
		cfg.Workers = defaultPollWorkers
	}
	return &LivePoller{
		feed:      feed,
		tracker:   tracker,
		directory: directory,
		queue:     queue,
		cfg:       cfg,
		logger:    logging.OrDefault(logger).Named("live_poller"),
		hot:       make(map[int64]time.Time),
		now:       time.Now,
	}
}

// PollLive ingests every live lobby, then closes the tick so lobbies missing
// from this fetch are reported as ended. The leagues of ended lobbies stay
// hot so their history is checked.
func (p *LivePoller) PollLive(ctx context.Context) (PollSummary, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LivePoller.PollLive")
	defer span.End()

	games, err := p.feed.ListLiveGames(ctx)
	if err != nil {
		return PollSummary{}, errors.Mark(errors.Wrap(err, "list live games"), ErrDependencyUnavailable)
	}

	now := p.now()
	for _, snap := range games {
		if snap.LeagueID <= 0 {
			continue
		}
		p.directory.ObserveLive(ctx, snap.LeagueID, league.Tier(snap.LeagueTier), snap.StreamDelaySeconds)
		p.markHot(snap.LeagueID, now)
		p.tracker.Ingest(ctx, snap)
	}

	ended := p.tracker.FinishTick(ctx)
	for _, e := range ended {
		p.markHot(e.LeagueID, now)
		p.logger.InfoContext(ctx, "lobby ended", "lobby_id", e.LobbyID, "league_id", e.LeagueID, "match_id", e.MatchID)
	}

	return PollSummary{LiveGames: len(games), Ended: ended, HotLeagues: len(p.HotLeagues())}, nil
}

// CheckHistory fetches recent matches for every hot league in parallel, waits
// for all of them, then records new match ids and enqueues the ones past
// their league's backfill.
func (p *LivePoller) CheckHistory(ctx context.Context) (int, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LivePoller.CheckHistory")
	defer span.End()

	leagueIDs := p.HotLeagues()
	if len(leagueIDs) == 0 {
		return 0, nil
	}
	for _, id := range leagueIDs {
		p.directory.BeginTracking(ctx, id)
	}

	fetched, err := p.fetchHistory(ctx, leagueIDs, p.now().Add(-p.cfg.HistoryLookback))
	if err != nil {
		return 0, err
	}

	enqueued := 0
	for _, res := range fetched {
		if res.err != nil {
			p.logger.WarnContext(ctx, "league history fetch failed", "league_id", res.leagueID, "error", res.err)
			continue
		}
		for _, stub := range res.stubs {
			isNew, notify := p.directory.RecordSeen(ctx, res.leagueID, stub.MatchID)
			if !isNew || !notify {
				continue
			}
			ok, err := p.queue.Enqueue(ctx, stub, res.leagueID)
			if err != nil {
				p.logger.ErrorContext(ctx, "enqueue match failed", "match_id", stub.MatchID, "error", err)
				continue
			}
			if ok {
				enqueued++
			}
		}
		p.directory.FinishBackfill(ctx, res.leagueID)
	}
	return enqueued, nil
}

// DemoCycle picks a random league outside the deny list, forgets what was
// seen in it and hands its first matches from the long lookback to deliver.
func (p *LivePoller) DemoCycle(ctx context.Context, denied func(int64) bool, deliver func(context.Context, match.Stub) error) error {
	var candidates []int64
	for _, item := range p.directory.List() {
		if denied != nil && denied(item.ID) {
			continue
		}
		candidates = append(candidates, item.ID)
	}
	if len(candidates) == 0 {
		return errors.Wrap(ErrNotFound, "no league available for demo")
	}

	leagueID := candidates[rand.IntN(len(candidates))]
	p.directory.ResetSeen(ctx, leagueID)
	p.logger.InfoContext(ctx, "demoing league", "league_id", leagueID)

	stubs, err := p.feed.ListRecentMatches(ctx, leagueID, p.now().Add(-p.cfg.DemoLookback))
	if err != nil {
		return errors.Mark(errors.Wrapf(err, "list recent matches for league %d", leagueID), ErrDependencyUnavailable)
	}
	if len(stubs) > demoMatchesPerCycle {
		stubs = stubs[:demoMatchesPerCycle]
	}
	for _, stub := range stubs {
		p.directory.RecordSeen(ctx, leagueID, stub.MatchID)
		if stub.LeagueID == 0 {
			stub.LeagueID = leagueID
		}
		if err := deliver(ctx, stub); err != nil {
			p.logger.WarnContext(ctx, "demo delivery failed", "match_id", stub.MatchID, "error", err)
		}
	}
	return nil
}

// HotLeagues returns league ids seen live within the hot window, pruning the
// rest.
func (p *LivePoller) HotLeagues() []int64 {
	cutoff := p.now().Add(-p.cfg.HotWindow)

	p.mu.Lock()
	out := make([]int64, 0, len(p.hot))
	for id, seen := range p.hot {
		if seen.Before(cutoff) {
			delete(p.hot, id)
			continue
		}
		out = append(out, id)
	}
	p.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (p *LivePoller) markHot(leagueID int64, at time.Time) {
	if leagueID <= 0 {
		return
	}
	p.mu.Lock()
	p.hot[leagueID] = at
	p.mu.Unlock()
}

type historyResult struct {
	leagueID int64
	stubs    []match.Stub
	err      error
}

func (p *LivePoller) fetchHistory(ctx context.Context, leagueIDs []int64, since time.Time) ([]historyResult, error) {
	pool, err := ants.NewPool(min(p.cfg.Workers, len(leagueIDs)))
	if err != nil {
		return nil, errors.Wrap(err, "create history worker pool")
	}
	defer pool.Release()

	results := make([]historyResult, len(leagueIDs))
	var workers sync.WaitGroup
	for i, leagueID := range leagueIDs {
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()
			stubs, err := p.feed.ListRecentMatches(ctx, leagueID, since)
			results[i] = historyResult{leagueID: leagueID, stubs: stubs, err: err}
		}); err != nil {
			workers.Done()
			results[i] = historyResult{leagueID: leagueID, err: errors.Wrap(err, "submit history fetch")}
		}
	}
	workers.Wait()
	return results, nil
}
