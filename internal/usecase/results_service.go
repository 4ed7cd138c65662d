package usecase

import (
	"context"
	"time"

	"github.com/riskibarqy/dota2-results/internal/domain/match"
	"github.com/riskibarqy/dota2-results/internal/domain/notification"
	"github.com/riskibarqy/dota2-results/internal/domain/series"
	"github.com/riskibarqy/dota2-results/internal/platform/id"
	"github.com/riskibarqy/dota2-results/internal/platform/logging"
	"github.com/riskibarqy/dota2-results/internal/platform/resilience"
)

// Mode selects how the service announces results.
type Mode string

const (
	ModeLive   Mode = "live"
	ModeSilent Mode = "silent"
	ModeDemo   Mode = "demo"
)

type ResultsServiceConfig struct {
	Mode         Mode
	PollDebounce time.Duration
}

// TickSummary is the outcome of one full cycle.
type TickSummary struct {
	CycleID  string      `json:"cycle_id,omitempty"`
	Skipped  bool        `json:"skipped"`
	Poll     PollSummary `json:"poll"`
	Retried  int         `json:"retried"`
	Swept    int         `json:"swept"`
	Pending  int         `json:"pending"`
	Duration string      `json:"duration"`
}

// ResultsService owns the cycle: poll live lobbies, close the tick, check
// history, retry pending deliveries and sweep finished series.
type ResultsService struct {
	directory  *LeagueDirectory
	tracker    *StateTracker
	poller     *LivePoller
	queue      *NotificationQueue
	reconciler *Reconciler
	series     *SeriesTracker
	delivery   *DeliveryGate
	router     Router
	cfg        ResultsServiceConfig
	gate       *resilience.Gate
	cycleIDs   id.Generator
	logger     *logging.Logger
}

type ResultsServiceDeps struct {
	Directory  *LeagueDirectory
	Tracker    *StateTracker
	Poller     *LivePoller
	Queue      *NotificationQueue
	Reconciler *Reconciler
	Series     *SeriesTracker
	Delivery   *DeliveryGate
	Router     Router
}

func NewResultsService(deps ResultsServiceDeps, cfg ResultsServiceConfig, logger *logging.Logger) *ResultsService {
	if cfg.Mode == "" {
		cfg.Mode = ModeLive
	}
	return &ResultsService{
		directory:  deps.Directory,
		tracker:    deps.Tracker,
		poller:     deps.Poller,
		queue:      deps.Queue,
		reconciler: deps.Reconciler,
		series:     deps.Series,
		delivery:   deps.Delivery,
		router:     deps.Router,
		cfg:        cfg,
		gate:       resilience.NewGate(cfg.PollDebounce),
		cycleIDs:   id.NewRandomGenerator("tick_"),
		logger:     logging.OrDefault(logger).Named("results"),
	}
}

// Restore rehydrates every component from the durable store. Failures are
// logged and the service starts with whatever could be loaded.
func (s *ResultsService) Restore(ctx context.Context) {
	restore := []struct {
		name string
		fn   func(context.Context) (int, error)
	}{
		{"leagues", s.directory.Restore},
		{"lobbies", s.tracker.Restore},
		{"series", s.series.Restore},
		{"pending", s.queue.Restore},
	}
	for _, r := range restore {
		n, err := r.fn(ctx)
		if err != nil {
			s.logger.ErrorContext(ctx, "restore failed", "component", r.name, "error", err)
			continue
		}
		s.logger.InfoContext(ctx, "restored", "component", r.name, "count", n)
	}
}

// Tick runs one cycle unless another is in flight or the previous one began
// within the debounce window.
func (s *ResultsService) Tick(ctx context.Context) TickSummary {
	var summary TickSummary
	ran := s.gate.Run(func() {
		summary = s.tick(ctx)
	})
	if !ran {
		s.logger.DebugContext(ctx, "tick skipped")
		return TickSummary{Skipped: true}
	}
	return summary
}

func (s *ResultsService) tick(ctx context.Context) TickSummary {
	ctx, span := startUsecaseSpan(ctx, "usecase.ResultsService.Tick")
	defer span.End()

	start := time.Now()
	var summary TickSummary

	logger := s.logger
	if cycleID, err := s.cycleIDs.NewID(); err == nil {
		summary.CycleID = cycleID
		logger = logger.With("cycle_id", cycleID)
	}

	if _, err := s.directory.RefreshIfDue(ctx); err != nil {
		logger.WarnContext(ctx, "league refresh failed", "error", err)
	}

	if s.cfg.Mode == ModeDemo {
		if err := s.poller.DemoCycle(ctx, s.router.Denied, s.deliverStub); err != nil {
			logger.WarnContext(ctx, "demo cycle failed", "error", err)
		}
		summary.Duration = time.Since(start).String()
		return summary
	}

	poll, err := s.poller.PollLive(ctx)
	if err != nil {
		logger.WarnContext(ctx, "live poll failed, skipping cycle", "error", err)
	} else {
		enqueued, err := s.poller.CheckHistory(ctx)
		if err != nil {
			logger.WarnContext(ctx, "history check failed", "error", err)
		}
		poll.Enqueued = enqueued
	}
	summary.Poll = poll

	summary.Retried = s.queue.RetryAll(ctx)
	summary.Swept = s.series.Sweep(ctx)
	summary.Pending = s.queue.Len()
	summary.Duration = time.Since(start).String()

	logger.InfoContext(ctx, "tick complete",
		"live_games", poll.LiveGames,
		"ended", len(poll.Ended),
		"enqueued", poll.Enqueued,
		"retried", summary.Retried,
		"pending", summary.Pending,
	)
	return summary
}

// Deliver is the queue's delivery step: reconcile, record the series game,
// post, then drop the correlated lobby.
func (s *ResultsService) Deliver(ctx context.Context, p notification.Pending) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.ResultsService.Deliver")
	defer span.End()

	result, err := s.reconciler.Reconcile(ctx, p)
	if err != nil {
		return err
	}

	result = s.applySeries(ctx, result, p.Stub)

	if err := s.delivery.Send(ctx, result); err != nil {
		return err
	}

	if result.Lobby != nil {
		s.tracker.Evict(ctx, result.Lobby.LobbyID)
	}
	return nil
}

func (s *ResultsService) deliverStub(ctx context.Context, stub match.Stub) error {
	return s.Deliver(ctx, notification.Pending{MatchID: stub.MatchID, LeagueID: stub.LeagueID, Stub: stub})
}

func (s *ResultsService) applySeries(ctx context.Context, result match.Result, stub match.Stub) match.Result {
	format := result.SeriesType
	if format <= 0 {
		return result
	}

	key := series.Key(stub.SeriesID, result.TeamPair(), result.LeagueID)
	teamIDs := [2]int64{result.Teams[0].ID, result.Teams[1].ID}

	var status series.Status
	if wins, ok := LiveSeriesWins(result); ok {
		status = s.series.Override(ctx, key, result.MatchID, format, teamIDs, wins)
	} else {
		status = s.series.RecordGame(ctx, key, result.MatchID, format, teamIDs, result.WinnerID())
	}

	for i := range result.Teams {
		result.Teams[i].SeriesWins = status.Wins[i]
		result.Teams[i].WinsDisplay = status.Display[i]
	}
	return result
}

func (s *ResultsService) Directory() *LeagueDirectory {
	return s.directory
}

func (s *ResultsService) Tracker() *StateTracker {
	return s.tracker
}

func (s *ResultsService) Queue() *NotificationQueue {
	return s.queue
}

func (s *ResultsService) Series() *SeriesTracker {
	return s.series
}

func (s *ResultsService) HotLeagues() []int64 {
	return s.poller.HotLeagues()
}

// Close stops delay timers and waits for outstanding renders.
func (s *ResultsService) Close() {
	s.queue.Stop()
	s.delivery.Wait()
}
