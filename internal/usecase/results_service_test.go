package usecase

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/riskibarqy/dota2-results/internal/domain/league"
	"github.com/riskibarqy/dota2-results/internal/domain/lobby"
	"github.com/riskibarqy/dota2-results/internal/domain/match"
	"github.com/riskibarqy/dota2-results/internal/domain/notification"
	usecasemock "github.com/riskibarqy/dota2-results/internal/mocks/usecase"
)

type serviceHarness struct {
	clock    *testClock
	repos    testRepos
	timers   *manualTimers
	stats    *usecasemock.StatsProvider
	primary  *usecasemock.Transport
	alt      *usecasemock.Transport
	renderer *usecasemock.Renderer
	service  *ResultsService
}

func newServiceHarness(t *testing.T, clock *testClock, repos testRepos, cfg ResultsServiceConfig) *serviceHarness {
	t.Helper()
	h := &serviceHarness{
		clock:    clock,
		repos:    repos,
		timers:   &manualTimers{},
		stats:    usecasemock.NewStatsProvider(t),
		primary:  usecasemock.NewTransport(t),
		alt:      usecasemock.NewTransport(t),
		renderer: usecasemock.NewRenderer(t),
	}
	h.primary.On("Name").Return("primary").Maybe()
	h.alt.On("Name").Return("alt").Maybe()

	directory := NewLeagueDirectory(h.stats, repos.leagues, 24*time.Hour, nil)
	directory.now = clock.Now
	tracker := newTestTracker(clock, repos)
	seriesTracker := newTestSeriesTracker(clock, repos)

	var service *ResultsService
	queue := NewNotificationQueue(repos.pending, func(ctx context.Context, p notification.Pending) error {
		return service.Deliver(ctx, p)
	}, func(leagueID int64) time.Duration {
		if delay, ok := directory.StreamDelay(leagueID); ok {
			return delay
		}
		return defaultStreamDelay
	}, nil)
	queue.now = clock.Now
	queue.afterFunc = h.timers.AfterFunc

	poller := NewLivePoller(h.stats, tracker, directory, queue, LivePollerConfig{}, nil)
	poller.now = clock.Now

	router := NewRouter(nil, nil, league.TierProfessional)
	service = NewResultsService(ResultsServiceDeps{
		Directory:  directory,
		Tracker:    tracker,
		Poller:     poller,
		Queue:      queue,
		Reconciler: NewReconciler(h.stats, tracker, directory, time.Minute, nil),
		Series:     seriesTracker,
		Delivery:   NewDeliveryGate(h.primary, h.alt, nil, h.renderer, router, NewTeamHandles(nil), DeliveryConfig{}, nil),
		Router:     router,
	}, cfg, nil)
	t.Cleanup(service.Close)

	h.service = service
	return h
}

func (h *serviceHarness) expectLeagues() {
	h.stats.On("ListLeagues", mock.Anything).
		Return([]league.League{{ID: testLeagueID, Name: "The International", Tier: league.TierPremium}}, nil).
		Once()
}

// runLiveGame feeds ticks snapshots of one lobby, one per minute, with empty
// history while the game is live.
func (h *serviceHarness) runLiveGame(t *testing.T, lobbyID int64, ticks int) {
	t.Helper()
	ctx := context.Background()
	h.stats.On("ListRecentMatches", mock.Anything, testLeagueID, mock.Anything).Return([]match.Stub{}, nil).Times(ticks)
	for i := 1; i <= ticks; i++ {
		h.stats.On("ListLiveGames", mock.Anything).Return([]lobby.Snapshot{liveSnapshot(lobbyID, i*60)}, nil).Once()
		summary := h.service.Tick(ctx)
		require.False(t, summary.Skipped)
		require.Equal(t, 1, summary.Poll.LiveGames)
		require.True(t, strings.HasPrefix(summary.CycleID, "tick_"))
		h.clock.Advance(time.Minute)
	}
}

func TestResultsService_LiveGameIsPostedAfterStreamDelay(t *testing.T) {
	ctx := context.Background()
	clock := newTestClock()
	h := newServiceHarness(t, clock, newTestRepos(clock), ResultsServiceConfig{})
	h.expectLeagues()

	h.runLiveGame(t, 1, 50)

	stub := match.Stub{MatchID: 777, LeagueID: testLeagueID, RadiantTeamID: testRadiantID, DireTeamID: testDireID}
	h.stats.On("ListLiveGames", mock.Anything).Return([]lobby.Snapshot{}, nil)
	h.stats.On("ListRecentMatches", mock.Anything, testLeagueID, mock.Anything).Return([]match.Stub{stub}, nil)

	summary := h.service.Tick(ctx)
	require.Len(t, summary.Poll.Ended, 1)
	assert.Equal(t, 1, summary.Poll.Enqueued)
	assert.Equal(t, []time.Duration{5 * time.Minute}, h.timers.Delays())

	h.stats.On("GetMatchDetails", mock.Anything, int64(777)).Return(matchDetails(777, 25*60, 20, 31), nil).Once()
	h.renderer.On("RenderBoxScore", mock.MatchedBy(func(state lobby.State) bool {
		return state.LobbyID == 1 && len(state.GoldHistory) == 49
	}), mock.Anything).Return([]byte("png"), nil).Once()
	h.primary.On("PostWithMedia", mock.Anything, mock.MatchedBy(func(text string) bool {
		return strings.Contains(text, "[@EvilGeniuses] 31—20 @TeamLiquidPro") &&
			strings.Contains(text, "25m00s // The International") &&
			strings.HasSuffix(text, "http://dotabuff.com/matches/777")
	}), []byte("png")).Return(nil).Once()

	clock.Advance(5 * time.Minute)
	h.timers.FireAll()

	assert.Equal(t, 0, h.service.Queue().Len())
	_, ok := h.service.Tracker().Get(1)
	assert.False(t, ok, "delivered lobby is evicted")

	stored, err := h.repos.pending.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestResultsService_ScorelessShortMatchIsDropped(t *testing.T) {
	ctx := context.Background()
	clock := newTestClock()
	h := newServiceHarness(t, clock, newTestRepos(clock), ResultsServiceConfig{})
	h.expectLeagues()

	h.runLiveGame(t, 1, 5)

	stub := match.Stub{MatchID: 888, LeagueID: testLeagueID, RadiantTeamID: testRadiantID, DireTeamID: testDireID}
	h.stats.On("ListLiveGames", mock.Anything).Return([]lobby.Snapshot{}, nil)
	h.stats.On("ListRecentMatches", mock.Anything, testLeagueID, mock.Anything).Return([]match.Stub{stub}, nil)
	h.stats.On("GetMatchDetails", mock.Anything, int64(888)).Return(matchDetails(888, 300, 0, 0), nil).Once()

	summary := h.service.Tick(ctx)
	require.Equal(t, 1, summary.Poll.Enqueued)

	clock.Advance(5 * time.Minute)
	h.timers.FireAll()

	assert.Equal(t, 0, h.service.Queue().Len())
	stored, err := h.repos.pending.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestResultsService_RestartDeliversPersistedEntries(t *testing.T) {
	ctx := context.Background()
	clock := newTestClock()
	repos := newTestRepos(clock)

	first := newServiceHarness(t, clock, repos, ResultsServiceConfig{})
	first.expectLeagues()
	first.runLiveGame(t, 1, 3)

	stub := match.Stub{MatchID: 999, LeagueID: testLeagueID, RadiantTeamID: testRadiantID, DireTeamID: testDireID}
	first.stats.On("ListLiveGames", mock.Anything).Return([]lobby.Snapshot{}, nil).Once()
	first.stats.On("ListRecentMatches", mock.Anything, testLeagueID, mock.Anything).Return([]match.Stub{stub}, nil).Once()
	require.Equal(t, 1, first.service.Tick(ctx).Poll.Enqueued)
	first.service.Close()

	clock.Advance(time.Minute)
	restarted := newServiceHarness(t, clock, repos, ResultsServiceConfig{})
	restarted.service.Restore(ctx)
	require.Equal(t, 1, restarted.service.Queue().Len())

	restarted.stats.On("ListLiveGames", mock.Anything).Return([]lobby.Snapshot{}, nil).Once()
	restarted.stats.On("GetMatchDetails", mock.Anything, int64(999)).Return(matchDetails(999, 1800, 12, 14), nil).Once()
	restarted.renderer.On("RenderBoxScore", mock.Anything, mock.Anything).Return(nil, ErrInsufficientData).Once()
	restarted.primary.On("Post", mock.Anything, mock.MatchedBy(func(text string) bool {
		return strings.HasSuffix(text, "http://dotabuff.com/matches/999")
	})).Return(nil).Once()

	summary := restarted.service.Tick(ctx)
	assert.Equal(t, 1, summary.Retried)
	assert.Equal(t, 0, summary.Pending)
}

func TestResultsService_SilentModeLogsInsteadOfPosting(t *testing.T) {
	ctx := context.Background()
	clock := newTestClock()
	h := newServiceHarness(t, clock, newTestRepos(clock), ResultsServiceConfig{Mode: ModeSilent})
	h.service.delivery.cfg.Silent = true
	h.expectLeagues()

	h.runLiveGame(t, 1, 2)

	stub := match.Stub{MatchID: 555, LeagueID: testLeagueID, RadiantTeamID: testRadiantID, DireTeamID: testDireID}
	h.stats.On("ListLiveGames", mock.Anything).Return([]lobby.Snapshot{}, nil)
	h.stats.On("ListRecentMatches", mock.Anything, testLeagueID, mock.Anything).Return([]match.Stub{stub}, nil)
	h.stats.On("GetMatchDetails", mock.Anything, int64(555)).Return(matchDetails(555, 1800, 3, 4), nil).Once()

	h.service.Tick(ctx)
	h.timers.FireAll()
	assert.Equal(t, 0, h.service.Queue().Len())
}

func TestResultsService_TickIsDebounced(t *testing.T) {
	ctx := context.Background()
	clock := newTestClock()
	h := newServiceHarness(t, clock, newTestRepos(clock), ResultsServiceConfig{PollDebounce: time.Hour})
	h.expectLeagues()
	h.stats.On("ListLiveGames", mock.Anything).Return([]lobby.Snapshot{}, nil).Once()

	assert.False(t, h.service.Tick(ctx).Skipped)
	assert.True(t, h.service.Tick(ctx).Skipped)
}
