package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/riskibarqy/dota2-results/internal/domain/league"
	"github.com/riskibarqy/dota2-results/internal/domain/match"
	"github.com/riskibarqy/dota2-results/internal/domain/notification"
	usecasemock "github.com/riskibarqy/dota2-results/internal/mocks/usecase"
)

type staticLeagues map[int64]league.League

func (s staticLeagues) Get(id int64) (league.League, bool) {
	item, ok := s[id]
	return item, ok
}

func newTestReconciler(t *testing.T, clock *testClock) (*Reconciler, *usecasemock.StatsProvider, *StateTracker) {
	t.Helper()
	stats := usecasemock.NewStatsProvider(t)
	tracker := newTestTracker(clock, newTestRepos(clock))
	leagues := staticLeagues{testLeagueID: {ID: testLeagueID, Name: "The International", Tier: league.TierPremium}}
	return NewReconciler(stats, tracker, leagues, time.Minute, nil), stats, tracker
}

func pendingFor(matchID int64) notification.Pending {
	return notification.Pending{
		MatchID:  matchID,
		LeagueID: testLeagueID,
		Stub:     match.Stub{MatchID: matchID, LeagueID: testLeagueID, RadiantTeamID: testRadiantID, DireTeamID: testDireID},
	}
}

func TestReconciler_ReconcileMergesLobbyAndLeague(t *testing.T) {
	ctx := context.Background()
	clock := newTestClock()
	reconciler, stats, tracker := newTestReconciler(t, clock)

	tracker.Ingest(ctx, liveSnapshot(1, 60))
	tracker.Ingest(ctx, liveSnapshot(1, 120))

	stats.On("GetMatchDetails", mock.Anything, int64(500)).
		Return(matchDetails(500, 1500, 20, 31), nil).
		Once()

	result, err := reconciler.Reconcile(ctx, pendingFor(500))
	require.NoError(t, err)
	assert.Equal(t, "The International", result.LeagueName)
	assert.Equal(t, int(league.TierPremium), result.LeagueTier)
	assert.Equal(t, 31, result.Teams[0].Score)
	assert.Equal(t, 20, result.Teams[1].Score)
	assert.Equal(t, "[Evil Geniuses]", result.Teams[0].DisplayName)
	assert.Equal(t, "Team Liquid", result.Teams[1].DisplayName)
	require.NotNil(t, result.Lobby)
	assert.Equal(t, int64(1), result.Lobby.LobbyID)
	assert.Len(t, result.Lobby.GoldHistory, 1)

	// cached details serve the retry without another upstream call
	_, err = reconciler.Reconcile(ctx, pendingFor(500))
	require.NoError(t, err)
}

func TestReconciler_InvalidMatchesAreTerminal(t *testing.T) {
	tests := []struct {
		name    string
		details match.Details
	}{
		{name: "scoreless short game", details: matchDetails(1, 300, 0, 0)},
		{name: "unresolved team", details: func() match.Details {
			d := matchDetails(1, 2000, 10, 12)
			d.Dire.Name = ""
			return d
		}()},
		{name: "abandoned upstream", details: func() match.Details {
			d := matchDetails(1, 2000, 10, 12)
			d.Invalid = true
			return d
		}()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reconciler, stats, _ := newTestReconciler(t, newTestClock())
			stats.On("GetMatchDetails", mock.Anything, int64(1)).Return(tt.details, nil).Once()

			_, err := reconciler.Reconcile(context.Background(), pendingFor(1))
			assert.ErrorIs(t, err, ErrInvalidMatch)
			assert.True(t, IsTerminal(err))
		})
	}
}

func TestReconciler_ScorelessLongGameIsValid(t *testing.T) {
	reconciler, stats, _ := newTestReconciler(t, newTestClock())
	stats.On("GetMatchDetails", mock.Anything, int64(1)).Return(matchDetails(1, 900, 0, 0), nil).Once()

	_, err := reconciler.Reconcile(context.Background(), pendingFor(1))
	assert.NoError(t, err)
}

func TestReconciler_FetchErrorIsTransientAndNotCached(t *testing.T) {
	ctx := context.Background()
	reconciler, stats, _ := newTestReconciler(t, newTestClock())

	stats.On("GetMatchDetails", mock.Anything, int64(9)).Return(match.Details{}, errors.New("502 bad gateway")).Once()
	stats.On("GetMatchDetails", mock.Anything, int64(9)).Return(matchDetails(9, 1800, 5, 6), nil).Once()

	_, err := reconciler.Reconcile(ctx, pendingFor(9))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDependencyUnavailable))
	assert.False(t, IsTerminal(err))

	_, err = reconciler.Reconcile(ctx, pendingFor(9))
	assert.NoError(t, err)
}

func TestReconciler_EmptyDetailsAreTransientAndNotCached(t *testing.T) {
	ctx := context.Background()
	reconciler, stats, _ := newTestReconciler(t, newTestClock())

	stats.On("GetMatchDetails", mock.Anything, int64(11)).Return(match.Details{}, nil).Once()
	stats.On("GetMatchDetails", mock.Anything, int64(11)).Return(matchDetails(11, 1800, 5, 6), nil).Once()

	_, err := reconciler.Reconcile(ctx, pendingFor(11))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrIncompleteData))
	assert.True(t, errors.Is(err, ErrDependencyUnavailable))
	assert.False(t, errors.Is(err, ErrInvalidMatch))
	assert.False(t, IsTerminal(err))

	result, err := reconciler.Reconcile(ctx, pendingFor(11))
	require.NoError(t, err)
	assert.Equal(t, int64(11), result.MatchID)
}

func TestReconciler_MissingLobbyStillReconciles(t *testing.T) {
	reconciler, stats, _ := newTestReconciler(t, newTestClock())
	stats.On("GetMatchDetails", mock.Anything, int64(3)).Return(matchDetails(3, 1800, 5, 6), nil).Once()

	result, err := reconciler.Reconcile(context.Background(), pendingFor(3))
	require.NoError(t, err)
	assert.Nil(t, result.Lobby)
}

func TestLiveSeriesWins(t *testing.T) {
	snap := liveSnapshot(1, 60)
	snap.SeriesType = 1
	snap.RadiantSeriesWins = 0
	snap.DireSeriesWins = 1

	result := match.BuildResult(matchDetails(1, 2000, 4, 9))
	_, ok := LiveSeriesWins(result)
	assert.False(t, ok, "no lobby, no live counts")

	state := seedState(snap, time.Now())
	result.Lobby = state
	wins, ok := LiveSeriesWins(result)
	require.True(t, ok)
	assert.Equal(t, [2]int{1, 1}, wins)
}
