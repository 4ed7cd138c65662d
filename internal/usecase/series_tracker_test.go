package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riskibarqy/dota2-results/internal/domain/series"
)

func newTestSeriesTracker(clock *testClock, repos testRepos) *SeriesTracker {
	tracker := NewSeriesTracker(repos.series, 12*time.Hour, nil)
	tracker.now = clock.Now
	return tracker
}

func TestSeriesTracker_RecordGameCountsEachMatchOnce(t *testing.T) {
	ctx := context.Background()
	clock := newTestClock()
	tracker := newTestSeriesTracker(clock, newTestRepos(clock))
	teams := [2]int64{testRadiantID, testDireID}

	status := tracker.RecordGame(ctx, "77", 1001, 1, teams, testRadiantID)
	assert.Equal(t, series.Status{Wins: [2]int{1, 0}, Display: [2]string{"◌●", "◌◌"}}, status)

	status = tracker.RecordGame(ctx, "77", 1001, 1, teams, testRadiantID)
	assert.Equal(t, [2]int{1, 0}, status.Wins, "retried delivery must not double count")

	status = tracker.RecordGame(ctx, "77", 1002, 1, teams, testDireID)
	assert.Equal(t, series.Status{Wins: [2]int{1, 1}, Display: [2]string{"◌●", "●◌"}}, status)
}

func TestSeriesTracker_UntrackedFormats(t *testing.T) {
	ctx := context.Background()
	clock := newTestClock()
	tracker := newTestSeriesTracker(clock, newTestRepos(clock))

	status := tracker.RecordGame(ctx, "k", 1, 0, [2]int64{1, 2}, 1)
	assert.Equal(t, series.Status{}, status)
	assert.Empty(t, tracker.List())
}

func TestSeriesTracker_OverrideUsesLiveCounts(t *testing.T) {
	ctx := context.Background()
	clock := newTestClock()
	tracker := newTestSeriesTracker(clock, newTestRepos(clock))
	teams := [2]int64{testRadiantID, testDireID}

	tracker.RecordGame(ctx, "k", 1, 2, teams, testRadiantID)
	status := tracker.Override(ctx, "k", 2, 2, teams, [2]int{1, 2})
	assert.Equal(t, [2]int{1, 2}, status.Wins)
	assert.Equal(t, [2]string{"◌◌●", "●●◌"}, status.Display)
}

func TestSeriesTracker_SweepSettlesDecidedAndDropsIdle(t *testing.T) {
	ctx := context.Background()
	clock := newTestClock()
	repos := newTestRepos(clock)
	tracker := newTestSeriesTracker(clock, repos)
	teams := [2]int64{testRadiantID, testDireID}

	tracker.RecordGame(ctx, "decided", 1, 1, teams, testRadiantID)
	tracker.RecordGame(ctx, "decided", 2, 1, teams, testRadiantID)
	tracker.RecordGame(ctx, "open", 3, 2, teams, testDireID)

	assert.Equal(t, 1, tracker.Sweep(ctx))
	require.Len(t, tracker.List(), 1)
	assert.Equal(t, "open", tracker.List()[0].Key)
	assert.Equal(t, 0, tracker.Sweep(ctx), "settled series are not counted twice")

	status, ok := tracker.Status("decided", teams)
	require.True(t, ok)
	assert.Equal(t, [2]int{2, 0}, status.Wins)

	clock.Advance(12*time.Hour + time.Minute)
	assert.Equal(t, 2, tracker.Sweep(ctx))
	assert.Empty(t, tracker.List())
	_, ok = tracker.Status("decided", teams)
	assert.False(t, ok)

	stored, err := repos.series.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestSeriesTracker_RetriedDecidingGameAfterSweep(t *testing.T) {
	ctx := context.Background()
	clock := newTestClock()
	tracker := newTestSeriesTracker(clock, newTestRepos(clock))
	teams := [2]int64{testRadiantID, testDireID}

	tracker.RecordGame(ctx, "77", 1001, 1, teams, testRadiantID)
	tracker.RecordGame(ctx, "77", 1002, 1, teams, testDireID)
	status := tracker.RecordGame(ctx, "77", 1003, 1, teams, testRadiantID)
	assert.Equal(t, [2]int{2, 1}, status.Wins)

	tracker.Sweep(ctx)

	status = tracker.RecordGame(ctx, "77", 1003, 1, teams, testRadiantID)
	assert.Equal(t, series.Status{Wins: [2]int{2, 1}, Display: [2]string{"●●", "◌●"}}, status)

	status = tracker.Override(ctx, "77", 1003, 1, teams, [2]int{0, 0})
	assert.Equal(t, [2]int{2, 1}, status.Wins)
}

func TestSeriesTracker_NewMatchAfterDecidedStartsFreshSeries(t *testing.T) {
	ctx := context.Background()
	clock := newTestClock()
	repos := newTestRepos(clock)
	tracker := newTestSeriesTracker(clock, repos)
	teams := [2]int64{testRadiantID, testDireID}

	tracker.RecordGame(ctx, "77", 1001, 1, teams, testDireID)
	tracker.RecordGame(ctx, "77", 1002, 1, teams, testDireID)
	tracker.Sweep(ctx)

	status := tracker.RecordGame(ctx, "77", 2001, 1, teams, testRadiantID)
	assert.Equal(t, [2]int{1, 0}, status.Wins)
	require.Len(t, tracker.List(), 1)
	assert.False(t, tracker.List()[0].Settled)
	assert.Equal(t, []int64{2001}, tracker.List()[0].Games)

	stored, err := repos.series.List(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, []int64{2001}, stored[0].Games)
}

func TestSeriesTracker_RestoreKeepsCounts(t *testing.T) {
	ctx := context.Background()
	clock := newTestClock()
	repos := newTestRepos(clock)
	teams := [2]int64{testRadiantID, testDireID}

	newTestSeriesTracker(clock, repos).RecordGame(ctx, "k", 1, 2, teams, testDireID)

	restored := newTestSeriesTracker(clock, repos)
	n, err := restored.Restore(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	status, ok := restored.Status("k", teams)
	require.True(t, ok)
	assert.Equal(t, [2]int{0, 1}, status.Wins)
}
