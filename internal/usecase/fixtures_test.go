package usecase

import (
	"sync"
	"time"

	"github.com/riskibarqy/dota2-results/internal/domain/lobby"
	"github.com/riskibarqy/dota2-results/internal/domain/match"
	"github.com/riskibarqy/dota2-results/internal/infrastructure/kv"
	"github.com/riskibarqy/dota2-results/internal/infrastructure/repository/kvrepo"
)

const (
	testLeagueID  int64 = 4122
	testRadiantID int64 = 39
	testDireID    int64 = 2163
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 5, 2, 18, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type testRepos struct {
	store   *kv.MemoryStore
	leagues *kvrepo.LeagueRepository
	lobbies *kvrepo.LobbyRepository
	series  *kvrepo.SeriesRepository
	pending *kvrepo.PendingRepository
}

func newTestRepos(clock *testClock) testRepos {
	store := kv.NewMemoryStore().WithClock(clock.Now)
	return testRepos{
		store:   store,
		leagues: kvrepo.NewLeagueRepository(store),
		lobbies: kvrepo.NewLobbyRepository(store, 4*time.Hour),
		series:  kvrepo.NewSeriesRepository(store, 12*time.Hour),
		pending: kvrepo.NewPendingRepository(store),
	}
}

// manualTimers captures AfterFunc callbacks so tests decide when they fire.
type manualTimers struct {
	mu     sync.Mutex
	timers []*manualTimer
}

type manualTimer struct {
	delay   time.Duration
	fn      func()
	stopped bool
}

func (t *manualTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

func (m *manualTimers) AfterFunc(d time.Duration, f func()) Timer {
	m.mu.Lock()
	defer m.mu.Unlock()
	timer := &manualTimer{delay: d, fn: f}
	m.timers = append(m.timers, timer)
	return timer
}

func (m *manualTimers) FireAll() {
	m.mu.Lock()
	pending := append([]*manualTimer(nil), m.timers...)
	m.timers = nil
	m.mu.Unlock()

	for _, timer := range pending {
		if !timer.stopped {
			timer.fn()
		}
	}
}

func (m *manualTimers) Delays() []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]time.Duration, 0, len(m.timers))
	for _, timer := range m.timers {
		out = append(out, timer.delay)
	}
	return out
}

func liveSnapshot(lobbyID int64, duration int) lobby.Snapshot {
	players := func(gpm int) []lobby.BoardPlayer {
		out := make([]lobby.BoardPlayer, 5)
		for i := range out {
			out[i] = lobby.BoardPlayer{HeroID: i + 1, GoldPerMin: gpm}
		}
		return out
	}
	return lobby.Snapshot{
		LobbyID:            lobbyID,
		LeagueID:           testLeagueID,
		LeagueTier:         3,
		StreamDelaySeconds: 300,
		RadiantTeam:        lobby.TeamRef{ID: testRadiantID, Name: "Evil Geniuses"},
		DireTeam:           lobby.TeamRef{ID: testDireID, Name: "Team Liquid"},
		Scoreboard: &lobby.Scoreboard{
			Duration: duration,
			Radiant: lobby.TeamBoard{
				TowerState:    0x7FF,
				BarracksState: 0x3F,
				Players:       players(600),
			},
			Dire: lobby.TeamBoard{
				TowerState:    0x7FF,
				BarracksState: 0x3F,
				Players:       players(500),
			},
		},
	}
}

func matchPlayers(radiantDeaths, direDeaths int) []match.Player {
	return []match.Player{
		{AccountID: 1, Slot: 0, Deaths: radiantDeaths},
		{AccountID: 2, Slot: 128, Deaths: direDeaths},
	}
}

func matchDetails(matchID int64, duration int, radiantDeaths, direDeaths int) match.Details {
	return match.Details{
		MatchID:    matchID,
		LeagueID:   testLeagueID,
		Duration:   duration,
		RadiantWin: true,
		Radiant:    match.TeamInfo{ID: testRadiantID, Name: "Evil Geniuses"},
		Dire:       match.TeamInfo{ID: testDireID, Name: "Team Liquid"},
		Players:    matchPlayers(radiantDeaths, direDeaths),
	}
}
