package usecase

import (
	"context"
	"time"

	"github.com/riskibarqy/dota2-results/internal/domain/league"
	"github.com/riskibarqy/dota2-results/internal/domain/lobby"
	"github.com/riskibarqy/dota2-results/internal/domain/match"
)

// StatsProvider is the upstream source of leagues, live lobbies and match
// history.
type StatsProvider interface {
	ListLeagues(ctx context.Context) ([]league.League, error)
	ListLiveGames(ctx context.Context) ([]lobby.Snapshot, error)
	ListRecentMatches(ctx context.Context, leagueID int64, since time.Time) ([]match.Stub, error)
	GetMatchDetails(ctx context.Context, matchID int64) (match.Details, error)
	ListTeams(ctx context.Context, startAt int64) ([]match.TeamInfo, error)
}

// Transport posts a finished result to one channel. Duplicate and rate-limit
// rejections are reported as ErrTransportRejected.
type Transport interface {
	Name() string
	Post(ctx context.Context, text string) error
	PostWithMedia(ctx context.Context, text string, png []byte) error
}

type Renderer interface {
	RenderBoxScore(state lobby.State, result match.Result) ([]byte, error)
}

type Mailer interface {
	Send(ctx context.Context, subject, body string) error
}
