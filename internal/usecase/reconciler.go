package usecase

import (
	"context"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/riskibarqy/dota2-results/internal/domain/league"
	"github.com/riskibarqy/dota2-results/internal/domain/lobby"
	"github.com/riskibarqy/dota2-results/internal/domain/match"
	"github.com/riskibarqy/dota2-results/internal/domain/notification"
	"github.com/riskibarqy/dota2-results/internal/platform/cache"
	"github.com/riskibarqy/dota2-results/internal/platform/logging"
)

const defaultMatchDetailsTTL = 30 * time.Minute

type MatchDetailsSource interface {
	GetMatchDetails(ctx context.Context, matchID int64) (match.Details, error)
}

// LobbyCorrelator pairs a finished match with a tracked lobby.
type LobbyCorrelator interface {
	Claim(ctx context.Context, matchID int64, pair lobby.TeamPair, leagueID int64) (lobby.State, bool)
}

type LeagueLookup interface {
	Get(leagueID int64) (league.League, bool)
}

// Reconciler turns a pending match into an enriched result: authoritative
// details, validity, winner and the correlated live lobby.
type Reconciler struct {
	details    MatchDetailsSource
	correlator LobbyCorrelator
	leagues    LeagueLookup
	cache      *cache.Store[match.Details]
	logger     *logging.Logger
}

func NewReconciler(
	details MatchDetailsSource,
	correlator LobbyCorrelator,
	leagues LeagueLookup,
	cacheTTL time.Duration,
	logger *logging.Logger,
) *Reconciler {
	if cacheTTL <= 0 {
		cacheTTL = defaultMatchDetailsTTL
	}
	return &Reconciler{
		details:    details,
		correlator: correlator,
		leagues:    leagues,
		cache:      cache.NewStore[match.Details](cacheTTL),
		logger:     logging.OrDefault(logger).Named("reconciler"),
	}
}

func (r *Reconciler) Reconcile(ctx context.Context, p notification.Pending) (match.Result, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.Reconciler.Reconcile")
	defer span.End()

	if p.MatchID <= 0 {
		return match.Result{}, errors.Wrap(ErrInvalidInput, "match id is required")
	}

	details, err := r.cache.GetOrLoad(ctx, strconv.FormatInt(p.MatchID, 10), func(ctx context.Context) (match.Details, error) {
		return r.details.GetMatchDetails(ctx, p.MatchID)
	})
	if err != nil {
		if errors.Is(err, ErrInvalidMatch) {
			return match.Result{}, err
		}
		return match.Result{}, errors.Mark(errors.Wrapf(err, "get match details %d", p.MatchID), ErrDependencyUnavailable)
	}
	if details.Invalid {
		r.cache.Delete(ctx, strconv.FormatInt(p.MatchID, 10))
		return match.Result{}, errors.Wrapf(ErrInvalidMatch, "match %d flagged invalid upstream", p.MatchID)
	}
	// An empty payload is upstream noise; the next retry pass asks again.
	if len(details.Players) == 0 {
		r.cache.Delete(ctx, strconv.FormatInt(p.MatchID, 10))
		return match.Result{}, errors.Mark(
			errors.Wrapf(ErrIncompleteData, "match %d details carry no players", p.MatchID),
			ErrDependencyUnavailable,
		)
	}

	if details.MatchID == 0 {
		details.MatchID = p.MatchID
	}
	if details.LeagueID == 0 {
		details.LeagueID = p.LeagueID
	}
	if details.Radiant.ID == 0 {
		details.Radiant.ID = p.Stub.RadiantTeamID
	}
	if details.Dire.ID == 0 {
		details.Dire.ID = p.Stub.DireTeamID
	}

	result := match.BuildResult(details)
	result.SeriesType = p.Stub.SeriesType
	if !match.IsValid([2]int{result.Teams[0].Score, result.Teams[1].Score}, result.Duration, result.Teams[0].Name, result.Teams[1].Name) {
		return match.Result{}, errors.Wrapf(ErrInvalidMatch,
			"match %d: score %d-%d duration %ds teams %q vs %q",
			p.MatchID, result.Teams[0].Score, result.Teams[1].Score, result.Duration, result.Teams[0].Name, result.Teams[1].Name)
	}

	if item, ok := r.leagues.Get(result.LeagueID); ok {
		result.LeagueName = item.Name
		result.LeagueTier = int(item.Tier)
	}

	state, ok := r.correlator.Claim(ctx, result.MatchID, result.TeamPair(), result.LeagueID)
	if ok {
		result.Lobby = &state
		if result.SeriesType == 0 {
			result.SeriesType = state.LastSnapshot.SeriesType
		}
		if result.LeagueTier == 0 {
			result.LeagueTier = state.LastSnapshot.LeagueTier
		}
	} else {
		r.logger.InfoContext(ctx, "no lobby correlated, media will be skipped",
			"match_id", result.MatchID, "league_id", result.LeagueID)
	}

	return result, nil
}

// LiveSeriesWins returns the series counts after this game as observed on the
// correlated lobby, ordered like result.Teams.
func LiveSeriesWins(result match.Result) ([2]int, bool) {
	if result.Lobby == nil {
		return [2]int{}, false
	}
	snap := result.Lobby.LastSnapshot
	if snap.SeriesType <= 0 {
		return [2]int{}, false
	}

	before := map[int64]int{
		snap.RadiantTeam.ID: snap.RadiantSeriesWins,
		snap.DireTeam.ID:    snap.DireSeriesWins,
	}
	var wins [2]int
	for i, team := range result.Teams {
		w, ok := before[team.ID]
		if !ok {
			return [2]int{}, false
		}
		if team.Winner {
			w++
		}
		wins[i] = w
	}
	return wins, true
}
