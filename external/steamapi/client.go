package steamapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"
	"github.com/riskibarqy/dota2-results/internal/domain/league"
	"github.com/riskibarqy/dota2-results/internal/domain/lobby"
	"github.com/riskibarqy/dota2-results/internal/domain/match"
	"github.com/riskibarqy/dota2-results/internal/platform/logging"
	"github.com/riskibarqy/dota2-results/internal/platform/resilience"
	"github.com/riskibarqy/dota2-results/internal/usecase"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL   = "https://api.steampowered.com"
	defaultTimeout   = 20 * time.Second
	matchInterface   = "/IDOTA2Match_570"
	teamsPerPage     = 100
	maxResponseBytes = 8 << 20
)

var (
	keyParamRegex      = regexp.MustCompile(`key=[^&\s"']+`)
	errSteamTransient  = errors.New("steam api transient failure")
	errMatchNotSettled = errors.New("match details not available yet")
)

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	Key            string
	Timeout        time.Duration
	MaxRetries     int
	RatePerSec     float64
	RateBurst      int
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client talks to the Dota 2 web API and maps its payloads onto the domain.
type Client struct {
	httpClient *http.Client
	baseURL    string
	key        string
	maxRetries int
	limiter    *rate.Limiter
	logger     *logging.Logger
	breaker    *resilience.CircuitBreaker
	flight     resilience.SingleFlight
	backoff    func(attempt int) time.Duration
}

var _ usecase.StatsProvider = (*Client)(nil)

func NewClient(cfg ClientConfig) *Client {
	logger := logging.OrDefault(cfg.Logger).Named("steamapi")

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = defaultTimeout
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	limit := rate.Inf
	if cfg.RatePerSec > 0 {
		limit = rate.Limit(cfg.RatePerSec)
	}
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 1
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		key:        strings.TrimSpace(cfg.Key),
		maxRetries: max(cfg.MaxRetries, 0),
		limiter:    rate.NewLimiter(limit, burst),
		logger:     logger,
		breaker: resilience.NewCircuitBreakerFromConfig("steamapi", cfg.CircuitBreaker, func(name string, from, to resilience.CircuitState) {
			logger.Warn("circuit breaker state changed", "breaker", name, "from", string(from), "to", string(to))
		}),
		backoff: func(attempt int) time.Duration { return time.Duration(attempt+1) * time.Second },
	}
}

func (c *Client) ListLeagues(ctx context.Context) ([]league.League, error) {
	var envelope leagueListingEnvelope
	if err := c.getJSON(ctx, matchInterface+"/GetLeagueListing/v1", nil, &envelope); err != nil {
		return nil, errors.Wrap(err, "get league listing")
	}

	out := make([]league.League, 0, len(envelope.Result.Leagues))
	for _, item := range envelope.Result.Leagues {
		if item.LeagueID <= 0 {
			continue
		}
		out = append(out, league.League{
			ID:   item.LeagueID,
			Name: strings.TrimSpace(item.Name),
			Tier: league.Tier(item.Tier),
		})
	}
	return out, nil
}

func (c *Client) ListLiveGames(ctx context.Context) ([]lobby.Snapshot, error) {
	var envelope liveGamesEnvelope
	if err := c.getJSON(ctx, matchInterface+"/GetLiveLeagueGames/v1", nil, &envelope); err != nil {
		return nil, errors.Wrap(err, "get live league games")
	}

	out := make([]lobby.Snapshot, 0, len(envelope.Result.Games))
	for _, game := range envelope.Result.Games {
		if game.LobbyID == 0 {
			continue
		}
		out = append(out, game.toSnapshot())
	}
	return out, nil
}

// ListRecentMatches returns the league's matches that started at or after
// since, newest first as upstream orders them.
func (c *Client) ListRecentMatches(ctx context.Context, leagueID int64, since time.Time) ([]match.Stub, error) {
	if leagueID <= 0 {
		return nil, errors.Wrap(usecase.ErrInvalidInput, "league id is required")
	}
	query := map[string]string{"league_id": strconv.FormatInt(leagueID, 10)}
	if !since.IsZero() {
		query["date_min"] = strconv.FormatInt(since.Unix(), 10)
	}

	var envelope matchHistoryEnvelope
	if err := c.getJSON(ctx, matchInterface+"/GetMatchHistory/v1", query, &envelope); err != nil {
		return nil, errors.Wrapf(err, "get match history league_id=%d", leagueID)
	}

	out := make([]match.Stub, 0, len(envelope.Result.Matches))
	for _, item := range envelope.Result.Matches {
		if item.MatchID <= 0 {
			continue
		}
		if !since.IsZero() && item.StartTime > 0 && item.StartTime < since.Unix() {
			continue
		}
		out = append(out, match.Stub{
			MatchID:       item.MatchID,
			LeagueID:      leagueID,
			SeriesID:      item.SeriesID,
			SeriesType:    item.SeriesType,
			RadiantTeamID: item.RadiantTeamID,
			DireTeamID:    item.DireTeamID,
			StartTime:     item.StartTime,
		})
	}
	return out, nil
}

func (c *Client) GetMatchDetails(ctx context.Context, matchID int64) (match.Details, error) {
	if matchID <= 0 {
		return match.Details{}, errors.Wrap(usecase.ErrInvalidInput, "match id is required")
	}

	var envelope matchDetailsEnvelope
	query := map[string]string{"match_id": strconv.FormatInt(matchID, 10)}
	if err := c.getJSON(ctx, matchInterface+"/GetMatchDetails/v1", query, &envelope); err != nil {
		return match.Details{}, errors.Wrapf(err, "get match details match_id=%d", matchID)
	}
	if msg := strings.TrimSpace(envelope.Result.Error); msg != "" {
		return match.Details{}, errors.Wrapf(errMatchNotSettled, "match_id=%d: %s", matchID, msg)
	}
	return envelope.Result.toDetails(), nil
}

// ListTeams returns one page of teams with ids at or above startAt.
func (c *Client) ListTeams(ctx context.Context, startAt int64) ([]match.TeamInfo, error) {
	query := map[string]string{
		"start_at_team_id": strconv.FormatInt(max(startAt, 0), 10),
		"teams_requested":  strconv.Itoa(teamsPerPage),
	}

	var envelope teamInfoEnvelope
	if err := c.getJSON(ctx, matchInterface+"/GetTeamInfoByTeamID/v1", query, &envelope); err != nil {
		return nil, errors.Wrapf(err, "get team info start_at=%d", startAt)
	}

	out := make([]match.TeamInfo, 0, len(envelope.Result.Teams))
	for _, team := range envelope.Result.Teams {
		if team.TeamID <= 0 {
			continue
		}
		out = append(out, match.TeamInfo{
			ID:   team.TeamID,
			Name: strings.TrimSpace(team.Name),
			Tag:  strings.TrimSpace(team.Tag),
			Logo: team.Logo,
		})
	}
	return out, nil
}

func (c *Client) getJSON(ctx context.Context, path string, query map[string]string, target any) error {
	if c.breaker != nil {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "steam api circuit breaker rejected request", "state", string(c.breaker.State()))
			return errors.Mark(errors.Wrap(err, "steam api is temporarily unavailable"), usecase.ErrDependencyUnavailable)
		}
	}

	values := url.Values{}
	for key, value := range query {
		values.Set(key, value)
	}
	if c.key != "" {
		values.Set("key", c.key)
	}
	fullURL := c.baseURL + path
	if encoded := values.Encode(); encoded != "" {
		fullURL += "?" + encoded
	}

	out, err, _ := c.flight.Do(fullURL, func() (any, error) {
		raw, reqErr := c.executeRequest(ctx, fullURL)
		if c.breaker != nil {
			if reqErr != nil && errors.Is(reqErr, errSteamTransient) {
				c.breaker.RecordFailure()
			} else {
				c.breaker.RecordSuccess()
			}
		}
		return raw, reqErr
	})
	if err != nil {
		return err
	}

	raw, ok := out.([]byte)
	if !ok {
		return errors.Newf("unexpected response payload type %T", out)
	}
	if err := sonic.Unmarshal(raw, target); err != nil {
		return errors.Mark(errors.Wrap(err, "decode steam api payload"), usecase.ErrDependencyUnavailable)
	}
	return nil
}

// executeRequest retries 429 and 5xx responses with linear backoff. Other
// statuses fail immediately.
func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, errors.Wrap(err, "wait for rate limiter")
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, errors.Wrap(err, "build request")
		}
		req.Header.Set("accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = errors.Mark(errors.Wrapf(errSteamTransient, "send request: %s", redact(err.Error(), c.key)), usecase.ErrDependencyUnavailable)
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
			_ = resp.Body.Close()
			switch {
			case readErr != nil:
				lastErr = errors.Mark(errors.Wrapf(errSteamTransient, "read response body: %v", readErr), usecase.ErrDependencyUnavailable)
			case resp.StatusCode >= 200 && resp.StatusCode < 300:
				return raw, nil
			case isRetryableStatus(resp.StatusCode):
				lastErr = errors.Mark(errors.Wrapf(errSteamTransient, "status=%d body=%s", resp.StatusCode, abbreviateBody(raw)), usecase.ErrDependencyUnavailable)
			default:
				return nil, errors.Newf("steam api status=%d body=%s", resp.StatusCode, abbreviateBody(raw))
			}
		}

		if attempt == c.maxRetries {
			break
		}
		timer := time.NewTimer(c.backoff(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("steam api request failed")
	}
	c.logger.WarnContext(ctx, "steam api request failed", "url", redact(fullURL, c.key), "error", lastErr)
	return nil, lastErr
}

func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func redact(value, key string) string {
	if key != "" {
		value = strings.ReplaceAll(value, key, "REDACTED")
	}
	return keyParamRegex.ReplaceAllString(value, "key=REDACTED")
}

func abbreviateBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) <= 240 {
		return text
	}
	return text[:240] + "..."
}
