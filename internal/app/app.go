package app

import (
	"context"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/riskibarqy/dota2-results/external/mail"
	"github.com/riskibarqy/dota2-results/external/steamapi"
	"github.com/riskibarqy/dota2-results/external/telegram"
	"github.com/riskibarqy/dota2-results/external/twitter"
	"github.com/riskibarqy/dota2-results/internal/config"
	"github.com/riskibarqy/dota2-results/internal/domain/league"
	"github.com/riskibarqy/dota2-results/internal/domain/notification"
	"github.com/riskibarqy/dota2-results/internal/infrastructure/kv"
	"github.com/riskibarqy/dota2-results/internal/infrastructure/repository/kvrepo"
	"github.com/riskibarqy/dota2-results/internal/interfaces/httpapi"
	"github.com/riskibarqy/dota2-results/internal/platform/logging"
	"github.com/riskibarqy/dota2-results/internal/platform/resilience"
	"github.com/riskibarqy/dota2-results/internal/render"
	"github.com/riskibarqy/dota2-results/internal/usecase"
)

const (
	storePurgeInterval = time.Hour
	shutdownTimeout    = 10 * time.Second
)

// App is the assembled worker: store, upstream client, pipeline, scheduler
// and the optional ops API.
type App struct {
	cfg     config.Config
	mode    usecase.Mode
	logger  *logging.Logger
	store   kv.Store
	pg      *kv.PostgresStore
	service *usecase.ResultsService
	ops     *http.Server
}

func New(ctx context.Context, cfg config.Config, mode usecase.Mode, logger *logging.Logger) (*App, error) {
	logger = logging.OrDefault(logger)
	if mode != usecase.ModeDemo && cfg.SteamAPIKey == "" {
		return nil, errors.Wrap(usecase.ErrInvalidInput, "STEAM_API_KEY is required unless running in demo mode")
	}

	store, pg, err := openStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	steam := NewSteamClient(cfg, logger)
	primary, alt, err := buildTransports(cfg, logger)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	mailer, err := buildMailer(cfg, logger)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	service := buildService(cfg, mode, store, steam, primary, alt, mailer, logger)

	a := &App{
		cfg:     cfg,
		mode:    mode,
		logger:  logger.Named("app"),
		store:   store,
		pg:      pg,
		service: service,
	}
	if cfg.HTTPAddr != "" {
		a.ops = &http.Server{
			Addr:         cfg.HTTPAddr,
			Handler:      httpapi.NewRouter(httpapi.NewHandler(NewOpsState(service), render.RenderDraft, logger), logger),
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		}
	}
	return a, nil
}

// NewSteamClient builds the rate limited, circuit broken stats provider.
func NewSteamClient(cfg config.Config, logger *logging.Logger) *steamapi.Client {
	return steamapi.NewClient(steamapi.ClientConfig{
		BaseURL:    cfg.SteamBaseURL,
		Key:        cfg.SteamAPIKey,
		Timeout:    cfg.SteamTimeout,
		MaxRetries: cfg.SteamMaxRetries,
		RatePerSec: cfg.SteamRatePerSec,
		RateBurst:  cfg.SteamRateBurst,
		Logger:     logger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.SteamCircuitEnabled,
			FailureThreshold: cfg.SteamCircuitFailureCount,
			OpenTimeout:      cfg.SteamCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.SteamCircuitHalfOpenMaxReq,
		},
	})
}

func buildService(
	cfg config.Config,
	mode usecase.Mode,
	store kv.Store,
	stats usecase.StatsProvider,
	primary, alt usecase.Transport,
	mailer usecase.Mailer,
	logger *logging.Logger,
) *usecase.ResultsService {
	directory := usecase.NewLeagueDirectory(stats, kvrepo.NewLeagueRepository(store), cfg.LeagueRefreshInterval, logger)
	tracker := usecase.NewStateTracker(kvrepo.NewLobbyRepository(store, cfg.LobbyStaleAfter), usecase.StateTrackerConfig{
		StaleAfter: cfg.LobbyStaleAfter,
	}, logger)
	seriesTracker := usecase.NewSeriesTracker(kvrepo.NewSeriesRepository(store, cfg.SeriesStaleAfter), cfg.SeriesStaleAfter, logger)

	var service *usecase.ResultsService
	queue := usecase.NewNotificationQueue(kvrepo.NewPendingRepository(store), func(ctx context.Context, p notification.Pending) error {
		return service.Deliver(ctx, p)
	}, func(leagueID int64) time.Duration {
		if delay, ok := directory.StreamDelay(leagueID); ok {
			return delay
		}
		return cfg.DefaultStreamDelay
	}, logger)

	poller := usecase.NewLivePoller(stats, tracker, directory, queue, usecase.LivePollerConfig{
		HotWindow:       cfg.HotLeagueWindow,
		HistoryLookback: cfg.HistoryLookback,
		DemoLookback:    cfg.DemoHistoryLookback,
		Workers:         cfg.PollWorkers,
	}, logger)

	router := usecase.NewRouter(cfg.BlacklistedLeagueIDs, cfg.AllowedLeagueIDs, league.Tier(cfg.PrimaryMinTier))
	delivery := usecase.NewDeliveryGate(
		primary,
		alt,
		mailer,
		render.NewBoxScore(logger),
		router,
		usecase.NewTeamHandles(cfg.TeamHandles),
		usecase.DeliveryConfig{
			Silent:    mode != usecase.ModeLive,
			MaxLength: cfg.TwitterMaxLength,
		},
		logger,
	)

	service = usecase.NewResultsService(usecase.ResultsServiceDeps{
		Directory:  directory,
		Tracker:    tracker,
		Poller:     poller,
		Queue:      queue,
		Reconciler: usecase.NewReconciler(stats, tracker, directory, cfg.MatchDetailsCacheTTL, logger),
		Series:     seriesTracker,
		Delivery:   delivery,
		Router:     router,
	}, usecase.ResultsServiceConfig{
		Mode:         mode,
		PollDebounce: cfg.PollDebounce,
	}, logger)
	return service
}

// buildTransports returns nil interfaces, never typed nils, for channels that
// are not configured.
func buildTransports(cfg config.Config, logger *logging.Logger) (usecase.Transport, usecase.Transport, error) {
	var primary, alt usecase.Transport
	if cfg.TwitterAccessToken != "" {
		primary = twitter.NewClient(twitter.ClientConfig{
			Name:        "twitter",
			BaseURL:     cfg.TwitterBaseURL,
			AccessToken: cfg.TwitterAccessToken,
			Timeout:     cfg.TwitterTimeout,
			Logger:      logger,
		})
	}

	switch cfg.AltTransport {
	case config.AltTwitter:
		if cfg.TwitterAltAccessToken != "" {
			alt = twitter.NewClient(twitter.ClientConfig{
				Name:        "twitter_alt",
				BaseURL:     cfg.TwitterBaseURL,
				AccessToken: cfg.TwitterAltAccessToken,
				Timeout:     cfg.TwitterTimeout,
				Logger:      logger,
			})
		}
	case config.AltTelegram:
		client, err := telegram.Dial(cfg.TelegramBotToken, cfg.TelegramChatID, logger)
		if err != nil {
			return nil, nil, errors.Wrap(err, "build telegram transport")
		}
		alt = client
	}
	return primary, alt, nil
}

func buildMailer(cfg config.Config, logger *logging.Logger) (usecase.Mailer, error) {
	m, err := mail.New(mail.Config{
		Addr:        cfg.SMTPAddr,
		Username:    cfg.SMTPUsername,
		Password:    cfg.SMTPPassword,
		From:        cfg.SMTPFrom,
		Subscribers: cfg.EmailSubscribers,
		Logger:      logger,
	})
	if err != nil {
		return nil, errors.Wrap(err, "build mailer")
	}
	if m == nil {
		return nil, nil
	}
	return m, nil
}

func (a *App) Service() *usecase.ResultsService {
	return a.service
}

// Jobs lists the recurring work. League refresh and the series sweep ride on
// the tick.
func (a *App) Jobs() []Job {
	jobs := []Job{
		{Name: "results.tick", Every: a.cfg.PollInterval, Immediate: true, Run: func(ctx context.Context) {
			a.service.Tick(ctx)
		}},
	}
	if a.pg != nil {
		jobs = append(jobs, Job{Name: "store.purge", Every: storePurgeInterval, Run: func(ctx context.Context) {
			n, err := a.pg.PurgeExpired(ctx)
			if err != nil {
				a.logger.WarnContext(ctx, "purge expired entries failed", "error", err)
				return
			}
			a.logger.DebugContext(ctx, "expired entries purged", "count", n)
		}})
	}
	return jobs
}

// Run restores persisted state, then drives the scheduler and the ops API
// until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	a.service.Restore(ctx)

	scheduler, err := NewScheduler(ctx, a.Jobs(), a.logger)
	if err != nil {
		return err
	}
	scheduler.Start()
	a.logger.InfoContext(ctx, "results worker started", "mode", string(a.mode), "poll_interval", a.cfg.PollInterval.String())

	serverErr := make(chan error, 1)
	if a.ops != nil {
		go func() {
			a.logger.Info("ops api starting", "addr", a.ops.Addr)
			if err := a.ops.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serverErr <- err
			}
		}()
	}

	select {
	case <-ctx.Done():
	case err = <-serverErr:
		err = errors.Wrap(err, "ops api failed")
	}

	if stopErr := scheduler.Stop(); stopErr != nil {
		a.logger.Error("scheduler shutdown failed", "error", stopErr)
	}
	if a.ops != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if shutdownErr := a.ops.Shutdown(shutdownCtx); shutdownErr != nil {
			a.logger.Error("ops api shutdown failed", "error", shutdownErr)
		}
	}
	return err
}

// Close stops delivery timers, waits for renders and releases the store.
func (a *App) Close() error {
	a.service.Close()
	return a.store.Close()
}
