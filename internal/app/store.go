package app

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"

	"github.com/riskibarqy/dota2-results/internal/config"
	"github.com/riskibarqy/dota2-results/internal/infrastructure/kv"
	"github.com/riskibarqy/dota2-results/internal/platform/logging"
)

const (
	storeNamespace   = "dota2results"
	storeDialTimeout = 5 * time.Second
)

// openStore builds the configured backend. Durable backends are wrapped so
// that a failing primary degrades to the file store instead of losing state.
func openStore(ctx context.Context, cfg config.Config, logger *logging.Logger) (kv.Store, *kv.PostgresStore, error) {
	logger = logging.OrDefault(logger).Named("store")

	switch cfg.StoreBackend {
	case config.StoreMemory:
		logger.Warn("memory store selected, state will not survive restarts")
		return kv.NewMemoryStore(), nil, nil
	case config.StoreFile:
		file, err := kv.NewFileStore(cfg.StoreFileDir)
		if err != nil {
			return nil, nil, errors.Wrap(err, "open file store")
		}
		logger.Info("file store selected", "dir", cfg.StoreFileDir)
		return file, nil, nil
	}

	file, fileErr := kv.NewFileStore(cfg.StoreFileDir)
	if fileErr != nil {
		logger.Error("file fallback unavailable, using memory", "dir", cfg.StoreFileDir, "error", fileErr)
	}
	var secondary kv.Store = kv.NewMemoryStore()
	if file != nil {
		secondary = file
	}

	var (
		primary kv.Store
		pg      *kv.PostgresStore
	)
	switch cfg.StoreBackend {
	case config.StoreRedis:
		redisStore, err := kv.NewRedisStore(ctx, cfg.RedisURL, storeNamespace)
		if err != nil {
			logger.Error("redis unavailable, degrading to fallback store", "error", err)
			return secondary, nil, nil
		}
		primary = redisStore
	case config.StorePostgres:
		db, err := openPostgres(ctx, cfg)
		if err != nil {
			logger.Error("postgres unavailable, degrading to fallback store", "error", err)
			return secondary, nil, nil
		}
		pg = kv.NewPostgresStore(db, kv.DefaultTable)
		primary = pg
	default:
		return nil, nil, errors.Newf("unknown store backend %q", cfg.StoreBackend)
	}

	logger.Info("store selected", "backend", cfg.StoreBackend, "fallback_dir", cfg.StoreFileDir)
	return kv.NewFallbackStore(primary, secondary, logger), pg, nil
}

func openPostgres(ctx context.Context, cfg config.Config) (*sqlx.DB, error) {
	dsn := NormalizeDBURL(cfg.DBURL, cfg.DBDisablePreparedBinary)
	db, err := otelsqlx.Open("postgres", dsn,
		otelsql.WithDBSystem("postgresql"),
		otelsql.WithDBName(DBNameFromURL(dsn)),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	)
	if err != nil {
		return nil, errors.Wrap(err, "open postgres")
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, storeDialTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "ping postgres")
	}
	return db, nil
}
