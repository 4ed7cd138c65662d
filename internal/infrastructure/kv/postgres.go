package kv

import (
	"context"
	"database/sql"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jmoiron/sqlx"

	qb "github.com/riskibarqy/dota2-results/internal/platform/querybuilder"
)

const DefaultTable = "kv_entries"

type kvRow struct {
	Key       string       `db:"key"`
	Value     []byte       `db:"value"`
	ExpiresAt sql.NullTime `db:"expires_at"`
	UpdatedAt time.Time    `db:"updated_at"`
}

// PostgresStore keeps entries in the kv_entries table created by
// db/migrations.
type PostgresStore struct {
	db    *sqlx.DB
	table string
	now   func() time.Time
}

func NewPostgresStore(db *sqlx.DB, table string) *PostgresStore {
	if table == "" {
		table = DefaultTable
	}
	return &PostgresStore{db: db, table: table, now: time.Now}
}

func (s *PostgresStore) Get(ctx context.Context, key string) ([]byte, error) {
	query, args, err := qb.Select("key", "value", "expires_at", "updated_at").
		From(s.table).
		Where(qb.Eq("key", key)).
		ToSQL()
	if err != nil {
		return nil, errors.Wrap(err, "build select kv query")
	}

	var row kvRow
	if err := s.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrapf(err, "select kv %s", key)
	}
	if row.ExpiresAt.Valid && isExpired(row.ExpiresAt.Time, s.now()) {
		return nil, ErrNotFound
	}
	return row.Value, nil
}

func (s *PostgresStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	now := s.now()
	row := kvRow{Key: key, Value: value, UpdatedAt: now}
	if exp := expiry(now, ttl); !exp.IsZero() {
		row.ExpiresAt = sql.NullTime{Time: exp, Valid: true}
	}

	query, args, err := qb.InsertModel(s.table, row,
		`ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, expires_at = EXCLUDED.expires_at, updated_at = EXCLUDED.updated_at`)
	if err != nil {
		return errors.Wrap(err, "build upsert kv query")
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return errors.Wrapf(err, "upsert kv %s", key)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, key string) error {
	query, args, err := qb.DeleteFrom(s.table).Where(qb.Eq("key", key)).ToSQL()
	if err != nil {
		return errors.Wrap(err, "build delete kv query")
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return errors.Wrapf(err, "delete kv %s", key)
	}
	return nil
}

func (s *PostgresStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	query, args, err := qb.Select("key").
		From(s.table).
		Where(qb.HasPrefix("key", prefix), qb.Expr("(expires_at IS NULL OR expires_at > ?)", s.now())).
		OrderBy("key").
		ToSQL()
	if err != nil {
		return nil, errors.Wrap(err, "build list kv query")
	}

	keys := make([]string, 0)
	if err := s.db.SelectContext(ctx, &keys, query, args...); err != nil {
		return nil, errors.Wrapf(err, "list kv %s", prefix)
	}
	return keys, nil
}

// PurgeExpired removes rows whose expiry has passed.
func (s *PostgresStore) PurgeExpired(ctx context.Context) (int64, error) {
	query, args, err := qb.DeleteFrom(s.table).Where(qb.Expr("expires_at <= ?", s.now())).ToSQL()
	if err != nil {
		return 0, errors.Wrap(err, "build purge kv query")
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, errors.Wrap(err, "purge kv")
	}
	return res.RowsAffected()
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
