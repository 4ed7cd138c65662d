package kvrepo

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/riskibarqy/dota2-results/internal/domain/series"
	"github.com/riskibarqy/dota2-results/internal/infrastructure/kv"
)

type SeriesRepository struct {
	store kv.Store
	ttl   time.Duration
}

func NewSeriesRepository(store kv.Store, ttl time.Duration) *SeriesRepository {
	return &SeriesRepository{store: store, ttl: ttl}
}

func (r *SeriesRepository) List(ctx context.Context) ([]series.State, error) {
	items, err := kv.ListJSON[series.State](ctx, r.store, seriesPrefix)
	if err != nil {
		return nil, errors.Wrap(err, "list series")
	}
	return items, nil
}

func (r *SeriesRepository) Put(ctx context.Context, s series.State) error {
	if s.Key == "" {
		return errors.New("series key is required")
	}
	if err := kv.SetJSON(ctx, r.store, seriesPrefix+s.Key, s, r.ttl); err != nil {
		return errors.Wrapf(err, "put series %s", s.Key)
	}
	return nil
}

func (r *SeriesRepository) Delete(ctx context.Context, key string) error {
	if err := r.store.Delete(ctx, seriesPrefix+key); err != nil {
		return errors.Wrapf(err, "delete series %s", key)
	}
	return nil
}
