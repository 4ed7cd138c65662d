package kvrepo

import (
	"context"
	"sort"

	"github.com/cockroachdb/errors"

	"github.com/riskibarqy/dota2-results/internal/domain/league"
	"github.com/riskibarqy/dota2-results/internal/infrastructure/kv"
)

type LeagueRepository struct {
	store kv.Store
}

func NewLeagueRepository(store kv.Store) *LeagueRepository {
	return &LeagueRepository{store: store}
}

func (r *LeagueRepository) List(ctx context.Context) ([]league.League, error) {
	items, err := kv.ListJSON[league.League](ctx, r.store, leaguePrefix)
	if err != nil {
		return nil, errors.Wrap(err, "list leagues")
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

// ReplaceAll writes the given directory and drops leagues no longer listed.
func (r *LeagueRepository) ReplaceAll(ctx context.Context, leagues []league.League) error {
	existing, err := r.store.Keys(ctx, leaguePrefix)
	if err != nil {
		return errors.Wrap(err, "list league keys")
	}

	keep := make(map[string]struct{}, len(leagues))
	for _, l := range leagues {
		key := idKey(leaguePrefix, l.ID)
		keep[key] = struct{}{}
		if err := kv.SetJSON(ctx, r.store, key, l, 0); err != nil {
			return errors.Wrapf(err, "put league %d", l.ID)
		}
	}
	for _, key := range existing {
		if _, ok := keep[key]; ok {
			continue
		}
		if err := r.store.Delete(ctx, key); err != nil {
			return errors.Wrapf(err, "drop league %s", key)
		}
	}
	return nil
}

func (r *LeagueRepository) Put(ctx context.Context, l league.League) error {
	if err := l.Validate(); err != nil {
		return err
	}
	if err := kv.SetJSON(ctx, r.store, idKey(leaguePrefix, l.ID), l, 0); err != nil {
		return errors.Wrapf(err, "put league %d", l.ID)
	}
	return nil
}
