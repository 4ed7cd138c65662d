package kvrepo

import (
	"context"
	"sort"

	"github.com/cockroachdb/errors"

	"github.com/riskibarqy/dota2-results/internal/domain/notification"
	"github.com/riskibarqy/dota2-results/internal/infrastructure/kv"
)

type PendingRepository struct {
	store kv.Store
}

func NewPendingRepository(store kv.Store) *PendingRepository {
	return &PendingRepository{store: store}
}

func (r *PendingRepository) List(ctx context.Context) ([]notification.Pending, error) {
	items, err := kv.ListJSON[notification.Pending](ctx, r.store, pendingPrefix)
	if err != nil {
		return nil, errors.Wrap(err, "list pending notifications")
	}
	sort.Slice(items, func(i, j int) bool { return items[i].EnqueuedAt.Before(items[j].EnqueuedAt) })
	return items, nil
}

func (r *PendingRepository) Put(ctx context.Context, p notification.Pending) error {
	if p.MatchID <= 0 {
		return errors.New("pending match id is required")
	}
	if err := kv.SetJSON(ctx, r.store, idKey(pendingPrefix, p.MatchID), p, 0); err != nil {
		return errors.Wrapf(err, "put pending %d", p.MatchID)
	}
	return nil
}

func (r *PendingRepository) Delete(ctx context.Context, matchID int64) error {
	if err := r.store.Delete(ctx, idKey(pendingPrefix, matchID)); err != nil {
		return errors.Wrapf(err, "delete pending %d", matchID)
	}
	return nil
}
