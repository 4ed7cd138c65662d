package kv

import (
	"context"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"
)

var ErrNotFound = errors.New("kv: key not found")

// Store is the durable key/value collaborator behind every repository.
// A ttl of zero keeps the entry until it is deleted.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context, prefix string) ([]string, error)
	Close() error
}

// GetJSON decodes the value at key into T. Missing keys report ok=false.
func GetJSON[T any](ctx context.Context, store Store, key string) (T, bool, error) {
	var out T
	raw, err := store.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return out, false, nil
	}
	if err != nil {
		return out, false, err
	}
	if err := sonic.Unmarshal(raw, &out); err != nil {
		return out, false, errors.Wrapf(err, "decode %s", key)
	}
	return out, true, nil
}

func SetJSON(ctx context.Context, store Store, key string, value any, ttl time.Duration) error {
	raw, err := sonic.Marshal(value)
	if err != nil {
		return errors.Wrapf(err, "encode %s", key)
	}
	return store.Set(ctx, key, raw, ttl)
}

// ListJSON decodes every live value under prefix. Entries that vanish
// between listing and reading are skipped.
func ListJSON[T any](ctx context.Context, store Store, prefix string) ([]T, error) {
	keys, err := store.Keys(ctx, prefix)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(keys))
	for _, key := range keys {
		item, ok, err := GetJSON[T](ctx, store, key)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, item)
		}
	}
	return out, nil
}

func expiry(now time.Time, ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return now.Add(ttl)
}

func isExpired(expiresAt, now time.Time) bool {
	return !expiresAt.IsZero() && !expiresAt.After(now)
}
