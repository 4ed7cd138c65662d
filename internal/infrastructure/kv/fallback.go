package kv

import (
	"context"
	"slices"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/riskibarqy/dota2-results/internal/platform/logging"
)

// FallbackStore serves every operation from primary and repeats it against
// secondary when primary fails. Failures never escape unless both fail.
// Reads and listings also see what secondary absorbed while degraded.
type FallbackStore struct {
	primary   Store
	secondary Store
	logger    *logging.Logger
	degraded  atomic.Bool
}

func NewFallbackStore(primary, secondary Store, logger *logging.Logger) *FallbackStore {
	return &FallbackStore{
		primary:   primary,
		secondary: secondary,
		logger:    logging.OrDefault(logger).Named("kv.fallback"),
	}
}

// Degraded reports whether the most recent primary operation failed.
func (s *FallbackStore) Degraded() bool {
	return s.degraded.Load()
}

// Get reads primary first. A key primary does not hold may still live in
// secondary from a degraded period, so secondary answers that miss.
func (s *FallbackStore) Get(ctx context.Context, key string) ([]byte, error) {
	raw, err := s.primary.Get(ctx, key)
	switch {
	case err == nil:
		s.recovered()
		return raw, nil
	case errors.Is(err, ErrNotFound):
		s.recovered()
	default:
		s.fail(ctx, "get", key, err)
	}
	return s.secondary.Get(ctx, key)
}

func (s *FallbackStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	err := s.primary.Set(ctx, key, value, ttl)
	if err == nil {
		s.recovered()
		return nil
	}
	s.fail(ctx, "set", key, err)
	return s.secondary.Set(ctx, key, value, ttl)
}

func (s *FallbackStore) Delete(ctx context.Context, key string) error {
	err := s.primary.Delete(ctx, key)
	// The secondary may hold a copy written while degraded.
	secondaryErr := s.secondary.Delete(ctx, key)
	if err == nil {
		s.recovered()
		return nil
	}
	s.fail(ctx, "delete", key, err)
	return secondaryErr
}

// Keys merges both stores so entries written while degraded stay listed
// after primary recovers.
func (s *FallbackStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	keys, err := s.primary.Keys(ctx, prefix)
	if err != nil {
		s.fail(ctx, "keys", prefix, err)
		return s.secondary.Keys(ctx, prefix)
	}
	s.recovered()

	extra, err := s.secondary.Keys(ctx, prefix)
	if err != nil {
		s.logger.WarnContext(ctx, "fallback keys unavailable", "prefix", prefix, "error", err)
		return keys, nil
	}
	if len(extra) == 0 {
		return keys, nil
	}
	merged := append(slices.Clone(keys), extra...)
	slices.Sort(merged)
	return slices.Compact(merged), nil
}

func (s *FallbackStore) Close() error {
	return errors.CombineErrors(s.primary.Close(), s.secondary.Close())
}

func (s *FallbackStore) fail(ctx context.Context, op, key string, err error) {
	if !s.degraded.Swap(true) {
		s.logger.ErrorContext(ctx, "durable store unavailable, degrading to fallback", "op", op, "key", key, "error", err)
		return
	}
	s.logger.WarnContext(ctx, "durable store still unavailable", "op", op, "key", key, "error", err)
}

func (s *FallbackStore) recovered() {
	if s.degraded.Swap(false) {
		s.logger.Info("durable store recovered")
	}
}
