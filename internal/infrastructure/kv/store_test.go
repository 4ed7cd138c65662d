package kv

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riskibarqy/dota2-results/internal/platform/logging"
)

type sample struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func storeContract(t *testing.T, store Store, advance func(time.Duration)) {
	t.Helper()
	ctx := context.Background()

	_, err := store.Get(ctx, "lobby:1")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, SetJSON(ctx, store, "lobby:1", sample{Name: "a", Count: 1}, time.Hour))
	require.NoError(t, SetJSON(ctx, store, "lobby:2", sample{Name: "b", Count: 2}, time.Minute))
	require.NoError(t, SetJSON(ctx, store, "series:x", sample{Name: "c"}, 0))

	got, ok, err := GetJSON[sample](ctx, store, "lobby:1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, sample{Name: "a", Count: 1}, got)

	keys, err := store.Keys(ctx, "lobby:")
	require.NoError(t, err)
	assert.Equal(t, []string{"lobby:1", "lobby:2"}, keys)

	advance(2 * time.Minute)
	items, err := ListJSON[sample](ctx, store, "lobby:")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "a", items[0].Name)

	require.NoError(t, store.Delete(ctx, "lobby:1"))
	require.NoError(t, store.Delete(ctx, "lobby:missing"))
	_, ok, err = GetJSON[sample](ctx, store, "lobby:1")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = GetJSON[sample](ctx, store, "series:x")
	require.NoError(t, err)
	assert.True(t, ok, "entries without ttl must not expire")
}

func TestMemoryStore(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore().WithClock(func() time.Time { return now })
	storeContract(t, store, func(d time.Duration) { now = now.Add(d) })
}

func TestFileStore(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	storeContract(t, store, func(d time.Duration) { now = now.Add(d) })
}

func TestFileStore_SurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	first, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, SetJSON(ctx, first, "pending:77", sample{Name: "queued"}, time.Hour))

	second, err := NewFileStore(dir)
	require.NoError(t, err)
	got, ok, err := GetJSON[sample](ctx, second, "pending:77")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "queued", got.Name)
}

type brokenStore struct{}

var errBroken = errors.New("connection refused")

func (brokenStore) Get(context.Context, string) ([]byte, error) { return nil, errBroken }
func (brokenStore) Set(context.Context, string, []byte, time.Duration) error {
	return errBroken
}
func (brokenStore) Delete(context.Context, string) error           { return errBroken }
func (brokenStore) Keys(context.Context, string) ([]string, error) { return nil, errBroken }
func (brokenStore) Close() error                                   { return nil }

func TestFallbackStore_DegradesToSecondary(t *testing.T) {
	ctx := context.Background()
	secondary := NewMemoryStore()
	store := NewFallbackStore(brokenStore{}, secondary, logging.NewNop())

	require.NoError(t, SetJSON(ctx, store, "league:1", sample{Name: "ti"}, 0))
	assert.True(t, store.Degraded())

	got, ok, err := GetJSON[sample](ctx, store, "league:1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "ti", got.Name)

	keys, err := store.Keys(ctx, "league:")
	require.NoError(t, err)
	assert.Equal(t, []string{"league:1"}, keys)

	require.NoError(t, store.Delete(ctx, "league:1"))
	_, err = secondary.Get(ctx, "league:1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFallbackStore_PrimaryHealthy(t *testing.T) {
	ctx := context.Background()
	primary := NewMemoryStore()
	secondary := NewMemoryStore()
	store := NewFallbackStore(primary, secondary, logging.NewNop())

	require.NoError(t, store.Set(ctx, "k", []byte("v"), 0))
	_, err := secondary.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.False(t, store.Degraded())

	_, err = store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEscapeGlob(t *testing.T) {
	assert.Equal(t, `lobby\*\?`, escapeGlob("lobby*?"))
}

type switchableStore struct {
	Store
	down bool
}

func (s *switchableStore) Get(ctx context.Context, key string) ([]byte, error) {
	if s.down {
		return nil, errBroken
	}
	return s.Store.Get(ctx, key)
}

func (s *switchableStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if s.down {
		return errBroken
	}
	return s.Store.Set(ctx, key, value, ttl)
}

func (s *switchableStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	if s.down {
		return nil, errBroken
	}
	return s.Store.Keys(ctx, prefix)
}

func TestFallbackStore_KeepsDegradedWritesAfterRecovery(t *testing.T) {
	ctx := context.Background()
	primary := &switchableStore{Store: NewMemoryStore(), down: true}
	secondary := NewMemoryStore()
	store := NewFallbackStore(primary, secondary, logging.NewNop())

	require.NoError(t, SetJSON(ctx, store, "pending:1", sample{Name: "queued while down"}, time.Hour))
	require.True(t, store.Degraded())

	primary.down = false
	require.NoError(t, SetJSON(ctx, store, "pending:2", sample{Name: "queued after"}, time.Hour))
	require.NoError(t, SetJSON(ctx, secondary, "pending:2", sample{Name: "stale copy"}, time.Hour))
	assert.False(t, store.Degraded())

	keys, err := store.Keys(ctx, "pending:")
	require.NoError(t, err)
	assert.Equal(t, []string{"pending:1", "pending:2"}, keys)

	got, ok, err := GetJSON[sample](ctx, store, "pending:1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "queued while down", got.Name)

	got, ok, err = GetJSON[sample](ctx, store, "pending:2")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "queued after", got.Name, "primary wins when both hold the key")

	require.NoError(t, store.Delete(ctx, "pending:1"))
	_, ok, err = GetJSON[sample](ctx, store, "pending:1")
	require.NoError(t, err)
	assert.False(t, ok)
}
