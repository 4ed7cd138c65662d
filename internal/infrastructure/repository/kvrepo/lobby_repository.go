package kvrepo

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/riskibarqy/dota2-results/internal/domain/lobby"
	"github.com/riskibarqy/dota2-results/internal/infrastructure/kv"
)

type LobbyRepository struct {
	store kv.Store
	ttl   time.Duration
}

// NewLobbyRepository stores every lobby with the given expiry so abandoned
// lobbies age out of the store on their own.
func NewLobbyRepository(store kv.Store, ttl time.Duration) *LobbyRepository {
	return &LobbyRepository{store: store, ttl: ttl}
}

func (r *LobbyRepository) Get(ctx context.Context, lobbyID int64) (lobby.State, bool, error) {
	state, ok, err := kv.GetJSON[lobby.State](ctx, r.store, idKey(lobbyPrefix, lobbyID))
	if err != nil {
		return lobby.State{}, false, errors.Wrapf(err, "get lobby %d", lobbyID)
	}
	return state, ok, nil
}

func (r *LobbyRepository) Put(ctx context.Context, state lobby.State) error {
	if err := kv.SetJSON(ctx, r.store, idKey(lobbyPrefix, state.LobbyID), state, r.ttl); err != nil {
		return errors.Wrapf(err, "put lobby %d", state.LobbyID)
	}
	return nil
}

func (r *LobbyRepository) Delete(ctx context.Context, lobbyID int64) error {
	if err := r.store.Delete(ctx, idKey(lobbyPrefix, lobbyID)); err != nil {
		return errors.Wrapf(err, "delete lobby %d", lobbyID)
	}
	return nil
}

func (r *LobbyRepository) List(ctx context.Context) ([]lobby.State, error) {
	items, err := kv.ListJSON[lobby.State](ctx, r.store, lobbyPrefix)
	if err != nil {
		return nil, errors.Wrap(err, "list lobbies")
	}
	return items, nil
}
