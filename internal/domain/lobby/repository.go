package lobby

import "context"

// Repository persists lobby state keyed by lobby id. Implementations apply
// their own expiry to every Put.
type Repository interface {
	Get(ctx context.Context, lobbyID int64) (State, bool, error)
	Put(ctx context.Context, state State) error
	Delete(ctx context.Context, lobbyID int64) error
	List(ctx context.Context) ([]State, error)
}
