package series

import "context"

type Repository interface {
	List(ctx context.Context) ([]State, error)
	Put(ctx context.Context, s State) error
	Delete(ctx context.Context, key string) error
}
