package notification

import "context"

type Repository interface {
	List(ctx context.Context) ([]Pending, error)
	Put(ctx context.Context, p Pending) error
	Delete(ctx context.Context, matchID int64) error
}
