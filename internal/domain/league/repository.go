package league

import "context"

// Repository persists the league directory.
type Repository interface {
	List(ctx context.Context) ([]League, error)
	ReplaceAll(ctx context.Context, leagues []League) error
	Put(ctx context.Context, l League) error
}
