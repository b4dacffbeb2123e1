package merge

import "context"

//go:generate mockgen -source=cursor.go -destination=../mock/merge/mock_cursor.go -package=mock

// ShardCursor is a lazily advancing, individually ordered row stream of one
// shard. Values is valid until the next call to Next. Implementations are not
// safe for concurrent Next calls.
type ShardCursor interface {
	Columns() []string
	Next(ctx context.Context) (bool, error)
	Values() []any
	Close() error
}
