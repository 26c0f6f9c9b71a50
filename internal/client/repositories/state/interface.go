// Package state persists small key/value records in the client's local
// database. The session manager keeps the cached user and token here under
// well-known keys; unrelated rows in the table are never touched.
package state

import "context"

// Repository is a key/value store with upsert semantics. Get returns
// (nil, nil) when the key is absent; Delete on a missing key is a no-op.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
