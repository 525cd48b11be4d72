// Package store holds the key/value backends behind client-local state: the
// itinerary draft and the last viewed place of each session.
package store

import "context"

// KV is a durable byte store. Get returns types.ErrNotFound for missing keys.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
