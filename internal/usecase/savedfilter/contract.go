package savedfilter

import "context"

// Storage defines the key-value contract the store persists through.
// Get returns db.ErrKeyNotFound for a missing key.
type Storage interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}
