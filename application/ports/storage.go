package ports

import "context"

// KeyValueStore is a flat string-keyed blob store. Get reports found=false
// for absent keys. Keys returns every key starting with prefix.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context, prefix string) ([]string, error)
	Close() error
}
