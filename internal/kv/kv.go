// Package kv defines the persistent key/value capability used by the asset cache.
package kv

import "context"

// Store is a string key/value store.
//
// Set never overwrites: the first value written for a key is kept for the
// lifetime of the storage, and later writes for the same key are ignored.
type Store interface {
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores value under key unless the key already holds a value.
	Set(ctx context.Context, key, value string) error
}
