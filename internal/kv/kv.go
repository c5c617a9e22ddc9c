// Package kv defines the string-keyed store that persists cached icon
// records.
package kv

import "context"

// Store is a string-keyed key-value store. Get reports a missing key with
// ok == false and a nil error.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}
