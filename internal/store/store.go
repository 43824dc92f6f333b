// Package store persists the small keyed records the application shares
// between its capture, ask and settings paths.
package store

import (
	"context"
	"errors"
	"regexp"
)

// ErrNotFound is returned by Get when the key has no value.
var ErrNotFound = errors.New("store: not found")

// Store is a JSON key-value store. Values are encoded with encoding/json.
type Store interface {
	Get(ctx context.Context, key string, dst any) error
	Put(ctx context.Context, key string, v any) error
	Delete(ctx context.Context, key string) error
	Close() error
}

var keyRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ValidKey reports whether key can be stored by every backend.
func ValidKey(key string) bool {
	return len(key) <= 128 && keyRe.MatchString(key)
}
