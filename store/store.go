// Package store provides the cache of tool results.
package store

import (
	"context"
	"path"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/bedrocktools", "store")

// Cache stores tool results by key
type Cache interface {
	// Get returns the value and true if the key exists and did not expire
	Get(ctx context.Context, key string) (string, bool, error)
	// Put stores the value, ttl of zero means no expiration
	Put(ctx context.Context, key, value string, ttl time.Duration) error
	// Delete removes the key
	Delete(ctx context.Context, key string) error
}

// Key returns the cache key for the tool and its canonical arguments,
// in the form of `toolcache/<tool>/<hash>`
func Key(tool, args string) string {
	return path.Join("toolcache", tool, strconv.FormatUint(xxhash.Sum64String(args), 16))
}
