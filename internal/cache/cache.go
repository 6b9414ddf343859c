// Package cache persists previously fetched flat files keyed by URL and the
// origin's Last-Modified header, so unchanged files are not re-downloaded.
package cache

import (
	"context"
	"crypto/sha256"
	"fmt"
	"time"
)

// Entry is one cached flat file. LastModified is the origin's header value
// verbatim; it is compared for equality, never parsed.
type Entry struct {
	URL          string    `json:"url"`
	LastModified string    `json:"last_modified"`
	FetchedAt    time.Time `json:"fetched_at"`
	Body         []byte    `json:"body"`
}

// Store is a cache backend. Get returns (nil, nil) on a miss; only genuine
// backend failures are errors.
type Store interface {
	Get(ctx context.Context, url string) (*Entry, error)
	Put(ctx context.Context, url string, e *Entry) error
}

// Key returns the backend-neutral cache key for a URL.
func Key(url string) string {
	return fmt.Sprintf("%x", sha256.Sum256([]byte(url)))
}
