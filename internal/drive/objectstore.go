package drive

import (
	"context"
	"io"
	"time"
)

// ObjectStore is the flat blob backend under the drive. Keys are the
// slash-delimited strings produced by Location.Key.
type ObjectStore interface {
	// List returns the objects directly under prefix (non-recursive),
	// ordered by name ascending.
	List(ctx context.Context, prefix string) ([]Object, error)

	// Upload stores the object at key, replacing any existing content.
	Upload(ctx context.Context, key string, body io.Reader, contentType string) error

	// Remove deletes the given keys. Missing keys are not an error.
	Remove(ctx context.Context, keys []string) error

	// Move relocates an object to a new key.
	Move(ctx context.Context, oldKey, newKey string) error

	// SignedURL mints a time-limited download URL for key.
	SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)

	// Fetch reads the object content at key.
	Fetch(ctx context.Context, key string) (io.ReadCloser, error)
}

// Signed URL lifetimes used across the drive.
const (
	DownloadURLTTL = 10 * time.Minute
	ShareURLTTL    = 7 * 24 * time.Hour
)

// KeepFileName is the placeholder object written into every new folder so
// the prefix exists in the object store before any real upload.
const KeepFileName = ".keep"
