// Package blob stores uploaded image bytes outside the database, either on
// the local filesystem or in an S3-compatible bucket.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound = errors.New("blob not found")
	// ErrPresignUnsupported is returned by stores that cannot hand out
	// direct upload URLs.
	ErrPresignUnsupported = errors.New("presigned urls are not supported by this blob store")
	ErrInvalidKey         = errors.New("invalid blob key")
)

// Object describes a stored blob.
type Object struct {
	Key         string `json:"key"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
	URL         string `json:"url"`
}

type Store interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (Object, error)
	Get(ctx context.Context, key string) (io.ReadCloser, Object, error)
	Delete(ctx context.Context, key string) error
	// URL is where clients can fetch key.
	URL(key string) string
}

// Presigner is implemented by stores that can sign direct client uploads
// and downloads.
type Presigner interface {
	PresignPut(ctx context.Context, key string, expiry time.Duration) (string, error)
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
}

// NewKey returns a fresh key under prefix keeping the extension of name.
func NewKey(prefix, name string) string {
	ext := strings.ToLower(path.Ext(name))
	key := uuid.NewString() + ext
	if prefix != "" {
		key = strings.Trim(prefix, "/") + "/" + key
	}
	return key
}

// ValidateKey rejects keys that are empty, absolute or escape the store root.
func ValidateKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	for _, part := range strings.Split(key, "/") {
		if part == "" || part == "." || part == ".." {
			return fmt.Errorf("%w: %q", ErrInvalidKey, key)
		}
	}
	return nil
}

// ExtensionFor maps an image mime type to a file extension.
func ExtensionFor(mime string) string {
	switch strings.ToLower(mime) {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "image/bmp":
		return ".bmp"
	case "image/tiff":
		return ".tiff"
	}
	return ""
}
