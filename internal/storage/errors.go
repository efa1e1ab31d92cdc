package storage

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrQuotaExceeded = errors.New("storage quota exceeded")
	ErrAssetInUse    = errors.New("asset is still referenced by a post")
	ErrSlugTaken     = errors.New("slug is already in use")
)

// EntrySize is the number of bytes a key/value pair counts against the quota.
func EntrySize(key, value string) int64 {
	return int64(len(key) + len(value))
}
