package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// FSStore keeps blobs as files under a root directory and serves them under
// a URL prefix such as /uploads/.
type FSStore struct {
	root      string
	urlPrefix string
}

func NewFSStore(root, urlPrefix string) (*FSStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create blob directory: %w", err)
	}
	if urlPrefix == "" {
		urlPrefix = "/uploads/"
	}
	if !strings.HasSuffix(urlPrefix, "/") {
		urlPrefix += "/"
	}
	return &FSStore{root: root, urlPrefix: urlPrefix}, nil
}

func (s *FSStore) Root() string { return s.root }

func (s *FSStore) filePath(key string) (string, error) {
	if err := ValidateKey(key); err != nil {
		return "", err
	}
	return filepath.Join(s.root, filepath.FromSlash(key)), nil
}

func (s *FSStore) Put(ctx context.Context, key string, r io.Reader, _ int64, contentType string) (Object, error) {
	p, err := s.filePath(key)
	if err != nil {
		return Object{}, err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return Object{}, fmt.Errorf("failed to create blob directory: %w", err)
	}

	// Write to a temp file and rename so readers never see a partial blob.
	tmp, err := os.CreateTemp(filepath.Dir(p), ".upload-*")
	if err != nil {
		return Object{}, fmt.Errorf("failed to create blob file: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, &ctxReader{ctx: ctx, r: r})
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return Object{}, fmt.Errorf("failed to write blob %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		return Object{}, fmt.Errorf("failed to store blob %s: %w", key, err)
	}

	if contentType == "" {
		contentType = mime.TypeByExtension(path.Ext(key))
	}
	return Object{Key: key, ContentType: contentType, Size: n, URL: s.URL(key)}, nil
}

func (s *FSStore) Get(_ context.Context, key string) (io.ReadCloser, Object, error) {
	p, err := s.filePath(key)
	if err != nil {
		return nil, Object{}, err
	}
	f, err := os.Open(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, Object{}, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return nil, Object{}, fmt.Errorf("failed to open blob %s: %w", key, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, Object{}, fmt.Errorf("failed to stat blob %s: %w", key, err)
	}
	return f, Object{
		Key:         key,
		ContentType: mime.TypeByExtension(path.Ext(key)),
		Size:        info.Size(),
		URL:         s.URL(key),
	}, nil
}

func (s *FSStore) Delete(_ context.Context, key string) error {
	p, err := s.filePath(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete blob %s: %w", key, err)
	}
	return nil
}

func (s *FSStore) URL(key string) string {
	return s.urlPrefix + key
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
