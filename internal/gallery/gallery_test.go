package gallery

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/unfilled/internal/blob"
	"github.com/julianstephens/unfilled/internal/models"
	"github.com/julianstephens/unfilled/internal/storage"
	"github.com/julianstephens/unfilled/internal/storage/sqlite"
)

func setupStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store := sqlite.NewStore(filepath.Join(t.TempDir(), "gallery.db"))
	require.NoError(t, store.Init())
	t.Cleanup(func() { store.Close() })
	return store
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	img.SetNRGBA(0, 0, color.NRGBA{R: 200, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// failingBlobs wraps a real store and fails uploads on demand.
type failingBlobs struct {
	*blob.FSStore
	failPut    bool
	failDelete bool
}

func (f *failingBlobs) Put(ctx context.Context, key string, r io.Reader, size int64, ct string) (blob.Object, error) {
	if f.failPut {
		return blob.Object{}, errors.New("bucket unavailable")
	}
	return f.FSStore.Put(ctx, key, r, size, ct)
}

func (f *failingBlobs) Delete(ctx context.Context, key string) error {
	if f.failDelete {
		return errors.New("bucket unavailable")
	}
	return f.FSStore.Delete(ctx, key)
}

func repositories(t *testing.T) map[string]Repository {
	fs, err := blob.NewFSStore(t.TempDir(), "/uploads/")
	require.NoError(t, err)
	return map[string]Repository{
		"local":  NewLocalRepository(setupStore(t)),
		"hosted": NewHostedRepository(setupStore(t), fs),
	}
}

func TestRepositoryLifecycle(t *testing.T) {
	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			img := pngBytes(t, 64, 48)

			created, err := repo.CreatePost(ctx, CreatePostInput{Image: img, Caption: "  fog  "})
			require.NoError(t, err)
			assert.Equal(t, "fog", created.Caption)
			assert.Equal(t, models.VisibilityPrivate, created.Visibility)
			assert.Equal(t, "image/png", created.Asset.Mime)
			assert.Equal(t, 64, created.Asset.Width)
			assert.Equal(t, 48, created.Asset.Height)
			assert.Equal(t, created.Asset.ID, created.AssetID)
			assert.NotEmpty(t, created.Asset.URL)

			rc, err := repo.OpenAsset(ctx, created.Asset)
			require.NoError(t, err)
			data, _ := io.ReadAll(rc)
			rc.Close()
			assert.Equal(t, img, data)

			caption := "river fog"
			vis := models.VisibilityPublic
			updated, err := repo.UpdatePost(ctx, created.ID, UpdatePostInput{Caption: &caption, Visibility: &vis})
			require.NoError(t, err)
			assert.Equal(t, "river fog", updated.Caption)
			assert.Equal(t, models.VisibilityPublic, updated.Visibility)

			bad := models.Visibility("friends")
			_, err = repo.UpdatePost(ctx, created.ID, UpdatePostInput{Visibility: &bad})
			assert.Error(t, err)

			_, err = repo.CreatePost(ctx, CreatePostInput{Image: pngBytes(t, 8, 8), Visibility: models.VisibilityUnlisted})
			require.NoError(t, err)

			posts, err := repo.ListPosts(ctx, 0, 0)
			require.NoError(t, err)
			require.Len(t, posts, 2)
			assert.Equal(t, 8, posts[0].Asset.Width, "newest first")

			page, err := repo.ListPosts(ctx, 1, 1)
			require.NoError(t, err)
			require.Len(t, page, 1)
			assert.Equal(t, created.ID, page[0].ID)

			require.NoError(t, repo.DeletePost(ctx, created.ID))
			_, err = repo.GetPost(ctx, created.ID)
			assert.ErrorIs(t, err, ErrNotFound)
			n, err := repo.Count(ctx)
			require.NoError(t, err)
			assert.Equal(t, 1, n)

			assert.ErrorIs(t, repo.DeletePost(ctx, "missing"), ErrNotFound)
		})
	}
}

func TestCreatePostRejectsNonImages(t *testing.T) {
	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			_, err := repo.CreatePost(ctx, CreatePostInput{Image: []byte("hello, world")})
			assert.ErrorIs(t, err, ErrInvalidImage)
			_, err = repo.CreatePost(ctx, CreatePostInput{})
			assert.ErrorIs(t, err, ErrInvalidImage)
			_, err = repo.CreatePost(ctx, CreatePostInput{Image: []byte("garbage"), Mime: "image/png"})
			assert.ErrorIs(t, err, ErrInvalidImage)
		})
	}
}

func TestHostedUploadFailureRollsBack(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)
	fs, err := blob.NewFSStore(t.TempDir(), "")
	require.NoError(t, err)
	blobs := &failingBlobs{FSStore: fs, failPut: true}
	repo := NewHostedRepository(store, blobs)

	_, err = repo.CreatePost(ctx, CreatePostInput{Image: pngBytes(t, 4, 4)})
	require.Error(t, err)

	posts, _ := store.CountPosts(ctx)
	assets, _ := store.CountAssets(ctx)
	assert.Zero(t, posts)
	assert.Zero(t, assets)
}

func TestHostedBlobDeleteFailureIsNotFatal(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)
	fs, err := blob.NewFSStore(t.TempDir(), "")
	require.NoError(t, err)
	blobs := &failingBlobs{FSStore: fs}
	repo := NewHostedRepository(store, blobs)

	p, err := repo.CreatePost(ctx, CreatePostInput{Image: pngBytes(t, 4, 4)})
	require.NoError(t, err)
	assert.Contains(t, p.Asset.BlobKey, ".png")

	blobs.failDelete = true
	require.NoError(t, repo.DeletePost(ctx, p.ID))
	_, err = store.GetAsset(ctx, p.Asset.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestNewRepository(t *testing.T) {
	store := setupStore(t)

	repo, err := NewRepository("", store, nil)
	require.NoError(t, err)
	assert.Equal(t, BackendLocal, repo.Backend())

	_, err = NewRepository(BackendHosted, store, nil)
	assert.Error(t, err)

	fs, err := blob.NewFSStore(t.TempDir(), "")
	require.NoError(t, err)
	repo, err = NewRepository(BackendHosted, store, fs)
	require.NoError(t, err)
	assert.Equal(t, BackendHosted, repo.Backend())

	_, err = NewRepository("dropbox", store, fs)
	assert.Error(t, err)
}

func TestDefaultPosts(t *testing.T) {
	posts := DefaultPosts()
	require.Len(t, posts, 12)
	seen := map[string]bool{}
	for _, p := range posts {
		assert.False(t, seen[p.ID], "duplicate id %s", p.ID)
		seen[p.ID] = true
		assert.NotEmpty(t, p.Caption)
	}
}
