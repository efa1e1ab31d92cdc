package server

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/unfilled/internal/events"
	"github.com/julianstephens/unfilled/internal/models"
)

func multipartBody(t *testing.T, field, filename, contentType string, data []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	h := make(map[string][]string)
	h["Content-Disposition"] = []string{`form-data; name="` + field + `"; filename="` + filename + `"`}
	h["Content-Type"] = []string{contentType}
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

type postList struct {
	Posts     []models.PostWithAsset `json:"posts"`
	Defaults  []models.DefaultPost   `json:"defaults"`
	IsDefault bool                   `json:"isDefault"`
	Total     int                    `json:"total"`
}

func TestGalleryEmptyShowsDefaults(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/gallery/posts", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeBody[postList](t, rec)
	assert.True(t, list.IsDefault)
	assert.Len(t, list.Defaults, 12)
	assert.Empty(t, list.Posts)
}

func TestGalleryPostLifecycle(t *testing.T) {
	env := newTestEnv(t)
	img := pngImage(t, 32, 24)

	body, ct := multipartBody(t, "file", "pier.png", "image/png", img, map[string]string{"caption": "pier at dawn", "visibility": "public"})
	rec := env.do(t, http.MethodPost, "/api/gallery/posts", body, ct)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	post := decodeBody[models.PostWithAsset](t, rec)
	assert.Equal(t, "pier at dawn", post.Caption)
	assert.Equal(t, models.VisibilityPublic, post.Visibility)
	assert.Equal(t, 32, post.Asset.Width)

	rec = env.do(t, http.MethodPost, "/api/gallery/posts?caption=raw", bytes.NewReader(pngImage(t, 8, 8)), "image/png")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	private := decodeBody[models.PostWithAsset](t, rec)
	assert.Equal(t, models.VisibilityPrivate, private.Visibility)

	rec = env.do(t, http.MethodGet, "/api/gallery/posts", nil, "")
	list := decodeBody[postList](t, rec)
	assert.False(t, list.IsDefault)
	assert.Equal(t, 2, list.Total)
	assert.Len(t, list.Posts, 2)

	rec = env.doJSON(t, http.MethodPatch, "/api/gallery/posts/"+post.ID, map[string]string{"caption": "pier, dawn"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pier, dawn", decodeBody[models.PostWithAsset](t, rec).Caption)

	rec = env.doJSON(t, http.MethodPatch, "/api/gallery/posts/"+post.ID, map[string]string{"visibility": "friends"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/gallery/assets/"+post.AssetID+"/raw", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, img, rec.Body.Bytes())

	rec = env.do(t, http.MethodDelete, "/api/gallery/posts/"+post.ID, nil, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/api/gallery/posts/"+post.ID, nil, "").Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodDelete, "/api/gallery/posts/"+post.ID, nil, "").Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/api/gallery/assets/nope/raw", nil, "").Code)

	assert.Equal(t, []string{events.PostCreated, events.PostCreated, events.PostDeleted}, env.events.Names())
}

func TestGalleryRejectsBadUploads(t *testing.T) {
	env := newTestEnv(t)

	body, ct := multipartBody(t, "file", "notes.txt", "text/plain", []byte("hello"), nil)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, "/api/gallery/posts", body, ct).Code)

	body, ct = multipartBody(t, "other", "a.png", "image/png", pngImage(t, 4, 4), nil)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, "/api/gallery/posts", body, ct).Code)

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, "/api/gallery/posts", strings.NewReader("{}"), "application/json").Code)

	rec := env.do(t, http.MethodPost, "/api/gallery/posts?visibility=friends", bytes.NewReader(pngImage(t, 4, 4)), "image/png")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGalleryShare(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/gallery/share", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	first := decodeBody[struct {
		Share models.GalleryShare `json:"share"`
		URL   string              `json:"url"`
	}](t, rec)
	assert.True(t, first.Share.IsDefault)
	assert.Equal(t, "https://unfilled.test/g/"+first.Share.Slug, first.URL)

	rec = env.doJSON(t, http.MethodPut, "/api/gallery/share/slug", map[string]string{"slug": "harbor-light"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.doJSON(t, http.MethodPut, "/api/gallery/share/slug", map[string]string{"slug": "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body, ct := multipartBody(t, "file", "a.png", "image/png", pngImage(t, 4, 4), map[string]string{"visibility": "unlisted"})
	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/api/gallery/posts", body, ct).Code)
	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/api/gallery/posts", bytes.NewReader(pngImage(t, 4, 4)), "image/png").Code)

	rec = env.do(t, http.MethodGet, "/g/harbor-light", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	shared := decodeBody[struct {
		Posts []models.PostWithAsset `json:"posts"`
	}](t, rec)
	require.Len(t, shared.Posts, 1, "private posts stay hidden")
	assert.Equal(t, models.VisibilityUnlisted, shared.Posts[0].Visibility)

	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/g/"+first.Share.Slug, nil, "").Code)
}
