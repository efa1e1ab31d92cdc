package server

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/julianstephens/unfilled/internal/constants"
	"github.com/julianstephens/unfilled/internal/events"
	"github.com/julianstephens/unfilled/internal/gallery"
	"github.com/julianstephens/unfilled/internal/models"
	"github.com/julianstephens/unfilled/internal/storage"
)

func queryInt(r *http.Request, name string, fallback int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil {
		return fallback
	}
	return v
}

// handleListPosts falls back to the sample exhibition while the gallery is
// empty.
func (s *Server) handleListPosts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	n, err := s.deps.Gallery.Count(ctx)
	if err != nil {
		writeErrorDetails(w, http.StatusInternalServerError, "Failed to count posts", err)
		return
	}
	if n == 0 {
		writeJSON(w, http.StatusOK, map[string]any{
			"posts":     []models.PostWithAsset{},
			"defaults":  gallery.DefaultPosts(),
			"isDefault": true,
			"total":     0,
		})
		return
	}

	posts, err := s.deps.Gallery.ListPosts(ctx, queryInt(r, "limit", constants.DefaultPostLimit), queryInt(r, "offset", 0))
	if err != nil {
		writeErrorDetails(w, http.StatusInternalServerError, "Failed to list posts", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"posts": posts, "isDefault": false, "total": n})
}

// handleCreatePost takes a multipart form (file, caption, visibility) or a
// raw image/* body with caption and visibility in the query.
func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes+1<<20)

	var in gallery.CreatePostInput
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch {
	case mediaType == "multipart/form-data":
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			writeErrorDetails(w, http.StatusBadRequest, "Invalid upload", err)
			return
		}
		defer r.MultipartForm.RemoveAll()
		f, hdr, err := r.FormFile("file")
		if err != nil {
			writeError(w, http.StatusBadRequest, "Missing file")
			return
		}
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			writeErrorDetails(w, http.StatusBadRequest, "Failed to read upload", err)
			return
		}
		in = gallery.CreatePostInput{
			Image:      data,
			Mime:       hdr.Header.Get("Content-Type"),
			Caption:    r.FormValue("caption"),
			Visibility: models.Visibility(r.FormValue("visibility")),
		}
	case strings.HasPrefix(mediaType, "image/"):
		data, err := io.ReadAll(r.Body)
		if err != nil {
			writeErrorDetails(w, http.StatusBadRequest, "Failed to read upload", err)
			return
		}
		in = gallery.CreatePostInput{
			Image:      data,
			Mime:       mediaType,
			Caption:    r.URL.Query().Get("caption"),
			Visibility: models.Visibility(r.URL.Query().Get("visibility")),
		}
	default:
		writeError(w, http.StatusBadRequest, "Invalid content type. Expected multipart/form-data or image/*")
		return
	}
	if in.Visibility != "" && !in.Visibility.Valid() {
		writeError(w, http.StatusBadRequest, "Invalid visibility")
		return
	}

	post, err := s.deps.Gallery.CreatePost(r.Context(), in)
	if err != nil {
		if errors.Is(err, gallery.ErrInvalidImage) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeErrorDetails(w, http.StatusInternalServerError, "Failed to create post", err)
		return
	}
	events.Emit(r.Context(), s.deps.Events, events.PostCreated, map[string]string{"postId": post.ID, "assetId": post.AssetID})
	writeJSON(w, http.StatusCreated, post)
}

func (s *Server) handleGetPost(w http.ResponseWriter, r *http.Request) {
	post, err := s.deps.Gallery.GetPost(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeLookupError(w, "Post not found", err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func (s *Server) handleUpdatePost(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Caption    *string            `json:"caption"`
		Visibility *models.Visibility `json:"visibility"`
	}
	if err := decodeJSON(w, r, dayBodyLimit, &body); err != nil {
		writeErrorDetails(w, http.StatusBadRequest, "Invalid post update", err)
		return
	}
	if body.Visibility != nil && !body.Visibility.Valid() {
		writeError(w, http.StatusBadRequest, "Invalid visibility")
		return
	}

	post, err := s.deps.Gallery.UpdatePost(r.Context(), chi.URLParam(r, "id"), gallery.UpdatePostInput{
		Caption:    body.Caption,
		Visibility: body.Visibility,
	})
	if err != nil {
		s.writeLookupError(w, "Post not found", err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func (s *Server) handleDeletePost(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.deps.Gallery.DeletePost(r.Context(), id); err != nil {
		s.writeLookupError(w, "Post not found", err)
		return
	}
	events.Emit(r.Context(), s.deps.Events, events.PostDeleted, map[string]string{"postId": id})
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAssetRaw(w http.ResponseWriter, r *http.Request) {
	asset, err := s.deps.Store.GetAsset(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeLookupError(w, "Asset not found", err)
		return
	}
	rc, err := s.deps.Gallery.OpenAsset(r.Context(), asset)
	if err != nil {
		s.writeLookupError(w, "Asset not found", err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", asset.Mime)
	if asset.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(asset.Size, 10))
	}
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		s.log.Debug("Asset stream interrupted", "assetId", asset.ID, "error", err)
	}
}

func (s *Server) handleGetShare(w http.ResponseWriter, r *http.Request) {
	share, err := s.deps.Shares.GetOrCreateDefault(r.Context())
	if err != nil {
		writeErrorDetails(w, http.StatusInternalServerError, "Failed to load share", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"share": share,
		"url":   gallery.BuildShareURL(s.baseURL, share.Slug),
	})
}

func (s *Server) handleUpdateSlug(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Slug string `json:"slug"`
	}
	if err := decodeJSON(w, r, dayBodyLimit, &body); err != nil {
		writeErrorDetails(w, http.StatusBadRequest, "Invalid slug update", err)
		return
	}
	share, err := s.deps.Shares.UpdateSlug(r.Context(), body.Slug)
	switch {
	case err == nil:
	case errors.Is(err, gallery.ErrInvalidSlug):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, storage.ErrSlugTaken):
		writeError(w, http.StatusConflict, "Slug is already taken")
		return
	default:
		writeErrorDetails(w, http.StatusInternalServerError, "Failed to update slug", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"share": share,
		"url":   gallery.BuildShareURL(s.baseURL, share.Slug),
	})
}

// handleSharedGallery serves a share link with every non-private post.
func (s *Server) handleSharedGallery(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	share, err := s.deps.Shares.GetBySlug(ctx, chi.URLParam(r, "slug"))
	if err != nil {
		s.writeLookupError(w, "Gallery not found", err)
		return
	}
	posts, err := s.deps.Gallery.ListPosts(ctx, constants.DefaultPostLimit, 0)
	if err != nil {
		writeErrorDetails(w, http.StatusInternalServerError, "Failed to list posts", err)
		return
	}
	visible := make([]models.PostWithAsset, 0, len(posts))
	for _, p := range posts {
		if p.Visibility != models.VisibilityPrivate {
			visible = append(visible, p)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"share": share, "posts": visible})
}

func (s *Server) writeLookupError(w http.ResponseWriter, notFound string, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, notFound)
		return
	}
	writeErrorDetails(w, http.StatusInternalServerError, "Internal error", err)
}
