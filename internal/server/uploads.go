package server

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/julianstephens/unfilled/internal/blob"
	apperrors "github.com/julianstephens/unfilled/internal/errors"
)

const presignExpiry = 15 * time.Minute

type uploadedFile struct {
	Name        string `json:"name"`
	Key         string `json:"key"`
	URL         string `json:"url"`
	Size        int64  `json:"size"`
	ContentType string `json:"contentType"`
}

// sniffImage returns the detected content type of an upload, failing for
// anything that is not an image.
func sniffImage(hdr *multipart.FileHeader, head []byte) (string, error) {
	ct := http.DetectContentType(head)
	if !strings.HasPrefix(ct, "image/") {
		// HEIC and other formats the sniffer does not know are taken on the
		// client's word.
		declared := hdr.Header.Get("Content-Type")
		if ct != "application/octet-stream" || !strings.HasPrefix(declared, "image/") {
			return "", apperrors.BadRequest("%s is not an image", hdr.Filename)
		}
		ct = declared
	}
	return ct, nil
}

// handleUpload stores every image in the multipart "files" field.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if s.deps.Blobs == nil {
		writeError(w, http.StatusServiceUnavailable, "Uploads are not configured")
		return
	}
	if r.ContentLength > s.maxUploadBytes {
		s.deps.Metrics.ObserveUpload("rejected")
		writeError(w, http.StatusRequestEntityTooLarge, "Upload exceeds the size limit")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		s.deps.Metrics.ObserveUpload("rejected")
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "Upload exceeds the size limit")
			return
		}
		writeErrorDetails(w, http.StatusBadRequest, "Invalid upload", err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		writeError(w, http.StatusBadRequest, "No files uploaded")
		return
	}

	// A request either stores every file or none of them.
	out := make([]uploadedFile, 0, len(headers))
	for _, hdr := range headers {
		f, err := s.storeUpload(r, hdr)
		if err != nil {
			s.deps.Metrics.ObserveUpload("rejected")
			s.discardUploads(r.Context(), out)
			var reqErr *apperrors.APIError
			if errors.As(err, &reqErr) {
				writeAPIError(w, reqErr)
				return
			}
			writeErrorDetails(w, http.StatusInternalServerError, "Failed to store upload", err)
			return
		}
		s.deps.Metrics.ObserveUpload("ok")
		out = append(out, f)
	}
	writeJSON(w, http.StatusOK, map[string]any{"files": out})
}

func (s *Server) discardUploads(ctx context.Context, files []uploadedFile) {
	ctx = context.WithoutCancel(ctx)
	for _, f := range files {
		if err := s.deps.Blobs.Delete(ctx, f.Key); err != nil {
			s.log.Warn("Failed to remove partial upload", "key", f.Key, "error", err)
		}
	}
}

func (s *Server) storeUpload(r *http.Request, hdr *multipart.FileHeader) (uploadedFile, error) {
	src, err := hdr.Open()
	if err != nil {
		return uploadedFile{}, err
	}
	defer src.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(src, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return uploadedFile{}, err
	}
	head = head[:n]
	if n == 0 {
		return uploadedFile{}, apperrors.BadRequest("%s is empty", hdr.Filename)
	}
	ct, err := sniffImage(hdr, head)
	if err != nil {
		return uploadedFile{}, err
	}

	name := hdr.Filename
	if ext := blob.ExtensionFor(ct); ext != "" {
		name = ext
	}
	key := blob.NewKey("", name)
	obj, err := s.deps.Blobs.Put(r.Context(), key, io.MultiReader(bytes.NewReader(head), src), hdr.Size, ct)
	if err != nil {
		return uploadedFile{}, err
	}
	return uploadedFile{Name: hdr.Filename, Key: obj.Key, URL: obj.URL, Size: hdr.Size, ContentType: ct}, nil
}

// handlePresign signs a direct upload when the blob store supports it.
func (s *Server) handlePresign(w http.ResponseWriter, r *http.Request) {
	presigner, ok := s.deps.Blobs.(blob.Presigner)
	if !ok {
		writeError(w, http.StatusNotImplemented, blob.ErrPresignUnsupported.Error())
		return
	}
	var body struct {
		Filename    string `json:"filename"`
		ContentType string `json:"contentType"`
	}
	if err := decodeJSON(w, r, dayBodyLimit, &body); err != nil {
		writeErrorDetails(w, http.StatusBadRequest, "Invalid presign request", err)
		return
	}
	if !strings.HasPrefix(body.ContentType, "image/") {
		writeError(w, http.StatusBadRequest, "Only image uploads are allowed")
		return
	}

	name := body.Filename
	if ext := blob.ExtensionFor(body.ContentType); ext != "" {
		name = ext
	}
	key := blob.NewKey("", name)
	uploadURL, err := presigner.PresignPut(r.Context(), key, presignExpiry)
	if err != nil {
		writeErrorDetails(w, http.StatusInternalServerError, "Failed to sign upload", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"key":       key,
		"uploadUrl": uploadURL,
		"url":       s.deps.Blobs.URL(key),
		"expiresAt": s.deps.Now().Add(presignExpiry).UTC(),
		"maxBytes":  s.maxUploadBytes,
	})
}
