package server

import (
	"encoding/base64"
	"errors"
	"fmt"
	"image/color"
	"io"
	"math"
	"mime"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/julianstephens/unfilled/internal/calendar"
	apperrors "github.com/julianstephens/unfilled/internal/errors"
	"github.com/julianstephens/unfilled/internal/events"
	"github.com/julianstephens/unfilled/internal/export"
	"github.com/julianstephens/unfilled/internal/metrics"
	"github.com/julianstephens/unfilled/internal/models"
	"github.com/julianstephens/unfilled/internal/storage"
)

var dataURLPrefix = regexp.MustCompile(`^data:image/[\w.+-]+;base64,`)

// dayImageParams are the validated query parameters of a day export.
type dayImageParams struct {
	dayID      string
	preset     export.Preset
	fit        models.FitMode
	background color.NRGBA
}

func (s *Server) parseDayImageParams(q url.Values) (dayImageParams, error) {
	p := dayImageParams{
		dayID: q.Get("dayId"),
		fit:   models.ParseFitMode(q.Get("mode")),
	}
	if p.dayID == "" {
		return p, apperrors.BadRequest("Missing dayId parameter")
	}
	presetID := q.Get("preset")
	if presetID == "" {
		return p, apperrors.BadRequest("Missing preset parameter")
	}
	preset, ok := export.GetPreset(presetID)
	if !ok {
		return p, apperrors.BadRequest("Invalid preset")
	}
	p.preset = preset

	p.background = s.settings().background
	if raw := q.Get("background"); raw != "" {
		bg, err := export.ParseColor(raw)
		if err != nil {
			return p, apperrors.BadRequest("Invalid background: %v", err)
		}
		p.background = bg
	}
	return p, nil
}

// handleDayImageGet validates like the POST route but cannot render
// without image data.
func (s *Server) handleDayImageGet(w http.ResponseWriter, r *http.Request) {
	if _, err := s.parseDayImageParams(r.URL.Query()); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeError(w, http.StatusMethodNotAllowed, "Please use POST method with image data")
}

func (s *Server) handleDayImage(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	p, err := s.parseDayImageParams(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	img, err := s.readImageBody(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	req := export.RenderRequest{
		Image:      img,
		Width:      p.preset.Width,
		Height:     p.preset.Height,
		Fit:        p.fit,
		Background: p.background,
	}
	if p.fit == models.FitCover {
		edits, err := s.coverEdits(r, p.dayID, p.preset.ID)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		req.Edits = &edits
	}

	out, err := s.renderer().Render(r.Context(), req)
	if err != nil {
		var renderErr *export.RenderError
		if errors.As(err, &renderErr) {
			writeErrorDetails(w, http.StatusUnprocessableEntity, "Failed to export wallpaper", err)
			return
		}
		s.log.Error("Day export failed", "dayId", p.dayID, "preset", p.preset.ID, "error", err)
		writeErrorDetails(w, http.StatusInternalServerError, "Failed to export wallpaper", err)
		return
	}

	s.deps.Metrics.ObserveExport("day-image", p.preset.ID, time.Since(start))
	events.Emit(r.Context(), s.deps.Events, events.ExportRendered, map[string]any{
		"kind": "day-image", "dayId": p.dayID, "preset": p.preset.ID, "fit": p.fit, "bytes": len(out),
	})

	filename := fmt.Sprintf("unfilled-day-%s-%s.jpg", p.dayID, p.preset.ID)
	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Content-Length", strconv.Itoa(len(out)))
	w.WriteHeader(http.StatusOK)
	w.Write(out)
}

// readImageBody accepts {"imageData": base64 or data URL} or a raw image/*
// body.
func (s *Server) readImageBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch {
	case mediaType == "application/json":
		var body struct {
			ImageData string `json:"imageData"`
		}
		// base64 inflates the payload by a third
		if err := decodeJSON(w, r, s.maxUploadBytes*4/3+1024, &body); err != nil {
			return nil, apperrors.BadRequest("Invalid JSON body: %v", err)
		}
		if body.ImageData == "" {
			return nil, apperrors.BadRequest("Missing imageData in request body")
		}
		data, err := decodeBase64(dataURLPrefix.ReplaceAllString(strings.TrimSpace(body.ImageData), ""))
		if err != nil {
			return nil, apperrors.BadRequest("imageData is not valid base64: %v", err)
		}
		if len(data) == 0 {
			return nil, apperrors.BadRequest("Empty image data")
		}
		return data, nil

	case strings.HasPrefix(mediaType, "image/"):
		data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxUploadBytes))
		if err != nil {
			return nil, apperrors.BadRequest("Failed to read image: %v", err)
		}
		if len(data) == 0 {
			return nil, apperrors.BadRequest("Empty image data")
		}
		return data, nil
	}
	return nil, apperrors.BadRequest("Invalid content type. Expected application/json or image/*")
}

// decodeBase64 accepts padded or unpadded standard base64 with line breaks
// or other whitespace anywhere in the payload.
func decodeBase64(s string) ([]byte, error) {
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	data, err := base64.StdEncoding.DecodeString(s)
	if err == nil {
		return data, nil
	}
	if raw, rawErr := base64.RawStdEncoding.DecodeString(s); rawErr == nil {
		return raw, nil
	}
	return nil, err
}

// coverEdits resolves crop settings: stored edits for (dayId, preset), then
// query overrides, then centered defaults.
func (s *Server) coverEdits(r *http.Request, dayID, preset string) (models.ImageEdits, error) {
	edits := models.DefaultImageEdits(dayID, preset)
	stored, err := s.deps.Store.GetImageEdits(r.Context(), dayID, preset)
	switch {
	case err == nil:
		edits = stored
	case errors.Is(err, storage.ErrNotFound):
	default:
		s.log.Warn("Failed to load image edits, using defaults", "dayId", dayID, "preset", preset, "error", err)
	}

	q := r.URL.Query()
	for name, dst := range map[string]*float64{
		"cropX":    &edits.CropX,
		"cropY":    &edits.CropY,
		"zoom":     &edits.Zoom,
		"rotation": &edits.Rotation,
	} {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return edits, apperrors.BadRequest("Invalid %s parameter", name)
		}
		*dst = v
	}
	return edits, nil
}

func (s *Server) handleMonthPDF(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	req := export.ParseMonthQuery(r.URL.Query(), s.deps.Now())

	pdf, err := export.RenderMonthPDF(req)
	if err != nil {
		s.log.Error("Month export failed", "year", req.Year, "monthIndex0", req.MonthIndex0, "error", err)
		writeErrorDetails(w, http.StatusInternalServerError, "Failed to export month", err)
		return
	}

	s.deps.Metrics.ObserveExport("month", modeLabel(req.Mode), time.Since(start))
	events.Emit(r.Context(), s.deps.Events, events.ExportRendered, map[string]any{
		"kind": "month", "year": req.Year, "monthIndex0": req.MonthIndex0, "mode": req.Mode,
	})

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", export.MonthFilename(req.Year, req.MonthIndex0)))
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Content-Length", strconv.Itoa(len(pdf)))
	w.WriteHeader(http.StatusOK)
	w.Write(pdf)
}

// modeLabel keeps the metrics label set bounded to the known calendar modes.
func modeLabel(mode string) string {
	if calendar.IsMode(mode) {
		return mode
	}
	return metrics.OtherLabel
}
