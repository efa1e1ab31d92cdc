package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/julianstephens/unfilled/internal/calendar"
	"github.com/julianstephens/unfilled/internal/constants"
	"github.com/julianstephens/unfilled/internal/events"
	"github.com/julianstephens/unfilled/internal/export"
	"github.com/julianstephens/unfilled/internal/models"
	"github.com/julianstephens/unfilled/internal/storage"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.deps.Store.Ping(ctx); err != nil {
		writeErrorDetails(w, http.StatusServiceUnavailable, "Database unavailable", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": constants.Version})
}

func (s *Server) handlePresets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"presets":  export.Presets(),
		"defaults": map[string]string{"phone": export.DefaultPreset(export.CategoryPhone), "desktop": export.DefaultPreset(export.CategoryDesktop)},
	})
}

func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil || year < constants.MinExportYear || year > constants.MaxExportYear {
		writeError(w, http.StatusBadRequest, "Invalid year")
		return
	}
	month, err := strconv.Atoi(chi.URLParam(r, "monthIndex0"))
	if err != nil || month < 0 || month > 11 {
		writeError(w, http.StatusBadRequest, "Invalid monthIndex0")
		return
	}

	grid := calendar.BuildMonthGrid(year, month)
	mode := r.URL.Query().Get("mode")
	cover, err := s.deps.Days.GetCover(r.Context(), grid.MonthID(), mode)
	if err != nil {
		writeErrorDetails(w, http.StatusInternalServerError, "Failed to load cover", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"title": grid.Title(),
		"grid":  grid,
		"modes": calendar.Modes(),
		"cover": cover,
	})
}

func (s *Server) handleGetEdits(w http.ResponseWriter, r *http.Request) {
	imageID, preset := chi.URLParam(r, "imageId"), chi.URLParam(r, "preset")
	if _, ok := export.GetPreset(preset); !ok {
		writeError(w, http.StatusBadRequest, "Invalid preset")
		return
	}
	edits, err := s.deps.Store.GetImageEdits(r.Context(), imageID, preset)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]any{"edits": edits, "stored": true})
	case errors.Is(err, storage.ErrNotFound):
		writeJSON(w, http.StatusOK, map[string]any{"edits": models.DefaultImageEdits(imageID, preset), "stored": false})
	default:
		writeErrorDetails(w, http.StatusInternalServerError, "Failed to load edits", err)
	}
}

func (s *Server) handlePutEdits(w http.ResponseWriter, r *http.Request) {
	imageID, preset := chi.URLParam(r, "imageId"), chi.URLParam(r, "preset")
	if _, ok := export.GetPreset(preset); !ok {
		writeError(w, http.StatusBadRequest, "Invalid preset")
		return
	}
	edits := models.DefaultImageEdits(imageID, preset)
	if err := decodeJSON(w, r, dayBodyLimit, &edits); err != nil {
		writeErrorDetails(w, http.StatusBadRequest, "Invalid edits", err)
		return
	}
	edits.ImageID, edits.Preset = imageID, preset
	edits.FitMode = models.ParseFitMode(string(edits.FitMode))
	edits.Rotation = export.NormalizeRotation(edits.Rotation)
	if err := edits.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	edits.UpdatedAt = s.deps.Now().UTC()

	if err := s.deps.Store.SaveImageEdits(r.Context(), edits); err != nil {
		writeErrorDetails(w, http.StatusInternalServerError, "Failed to save edits", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"edits": edits, "stored": true})
}

// validAssignURL accepts only files served from the uploads prefix.
func validAssignURL(u string) bool {
	return strings.HasPrefix(u, "/uploads/") && !strings.Contains(u, "..")
}

func (s *Server) handleAssign(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Day float64 `json:"day"`
		URL string  `json:"url"`
	}
	if err := decodeJSON(w, r, dayBodyLimit, &body); err != nil {
		writeErrorDetails(w, http.StatusBadRequest, "Invalid assignment", err)
		return
	}
	if body.Day != float64(int(body.Day)) || body.Day < 1 || body.Day > 31 {
		writeError(w, http.StatusBadRequest, "Invalid day")
		return
	}
	if !validAssignURL(body.URL) {
		writeError(w, http.StatusBadRequest, "Invalid image url")
		return
	}

	a := models.Assignment{Day: int(body.Day), URL: body.URL, UpdatedAt: s.deps.Now().UTC()}
	if err := s.deps.Store.SetAssignment(r.Context(), a); err != nil {
		writeErrorDetails(w, http.StatusInternalServerError, "Assign failed", err)
		return
	}
	events.Emit(r.Context(), s.deps.Events, events.AssignmentSet, a)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleListAssignments(w http.ResponseWriter, r *http.Request) {
	list, err := s.deps.Store.GetAssignments(r.Context())
	if err != nil {
		writeErrorDetails(w, http.StatusInternalServerError, "Failed to list assignments", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"assignments": list})
}

func (s *Server) handleStorageReport(w http.ResponseWriter, r *http.Request) {
	report, err := s.deps.Diagnostics.Report(r.Context())
	if err != nil {
		writeErrorDetails(w, http.StatusInternalServerError, "Failed to build storage report", err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// handleStorageClear wipes every day entry. The body must confirm it.
func (s *Server) handleStorageClear(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Confirm bool `json:"confirm"`
	}
	if err := decodeJSON(w, r, dayBodyLimit, &body); err != nil || !body.Confirm {
		writeError(w, http.StatusBadRequest, `Send {"confirm": true} to clear all day entries`)
		return
	}
	n, err := s.deps.Diagnostics.ClearDays(r.Context())
	if err != nil {
		writeErrorDetails(w, http.StatusInternalServerError, "Failed to clear day entries", err)
		return
	}
	events.Emit(r.Context(), s.deps.Events, events.StorageCleared, map[string]int{"count": n})
	writeJSON(w, http.StatusOK, map[string]int{"cleared": n})
}
