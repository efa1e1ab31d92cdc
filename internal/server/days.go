package server

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/julianstephens/unfilled/internal/calendar"
	"github.com/julianstephens/unfilled/internal/daystore"
	"github.com/julianstephens/unfilled/internal/events"
	"github.com/julianstephens/unfilled/internal/models"
)

// dayBodyLimit is far above any normalized entry.
const dayBodyLimit = 1 << 20

func (s *Server) handleListDays(w http.ResponseWriter, r *http.Request) {
	ids, err := s.deps.Days.List(r.Context())
	if err != nil {
		writeErrorDetails(w, http.StatusInternalServerError, "Failed to list days", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"days": ids, "count": len(ids)})
}

func (s *Server) handleGetDay(w http.ResponseWriter, r *http.Request) {
	dayID := chi.URLParam(r, "dayId")
	if err := models.ValidateDayID(dayID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Days.Load(r.Context(), dayID, r.URL.Query().Get("mode")))
}

func (s *Server) handlePutDay(w http.ResponseWriter, r *http.Request) {
	dayID := chi.URLParam(r, "dayId")
	if err := models.ValidateDayID(dayID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var entry models.DayEntry
	if err := decodeJSON(w, r, dayBodyLimit, &entry); err != nil {
		writeErrorDetails(w, http.StatusBadRequest, "Invalid day entry", err)
		return
	}
	if entry.ID != "" && entry.ID != dayID {
		writeError(w, http.StatusBadRequest, "Day entry id does not match the path")
		return
	}
	entry.ID = dayID

	if r.URL.Query().Get("debounce") == "1" {
		s.deps.Days.SaveDebounced(entry)
		writeJSON(w, http.StatusAccepted, map[string]any{"queued": true, "dayId": dayID})
		return
	}

	saved, err := s.deps.Days.Save(r.Context(), entry)
	switch {
	case err == nil:
	case errors.Is(err, daystore.ErrStorageFull):
		s.deps.Metrics.ObserveDaySave("full")
		writeErrorDetails(w, http.StatusInsufficientStorage, "Storage full", err)
		return
	case errors.Is(err, daystore.ErrInvalidDayID):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	default:
		s.deps.Metrics.ObserveDaySave("error")
		writeErrorDetails(w, http.StatusInternalServerError, "Failed to save day", err)
		return
	}

	s.deps.Metrics.ObserveDaySave("ok")
	events.Emit(r.Context(), s.deps.Events, events.DaySaved, map[string]any{"dayId": dayID, "lifecycle": saved.Lifecycle})
	writeJSON(w, http.StatusOK, saved)
}

func (s *Server) handleDeleteDay(w http.ResponseWriter, r *http.Request) {
	dayID := chi.URLParam(r, "dayId")
	if err := models.ValidateDayID(dayID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.deps.Days.Delete(r.Context(), dayID); err != nil {
		writeErrorDetails(w, http.StatusInternalServerError, "Failed to delete day", err)
		return
	}
	events.Emit(r.Context(), s.deps.Events, events.DayDeleted, map[string]string{"dayId": dayID})
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetCover(w http.ResponseWriter, r *http.Request) {
	ym := chi.URLParam(r, "ym")
	if _, _, err := calendar.ParseMonthID(ym); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	mode := r.URL.Query().Get("mode")
	url, err := s.deps.Days.GetCover(r.Context(), ym, mode)
	if err != nil {
		writeErrorDetails(w, http.StatusInternalServerError, "Failed to load cover", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"ym": ym, "mode": mode, "url": url})
}

func (s *Server) handlePutCover(w http.ResponseWriter, r *http.Request) {
	ym := chi.URLParam(r, "ym")
	if _, _, err := calendar.ParseMonthID(ym); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var body struct {
		URL  string `json:"url"`
		Mode string `json:"mode"`
	}
	if err := decodeJSON(w, r, dayBodyLimit, &body); err != nil {
		writeErrorDetails(w, http.StatusBadRequest, "Invalid cover", err)
		return
	}
	if body.URL == "" {
		writeError(w, http.StatusBadRequest, "Missing url")
		return
	}
	if err := s.deps.Days.SetCover(r.Context(), ym, body.Mode, body.URL); err != nil {
		writeErrorDetails(w, http.StatusInternalServerError, "Failed to save cover", err)
		return
	}
	events.Emit(r.Context(), s.deps.Events, events.CoverSaved, map[string]string{"ym": ym, "url": body.URL})
	writeJSON(w, http.StatusOK, map[string]string{"ym": ym, "mode": body.Mode, "url": body.URL})
}
