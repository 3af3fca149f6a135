package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/lugegod/LugeRelay/internal/settings"
)

// handleGetSettings returns the stored operator settings.
func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	stored, err := s.settings.Get(r.Context())
	if err != nil {
		s.logger.Error("reading settings", "error", err)
		writeInternalError(w, "failed to read settings")
		return
	}
	writeJSON(w, http.StatusOK, stored)
}

// handleUpdateSettings replaces the stored settings.
//
// The request body is merged over the current settings, so a partial
// update only touches the fields it names.
func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	current, err := s.settings.Get(r.Context())
	if err != nil {
		s.logger.Error("reading settings for update", "error", err)
		writeInternalError(w, "failed to read settings")
		return
	}

	updated := *current
	if err := json.NewDecoder(r.Body).Decode(&updated); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if err := s.settings.Update(r.Context(), &updated); err != nil {
		if errors.Is(err, settings.ErrInvalidSettings) {
			writeError(w, http.StatusBadRequest, ErrCodeValidation, err.Error())
			return
		}
		s.logger.Error("updating settings", "error", err)
		writeInternalError(w, "failed to update settings")
		return
	}

	s.logger.Info("settings updated")
	writeJSON(w, http.StatusOK, &updated)
}

// handleGetAlignment returns the stored relay alignment offset.
func (s *Server) handleGetAlignment(w http.ResponseWriter, r *http.Request) {
	stored, err := s.settings.Get(r.Context())
	if err != nil {
		s.logger.Error("reading alignment offset", "error", err)
		writeInternalError(w, "failed to read settings")
		return
	}
	writeJSON(w, http.StatusOK, map[string]float64{"offset": stored.AlignmentOffset})
}

// setAlignmentRequest is the request body for PUT /settings/alignment.
type setAlignmentRequest struct {
	Offset float64 `json:"offset"`
}

// handleSetAlignment persists a relay alignment offset found during
// calibration runs.
func (s *Server) handleSetAlignment(w http.ResponseWriter, r *http.Request) {
	var req setAlignmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if err := s.settings.SetAlignmentOffset(r.Context(), req.Offset); err != nil {
		s.logger.Error("saving alignment offset", "error", err)
		writeInternalError(w, "failed to save alignment offset")
		return
	}

	s.logger.Info("alignment offset saved", "offset", req.Offset)
	writeJSON(w, http.StatusOK, map[string]float64{"offset": req.Offset})
}
