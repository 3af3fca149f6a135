package api

import (
	"encoding/json"
	"errors"
	"io"
	"math"
	"math/rand/v2"
	"net/http"

	"github.com/lugegod/LugeRelay/internal/sequence"
)

// startSequenceRequest is the request body for POST /sequence/start.
// Omitted fields fall back to the stored defaults.
type startSequenceRequest struct {
	Delay1    *float64 `json:"delay1"`
	Delay2    *float64 `json:"delay2"`
	GateDelay *float64 `json:"gate_delay"`
}

// startSequenceResponse echoes the effective parameters of the started run.
type startSequenceResponse struct {
	RunID     string  `json:"run_id"`
	Delay1    float64 `json:"delay1"`
	Delay2    float64 `json:"delay2"`
	GateDelay float64 `json:"gate_delay"`
}

// handleStartSequence starts a standard three-cue run.
func (s *Server) handleStartSequence(w http.ResponseWriter, r *http.Request) {
	// An empty body means "use the stored defaults".
	var req startSequenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	stored, err := s.settings.Get(r.Context())
	if err != nil {
		s.logger.Error("reading settings for sequence start", "error", err)
		writeInternalError(w, "failed to read settings")
		return
	}

	params := sequence.Parameters{
		Delay1:    stored.DefaultDelay1,
		Delay2:    stored.DefaultDelay2,
		GateDelay: stored.DefaultGateDelay,
	}
	if req.Delay1 != nil {
		params.Delay1 = *req.Delay1
	}
	if req.Delay2 != nil {
		params.Delay2 = *req.Delay2
	}
	if req.GateDelay != nil {
		params.GateDelay = *req.GateDelay
	}

	runID, err := s.engine.Start(r.Context(), params)
	if err != nil {
		writeSequenceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, startSequenceResponse{
		RunID:     runID,
		Delay1:    params.Delay1,
		Delay2:    params.Delay2,
		GateDelay: params.GateDelay,
	})
}

// Random delay bounds, matching what athletes see in competition: the
// first interval is short, the second longer, and the pair never pushes
// the total outside the configured window.
const (
	randomDelay1Min = 1.0
	randomDelay1Max = 8.0
	randomDelay2Cap = 12.0
	randomDelay2Gap = 0.5
)

// handleStartRandomSequence starts a run with randomised delays for
// reaction training.
func (s *Server) handleStartRandomSequence(w http.ResponseWriter, r *http.Request) {
	stored, err := s.settings.Get(r.Context())
	if err != nil {
		s.logger.Error("reading settings for random sequence", "error", err)
		writeInternalError(w, "failed to read settings")
		return
	}

	delay1 := roundTenth(randomDelay1Min + rand.Float64()*(randomDelay1Max-randomDelay1Min))

	// Second delay always exceeds the first, capped so the total stays
	// inside the window.
	minDelay2 := delay1 + randomDelay2Gap
	maxDelay2 := math.Min(randomDelay2Cap, stored.MaxTotalTime-delay1-stored.GateOpenDuration)
	delay2 := minDelay2
	if maxDelay2 > minDelay2 {
		delay2 = roundTenth(minDelay2 + rand.Float64()*(maxDelay2-minDelay2))
	}

	total := delay1 + delay2 + stored.GateOpenDuration
	if total < stored.MinTotalTime || total > stored.MaxTotalTime {
		// Fall back to the stored defaults when the draw cannot fit.
		delay1 = stored.DefaultDelay1
		delay2 = stored.DefaultDelay2
	}

	params := sequence.Parameters{Delay1: delay1, Delay2: delay2}
	runID, err := s.engine.Start(r.Context(), params)
	if err != nil {
		writeSequenceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, startSequenceResponse{
		RunID:  runID,
		Delay1: delay1,
		Delay2: delay2,
	})
}

// startTestRequest is the request body for POST /sequence/test.
// An omitted offset uses the stored alignment offset.
type startTestRequest struct {
	Offset *float64 `json:"offset"`
}

// handleStartTestSequence starts a calibration run: silent lead-in, final
// cue, relay at the requested offset.
func (s *Server) handleStartTestSequence(w http.ResponseWriter, r *http.Request) {
	var req startTestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	offset := 0.0
	if req.Offset != nil {
		offset = *req.Offset
	} else {
		stored, err := s.settings.Get(r.Context())
		if err != nil {
			s.logger.Error("reading settings for test sequence", "error", err)
			writeInternalError(w, "failed to read settings")
			return
		}
		offset = stored.AlignmentOffset
	}

	runID, err := s.engine.StartCalibration(r.Context(), offset)
	if err != nil {
		writeSequenceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"run_id": runID,
		"offset": offset,
	})
}

// handleStopSequence cancels the in-flight run.
func (s *Server) handleStopSequence(w http.ResponseWriter, _ *http.Request) {
	if err := s.engine.Stop(); err != nil {
		writeSequenceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"stopped": true})
}

// handleSequenceStatus returns the live status snapshot.
func (s *Server) handleSequenceStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Status())
}

// handleRelayStatus returns the relay's logical and hardware state.
func (s *Server) handleRelayStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{
		"active":             s.relay.IsActive(),
		"hardware_available": s.relay.Available(),
	})
}

// setRelayRequest is the request body for PUT /relay.
type setRelayRequest struct {
	Active bool `json:"active"`
}

// handleSetRelay forces the relay off. The relay is owned by the sequence
// engine; the only mutation an external request may perform is the same
// forced deactivation a stop issues. Activation requests are rejected.
func (s *Server) handleSetRelay(w http.ResponseWriter, r *http.Request) {
	var req setRelayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if req.Active {
		writeError(w, http.StatusBadRequest, ErrCodeValidation,
			"the relay is driven by the sequence engine; only {\"active\": false} is accepted")
		return
	}

	if s.engine.Status().Running {
		writeError(w, http.StatusConflict, ErrCodeConflict,
			"a sequence is running; stop it to release the relay")
		return
	}

	s.relay.Deactivate()

	writeJSON(w, http.StatusOK, map[string]bool{
		"active":             s.relay.IsActive(),
		"hardware_available": s.relay.Available(),
	})
}

// roundTenth rounds to one decimal place, the granularity operators see.
func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}
