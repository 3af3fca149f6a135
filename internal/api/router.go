package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		// Sequence control
		r.Route("/sequence", func(r chi.Router) {
			r.Post("/start", s.handleStartSequence)
			r.Post("/start-random", s.handleStartRandomSequence)
			r.Post("/test", s.handleStartTestSequence)
			r.Post("/stop", s.handleStopSequence)
			r.Get("/status", s.handleSequenceStatus)
		})

		// Relay state and forced-off safety control
		r.Route("/relay", func(r chi.Router) {
			r.Get("/", s.handleRelayStatus)
			r.Put("/", s.handleSetRelay)
		})

		// Operator settings
		r.Route("/settings", func(r chi.Router) {
			r.Get("/", s.handleGetSettings)
			r.Put("/", s.handleUpdateSettings)
			r.Get("/alignment", s.handleGetAlignment)
			r.Put("/alignment", s.handleSetAlignment)
		})

		// Bluetooth audio discovery
		r.Post("/bluetooth/scan", s.handleBluetoothScan)

		// WebSocket for live status
		r.Get("/ws", s.handleWebSocket)
	})

	return r
}

// healthCheckTimeout bounds each component probe in the health handler.
const healthCheckTimeout = 2 * time.Second

// handleHealth returns the server health status with per-component detail.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	components := map[string]string{
		"relay": componentStatus(s.relay.Available()),
	}

	if s.db != nil {
		components["database"] = errStatus(s.db.HealthCheck(ctx))
	}
	if s.mqtt != nil {
		components["mqtt"] = errStatus(s.mqtt.HealthCheck(ctx))
	}
	if s.audio != nil {
		components["audio"] = errStatus(s.audio.HealthCheck(ctx))
	}
	if s.scanner != nil {
		components["bluetooth"] = componentStatus(s.scanner.Available())
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"version":    s.version,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
		"components": components,
	})
}

func componentStatus(ok bool) string {
	if ok {
		return "ok"
	}
	return "unavailable"
}

func errStatus(err error) string {
	if err != nil {
		return "unavailable"
	}
	return "ok"
}
