// Package api provides the HTTP REST API and WebSocket server for the
// gate controller.
//
// It exposes sequence control (start, stop, status), relay and settings
// management, and real-time state updates to the operator UI.
//
// The server follows the same lifecycle pattern as other infrastructure
// components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/lugegod/LugeRelay/internal/audio"
	"github.com/lugegod/LugeRelay/internal/infrastructure/config"
	"github.com/lugegod/LugeRelay/internal/infrastructure/database"
	"github.com/lugegod/LugeRelay/internal/infrastructure/logging"
	"github.com/lugegod/LugeRelay/internal/infrastructure/mqtt"
	"github.com/lugegod/LugeRelay/internal/sequence"
	"github.com/lugegod/LugeRelay/internal/settings"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// SequenceRunner is the sequence engine surface the API depends on.
// Implemented by sequence.Engine; mocked in handler tests.
type SequenceRunner interface {
	Start(ctx context.Context, p sequence.Parameters) (string, error)
	StartCalibration(ctx context.Context, offset float64) (string, error)
	Stop() error
	Status() sequence.Snapshot
}

// RelayController is the relay surface the API depends on: status reads
// plus the forced-off safety action. Activation is not exposed here; the
// sequence engine is the only component that energises the relay.
type RelayController interface {
	Deactivate()
	IsActive() bool
	Available() bool
}

// Scanner is the Bluetooth surface the API depends on.
type Scanner interface {
	Scan(ctx context.Context) error
	Scanning() bool
	Available() bool
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config      config.APIConfig
	WS          config.WebSocketConfig
	Logger      *logging.Logger
	Engine      SequenceRunner
	Relay       RelayController
	Settings    settings.Repository
	Scanner     Scanner       // optional; nil disables bluetooth endpoints
	DB          *database.DB  // optional; used for health reporting
	MQTT        *mqtt.Client  // optional; used for health reporting
	Audio       *audio.Player // optional; used for health reporting
	ExternalHub *Hub          // If set, the server uses this hub instead of creating its own
	Version     string
}

// Server is the HTTP API server for the gate controller.
//
// It manages the HTTP listener, routes, middleware, and WebSocket hub.
// The server is created with New() and started with Start().
type Server struct {
	cfg      config.APIConfig
	wsCfg    config.WebSocketConfig
	logger   *logging.Logger
	engine   SequenceRunner
	relay    RelayController
	settings settings.Repository
	scanner  Scanner
	db       *database.DB
	mqtt     *mqtt.Client
	audio    *audio.Player
	version  string
	server   *http.Server
	hub      *Hub
	cancel   context.CancelFunc // cancels background goroutines on Close()
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
//
// Parameters:
//   - deps: Required dependencies (config, logger, engine, relay, settings)
//
// Returns:
//   - *Server: Configured server ready to start
//   - error: If required dependencies are missing
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Engine == nil {
		return nil, fmt.Errorf("sequence engine is required")
	}
	if deps.Relay == nil {
		return nil, fmt.Errorf("relay controller is required")
	}
	if deps.Settings == nil {
		return nil, fmt.Errorf("settings repository is required")
	}

	s := &Server{
		cfg:      deps.Config,
		wsCfg:    deps.WS,
		logger:   deps.Logger,
		engine:   deps.Engine,
		relay:    deps.Relay,
		settings: deps.Settings,
		scanner:  deps.Scanner,
		db:       deps.DB,
		mqtt:     deps.MQTT,
		audio:    deps.Audio,
		version:  deps.Version,
	}

	// Use an externally-provided hub if available (needed when the engine
	// also requires the hub for WebSocket broadcasting).
	if deps.ExternalHub != nil {
		s.hub = deps.ExternalHub
	}

	return s, nil
}

// Start begins listening for HTTP connections.
//
// It sets up the router, starts the WebSocket hub, and launches the HTTP
// listener in a background goroutine. The server can be stopped with Close().
//
// Parameters:
//   - ctx: Context for cancellation (not used for listener lifetime)
//
// Returns:
//   - error: If the server fails to start (port in use, etc.)
func (s *Server) Start(ctx context.Context) error {
	// Internal context so Close() can stop background goroutines
	// independently of the parent context.
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	if s.hub == nil {
		s.hub = NewHub(s.wsCfg, s.logger)
	}
	go s.hub.Run(srvCtx)

	router := s.buildRouter()

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           router,
		ReadTimeout:       s.cfg.GetReadTimeout(),
		ReadHeaderTimeout: s.cfg.GetReadTimeout(),
		WriteTimeout:      s.cfg.GetWriteTimeout(),
		IdleTimeout:       s.cfg.GetIdleTimeout(),
	}

	go func() {
		err := s.server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	s.logger.Info("API server listening", "address", s.server.Addr)
	return nil
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
//
// Returns:
//   - error: If shutdown encounters an error
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	// Cancel background goroutines (hub)
	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//
// Returns:
//   - error: nil if healthy, error describing the issue otherwise
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}

	return nil
}
