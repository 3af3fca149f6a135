// LugeRelay - luge start-gate sequence controller
//
// This is the main entry point for the gate controller. It runs trackside
// on a Raspberry Pi, drives the start sequence (audio cues plus the
// gate-release relay on a GPIO line), and exposes an HTTP API and
// WebSocket feed for the operator UI.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lugegod/LugeRelay/migrations"

	"github.com/lugegod/LugeRelay/internal/api"
	"github.com/lugegod/LugeRelay/internal/audio"
	"github.com/lugegod/LugeRelay/internal/bluetooth"
	"github.com/lugegod/LugeRelay/internal/infrastructure/config"
	"github.com/lugegod/LugeRelay/internal/infrastructure/database"
	"github.com/lugegod/LugeRelay/internal/infrastructure/logging"
	"github.com/lugegod/LugeRelay/internal/infrastructure/mqtt"
	"github.com/lugegod/LugeRelay/internal/relay"
	"github.com/lugegod/LugeRelay/internal/sequence"
	"github.com/lugegod/LugeRelay/internal/settings"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Cancel on interrupt signals (Ctrl+C, SIGTERM) for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error { //nolint:gocognit // Linear wiring of every component
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting LugeRelay",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)

	// Open database
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", db.Path())

	// Run migrations (seeds the settings row on first start)
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	settingsRepo := settings.NewSQLiteRepository(db.DB)

	// Bind the gate-release relay. Missing hardware falls back to
	// simulation so the controller can run on a development machine.
	relayDriver := relay.New(relay.Config{
		Chip:       cfg.Relay.Chip,
		Line:       cfg.Relay.Line,
		ActiveHigh: cfg.Relay.ActiveHigh,
	}, log.With("component", "relay"))
	defer func() {
		if closeErr := relayDriver.Close(); closeErr != nil {
			log.Error("error closing relay", "error", closeErr)
		}
	}()
	log.Info("relay driver ready",
		"chip", cfg.Relay.Chip,
		"line", cfg.Relay.Line,
		"hardware", relayDriver.Available(),
	)

	player := audio.New(audio.Config{
		Dir:        cfg.Audio.Dir,
		Player:     cfg.Audio.Player,
		PlayerArgs: cfg.Audio.PlayerArgs,
	}, log.With("component", "audio"))

	// Connect to MQTT broker (optional)
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)

		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})
	} else {
		log.Info("MQTT disabled")
	}

	scanner := bluetooth.NewScanner(bluetooth.Config{
		Binary:   cfg.Bluetooth.Binary,
		Duration: cfg.GetScanDuration(),
	}, log.With("component", "bluetooth"))

	// The hub is shared: the engine broadcasts through it, the API serves it.
	hub := api.NewHub(cfg.WebSocket, log)

	// Avoid a typed-nil interface when MQTT is disabled.
	var publisher sequence.Publisher
	if mqttClient != nil {
		publisher = mqttClient
	}

	engine := sequence.NewEngine(
		relayDriver,
		player,
		settingsRepo,
		publisher,
		hub,
		log.With("component", "sequence"),
	)

	server, err := api.New(api.Deps{
		Config:      cfg.API,
		WS:          cfg.WebSocket,
		Logger:      log,
		Engine:      engine,
		Relay:       relayDriver,
		Settings:    settingsRepo,
		Scanner:     scanner,
		DB:          db,
		MQTT:        mqttClient,
		Audio:       player,
		ExternalHub: hub,
		Version:     version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if startErr := server.Start(ctx); startErr != nil {
		return fmt.Errorf("starting API server: %w", startErr)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	// Verify infrastructure is healthy before declaring ready
	if err := healthCheck(ctx, db, mqttClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	log.Info("initialisation complete, waiting for shutdown signal")

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Abort any in-flight run so the relay is off before the driver closes.
	if stopErr := engine.Stop(); stopErr != nil && !errors.Is(stopErr, sequence.ErrNotRunning) {
		log.Error("error stopping sequence", "error", stopErr)
	}

	log.Info("LugeRelay stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses LUGERELAY_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("LUGERELAY_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies infrastructure connections are healthy.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - db: Database connection to check
//   - mqttClient: MQTT client to check (may be nil if disabled)
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}

	return nil
}
