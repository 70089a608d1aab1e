// TOMMY Core - zone motion reconciliation service
//
// This is the main entry point for the TOMMY core. It mirrors a TOMMY
// hub's zone roster as local motion sensors: it subscribes to the hub's
// MQTT zone topics, converges the device and entity registries onto
// each roster snapshot, routes motion updates to sensors, and exposes
// the result over a REST and WebSocket API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	eventbus "github.com/jilio/ebu"

	_ "github.com/nerrad567/tommy-core/migrations"

	"github.com/nerrad567/tommy-core/internal/api"
	"github.com/nerrad567/tommy-core/internal/events"
	"github.com/nerrad567/tommy-core/internal/hub"
	"github.com/nerrad567/tommy-core/internal/infrastructure/config"
	"github.com/nerrad567/tommy-core/internal/infrastructure/database"
	"github.com/nerrad567/tommy-core/internal/infrastructure/logging"
	"github.com/nerrad567/tommy-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/tommy-core/internal/registry"
	"github.com/nerrad567/tommy-core/internal/zone"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for
// testability.
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting TOMMY core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open database and run migrations
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
	log.Info("database connected", "path", cfg.Database.Path)

	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// Registries
	instanceID := cfg.Service.InstanceID
	devices := registry.NewDeviceRepository(db.DB, instanceID)
	entities := registry.NewEntityRepository(db.DB)

	// Bootstrap the hub's own device so zone devices can reference it.
	if err := devices.EnsureDevice(ctx, instanceID, cfg.Service.Name, ""); err != nil {
		return fmt.Errorf("registering hub device: %w", err)
	}
	log.Info("hub device registered", "identifier", instanceID)

	// Event bus for zone lifecycle and motion notifications
	bus := eventbus.New()
	sink := events.NewBus(bus)

	// Reconciliation core
	reconciler := zone.NewReconciler(instanceID, entities, devices)
	reconciler.SetLogger(log.With("component", "reconciler"))
	reconciler.SetEventSink(sink)

	router := zone.NewRouter(reconciler)
	router.SetLogger(log.With("component", "router"))

	decoder := zone.NewDecoder()
	decoder.SetLogger(log.With("component", "decoder"))

	// Hub transport and orchestrator
	transport := mqtt.NewClient(cfg.TOMMY, cfg.MQTT, log.With("component", "mqtt"))
	core := hub.New(cfg.TOMMY, transport, decoder, reconciler, router, log.With("component", "hub"))

	if err := core.Start(ctx); err != nil {
		return fmt.Errorf("starting hub pipeline: %w", err)
	}
	defer core.Stop()
	log.Info("hub pipeline started",
		"host", cfg.TOMMY.Host,
		"port", cfg.TOMMY.MQTTPort,
	)

	// HTTP API
	server, err := api.New(api.Deps{
		Config:   cfg.API,
		WS:       cfg.WebSocket,
		Logger:   log.With("component", "api"),
		Zones:    reconciler,
		Hub:      core,
		Devices:  devices,
		Entities: entities,
		Events:   bus,
		Version:  version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	log.Info("initialisation complete, waiting for shutdown signal")

	<-ctx.Done()
	log.Info("shutdown signal received, cleaning up")

	return nil
}

// getConfigPath returns the configuration file path.
// Uses TOMMY_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("TOMMY_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
