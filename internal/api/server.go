package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	eventbus "github.com/jilio/ebu"

	"github.com/nerrad567/tommy-core/internal/events"
	"github.com/nerrad567/tommy-core/internal/infrastructure/config"
	"github.com/nerrad567/tommy-core/internal/infrastructure/logging"
	"github.com/nerrad567/tommy-core/internal/registry"
	"github.com/nerrad567/tommy-core/internal/zone"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight
// requests to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// ZoneView is the read-only view of the reconciled zone set the API
// serves. Implemented by zone.Reconciler.
type ZoneView interface {
	Snapshot() []zone.ZoneInfo
	SensorByZone(zoneID string) (*zone.MotionSensor, bool)
	Sensors() []*zone.MotionSensor
}

// HubStatus reports the state of the hub broker connection.
type HubStatus interface {
	Connected() bool
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config   config.APIConfig
	WS       config.WebSocketConfig
	Logger   *logging.Logger
	Zones    ZoneView
	Hub      HubStatus
	Devices  *registry.DeviceRepository
	Entities *registry.EntityRepository
	Events   *eventbus.EventBus // optional: enables WebSocket event relay
	Version  string
}

// Server is the HTTP API server.
//
// It exposes the reconciled zone set, live motion state, the persisted
// registries, and a WebSocket feed of zone events. Created with New()
// and started with Start().
type Server struct {
	cfg      config.APIConfig
	wsCfg    config.WebSocketConfig
	logger   *logging.Logger
	zones    ZoneView
	hubState HubStatus
	devices  *registry.DeviceRepository
	entities *registry.EntityRepository
	events   *eventbus.EventBus
	version  string

	server *http.Server
	hub    *Hub
	cancel context.CancelFunc

	started time.Time
}

// New creates a new API server with the given dependencies. The server
// is not started until Start() is called.
//
// Returns:
//   - *Server: Configured server ready to start
//   - error: If required dependencies are missing
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Zones == nil {
		return nil, fmt.Errorf("zone view is required")
	}

	return &Server{
		cfg:      deps.Config,
		wsCfg:    deps.WS,
		logger:   deps.Logger,
		zones:    deps.Zones,
		hubState: deps.Hub,
		devices:  deps.Devices,
		entities: deps.Entities,
		events:   deps.Events,
		version:  deps.Version,
	}, nil
}

// Start begins listening for HTTP connections.
//
// It builds the router, starts the WebSocket hub, subscribes the hub to
// zone events, and launches the HTTP listener in a background goroutine.
// Stop with Close().
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	s.hub = NewHub(s.wsCfg, s.logger)
	go s.hub.Run(srvCtx)

	s.subscribeZoneEvents()

	s.started = time.Now()

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		err := s.server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	s.logger.Info("API server started", "address", s.server.Addr)
	return nil
}

// subscribeZoneEvents relays reconciliation events to WebSocket clients.
// Handlers run asynchronously and in order so a slow client cannot stall
// the reconciliation goroutine.
func (s *Server) subscribeZoneEvents() {
	if s.events == nil {
		return
	}

	//nolint:errcheck // Subscribe only fails for invalid handler types
	eventbus.Subscribe(s.events, func(e events.MotionChanged) {
		s.hub.Broadcast(ChannelZoneMotion, e)
	}, eventbus.Async(true))
	eventbus.Subscribe(s.events, func(e events.ZoneAdded) {
		s.hub.Broadcast(ChannelZoneAdded, e)
	}, eventbus.Async(true))
	eventbus.Subscribe(s.events, func(e events.ZoneRemoved) {
		s.hub.Broadcast(ChannelZoneRemoved, e)
	}, eventbus.Async(true))
	eventbus.Subscribe(s.events, func(e events.ZoneRenamed) {
		s.hub.Broadcast(ChannelZoneRenamed, e)
	}, eventbus.Async(true))
}

// Close gracefully shuts down the API server, waiting up to 10 seconds
// for in-flight requests.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

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
