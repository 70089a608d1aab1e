package hub

import (
	"context"
	"fmt"
	"sync"

	"github.com/nerrad567/tommy-core/internal/infrastructure/config"
	"github.com/nerrad567/tommy-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/tommy-core/internal/zone"
)

// Transport is the broker connection the orchestrator drives.
// Implemented by mqtt.Client.
type Transport interface {
	Subscribe(topic mqtt.Topic, handler mqtt.MessageHandler) error
	Connect() error
	IsConnected() bool
	Close()
	OnConnect(fn func())
	OnDisconnect(fn func(error))
}

// Logger is the minimal logging interface used by this package.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Hub orchestrates the pipeline from broker to sensors: it subscribes
// the decoder to the zone topics, feeds rosters to the reconciler and
// motion updates to the router, and owns the connection lifecycle.
type Hub struct {
	cfg config.TOMMYConfig

	transport  Transport
	decoder    *zone.Decoder
	reconciler *zone.Reconciler
	router     *zone.Router
	logger     Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	started  bool
	stopOnce sync.Once
}

// New creates the orchestrator. Nothing connects until Start.
func New(cfg config.TOMMYConfig, transport Transport, decoder *zone.Decoder, reconciler *zone.Reconciler, router *zone.Router, logger Logger) *Hub {
	return &Hub{
		cfg:        cfg,
		transport:  transport,
		decoder:    decoder,
		reconciler: reconciler,
		router:     router,
		logger:     logger,
	}
}

// Start validates the hub endpoint, wires the topic handlers and opens
// the broker connection. The returned error names the missing setting
// when the endpoint is not configured; connection failures past that
// point are handled by the transport's reconnect loop.
func (h *Hub) Start(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.started {
		return fmt.Errorf("hub already started")
	}

	if h.cfg.Host == "" {
		return fmt.Errorf("tommy.host is required to reach the hub")
	}
	if h.cfg.MQTTPort <= 0 {
		return fmt.Errorf("tommy.mqtt_port is required to reach the hub")
	}

	h.ctx, h.cancel = context.WithCancel(ctx)

	if err := h.transport.Subscribe(mqtt.TopicZoneConfig, h.handleZoneConfig); err != nil {
		return fmt.Errorf("subscribing to zone config: %w", err)
	}
	if err := h.transport.Subscribe(mqtt.TopicZoneState, h.handleZoneState); err != nil {
		return fmt.Errorf("subscribing to zone state: %w", err)
	}

	h.transport.OnConnect(func() {
		h.logger.Info("hub connection established",
			"host", h.cfg.Host,
			"port", h.cfg.MQTTPort,
		)
	})
	h.transport.OnDisconnect(func(err error) {
		h.logger.Warn("hub connection lost", "error", err)
	})

	if err := h.transport.Connect(); err != nil {
		h.cancel()
		return fmt.Errorf("connecting to hub: %w", err)
	}

	h.started = true
	return nil
}

// handleZoneConfig processes a roster snapshot from the zone-config
// topic.
func (h *Hub) handleZoneConfig(_ mqtt.Topic, payload []byte) error {
	roster, err := h.decoder.DecodeRoster(payload)
	if err != nil {
		return err
	}
	h.reconciler.Update(h.ctx, roster)
	return nil
}

// handleZoneState processes a zone-state message: the embedded roster
// first, so a motion update for a brand-new zone lands on a sensor that
// already exists, then the motion update itself.
func (h *Hub) handleZoneState(_ mqtt.Topic, payload []byte) error {
	update, err := h.decoder.DecodeState(payload)
	if err != nil {
		return err
	}
	h.reconciler.Update(h.ctx, update.Roster)
	h.router.Route(update.ZoneID, update.Motion)
	return nil
}

// Connected reports whether the broker session is up.
func (h *Hub) Connected() bool {
	return h.transport.IsConnected()
}

// Stop closes the broker connection and discards the in-memory zone
// table. Idempotent, and safe to call when Start failed part-way.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		if h.cancel != nil {
			h.cancel()
		}
		h.transport.Close()
		h.reconciler.Reset()

		h.mu.Lock()
		h.started = false
		h.mu.Unlock()

		h.logger.Info("hub stopped")
	})
}
