package mqtt

import (
	"fmt"
	"net"
	"sync"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/tommy-core/internal/infrastructure/config"
)

// Logger abstracts the structured logger so this package does not depend
// on a concrete logging implementation.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Client wraps the paho MQTT client with a persistent subscription to the
// hub's zone topics, automatic reconnection, and single-goroutine message
// delivery via its Dispatcher.
//
// The connection is long-lived: once Connect succeeds (or the initial
// attempt times out and continues in the background), paho keeps retrying
// with backoff until Close is called. Subscriptions are re-established on
// every reconnect from the OnConnect callback, so a broker restart is
// transparent to subscribers.
type Client struct {
	client     pahomqtt.Client
	dispatcher *Dispatcher

	cfg config.MQTTConfig
	hub config.TOMMYConfig
	qos byte

	connected bool
	connMu    sync.RWMutex

	onConnect    func()
	onDisconnect func(error)
	callbackMu   sync.RWMutex

	closeOnce sync.Once

	logger Logger
}

// NewClient creates an MQTT client for the given hub endpoint. The client
// does not connect until Connect is called.
func NewClient(hub config.TOMMYConfig, cfg config.MQTTConfig, logger Logger) *Client {
	return &Client{
		dispatcher: NewDispatcher(logger),
		cfg:        cfg,
		hub:        hub,
		qos:        byte(cfg.QoS),
		logger:     logger,
	}
}

// OnConnect registers a callback invoked each time the broker connection
// is (re-)established, after subscriptions have been restored.
func (c *Client) OnConnect(fn func()) {
	c.callbackMu.Lock()
	c.onConnect = fn
	c.callbackMu.Unlock()
}

// OnDisconnect registers a callback invoked each time the broker
// connection is lost. Reconnection proceeds in the background regardless.
func (c *Client) OnDisconnect(fn func(error)) {
	c.callbackMu.Lock()
	c.onDisconnect = fn
	c.callbackMu.Unlock()
}

// Subscribe registers a handler for one of the hub topics. Must be called
// before Connect; the actual broker SUBSCRIBE happens from the connect
// callback so that it is repeated on every reconnect.
//
// Returns:
//   - ErrUnknownTopic: topic is not one of the known hub topics
//   - ErrNilHandler: handler is nil
func (c *Client) Subscribe(topic Topic, handler MessageHandler) error {
	if _, ok := ParseTopic(string(topic)); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTopic, topic)
	}
	if handler == nil {
		return fmt.Errorf("%w: topic %s", ErrNilHandler, topic)
	}
	c.dispatcher.On(topic, handler)
	return nil
}

// Connect establishes the broker connection and starts the dispatcher.
//
// The hostname is resolved first: a host that cannot be resolved means
// the connection cannot even be attempted, which is reported as
// ErrConnectionFailed. Past that point the connection is best-effort;
// Connect waits briefly for the initial attempt but returns nil even if
// the broker is not yet reachable, because paho retries in the
// background and OnConnect fires when the session comes up.
func (c *Client) Connect() error {
	if _, err := net.LookupHost(c.hub.Host); err != nil {
		return fmt.Errorf("%w: resolving %s: %v", ErrConnectionFailed, c.hub.Host, err)
	}

	opts := buildClientOptions(c.hub, c.cfg)
	configureLWT(opts, c.cfg.ClientID)

	opts.SetOnConnectHandler(c.handleConnect)
	opts.SetConnectionLostHandler(c.handleConnectionLost)

	c.dispatcher.Start()
	c.client = pahomqtt.NewClient(opts)

	token := c.client.Connect()
	if !token.WaitTimeout(initialConnectWait) {
		c.logger.Info("broker not yet reachable, retrying in background",
			"host", c.hub.Host,
			"port", c.hub.MQTTPort,
		)
		return nil
	}
	if err := token.Error(); err != nil {
		// ConnectRetry keeps attempting; surface the first failure as a
		// log line rather than an error so startup can proceed.
		c.logger.Warn("initial broker connection failed, retrying in background",
			"host", c.hub.Host,
			"port", c.hub.MQTTPort,
			"error", err,
		)
	}
	return nil
}

// IsConnected reports whether the broker session is currently up. The
// flag is driven solely by the paho connect and connection-lost
// callbacks.
func (c *Client) IsConnected() bool {
	c.connMu.RLock()
	defer c.connMu.RUnlock()
	return c.connected
}

// handleConnect runs on every successful (re-)connection: restore
// subscriptions, announce presence, then notify the application.
func (c *Client) handleConnect(client pahomqtt.Client) {
	c.connMu.Lock()
	c.connected = true
	c.connMu.Unlock()

	c.logger.Info("connected to broker",
		"host", c.hub.Host,
		"port", c.hub.MQTTPort,
	)

	for _, topic := range SubscribedTopics() {
		c.subscribeTopic(client, topic)
	}

	c.publishStatus(buildOnlinePayload(c.cfg.ClientID))

	c.callbackMu.RLock()
	fn := c.onConnect
	c.callbackMu.RUnlock()
	if fn != nil {
		fn()
	}
}

// subscribeTopic issues the broker SUBSCRIBE for one topic, routing
// received messages into the dispatcher.
func (c *Client) subscribeTopic(client pahomqtt.Client, topic Topic) {
	token := client.Subscribe(string(topic), c.qos, func(_ pahomqtt.Client, msg pahomqtt.Message) {
		// Copy the payload: paho reuses the buffer after the callback.
		payload := make([]byte, len(msg.Payload()))
		copy(payload, msg.Payload())

		parsed, ok := ParseTopic(msg.Topic())
		if !ok {
			c.logger.Warn("message on unexpected topic dropped", "topic", msg.Topic())
			return
		}
		if !c.dispatcher.Post(parsed, payload) {
			c.logger.Warn("message dropped, dispatcher closed", "topic", msg.Topic())
		}
	})

	if !token.WaitTimeout(defaultPublishTimeout) || token.Error() != nil {
		c.logger.Error("subscribe failed", "topic", topic, "error", token.Error())
		return
	}
	c.logger.Debug("subscribed", "topic", topic, "qos", c.qos)
}

// handleConnectionLost marks the session down and notifies the
// application. Paho's auto-reconnect keeps retrying with backoff.
func (c *Client) handleConnectionLost(_ pahomqtt.Client, err error) {
	c.connMu.Lock()
	c.connected = false
	c.connMu.Unlock()

	c.logger.Warn("broker connection lost, reconnecting",
		"host", c.hub.Host,
		"error", err,
	)

	c.callbackMu.RLock()
	fn := c.onDisconnect
	c.callbackMu.RUnlock()
	if fn != nil {
		fn(err)
	}
}

// Publish sends a payload to the broker at the client's configured QoS.
// Retained messages are stored by the broker and delivered to late
// subscribers.
//
// Returns:
//   - ErrNotConnected: the broker session is down
//   - ErrPublishFailed: the broker rejected or timed out the publish
func (c *Client) Publish(topic string, payload []byte, retained bool) error {
	if c.client == nil || !c.IsConnected() {
		return fmt.Errorf("%w: publishing to %s", ErrNotConnected, topic)
	}
	token := c.client.Publish(topic, c.qos, retained, payload)
	if !token.WaitTimeout(defaultPublishTimeout) {
		return fmt.Errorf("%w: timed out publishing to %s", ErrPublishFailed, topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrPublishFailed, topic, err)
	}
	return nil
}

// publishStatus publishes a retained presence message on the status
// topic. Failures are logged, never fatal.
func (c *Client) publishStatus(payload string) {
	if err := c.Publish(string(TopicStatus), []byte(payload), true); err != nil {
		c.logger.Warn("status publish failed", "error", err)
	}
}

// Close announces offline status, disconnects from the broker, and stops
// the dispatcher. Safe to call multiple times and safe to call when the
// client never connected.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		if c.client != nil && c.client.IsConnectionOpen() {
			c.publishStatus(buildOfflinePayload(c.cfg.ClientID))
		}
		if c.client != nil {
			c.client.Disconnect(defaultDisconnectQuiesce)
		}
		c.dispatcher.Close()

		c.connMu.Lock()
		c.connected = false
		c.connMu.Unlock()

		c.logger.Info("mqtt client closed")
	})
}
