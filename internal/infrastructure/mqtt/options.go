package mqtt

import (
	"fmt"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/tommy-core/internal/infrastructure/config"
)

// Connection constants.
const (
	// initialConnectWait is how long Connect waits for the first connection
	// attempt before returning. Returning after this deadline is not a
	// failure: the retry loop keeps attempting in the background.
	initialConnectWait = 1 * time.Second

	// defaultPublishTimeout is the maximum time to wait for publish acknowledgment.
	defaultPublishTimeout = 5 * time.Second

	// defaultConnectTimeout is the per-attempt socket connect timeout.
	defaultConnectTimeout = 10 * time.Second

	// defaultDisconnectQuiesce is the time to wait for pending operations on disconnect.
	defaultDisconnectQuiesce = 1000 // milliseconds

	// defaultKeepAlive is the keepalive interval for the connection.
	defaultKeepAlive = 60 * time.Second
)

// buildClientOptions creates paho MQTT options for the TOMMY hub connection.
//
// This configures:
//   - Broker URL (tcp://host:port, no TLS; the hub broker is open)
//   - Client ID for identification
//   - Auto-reconnect with exponential backoff between the configured
//     initial and max delays
//   - Ordered handler invocation, so the hand-off queue sees messages in
//     broker delivery order
func buildClientOptions(hub config.TOMMYConfig, cfg config.MQTTConfig) *pahomqtt.ClientOptions {
	opts := pahomqtt.NewClientOptions()

	brokerURL := fmt.Sprintf("tcp://%s:%d", hub.Host, hub.MQTTPort)
	opts.AddBroker(brokerURL)

	opts.SetClientID(cfg.ClientID)

	// Clean session - start fresh on connect (no persistent session on broker)
	opts.SetCleanSession(true)

	// Auto-reconnect with exponential backoff. ConnectRetry stays on so a
	// hub that is down at startup is picked up when it appears; the initial
	// Connect call only waits initialConnectWait before handing control back.
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(time.Duration(cfg.Reconnect.InitialDelay) * time.Second)
	opts.SetMaxReconnectInterval(time.Duration(cfg.Reconnect.MaxDelay) * time.Second)

	opts.SetConnectTimeout(defaultConnectTimeout)
	opts.SetKeepAlive(defaultKeepAlive)

	// Messages must reach the hand-off queue in delivery order.
	opts.SetOrderMatters(true)

	return opts
}

// configureLWT sets up Last Will and Testament for offline detection.
//
// The LWT message is published by the broker if the client disconnects
// unexpectedly (crash, network failure, etc.). This lets other services
// on the bus detect when the core goes offline.
func configureLWT(opts *pahomqtt.ClientOptions, clientID string) {
	willPayload := fmt.Sprintf(
		`{"status":"offline","client_id":"%s","reason":"unexpected_disconnect","timestamp":"%s"}`,
		clientID,
		time.Now().UTC().Format(time.RFC3339),
	)

	opts.SetWill(TopicStatus.String(), willPayload, 1, true)
}

// buildOnlinePayload creates the JSON payload for online status messages.
func buildOnlinePayload(clientID string) string {
	return fmt.Sprintf(
		`{"status":"online","client_id":"%s","timestamp":"%s"}`,
		clientID,
		time.Now().UTC().Format(time.RFC3339),
	)
}

// buildOfflinePayload creates the JSON payload for graceful offline status.
func buildOfflinePayload(clientID string) string {
	return fmt.Sprintf(
		`{"status":"offline","client_id":"%s","reason":"graceful_shutdown","timestamp":"%s"}`,
		clientID,
		time.Now().UTC().Format(time.RFC3339),
	)
}
