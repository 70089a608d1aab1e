package mqtt

import "errors"

// Domain-specific errors for MQTT operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrNotConnected is returned when attempting operations on a disconnected client.
	ErrNotConnected = errors.New("mqtt: client not connected")

	// ErrConnectionFailed is returned when the initial connection cannot be
	// attempted (unresolvable host, invalid options). Failures after the
	// initial attempt are handled by the reconnect loop and only logged.
	ErrConnectionFailed = errors.New("mqtt: connection failed")

	// ErrUnknownTopic is returned when registering a handler for a topic
	// outside the closed topic set.
	ErrUnknownTopic = errors.New("mqtt: unknown topic")

	// ErrNilHandler is returned when registering a nil message handler.
	ErrNilHandler = errors.New("mqtt: handler cannot be nil")

	// ErrPublishFailed is returned when a publish operation fails.
	ErrPublishFailed = errors.New("mqtt: publish failed")
)
