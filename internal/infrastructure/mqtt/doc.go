// Package mqtt provides the transport layer between the core and the
// TOMMY hub's MQTT broker.
//
// The Client maintains a single persistent session: it subscribes to the
// hub's zone-config and zone-state topics, automatically reconnects with
// exponential backoff when the broker drops, and re-establishes its
// subscriptions on every reconnect. A retained status message on
// tommy/core/status (with a matching last-will) announces the core's
// presence to other broker clients.
//
// Messages arrive on paho's network goroutines but are never handled
// there. The Dispatcher moves each message onto a single consumer
// goroutine, preserving broker delivery order, so downstream decoding and
// reconciliation run strictly single-threaded.
//
// Typical usage:
//
//	client := mqtt.NewClient(cfg.TOMMY, cfg.MQTT, logger)
//	client.Subscribe(mqtt.TopicZoneConfig, onZoneConfig)
//	client.Subscribe(mqtt.TopicZoneState, onZoneState)
//	if err := client.Connect(); err != nil {
//	    // host unresolvable, connection cannot be attempted
//	}
//	defer client.Close()
package mqtt
