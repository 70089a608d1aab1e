package mqtt

import (
	"errors"
	"testing"

	"github.com/nerrad567/tommy-core/internal/infrastructure/config"
)

// testHubConfig returns a hub endpoint for unit tests. No broker needs to
// be running; tests that require one live in integration_test.go.
func testHubConfig() config.TOMMYConfig {
	return config.TOMMYConfig{
		Host:     "127.0.0.1",
		MQTTPort: 1886,
	}
}

func testMQTTConfig() config.MQTTConfig {
	return config.MQTTConfig{
		ClientID: "tommy-core-test",
		QoS:      1,
		Reconnect: config.MQTTReconnectConfig{
			InitialDelay: 1,
			MaxDelay:     5,
		},
	}
}

// =============================================================================
// Topic Tests
// =============================================================================

func TestParseTopic(t *testing.T) {
	tests := []struct {
		raw  string
		want Topic
		ok   bool
	}{
		{"/topic/zone-config", TopicZoneConfig, true},
		{"/topic/zone-state", TopicZoneState, true},
		{"tommy/core/status", "", false},
		{"/topic/zone-unknown", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := ParseTopic(tt.raw)
		if ok != tt.ok || got != tt.want {
			t.Errorf("ParseTopic(%q) = (%q, %v), want (%q, %v)",
				tt.raw, got, ok, tt.want, tt.ok)
		}
	}
}

func TestSubscribedTopics(t *testing.T) {
	topics := SubscribedTopics()
	if len(topics) != 2 {
		t.Fatalf("SubscribedTopics() returned %d topics, want 2", len(topics))
	}
	if topics[0] != TopicZoneConfig {
		t.Errorf("topics[0] = %q, want %q", topics[0], TopicZoneConfig)
	}
	if topics[1] != TopicZoneState {
		t.Errorf("topics[1] = %q, want %q", topics[1], TopicZoneState)
	}
}

// =============================================================================
// Subscribe Validation Tests
// =============================================================================

func TestSubscribeUnknownTopic(t *testing.T) {
	client := NewClient(testHubConfig(), testMQTTConfig(), &testLogger{})

	err := client.Subscribe("/topic/something-else", func(Topic, []byte) error { return nil })
	if !errors.Is(err, ErrUnknownTopic) {
		t.Errorf("Subscribe() error = %v, want ErrUnknownTopic", err)
	}
}

func TestSubscribeNilHandler(t *testing.T) {
	client := NewClient(testHubConfig(), testMQTTConfig(), &testLogger{})

	err := client.Subscribe(TopicZoneState, nil)
	if !errors.Is(err, ErrNilHandler) {
		t.Errorf("Subscribe() error = %v, want ErrNilHandler", err)
	}
}

func TestSubscribeRegistersHandler(t *testing.T) {
	client := NewClient(testHubConfig(), testMQTTConfig(), &testLogger{})

	err := client.Subscribe(TopicZoneConfig, func(Topic, []byte) error { return nil })
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	if client.dispatcher.HandlerCount(TopicZoneConfig) != 1 {
		t.Error("handler was not registered with dispatcher")
	}
}

// =============================================================================
// Connection State Tests
// =============================================================================

func TestConnectUnresolvableHost(t *testing.T) {
	hub := testHubConfig()
	hub.Host = "no-such-host.invalid"

	client := NewClient(hub, testMQTTConfig(), &testLogger{})

	err := client.Connect()
	if !errors.Is(err, ErrConnectionFailed) {
		t.Errorf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}

func TestIsConnectedInitialState(t *testing.T) {
	client := NewClient(testHubConfig(), testMQTTConfig(), &testLogger{})

	if client.IsConnected() {
		t.Error("IsConnected() = true before Connect(), want false")
	}
}

func TestPublishNotConnected(t *testing.T) {
	client := NewClient(testHubConfig(), testMQTTConfig(), &testLogger{})

	err := client.Publish(string(TopicStatus), []byte("online"), true)
	if !errors.Is(err, ErrNotConnected) {
		t.Errorf("Publish() error = %v, want ErrNotConnected", err)
	}
}

func TestCloseWithoutConnect(t *testing.T) {
	client := NewClient(testHubConfig(), testMQTTConfig(), &testLogger{})

	client.Close()
	client.Close()

	if client.IsConnected() {
		t.Error("IsConnected() = true after Close(), want false")
	}
}
