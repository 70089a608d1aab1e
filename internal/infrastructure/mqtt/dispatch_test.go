package mqtt

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

// testLogger collects log calls so tests can assert on warnings and
// errors without a real logger.
type testLogger struct {
	mu       sync.Mutex
	warnings []string
	errors   []string
}

func (l *testLogger) Debug(msg string, args ...any) {}
func (l *testLogger) Info(msg string, args ...any)  {}

func (l *testLogger) Warn(msg string, args ...any) {
	l.mu.Lock()
	l.warnings = append(l.warnings, msg)
	l.mu.Unlock()
}

func (l *testLogger) Error(msg string, args ...any) {
	l.mu.Lock()
	l.errors = append(l.errors, msg)
	l.mu.Unlock()
}

func (l *testLogger) warnCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.warnings)
}

func (l *testLogger) errorCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.errors)
}

// waitFor polls until the condition holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

// =============================================================================
// Delivery Tests
// =============================================================================

func TestDispatcherDelivers(t *testing.T) {
	d := NewDispatcher(&testLogger{})
	d.Start()
	defer d.Close()

	received := make(chan string, 1)
	d.On(TopicZoneState, func(topic Topic, payload []byte) error {
		received <- string(payload)
		return nil
	})

	if !d.Post(TopicZoneState, []byte(`{"zoneId":"z1"}`)) {
		t.Fatal("Post() = false, want true")
	}

	select {
	case got := <-received:
		if got != `{"zoneId":"z1"}` {
			t.Errorf("payload = %q, want %q", got, `{"zoneId":"z1"}`)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for delivery")
	}
}

func TestDispatcherPreservesOrder(t *testing.T) {
	d := NewDispatcher(&testLogger{})
	d.Start()
	defer d.Close()

	var mu sync.Mutex
	var got []string
	d.On(TopicZoneState, func(topic Topic, payload []byte) error {
		mu.Lock()
		got = append(got, string(payload))
		mu.Unlock()
		return nil
	})

	const n = 100
	for i := 0; i < n; i++ {
		if !d.Post(TopicZoneState, []byte(fmt.Sprintf("msg-%03d", i))) {
			t.Fatalf("Post(%d) = false", i)
		}
	}

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == n
	}, "timeout waiting for all messages")

	mu.Lock()
	defer mu.Unlock()
	for i, payload := range got {
		want := fmt.Sprintf("msg-%03d", i)
		if payload != want {
			t.Fatalf("got[%d] = %q, want %q", i, payload, want)
		}
	}
}

func TestDispatcherHandlersRunInRegistrationOrder(t *testing.T) {
	d := NewDispatcher(&testLogger{})
	d.Start()
	defer d.Close()

	var mu sync.Mutex
	var order []int
	for i := 0; i < 3; i++ {
		i := i
		d.On(TopicZoneConfig, func(topic Topic, payload []byte) error {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			return nil
		})
	}

	d.Post(TopicZoneConfig, []byte(`{}`))

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(order) == 3
	}, "timeout waiting for handlers")

	mu.Lock()
	defer mu.Unlock()
	for i, idx := range order {
		if idx != i {
			t.Errorf("order[%d] = %d, want %d", i, idx, i)
		}
	}
}

func TestDispatcherRoutesByTopic(t *testing.T) {
	d := NewDispatcher(&testLogger{})
	d.Start()
	defer d.Close()

	configSeen := make(chan struct{}, 1)
	stateSeen := make(chan struct{}, 1)
	d.On(TopicZoneConfig, func(Topic, []byte) error {
		configSeen <- struct{}{}
		return nil
	})
	d.On(TopicZoneState, func(Topic, []byte) error {
		stateSeen <- struct{}{}
		return nil
	})

	d.Post(TopicZoneState, []byte(`{}`))

	select {
	case <-stateSeen:
	case <-time.After(2 * time.Second):
		t.Fatal("state handler not called")
	}
	select {
	case <-configSeen:
		t.Error("config handler called for state message")
	default:
	}
}

// =============================================================================
// Failure Isolation Tests
// =============================================================================

func TestDispatcherHandlerErrorDoesNotStopOthers(t *testing.T) {
	logger := &testLogger{}
	d := NewDispatcher(logger)
	d.Start()
	defer d.Close()

	secondCalled := make(chan struct{}, 1)
	d.On(TopicZoneState, func(Topic, []byte) error {
		return errors.New("decode failed")
	})
	d.On(TopicZoneState, func(Topic, []byte) error {
		secondCalled <- struct{}{}
		return nil
	})

	d.Post(TopicZoneState, []byte(`{}`))

	select {
	case <-secondCalled:
	case <-time.After(2 * time.Second):
		t.Fatal("second handler not called after first errored")
	}

	waitFor(t, func() bool { return logger.warnCount() == 1 },
		"handler error was not logged")
}

func TestDispatcherRecoversHandlerPanic(t *testing.T) {
	logger := &testLogger{}
	d := NewDispatcher(logger)
	d.Start()
	defer d.Close()

	afterPanic := make(chan struct{}, 1)
	d.On(TopicZoneState, func(Topic, []byte) error {
		panic("boom")
	})
	d.On(TopicZoneState, func(Topic, []byte) error {
		afterPanic <- struct{}{}
		return nil
	})

	d.Post(TopicZoneState, []byte(`{}`))

	select {
	case <-afterPanic:
	case <-time.After(2 * time.Second):
		t.Fatal("handler after panicking handler not called")
	}

	waitFor(t, func() bool { return logger.errorCount() == 1 },
		"panic was not logged")

	// The consumer loop must survive the panic.
	survived := make(chan struct{}, 1)
	d.On(TopicZoneConfig, func(Topic, []byte) error {
		survived <- struct{}{}
		return nil
	})
	d.Post(TopicZoneConfig, []byte(`{}`))
	select {
	case <-survived:
	case <-time.After(2 * time.Second):
		t.Fatal("dispatcher stopped delivering after panic")
	}
}

// =============================================================================
// Lifecycle Tests
// =============================================================================

func TestDispatcherPostAfterClose(t *testing.T) {
	d := NewDispatcher(&testLogger{})
	d.Start()
	d.Close()

	if d.Post(TopicZoneState, []byte(`{}`)) {
		t.Error("Post() after Close() = true, want false")
	}
}

func TestDispatcherCloseIdempotent(t *testing.T) {
	d := NewDispatcher(&testLogger{})
	d.Start()
	d.Close()
	d.Close()
}

func TestDispatcherCloseWithoutStart(t *testing.T) {
	d := NewDispatcher(&testLogger{})
	d.Close()
}

func TestDispatcherHandlerCount(t *testing.T) {
	d := NewDispatcher(&testLogger{})

	if d.HandlerCount(TopicZoneState) != 0 {
		t.Errorf("HandlerCount() = %d, want 0", d.HandlerCount(TopicZoneState))
	}

	d.On(TopicZoneState, func(Topic, []byte) error { return nil })
	d.On(TopicZoneState, func(Topic, []byte) error { return nil })

	if d.HandlerCount(TopicZoneState) != 2 {
		t.Errorf("HandlerCount() = %d, want 2", d.HandlerCount(TopicZoneState))
	}
	if d.HandlerCount(TopicZoneConfig) != 0 {
		t.Errorf("HandlerCount(config) = %d, want 0", d.HandlerCount(TopicZoneConfig))
	}
}
