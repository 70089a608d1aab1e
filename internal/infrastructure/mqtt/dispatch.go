package mqtt

import (
	"sync"
)

// dispatchQueueSize bounds the hand-off queue between the paho network
// goroutine and the consumer loop. Posting blocks (preserving order) once
// the consumer falls this far behind.
const dispatchQueueSize = 256

// MessageHandler is the callback signature for received messages.
//
// Handlers are invoked one at a time on the dispatcher's consumer
// goroutine, never on the network goroutine, so they may touch
// single-threaded state without locking.
//
// Returns:
//   - error: Logged but does not affect delivery to other handlers
type MessageHandler func(topic Topic, payload []byte) error

// envelope is one unit of work crossing from the network goroutine to the
// consumer loop.
type envelope struct {
	topic   Topic
	payload []byte
}

// Dispatcher marshals inbound messages from the transport's network
// goroutine onto a single consumer goroutine.
//
// The paho library invokes message callbacks on its own goroutines. All
// application logic downstream (decoding, reconciliation, routing) is
// written single-threaded, so every message crosses exactly one
// concurrency boundary: Post() on the producer side, the run loop on the
// consumer side. Handlers for a topic run in registration order; an error
// or panic in one handler is logged and does not affect the others.
type Dispatcher struct {
	queue chan envelope

	handlers  map[Topic][]MessageHandler
	handlerMu sync.RWMutex

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	runOnce  sync.Once

	logger Logger
}

// NewDispatcher creates a dispatcher. Start must be called before any
// posted message is delivered.
func NewDispatcher(logger Logger) *Dispatcher {
	return &Dispatcher{
		queue:    make(chan envelope, dispatchQueueSize),
		handlers: make(map[Topic][]MessageHandler),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger,
	}
}

// On registers a handler for messages on the given topic. Multiple
// handlers per topic are supported; they are invoked in registration
// order.
func (d *Dispatcher) On(topic Topic, handler MessageHandler) {
	d.handlerMu.Lock()
	d.handlers[topic] = append(d.handlers[topic], handler)
	d.handlerMu.Unlock()
}

// HandlerCount returns the number of handlers registered for a topic.
func (d *Dispatcher) HandlerCount(topic Topic) int {
	d.handlerMu.RLock()
	defer d.handlerMu.RUnlock()
	return len(d.handlers[topic])
}

// Start launches the consumer loop. Safe to call once; further calls are
// no-ops.
func (d *Dispatcher) Start() {
	d.runOnce.Do(func() {
		go d.run()
	})
}

// Post hands a message from the network goroutine to the consumer loop.
//
// Posting blocks when the queue is full rather than dropping or
// reordering; broker delivery order is preserved end to end. Returns
// false if the dispatcher has been closed, in which case the message is
// discarded.
func (d *Dispatcher) Post(topic Topic, payload []byte) bool {
	select {
	case <-d.stop:
		return false
	default:
	}

	select {
	case d.queue <- envelope{topic: topic, payload: payload}:
		return true
	case <-d.stop:
		return false
	}
}

// Close stops the consumer loop and waits for it to exit. After Close
// returns, no further handler invocations occur and Post discards.
// Idempotent.
func (d *Dispatcher) Close() {
	d.stopOnce.Do(func() {
		close(d.stop)
	})
	// Start may never have been called; only wait if the loop ran.
	d.runOnce.Do(func() {
		close(d.done)
	})
	<-d.done
}

// run is the consumer loop: it drains the queue and invokes handlers
// serialized, one message at a time.
func (d *Dispatcher) run() {
	defer close(d.done)
	for {
		select {
		case <-d.stop:
			return
		case env := <-d.queue:
			d.dispatch(env)
		}
	}
}

// dispatch invokes all handlers registered for the envelope's topic, in
// registration order, isolating errors and panics per handler.
func (d *Dispatcher) dispatch(env envelope) {
	d.handlerMu.RLock()
	handlers := make([]MessageHandler, len(d.handlers[env.topic]))
	copy(handlers, d.handlers[env.topic])
	d.handlerMu.RUnlock()

	for _, handler := range handlers {
		d.invoke(env, handler)
	}
}

// invoke runs a single handler with panic recovery.
func (d *Dispatcher) invoke(env envelope, handler MessageHandler) {
	defer func() {
		if r := recover(); r != nil {
			if d.logger != nil {
				d.logger.Error("message handler panic recovered",
					"topic", env.topic,
					"panic", r,
				)
			}
		}
	}()

	if err := handler(env.topic, env.payload); err != nil {
		if d.logger != nil {
			d.logger.Warn("message handler returned error",
				"topic", env.topic,
				"error", err,
			)
		}
	}
}
