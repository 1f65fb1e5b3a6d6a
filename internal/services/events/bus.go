package events

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/gapscan/internal/common"
	"github.com/ternarybob/gapscan/internal/interfaces"
)

const defaultQueueSize = 1000

// Bus implements interfaces.EventBus with a bounded queue and a single
// dispatch goroutine. Events of one type are delivered in publish order;
// within one event, all subscribers run concurrently and their failures are
// isolated from each other.
type Bus struct {
	subscribers map[interfaces.EventType][]interfaces.EventHandler
	mu          sync.RWMutex

	queue        chan interfaces.Event
	quit         chan struct{}
	done         chan struct{}
	running      bool
	runMu        sync.Mutex
	drainTimeout time.Duration

	logger arbor.ILogger
}

// NewBus creates an event bus. queueSize <= 0 selects the default capacity.
func NewBus(queueSize int, drainTimeout time.Duration, logger arbor.ILogger) *Bus {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	if drainTimeout <= 0 {
		drainTimeout = 10 * time.Second
	}
	return &Bus{
		subscribers:  make(map[interfaces.EventType][]interfaces.EventHandler),
		queue:        make(chan interfaces.Event, queueSize),
		drainTimeout: drainTimeout,
		logger:       logger,
	}
}

// Subscribe registers a handler for an event type
func (b *Bus) Subscribe(eventType interfaces.EventType, handler interfaces.EventHandler) error {
	if handler == nil {
		return fmt.Errorf("handler cannot be nil")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.subscribers[eventType] = append(b.subscribers[eventType], handler)

	b.logger.Debug().
		Str("event_type", string(eventType)).
		Int("subscriber_count", len(b.subscribers[eventType])).
		Msg("Event handler subscribed")

	return nil
}

// Publish enqueues an event for dispatch. It blocks while the queue is full
// and fails once the bus has been stopped.
func (b *Bus) Publish(event interfaces.Event) error {
	b.runMu.Lock()
	if !b.running {
		b.runMu.Unlock()
		return fmt.Errorf("event bus is not running")
	}
	quit := b.quit
	b.runMu.Unlock()

	select {
	case b.queue <- event:
		return nil
	case <-quit:
		return fmt.Errorf("event bus is shutting down")
	}
}

// Start runs the dispatch loop. Starting a running bus is a no-op.
func (b *Bus) Start() {
	b.runMu.Lock()
	defer b.runMu.Unlock()

	if b.running {
		return
	}

	b.quit = make(chan struct{})
	b.done = make(chan struct{})
	b.running = true

	quit, done := b.quit, b.done
	common.SafeGo(b.logger, "event-dispatch", func() {
		b.dispatchLoop(quit, done)
	})

	b.logger.Info().
		Int("queue_size", cap(b.queue)).
		Msg("Event bus started")
}

// Stop shuts down the dispatch loop, draining queued events for at most the
// drain timeout. Stopping a stopped bus is a no-op.
func (b *Bus) Stop() {
	b.runMu.Lock()
	if !b.running {
		b.runMu.Unlock()
		return
	}
	b.running = false
	close(b.quit)
	done := b.done
	b.runMu.Unlock()

	select {
	case <-done:
		b.logger.Info().Msg("Event bus stopped")
	case <-time.After(b.drainTimeout):
		b.logger.Warn().
			Str("timeout", b.drainTimeout.String()).
			Msg("Event bus drain timed out, abandoning queued events")
	}
}

func (b *Bus) dispatchLoop(quit <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	for {
		select {
		case event := <-b.queue:
			b.dispatch(event)
		case <-quit:
			// Drain whatever was queued before shutdown.
			for {
				select {
				case event := <-b.queue:
					b.dispatch(event)
				default:
					return
				}
			}
		}
	}
}

// dispatch delivers one event to every subscriber of its exact type and waits
// for all of them. Handler panics and errors are logged, never propagated.
func (b *Bus) dispatch(event interfaces.Event) {
	b.mu.RLock()
	handlers := b.subscribers[event.Type]
	b.mu.RUnlock()

	if len(handlers) == 0 {
		b.logger.Debug().
			Str("event_type", string(event.Type)).
			Msg("No subscribers for event")
		return
	}

	b.logger.Info().
		Str("event_type", string(event.Type)).
		Str("source", event.Source).
		Str("correlation_id", event.CorrelationID).
		Int("subscriber_count", len(handlers)).
		Msg("Dispatching event")

	ctx := context.Background()

	var wg sync.WaitGroup
	for _, handler := range handlers {
		wg.Add(1)
		go func(h interfaces.EventHandler) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					buf := make([]byte, 4096)
					n := runtime.Stack(buf, false)
					b.logger.Error().
						Str("event_type", string(event.Type)).
						Str("panic", fmt.Sprintf("%v", r)).
						Str("stack", string(buf[:n])).
						Msg("Event handler panicked")
				}
			}()
			if err := h(ctx, event); err != nil {
				b.logger.Error().
					Err(err).
					Str("event_type", string(event.Type)).
					Str("correlation_id", event.CorrelationID).
					Msg("Event handler failed")
			}
		}(handler)
	}
	wg.Wait()
}

// QueueDepth returns the number of queued, undispatched events.
func (b *Bus) QueueDepth() int {
	return len(b.queue)
}
