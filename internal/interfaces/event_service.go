package interfaces

import (
	"context"
	"time"
)

// EventType identifies an event on the bus. Dispatch matches the exact token;
// there is no type hierarchy.
type EventType string

const (
	EventScanStarted       EventType = "scan_started"
	EventAnnouncementFound EventType = "announcement_found"
	EventScanCompleted     EventType = "scan_completed"
	EventDownloadStarted   EventType = "download_started"
	EventDownloadCompleted EventType = "download_completed"
	EventImportStarted     EventType = "import_started"
	EventImportCompleted   EventType = "import_completed"
)

// Event sources.
const (
	SourceManual    = "manual"
	SourceScheduled = "scheduled"
)

// Event is a message published onto the bus. Ownership transfers to the bus at
// publish time; handlers must not mutate the payload.
type Event struct {
	Type EventType
	// Source is "manual" or "scheduled".
	Source string
	// CorrelationID groups all events caused by one originating trigger.
	CorrelationID string
	Timestamp     time.Time
	// Payload is the typed payload struct for this event type (see models).
	Payload interface{}
}

// EventHandler processes a single dispatched event.
type EventHandler func(ctx context.Context, event Event) error

// EventBus is an in-process asynchronous broker: publish into a bounded queue,
// a single dispatch loop, concurrent delivery to every subscriber of the
// event's exact type with per-subscriber error isolation.
type EventBus interface {
	// Subscribe registers a handler for an event type.
	Subscribe(eventType EventType, handler EventHandler) error

	// Publish enqueues an event. It blocks only while the queue is full and
	// returns an error if the bus is not running. Delivery is FIFO per event
	// type for a single publisher; no ordering holds across types.
	Publish(event Event) error

	// Start runs the dispatch loop. Starting a running bus is a no-op.
	Start()

	// Stop shuts down the dispatch loop and waits for in-flight handlers
	// with a bounded drain timeout.
	Stop()
}

// EventSubscriber is implemented by components that register handlers on the
// bus during application wiring.
type EventSubscriber interface {
	Initialize(bus EventBus) error
}
