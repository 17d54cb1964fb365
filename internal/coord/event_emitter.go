package coord

import (
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// EventEmitter handles event emission for the coordinator.
// It provides a simple, thread-safe way to emit events to subscribers.
type EventEmitter struct {
	events       chan Event
	logger       zerolog.Logger
	droppedCount atomic.Uint64
}

// NewEventEmitter creates a new EventEmitter with the given buffer size.
func NewEventEmitter(bufferSize int, logger zerolog.Logger) *EventEmitter {
	return &EventEmitter{
		events: make(chan Event, bufferSize),
		logger: logger.With().Str("component", "events").Logger(),
	}
}

// Emit sends an event to the events channel.
// If the channel is full, it tries with a timeout before dropping the event.
func (e *EventEmitter) Emit(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	// Try immediate send first
	select {
	case e.events <- event:
		return
	default:
		// Channel full, try with timeout
	}

	select {
	case e.events <- event:
		return
	case <-time.After(100 * time.Millisecond):
		count := e.droppedCount.Add(1)
		if count%10 == 1 { // Log every 10th drop to avoid spam
			e.logger.Warn().
				Uint64("total_dropped", count).
				Str("type", string(event.Type)).
				Msg("event channel full, dropped event")
		}
	}
}

// DroppedCount returns the total number of events that have been dropped.
func (e *EventEmitter) DroppedCount() uint64 {
	return e.droppedCount.Load()
}

// Events returns a read-only channel of events.
// This is used by subscribers (e.g., the TUI) to receive updates.
func (e *EventEmitter) Events() <-chan Event {
	return e.events
}

// Close closes the events channel.
// This should be called when the coordinator is shut down.
func (e *EventEmitter) Close() {
	close(e.events)
}
