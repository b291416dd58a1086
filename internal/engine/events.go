package engine

import (
	"context"
	"time"

	"github.com/Paintersrp/foreman/internal/shell"
)

// EventType captures high level lifecycle notifications emitted by the
// supervisor.
type EventType string

const (
	EventTypeStarted   EventType = "started"
	EventTypeFailed    EventType = "failed"
	EventTypeInterrupt EventType = "interrupt"
	EventTypeExited    EventType = "exited"
)

// Event represents a single lifecycle notification.
type Event struct {
	Timestamp time.Time
	Process   string
	PID       int
	Type      EventType
	// Message is the redacted command for started events and a description
	// otherwise.
	Message  string
	Shell    shell.Mode
	CodePage int
	ExitCode int
	Err      error
}

// sendEvent blocks until evt is received or ctx is done.
func sendEvent(ctx context.Context, events chan<- Event, evt Event) {
	if events == nil {
		return
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now()
	}
	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case events <- evt:
	case <-ctx.Done():
	}
}
