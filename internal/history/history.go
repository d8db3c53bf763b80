package history

import (
	"context"
	"time"
)

// EventType defines the kind of lifecycle event.
type EventType string

const (
	// EventTransition is a lifecycle state change of the wrapper.
	EventTransition EventType = "transition"
	// EventChildStart is a successful child spawn.
	EventChildStart EventType = "child_start"
	// EventChildExit is an observed child exit.
	EventChildExit EventType = "child_exit"
)

// Event is one record in the service's lifecycle audit trail.
type Event struct {
	Type       EventType `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Service    string    `json:"service"`
	PID        int       `json:"pid"`
	State      string    `json:"state"`
	ExitCode   int       `json:"exit_code"`
	Detail     string    `json:"detail,omitempty"`
}

// Sink is a destination for lifecycle events. Implementations must be safe
// for concurrent use. Delivery is best-effort: a failed Send is logged by the
// caller and never interrupts supervision.
type Sink interface {
	Send(ctx context.Context, e Event) error
	Close() error
}
