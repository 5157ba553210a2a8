// Package stream defines the live event model delivered by the backend
// while a session task is executing.
//
// Events arrive over a streaming HTTP feed as `{type, payload}` envelopes.
// Routing is by event type name only; payloads are kept as raw JSON and
// inspected lazily with gjson, so unknown fields and entirely unknown
// event types pass through without breaking the consumer (forward
// compatibility with new backend event kinds).
package stream

import (
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"
)

// EventType identifies a backend event kind.
type EventType string

// Event types emitted by the backend task stream.
const (
	// Lifecycle events.
	EventExecutionStart     EventType = "execution_start"
	EventExecutionComplete  EventType = "execution_complete"
	EventExecutionError     EventType = "execution_error"
	EventExecutionCancelled EventType = "execution_cancelled"

	// Structural phase events: agent coordination.
	EventCoordinationStart    EventType = "coordination_start"
	EventCoordinationStep     EventType = "coordination_step"
	EventCoordinationComplete EventType = "coordination_complete"

	// Structural phase events: tool execution.
	EventToolStart    EventType = "tool_start"
	EventToolStep     EventType = "tool_step"
	EventToolComplete EventType = "tool_complete"

	// Token and cost counter events.
	EventTokenUsage EventType = "token_usage"
	EventCostUpdate EventType = "cost_update"

	// Metadata events.
	EventModelChanged    EventType = "model_changed"
	EventProviderChanged EventType = "provider_changed"
)

// Class groups event types by how the dispatcher routes them.
type Class int

const (
	// ClassUnknown marks event types the dispatcher does not recognize.
	// Unknown events are logged and skipped, never treated as errors.
	ClassUnknown Class = iota

	// ClassCounter marks token/cost counter events. Counters are always
	// idempotent overwrites of the displayed totals.
	ClassCounter

	// ClassMetadata marks model/provider change events that only touch
	// header fields.
	ClassMetadata

	// ClassStructural marks coordination and tool phase events that drive
	// the status panel and execution flags.
	ClassStructural

	// ClassLifecycle marks execution start/complete/error/cancelled events.
	ClassLifecycle
)

// String returns the class name for logging.
func (c Class) String() string {
	switch c {
	case ClassCounter:
		return "counter"
	case ClassMetadata:
		return "metadata"
	case ClassStructural:
		return "structural"
	case ClassLifecycle:
		return "lifecycle"
	default:
		return "unknown"
	}
}

// Class returns the routing class for this event type.
// Classification is by name prefix, not payload inspection.
func (t EventType) Class() Class {
	switch {
	case strings.HasPrefix(string(t), "execution_"):
		return ClassLifecycle
	case strings.HasPrefix(string(t), "coordination_"), strings.HasPrefix(string(t), "tool_"):
		return ClassStructural
	case t == EventTokenUsage, t == EventCostUpdate:
		return ClassCounter
	case t == EventModelChanged, t == EventProviderChanged:
		return ClassMetadata
	default:
		return ClassUnknown
	}
}

// IsTerminal returns true if this event type ends the session's live
// stream. Every lifecycle event other than execution_start is terminal.
func (t EventType) IsTerminal() bool {
	return t.Class() == ClassLifecycle && t != EventExecutionStart
}

// IsPhaseStart returns true for structural events that open a phase.
func (t EventType) IsPhaseStart() bool {
	return t == EventCoordinationStart || t == EventToolStart
}

// IsPhaseComplete returns true for structural events that close a phase.
// Completion events also clear the per-phase tracker so a later turn
// starts clean.
func (t EventType) IsPhaseComplete() bool {
	return t == EventCoordinationComplete || t == EventToolComplete
}

// String returns the string representation of the event type.
func (t EventType) String() string {
	return string(t)
}

// Event is one backend stream event. Payload is the raw JSON payload;
// it may be nil for events that carry no body.
type Event struct {
	Type    EventType       `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Parse decodes a raw event envelope. The type field is required;
// everything else is carried opaquely. Additional unknown top-level
// fields are tolerated and ignored.
func Parse(raw []byte) (Event, error) {
	typ := gjson.GetBytes(raw, "type")
	if !typ.Exists() || typ.String() == "" {
		return Event{}, ErrMissingType
	}
	ev := Event{Type: EventType(typ.String())}
	if payload := gjson.GetBytes(raw, "payload"); payload.Exists() {
		ev.Payload = json.RawMessage(payload.Raw)
	}
	return ev, nil
}

// Str returns a string field from the payload, or "" when absent.
func (e Event) Str(path string) string {
	return gjson.GetBytes(e.Payload, path).String()
}

// Int returns an integer field from the payload, or 0 when absent.
func (e Event) Int(path string) int {
	return int(gjson.GetBytes(e.Payload, path).Int())
}

// Float returns a float field from the payload, or 0 when absent.
func (e Event) Float(path string) float64 {
	return gjson.GetBytes(e.Payload, path).Float()
}

// Has reports whether the payload contains the given field.
func (e Event) Has(path string) bool {
	return gjson.GetBytes(e.Payload, path).Exists()
}

// TaskID returns the task identifier carried by the payload, if any.
func (e Event) TaskID() string {
	return e.Str("task_id")
}
