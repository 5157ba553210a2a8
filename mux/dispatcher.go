package mux

import (
	"fmt"

	"github.com/benbjohnson/clock"
	"github.com/rgeissen/uderia-sub002/stream"
)

// Mode selects how an event is being dispatched.
type Mode int

const (
	// ModeLive dispatches an event as it arrives from the backend.
	ModeLive Mode = iota

	// ModeReplay dispatches a buffered event after the fact. All counter
	// and flag mutations apply exactly as in live mode; only transient
	// animation effects are suppressed.
	ModeReplay
)

// String returns the mode name for logging.
func (m Mode) String() string {
	if m == ModeReplay {
		return "replay"
	}
	return "live"
}

// Dispatcher routes one event at a time into a foreground view. It is a
// pure routing component: classification is by event type name, and
// payloads are only inspected as far as routing requires.
type Dispatcher struct {
	log   Logger
	clock clock.Clock
}

// NewDispatcher creates a dispatcher. A nil logger disables logging; a
// nil clock uses wall time.
func NewDispatcher(log Logger, clk clock.Clock) *Dispatcher {
	if log == nil {
		log = nopLogger{}
	}
	if clk == nil {
		clk = clock.New()
	}
	return &Dispatcher{log: log, clock: clk}
}

// Dispatch applies one event to the foreground and reports whether the
// event marked the session's stream terminal. Unknown event types are
// logged and skipped so replay stays forward-compatible with new backend
// event kinds.
func (d *Dispatcher) Dispatch(fg *Foreground, ev stream.Event, mode Mode) bool {
	if mode == ModeReplay {
		prev := fg.View.Historical
		fg.View.Historical = true
		defer func() { fg.View.Historical = prev }()
	}

	switch ev.Type.Class() {
	case stream.ClassCounter:
		d.applyCounter(fg, ev)
	case stream.ClassMetadata:
		d.applyMetadata(fg, ev)
	case stream.ClassStructural:
		d.applyStructural(fg, ev)
	case stream.ClassLifecycle:
		return d.applyLifecycle(fg, ev)
	default:
		d.log.Warn("skipping unrecognized event type",
			"session", fg.SessionID, "type", ev.Type, "mode", mode)
	}
	return false
}

// applyCounter overwrites displayed totals. Counter events carry
// cumulative values, never deltas, so re-applying one is idempotent.
func (d *Dispatcher) applyCounter(fg *Foreground, ev stream.Event) {
	hdr := &fg.View.Header
	switch ev.Type {
	case stream.EventTokenUsage:
		if ev.Has("input_tokens") {
			hdr.InputTokens = ev.Int("input_tokens")
		}
		if ev.Has("output_tokens") {
			hdr.OutputTokens = ev.Int("output_tokens")
		}
	case stream.EventCostUpdate:
		if ev.Has("total_cost") {
			hdr.Cost = ev.Float("total_cost")
		}
	}
}

// applyMetadata updates header fields only.
func (d *Dispatcher) applyMetadata(fg *Foreground, ev stream.Event) {
	switch ev.Type {
	case stream.EventModelChanged:
		if model := ev.Str("model"); model != "" {
			fg.View.Header.Model = model
			fg.Flags.Model = model
		}
	case stream.EventProviderChanged:
		if provider := ev.Str("provider"); provider != "" {
			fg.View.Header.Provider = provider
			fg.Flags.Provider = provider
		}
	}
}

// applyStructural updates the status panel and flips the corresponding
// execution flag. Phase completion clears the per-phase tracker so a
// later turn starts clean.
func (d *Dispatcher) applyStructural(fg *Foreground, ev stream.Event) {
	now := d.clock.Now()

	switch ev.Type {
	case stream.EventCoordinationStart:
		fg.Flags.CoordinationActive = true
		fg.Coordination.Begin(ev.TaskID(), ev.Str("profile_tag"), now)
		fg.View.AppendStatus("coordination", "coordination started", now)
		fg.View.Flash()
		fg.Pending = append(fg.Pending, ev)

	case stream.EventCoordinationStep:
		fg.Coordination.Step(ev.Str("step"), ev.Str("detail"))
		fg.View.AppendStatus("coordination", stepText(ev.Str("step"), ev.Str("detail")), now)
		fg.View.Flash()

	case stream.EventCoordinationComplete:
		fg.Flags.CoordinationActive = false
		fg.Coordination.Clear()
		fg.View.AppendStatus("coordination", "coordination complete", now)
		fg.Pending = dropPhase(fg.Pending, "coordination_")

	case stream.EventToolStart:
		fg.Flags.ToolActive = true
		fg.Tools.Begin(ev.TaskID(), ev.Str("tool_use_id"), ev.Str("tool"), now)
		fg.View.AppendStatus("tool", "running "+ev.Str("tool"), now)
		fg.View.Flash()
		fg.Pending = append(fg.Pending, ev)

	case stream.EventToolStep:
		fg.Tools.Step(ev.Str("tool_use_id"), ev.Str("detail"))
		fg.View.AppendStatus("tool", stepText(ev.Str("tool"), ev.Str("detail")), now)
		fg.View.Flash()

	case stream.EventToolComplete:
		// Completions carrying a use id finish just that tool; parallel
		// executions stay active until the last one reports in.
		if useID := ev.Str("tool_use_id"); useID != "" {
			fg.Tools.Complete(useID)
		} else {
			fg.Tools.Clear()
		}
		fg.View.AppendStatus("tool", "tool complete", now)
		if !fg.Tools.Active() {
			fg.Flags.ToolActive = false
			fg.Tools.Clear()
			fg.Pending = dropPhase(fg.Pending, "tool_")
		}
	}
}

// applyLifecycle handles execution start/complete/error/cancelled.
// Anything other than a start marks the stream terminal.
func (d *Dispatcher) applyLifecycle(fg *Foreground, ev stream.Event) bool {
	now := d.clock.Now()

	if ev.Type == stream.EventExecutionStart {
		fg.Flags.TaskActive = true
		fg.Flags.TaskID = ev.TaskID()
		if ev.Has("turn") {
			// Start events latch the turn number for the whole run.
			fg.Flags.Turn = ev.Int("turn")
		}
		fg.View.Header.TaskID = ev.TaskID()
		fg.View.SetThinking(true)
		fg.View.AppendStatus("lifecycle", "execution started", now)
		fg.View.Flash()
		return false
	}

	fg.View.AppendStatus("lifecycle", lifecycleText(ev.Type), now)
	fg.View.SetThinking(false)
	fg.View.Header.TaskID = ""
	fg.Flags.ClearExecution()
	fg.Coordination.Clear()
	fg.Tools.Clear()
	fg.Pending = nil
	return true
}

// stepText formats a step line for the status panel.
func stepText(name, detail string) string {
	if detail == "" {
		return name
	}
	if name == "" {
		return detail
	}
	return fmt.Sprintf("%s: %s", name, detail)
}

// lifecycleText maps a terminal lifecycle type to its status line.
func lifecycleText(t stream.EventType) string {
	switch t {
	case stream.EventExecutionComplete:
		return "execution complete"
	case stream.EventExecutionError:
		return "execution failed"
	case stream.EventExecutionCancelled:
		return "execution cancelled"
	default:
		return "execution ended (" + string(t) + ")"
	}
}

// dropPhase removes pending structural events belonging to a phase.
func dropPhase(pending []stream.Event, prefix string) []stream.Event {
	out := pending[:0]
	for _, ev := range pending {
		if len(ev.Type) >= len(prefix) && string(ev.Type[:len(prefix)]) == prefix {
			continue
		}
		out = append(out, ev)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
