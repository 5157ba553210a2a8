package mux

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/benbjohnson/clock"
	"github.com/rgeissen/uderia-sub002/stream"
)

func evt(t stream.EventType, payload string) stream.Event {
	ev := stream.Event{Type: t}
	if payload != "" {
		ev.Payload = json.RawMessage(payload)
	}
	return ev
}

func TestDispatchLifecycleStart(t *testing.T) {
	d := NewDispatcher(nil, clock.NewMock())
	fg := newForeground("sess-1")

	terminal := d.Dispatch(fg, evt(stream.EventExecutionStart, `{"task_id":"task-9","turn":3}`), ModeLive)
	if terminal {
		t.Fatal("execution_start must not be terminal")
	}
	if !fg.Flags.TaskActive {
		t.Error("expected TaskActive after start")
	}
	if fg.Flags.TaskID != "task-9" {
		t.Errorf("TaskID = %q, want task-9", fg.Flags.TaskID)
	}
	if fg.Flags.Turn != 3 {
		t.Errorf("Turn = %d, want 3", fg.Flags.Turn)
	}
	if fg.View.Header.TaskID != "task-9" {
		t.Errorf("header TaskID = %q, want task-9", fg.View.Header.TaskID)
	}
	if !fg.View.Header.Thinking {
		t.Error("expected thinking indicator on")
	}
}

func TestDispatchTerminalClearsExecution(t *testing.T) {
	for _, typ := range []stream.EventType{
		stream.EventExecutionComplete,
		stream.EventExecutionError,
		stream.EventExecutionCancelled,
	} {
		t.Run(string(typ), func(t *testing.T) {
			d := NewDispatcher(nil, clock.NewMock())
			fg := newForeground("sess-1")

			d.Dispatch(fg, evt(stream.EventExecutionStart, `{"task_id":"task-1"}`), ModeLive)
			d.Dispatch(fg, evt(stream.EventModelChanged, `{"model":"claude-sonnet-4"}`), ModeLive)
			d.Dispatch(fg, evt(stream.EventCoordinationStart, `{"task_id":"task-1"}`), ModeLive)

			terminal := d.Dispatch(fg, evt(typ, `{"task_id":"task-1"}`), ModeLive)
			if !terminal {
				t.Fatalf("%s must be terminal", typ)
			}
			if fg.Flags.Busy() {
				t.Error("expected all execution flags cleared")
			}
			if fg.Flags.Model != "claude-sonnet-4" {
				t.Error("model identity must survive terminal events")
			}
			if fg.Coordination.Active() {
				t.Error("expected coordination tracker cleared")
			}
			if fg.View.Header.Thinking {
				t.Error("expected thinking indicator off")
			}
			if fg.Pending != nil {
				t.Error("expected pending structural events dropped")
			}
		})
	}
}

func TestDispatchCounterIdempotent(t *testing.T) {
	d := NewDispatcher(nil, clock.NewMock())
	fg := newForeground("sess-1")

	usage := evt(stream.EventTokenUsage, `{"input_tokens":120,"output_tokens":45}`)
	d.Dispatch(fg, usage, ModeLive)
	d.Dispatch(fg, usage, ModeLive)

	if fg.View.Header.InputTokens != 120 || fg.View.Header.OutputTokens != 45 {
		t.Errorf("tokens = %d/%d, want 120/45",
			fg.View.Header.InputTokens, fg.View.Header.OutputTokens)
	}

	// A partial counter payload must not zero the other field.
	d.Dispatch(fg, evt(stream.EventTokenUsage, `{"output_tokens":60}`), ModeLive)
	if fg.View.Header.InputTokens != 120 {
		t.Errorf("input tokens = %d, want 120 after partial update", fg.View.Header.InputTokens)
	}
	if fg.View.Header.OutputTokens != 60 {
		t.Errorf("output tokens = %d, want 60", fg.View.Header.OutputTokens)
	}

	d.Dispatch(fg, evt(stream.EventCostUpdate, `{"total_cost":0.42}`), ModeLive)
	if fg.View.Header.Cost != 0.42 {
		t.Errorf("cost = %v, want 0.42", fg.View.Header.Cost)
	}
}

func TestDispatchStructuralPhases(t *testing.T) {
	d := NewDispatcher(nil, clock.NewMock())
	fg := newForeground("sess-1")

	d.Dispatch(fg, evt(stream.EventCoordinationStart, `{"task_id":"task-1","profile_tag":"research"}`), ModeLive)
	if !fg.Flags.CoordinationActive || !fg.Coordination.Active() {
		t.Fatal("expected coordination phase open")
	}
	if len(fg.Pending) != 1 {
		t.Fatalf("pending = %d, want 1", len(fg.Pending))
	}

	d.Dispatch(fg, evt(stream.EventCoordinationStep, `{"step":"plan","detail":"splitting task"}`), ModeLive)
	if got := fg.Coordination.Steps["plan"]; got != "splitting task" {
		t.Errorf("step detail = %q", got)
	}

	d.Dispatch(fg, evt(stream.EventToolStart, `{"task_id":"task-1","tool_use_id":"tu-1","tool":"web_search"}`), ModeLive)
	if !fg.Flags.ToolActive || !fg.Tools.Active() {
		t.Fatal("expected tool phase open")
	}
	if len(fg.Pending) != 2 {
		t.Fatalf("pending = %d, want 2", len(fg.Pending))
	}

	d.Dispatch(fg, evt(stream.EventToolComplete, `{"tool_use_id":"tu-1"}`), ModeLive)
	if fg.Flags.ToolActive {
		t.Error("expected tool flag cleared")
	}
	if len(fg.Pending) != 1 || fg.Pending[0].Type != stream.EventCoordinationStart {
		t.Errorf("pending after tool complete = %v", fg.Pending)
	}

	d.Dispatch(fg, evt(stream.EventCoordinationComplete, ""), ModeLive)
	if fg.Flags.CoordinationActive || fg.Coordination.Active() {
		t.Error("expected coordination phase closed")
	}
	if fg.Pending != nil {
		t.Errorf("pending after both phases closed = %v", fg.Pending)
	}
}

func TestDispatchParallelToolCompletion(t *testing.T) {
	d := NewDispatcher(nil, clock.NewMock())
	fg := newForeground("sess-1")

	d.Dispatch(fg, evt(stream.EventToolStart, `{"task_id":"task-1","tool_use_id":"tu-1","tool":"web_search"}`), ModeLive)
	d.Dispatch(fg, evt(stream.EventToolStart, `{"task_id":"task-1","tool_use_id":"tu-2","tool":"calculator"}`), ModeLive)

	// Finishing one of two parallel tools keeps the phase open.
	d.Dispatch(fg, evt(stream.EventToolComplete, `{"tool_use_id":"tu-1"}`), ModeLive)
	if !fg.Flags.ToolActive || !fg.Tools.Active() {
		t.Fatal("expected tool phase still open with one tool running")
	}
	if !fg.Tools.Tools["tu-1"].Done {
		t.Error("expected tu-1 marked done")
	}
	if fg.Tools.Tools["tu-2"].Done {
		t.Error("tu-2 must still be running")
	}
	if len(fg.Pending) != 2 {
		t.Errorf("pending = %d, want 2 (phase not closed)", len(fg.Pending))
	}

	// The last completion closes the phase and clears the tracker.
	d.Dispatch(fg, evt(stream.EventToolComplete, `{"tool_use_id":"tu-2"}`), ModeLive)
	if fg.Flags.ToolActive || fg.Tools.Active() {
		t.Error("expected tool phase closed")
	}
	if len(fg.Tools.Tools) != 0 {
		t.Errorf("tracker not cleared: %+v", fg.Tools.Tools)
	}
	if len(fg.Pending) != 0 {
		t.Errorf("pending = %d, want 0", len(fg.Pending))
	}

	// A completion without a use id closes everything at once.
	fg2 := newForeground("sess-2")
	d.Dispatch(fg2, evt(stream.EventToolStart, `{"task_id":"task-1","tool_use_id":"tu-3","tool":"web_search"}`), ModeLive)
	d.Dispatch(fg2, evt(stream.EventToolComplete, ""), ModeLive)
	if fg2.Flags.ToolActive || fg2.Tools.Active() {
		t.Error("expected id-less completion to close the phase")
	}
}

func TestDispatchUnknownEventSkipped(t *testing.T) {
	d := NewDispatcher(nil, clock.NewMock())
	fg := newForeground("sess-1")
	before := fg.View.Clone()

	terminal := d.Dispatch(fg, evt("billing_cycle_reset", `{"x":1}`), ModeLive)
	if terminal {
		t.Error("unknown event must not be terminal")
	}
	if !reflect.DeepEqual(before, fg.View.Clone()) {
		t.Error("unknown event must leave the view untouched")
	}
}

// Replay must reach the same end state as live dispatch, modulo
// suppressed indicator flashes.
func TestReplayEquivalence(t *testing.T) {
	clk := clock.NewMock()
	events := []stream.Event{
		evt(stream.EventExecutionStart, `{"task_id":"task-1","turn":1}`),
		evt(stream.EventModelChanged, `{"model":"claude-sonnet-4"}`),
		evt(stream.EventCoordinationStart, `{"task_id":"task-1"}`),
		evt(stream.EventCoordinationStep, `{"step":"plan","detail":"ok"}`),
		evt(stream.EventTokenUsage, `{"input_tokens":10,"output_tokens":5}`),
		evt(stream.EventCoordinationComplete, ""),
		evt(stream.EventToolStart, `{"task_id":"task-1","tool_use_id":"tu-1","tool":"fetch"}`),
		evt(stream.EventTokenUsage, `{"input_tokens":30,"output_tokens":12}`),
	}

	d := NewDispatcher(nil, clk)

	live := newForeground("sess-1")
	for _, ev := range events {
		d.Dispatch(live, ev, ModeLive)
	}

	replay := newForeground("sess-1")
	for _, ev := range events {
		d.Dispatch(replay, ev, ModeReplay)
	}

	if !reflect.DeepEqual(live.View.Clone(), replay.View.Clone()) {
		t.Errorf("view mismatch:\nlive:   %+v\nreplay: %+v", live.View.Clone(), replay.View.Clone())
	}
	if !reflect.DeepEqual(*live.Flags, *replay.Flags) {
		t.Errorf("flags mismatch: live %+v replay %+v", *live.Flags, *replay.Flags)
	}
	if !reflect.DeepEqual(live.Tools.Clone(), replay.Tools.Clone()) {
		t.Error("tool tracker mismatch between live and replay")
	}
	if live.View.FlashCount() == 0 {
		t.Error("live dispatch should have fired indicator flashes")
	}
	if replay.View.FlashCount() != 0 {
		t.Errorf("replay fired %d flashes, want 0", replay.View.FlashCount())
	}
	if replay.View.Historical {
		t.Error("Historical must be restored after each dispatch")
	}
}
