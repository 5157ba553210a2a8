package viewstate

import "time"

// CoordinationTracker tracks the progress of an agent coordination phase
// for one session. Trackers are explicit per-session objects addressed by
// the switch controller, never shared globals, so switching sessions can
// never leak one session's progress into another's view.
type CoordinationTracker struct {
	// TaskID is the task this coordination phase belongs to.
	TaskID string `json:"task_id,omitempty"`

	// Steps maps step names to their latest detail text, in no
	// particular order; StepOrder preserves arrival order for display.
	Steps     map[string]string `json:"steps,omitempty"`
	StepOrder []string          `json:"step_order,omitempty"`

	// StartedAt is when the phase opened.
	StartedAt time.Time `json:"started_at,omitempty"`

	// ProfileTag identifies the agent profile driving the coordination.
	ProfileTag string `json:"profile_tag,omitempty"`
}

// Begin opens a coordination phase, discarding any prior state.
func (c *CoordinationTracker) Begin(taskID, profileTag string, now time.Time) {
	c.TaskID = taskID
	c.ProfileTag = profileTag
	c.StartedAt = now
	c.Steps = make(map[string]string)
	c.StepOrder = nil
}

// Step records or updates one coordination step.
func (c *CoordinationTracker) Step(name, detail string) {
	if c.Steps == nil {
		c.Steps = make(map[string]string)
	}
	if _, seen := c.Steps[name]; !seen {
		c.StepOrder = append(c.StepOrder, name)
	}
	c.Steps[name] = detail
}

// Clear resets the tracker so a later turn starts clean.
func (c *CoordinationTracker) Clear() {
	*c = CoordinationTracker{}
}

// Active returns true while a coordination phase is open.
func (c *CoordinationTracker) Active() bool {
	return c.TaskID != ""
}

// Clone returns a deep copy safe to store in a snapshot.
func (c *CoordinationTracker) Clone() CoordinationTracker {
	out := *c
	if c.Steps != nil {
		out.Steps = make(map[string]string, len(c.Steps))
		for k, v := range c.Steps {
			out.Steps[k] = v
		}
	}
	out.StepOrder = append([]string(nil), c.StepOrder...)
	return out
}

// ToolProgress is the tracked state of one tool invocation.
type ToolProgress struct {
	Name   string `json:"name"`
	Detail string `json:"detail,omitempty"`
	Done   bool   `json:"done,omitempty"`
}

// ToolTracker tracks in-flight tool executions for one session, keyed by
// tool use id.
type ToolTracker struct {
	TaskID    string                  `json:"task_id,omitempty"`
	Tools     map[string]ToolProgress `json:"tools,omitempty"`
	StartedAt time.Time               `json:"started_at,omitempty"`
}

// Begin opens a tool phase for the given use id.
func (t *ToolTracker) Begin(taskID, useID, name string, now time.Time) {
	if t.Tools == nil {
		t.Tools = make(map[string]ToolProgress)
		t.StartedAt = now
	}
	t.TaskID = taskID
	t.Tools[useID] = ToolProgress{Name: name}
}

// Step updates the detail text for a tool, creating the entry if the
// start event was missed.
func (t *ToolTracker) Step(useID, detail string) {
	if t.Tools == nil {
		t.Tools = make(map[string]ToolProgress)
	}
	p := t.Tools[useID]
	p.Detail = detail
	t.Tools[useID] = p
}

// Complete marks a tool finished.
func (t *ToolTracker) Complete(useID string) {
	if t.Tools == nil {
		return
	}
	p, ok := t.Tools[useID]
	if !ok {
		return
	}
	p.Done = true
	t.Tools[useID] = p
}

// Clear resets the tracker so a later turn starts clean.
func (t *ToolTracker) Clear() {
	*t = ToolTracker{}
}

// Active returns true while any tool is still running.
func (t *ToolTracker) Active() bool {
	for _, p := range t.Tools {
		if !p.Done {
			return true
		}
	}
	return false
}

// Clone returns a deep copy safe to store in a snapshot.
func (t *ToolTracker) Clone() ToolTracker {
	out := *t
	if t.Tools != nil {
		out.Tools = make(map[string]ToolProgress, len(t.Tools))
		for k, v := range t.Tools {
			out.Tools[k] = v
		}
	}
	return out
}
