// Package viewstate holds the foreground view model for a session:
// transcript, status panel, header fields, execution flags, and the
// per-session handler trackers, plus the versioned snapshot schema used
// to freeze and restore all of it when the user switches sessions.
package viewstate

// ExecutionFlags is the transient record of what the current view
// believes is executing right now. There is exactly one live copy; it is
// overwritten wholesale on every session switch and never merged.
type ExecutionFlags struct {
	// TaskID is the backend task currently executing, or "" when idle.
	TaskID string `json:"task_id,omitempty"`

	// Turn is the turn number latched by the last execution_start event.
	Turn int `json:"turn,omitempty"`

	// TaskActive is true while a backend task is executing for this view.
	TaskActive bool `json:"task_active,omitempty"`

	// CoordinationActive is true while an agent coordination phase is open.
	CoordinationActive bool `json:"coordination_active,omitempty"`

	// ToolActive is true while a tool execution phase is open.
	ToolActive bool `json:"tool_active,omitempty"`

	// Model and Provider identify the backend currently answering.
	Model    string `json:"model,omitempty"`
	Provider string `json:"provider,omitempty"`
}

// Reset zeroes every flag. Used when a view is rebuilt cold.
func (f *ExecutionFlags) Reset() {
	*f = ExecutionFlags{}
}

// ClearExecution resets the execution-related flags while keeping the
// model/provider identity, which survives across turns.
func (f *ExecutionFlags) ClearExecution() {
	f.TaskID = ""
	f.Turn = 0
	f.TaskActive = false
	f.CoordinationActive = false
	f.ToolActive = false
}

// Busy returns true if any execution phase is in flight.
func (f ExecutionFlags) Busy() bool {
	return f.TaskActive || f.CoordinationActive || f.ToolActive
}

// Activate marks a task as executing for this view. Used after a buffer
// replay so further live events keep applying to the foregrounded view.
func (f *ExecutionFlags) Activate(taskID string) {
	f.TaskID = taskID
	f.TaskActive = true
}
