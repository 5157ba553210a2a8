package viewstate

import "time"

// Transcript roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// TranscriptEntry is one rendered message in the conversation view.
type TranscriptEntry struct {
	Role        string   `json:"role"`
	Content     string   `json:"content"`
	Attachments []string `json:"attachments,omitempty"`

	// Turn is the one-indexed assistant turn this entry belongs to.
	Turn int `json:"turn,omitempty"`

	// Error marks inline error entries appended when reconstruction fails.
	Error bool `json:"error,omitempty"`
}

// StatusEntry is one line in the status panel.
type StatusEntry struct {
	Kind string    `json:"kind"` // "lifecycle", "coordination", "tool", "trace", "info"
	Text string    `json:"text"`
	At   time.Time `json:"at,omitempty"`
}

// Header holds the fields rendered above the transcript.
type Header struct {
	Title           string  `json:"title,omitempty"`
	TaskID          string  `json:"task_id,omitempty"`
	Thinking        bool    `json:"thinking,omitempty"`
	KnowledgeBanner string  `json:"knowledge_banner,omitempty"`
	InputTokens     int     `json:"input_tokens,omitempty"`
	OutputTokens    int     `json:"output_tokens,omitempty"`
	Cost            float64 `json:"cost,omitempty"`
	Model           string  `json:"model,omitempty"`
	Provider        string  `json:"provider,omitempty"`
}

// StatusIdlePlaceholder is the single status entry shown for an idle view.
const StatusIdlePlaceholder = "No task running"

// View is the foreground view model the dispatcher mutates: everything
// the user can see for the current session.
type View struct {
	Transcript []TranscriptEntry `json:"transcript,omitempty"`
	Status     []StatusEntry     `json:"status,omitempty"`
	Header     Header            `json:"header"`

	// Historical suppresses transient visual effects while replaying
	// buffered events: counters and flags still apply identically, but
	// indicator flashes that only mean something for a live-arriving
	// event are skipped. This is what makes replay reach the same end
	// state as live dispatch.
	Historical bool `json:"-"`

	// flashes counts indicator flashes that actually fired. Transient,
	// never snapshotted; exists so tests can observe suppression.
	flashes int
}

// AppendTranscript adds an entry to the transcript.
func (v *View) AppendTranscript(e TranscriptEntry) {
	v.Transcript = append(v.Transcript, e)
}

// AppendError appends an inline error entry to the transcript.
func (v *View) AppendError(msg string) {
	v.Transcript = append(v.Transcript, TranscriptEntry{
		Role:    RoleSystem,
		Content: msg,
		Error:   true,
	})
}

// AppendStatus adds a line to the status panel.
func (v *View) AppendStatus(kind, text string, at time.Time) {
	v.Status = append(v.Status, StatusEntry{Kind: kind, Text: text, At: at})
}

// ResetStatus replaces the status panel with the idle placeholder.
func (v *View) ResetStatus() {
	v.Status = []StatusEntry{{Kind: "info", Text: StatusIdlePlaceholder}}
}

// SetThinking toggles the header thinking indicator.
func (v *View) SetThinking(on bool) {
	v.Header.Thinking = on
}

// Flash fires the transient indicator animation. Suppressed while
// viewing historical (replayed) events.
func (v *View) Flash() {
	if v.Historical {
		return
	}
	v.flashes++
}

// FlashCount returns how many indicator flashes actually fired.
func (v *View) FlashCount() int {
	return v.flashes
}

// Clone returns a deep copy of the visible state (transient fields are
// not carried).
func (v *View) Clone() View {
	out := View{Header: v.Header}
	out.Transcript = append([]TranscriptEntry(nil), v.Transcript...)
	out.Status = append([]StatusEntry(nil), v.Status...)
	return out
}
