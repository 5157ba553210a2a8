// Package store defines the narrow interface to the session store, the
// single source of truth for durable session content. Snapshots and event
// buffers elsewhere in this module are caches over this store: losing one
// of them costs a round trip here, never correctness.
package store

import (
	"context"
	"time"
)

// Message is one entry of a session's persisted message history.
type Message struct {
	Role        string   `json:"role"`
	Content     string   `json:"content"`
	Attachments []string `json:"attachments,omitempty"`

	// Turn is the backend's turn index. Reconstruction recomputes turn
	// ids by counting assistant messages, so older backends may leave
	// this zero.
	Turn int `json:"turn,omitempty"`
}

// TokenTotals holds the aggregate token counters for a session.
type TokenTotals struct {
	Input  int `json:"input"`
	Output int `json:"output"`
}

// Total returns input + output.
func (t TokenTotals) Total() int {
	return t.Input + t.Output
}

// TraceStep is one step of a finalized execution trace.
type TraceStep struct {
	Kind   string    `json:"kind"` // "lifecycle", "coordination", "tool"
	Label  string    `json:"label"`
	Detail string    `json:"detail,omitempty"`
	At     time.Time `json:"at,omitempty"`
}

// TurnTrace is the finalized execution trace of a session's last turn,
// shown passively when the session has no live stream.
type TurnTrace struct {
	TaskID      string      `json:"task_id"`
	Steps       []TraceStep `json:"steps,omitempty"`
	Status      string      `json:"status"` // "complete", "error", "cancelled"
	CompletedAt time.Time   `json:"completed_at,omitempty"`
}

// SessionRecord is the durable record for one session.
type SessionRecord struct {
	ID    string `json:"id"`
	Title string `json:"title,omitempty"`

	Messages []Message   `json:"messages,omitempty"`
	Tokens   TokenTotals `json:"tokens"`
	Cost     float64     `json:"cost,omitempty"`

	Provider       string   `json:"provider,omitempty"`
	Model          string   `json:"model,omitempty"`
	ProfileTags    []string `json:"profile_tags,omitempty"`
	KnowledgeRepos []string `json:"knowledge_repos,omitempty"`

	// LastTrace is the finalized trace of the most recent turn, if any.
	LastTrace *TurnTrace `json:"last_trace,omitempty"`

	// HasLiveStream reports whether the backend still has an open event
	// stream for this session.
	HasLiveStream bool `json:"has_live_stream,omitempty"`

	// ActiveTaskID is the task the live stream belongs to, if any.
	ActiveTaskID string `json:"active_task_id,omitempty"`

	Archived  bool      `json:"archived,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// SessionSummary is the list form of a session.
type SessionSummary struct {
	ID           string    `json:"id"`
	Title        string    `json:"title,omitempty"`
	Archived     bool      `json:"archived,omitempty"`
	MessageCount int       `json:"message_count,omitempty"`
	UpdatedAt    time.Time `json:"updated_at,omitempty"`
}

// Store is the session store collaborator. Implementations must be safe
// for concurrent use.
type Store interface {
	// LoadSession fetches the full durable record for a session.
	LoadSession(ctx context.Context, id string) (*SessionRecord, error)

	// StartSession creates a new session. profileOverrideID optionally
	// selects a non-default agent profile; the backend may auto-execute a
	// primer instruction, in which case the returned record already
	// contains the primer exchange.
	StartSession(ctx context.Context, profileOverrideID string) (*SessionRecord, error)

	// RenameSession sets the session title.
	RenameSession(ctx context.Context, id, name string) error

	// DeleteSession archives (or deletes, when the backend cannot
	// archive) a session and returns the ids of any child sessions
	// removed with it.
	DeleteSession(ctx context.Context, id string) ([]string, error)

	// ListSessions returns all sessions including archived ones; callers
	// filter client-side.
	ListSessions(ctx context.Context) ([]SessionSummary, error)
}
