package viewstate

import (
	"encoding/json"
	"fmt"
	"time"
)

// SnapshotVersion is the current snapshot schema version. Snapshots with
// a different version are treated as cache misses, never as errors.
const SnapshotVersion = 1

// Snapshot is a structured, versioned capture of everything needed to
// instantly repaint a session that has an active stream. It deliberately
// carries typed view state rather than rendered markup, so restores are
// immune to template drift and snapshots stay testable.
type Snapshot struct {
	Version   int       `json:"version"`
	SessionID string    `json:"session_id"`
	TakenAt   time.Time `json:"taken_at"`

	Transcript []TranscriptEntry `json:"transcript,omitempty"`
	Status     []StatusEntry     `json:"status,omitempty"`
	Header     Header            `json:"header"`
	Flags      ExecutionFlags    `json:"flags"`

	// PendingStructural carries partially-received structural events
	// opaquely, so a restore can resume mid-phase without decoding them.
	PendingStructural []json.RawMessage `json:"pending_structural,omitempty"`

	Coordination CoordinationTracker `json:"coordination"`
	Tools        ToolTracker         `json:"tools"`
}

// Validate reports whether the snapshot is usable. A malformed or
// version-drifted snapshot is expected after upgrades; callers fall
// through to cold reconstruction.
func (s *Snapshot) Validate() error {
	if s == nil {
		return fmt.Errorf("viewstate: nil snapshot")
	}
	if s.Version != SnapshotVersion {
		return fmt.Errorf("viewstate: snapshot version %d, want %d", s.Version, SnapshotVersion)
	}
	if s.SessionID == "" {
		return fmt.Errorf("viewstate: snapshot has no session id")
	}
	if s.TakenAt.IsZero() {
		return fmt.Errorf("viewstate: snapshot has no capture time")
	}
	return nil
}
