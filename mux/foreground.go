package mux

import (
	"encoding/json"
	"time"

	"github.com/rgeissen/uderia-sub002/stream"
	"github.com/rgeissen/uderia-sub002/viewstate"
)

// Foreground bundles everything the dispatcher mutates for the currently
// rendered session: the view, the single live copy of the execution
// flags, the per-session handler trackers, and any structural phases
// still open. There is exactly one Foreground at a time; switching
// sessions replaces its contents wholesale.
type Foreground struct {
	SessionID string

	// Loaded is false while the session is being reconstructed; events
	// arriving in that window are buffered instead of dispatched.
	Loaded bool

	View         *viewstate.View
	Flags        *viewstate.ExecutionFlags
	Coordination *viewstate.CoordinationTracker
	Tools        *viewstate.ToolTracker

	// Pending holds structural events whose phase is still open, so a
	// restored view can resume mid-phase.
	Pending []stream.Event
}

// newForeground returns an empty foreground for the given session.
func newForeground(sessionID string) *Foreground {
	return &Foreground{
		SessionID:    sessionID,
		View:         &viewstate.View{},
		Flags:        &viewstate.ExecutionFlags{},
		Coordination: &viewstate.CoordinationTracker{},
		Tools:        &viewstate.ToolTracker{},
	}
}

// Capture serializes the full foreground state into a snapshot. The
// caller must hold the controller lock: capture is atomic with respect
// to event application, which is what makes the snapshot trustworthy
// without any further locking.
func (f *Foreground) Capture(now time.Time) viewstate.Snapshot {
	snap := viewstate.Snapshot{
		Version:      viewstate.SnapshotVersion,
		SessionID:    f.SessionID,
		TakenAt:      now,
		Header:       f.View.Header,
		Flags:        *f.Flags,
		Coordination: f.Coordination.Clone(),
		Tools:        f.Tools.Clone(),
	}
	snap.Transcript = append([]viewstate.TranscriptEntry(nil), f.View.Transcript...)
	snap.Status = append([]viewstate.StatusEntry(nil), f.View.Status...)
	for _, ev := range f.Pending {
		raw, err := json.Marshal(ev)
		if err != nil {
			continue
		}
		snap.PendingStructural = append(snap.PendingStructural, raw)
	}
	return snap
}

// Restore replaces the foreground contents with the snapshot, verbatim.
func (f *Foreground) Restore(snap viewstate.Snapshot) {
	f.SessionID = snap.SessionID
	f.Loaded = true
	f.View = &viewstate.View{
		Transcript: append([]viewstate.TranscriptEntry(nil), snap.Transcript...),
		Status:     append([]viewstate.StatusEntry(nil), snap.Status...),
		Header:     snap.Header,
	}
	flags := snap.Flags
	f.Flags = &flags
	coord := snap.Coordination.Clone()
	f.Coordination = &coord
	tools := snap.Tools.Clone()
	f.Tools = &tools

	f.Pending = nil
	for _, raw := range snap.PendingStructural {
		var ev stream.Event
		if err := json.Unmarshal(raw, &ev); err != nil {
			continue
		}
		f.Pending = append(f.Pending, ev)
	}
}
