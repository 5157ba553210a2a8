package mux

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rgeissen/uderia-sub002/store"
	"github.com/rgeissen/uderia-sub002/stream"
	"github.com/rgeissen/uderia-sub002/viewstate"
)

// Config holds controller configuration.
type Config struct {
	// Store is the session store collaborator (required).
	Store store.Store

	// Logger for structured logging. If nil, logging is disabled.
	Logger Logger

	// Clock for timestamps and TTL checks. If nil, wall time is used.
	Clock clock.Clock

	// SnapshotTTL bounds snapshot cache entries. Zero uses the default.
	SnapshotTTL time.Duration
}

// Controller is the session switch controller: the multiplexer state
// machine that owns the foreground view and decides, on every switch,
// between fast-path restore, buffer replay, and cold reconstruction.
type Controller struct {
	store store.Store
	log   Logger
	clock clock.Clock

	disp    *Dispatcher
	buffers *BufferRegistry
	snaps   *SnapshotCache

	// mu guards fg and live. Capture (step 1 of a switch) and event
	// application share this lock: that is the invariant that makes a
	// snapshot atomic with respect to an event arriving mid-capture.
	// Only the cold-path network fetch runs outside the lock.
	mu   sync.Mutex
	fg   *Foreground
	live map[string]bool
}

// NewController creates a controller.
func NewController(cfg Config) (*Controller, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("mux: config requires a session store")
	}
	log := cfg.Logger
	if log == nil {
		log = nopLogger{}
	}
	clk := cfg.Clock
	if clk == nil {
		clk = clock.New()
	}
	return &Controller{
		store:   cfg.Store,
		log:     log,
		clock:   clk,
		disp:    NewDispatcher(log, clk),
		buffers: NewBufferRegistry(),
		snaps:   NewSnapshotCache(clk, cfg.SnapshotTTL),
		fg:      newForeground(""),
		live:    make(map[string]bool),
	}, nil
}

// OnSessionEvent is the transport entry point, called for every inbound
// event regardless of which session it belongs to. Foreground events
// mutate the live view; everything else is buffered.
func (c *Controller) OnSessionEvent(sessionID string, ev stream.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ev.Type == stream.EventExecutionStart {
		c.live[sessionID] = true
	}

	if sessionID == c.fg.SessionID && c.fg.Loaded {
		terminal := c.disp.Dispatch(c.fg, ev, ModeLive)
		if terminal {
			// The persisted record is authoritative from here on; any
			// cached state for this session is stale.
			delete(c.live, sessionID)
			c.snaps.Delete(sessionID)
			c.buffers.Delete(sessionID)
		}
		return
	}

	c.buffers.Append(sessionID, ev)
	if ev.Type.IsTerminal() {
		c.buffers.MarkComplete(sessionID)
		delete(c.live, sessionID)
		// A snapshot taken while this session was mid-execution no
		// longer matches reality; the next switch takes the cold path.
		c.snaps.Delete(sessionID)
	}
}

// SwitchTo makes the target session the foreground view.
//
// A failed cold reconstruction appends an inline error to the transcript
// and returns the error, so a caller running a cascading operation
// (delete session, then switch to the next) can fall back instead of
// being left with a silently broken view.
func (c *Controller) SwitchTo(ctx context.Context, targetID string) error {
	c.mu.Lock()

	c.snaps.Sweep()

	// Step 5 first: re-entrancy from the UI must not trigger a second
	// reconstruction of the session already on screen.
	if targetID == c.fg.SessionID && c.fg.Loaded {
		c.mu.Unlock()
		return nil
	}

	// Step 1: capture-on-leave, synchronously, before anything can
	// yield. Idle sessions are never snapshotted; they reconstruct from
	// the store, which is cheaper and always consistent.
	if c.fg.Loaded && c.live[c.fg.SessionID] {
		snap := c.fg.Capture(c.clock.Now())
		c.snaps.Put(snap)
		c.log.Debug("captured outgoing session", "session", c.fg.SessionID)
	}

	// Step 2: fast path. Active stream plus cached snapshot restores
	// verbatim with no backend call.
	if c.live[targetID] {
		if snap, ok := c.snaps.Get(targetID); ok {
			c.fg.Restore(snap)
			c.log.Debug("fast-path restore", "session", targetID)
			c.mu.Unlock()
			return nil
		}
	}

	// Step 3: cold reconstruction. Replace the foreground with an
	// unloaded placeholder before releasing the lock, so events for the
	// target that arrive during the fetch get buffered, not lost.
	c.fg = newForeground(targetID)
	c.mu.Unlock()

	rec, err := c.store.LoadSession(ctx, targetID)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.fg.SessionID != targetID {
		// Another switch superseded this one while the fetch was in
		// flight; its result wins.
		return nil
	}

	if err != nil {
		c.fg.View.AppendError(fmt.Sprintf("failed to load session: %v", err))
		c.log.Error("cold reconstruction failed", "session", targetID, "err", err)
		return fmt.Errorf("mux: load session %s: %w", targetID, err)
	}

	c.rebuildLocked(rec)

	// The record may predate a stream that opened since it was
	// persisted, so it can only add liveness, never revoke it. Terminal
	// events are what clear the live flag.
	if rec.HasLiveStream {
		c.live[targetID] = true
	}

	// Step 4: live catch-up.
	buf, ok := c.buffers.Take(targetID)
	switch {
	case ok && !buf.Complete && c.live[targetID]:
		c.replayLocked(buf, rec)
		// The buffer stays in place so a later detach resumes
		// buffering, and so an expired snapshot can still catch up.

	case ok && buf.Complete:
		// Stale buffer: the store already holds the finalized turn.
		c.buffers.Delete(targetID)
		c.applyTraceLocked(rec.LastTrace)

	case ok:
		// Incomplete buffer but the stream is dead: no terminal event
		// will ever arrive to clear it, so drop it here.
		c.buffers.Delete(targetID)
		c.applyTraceLocked(rec.LastTrace)

	default:
		c.applyTraceLocked(rec.LastTrace)
	}

	c.fg.Loaded = true
	c.log.Info("session foregrounded", "session", targetID,
		"replayed", ok && !buf.Complete && c.live[targetID], "live", c.live[targetID])
	return nil
}

// rebuildLocked rebuilds the foreground from a durable record: the cold
// path. Flags, trackers and the status panel reset to idle.
func (c *Controller) rebuildLocked(rec *store.SessionRecord) {
	fg := c.fg
	fg.View = &viewstate.View{}
	fg.Flags.Reset()
	fg.Coordination.Clear()
	fg.Tools.Clear()
	fg.Pending = nil

	// Turn ids are assigned by counting assistant messages in order,
	// one-indexed, regardless of what the backend stored.
	turn := 0
	for _, msg := range rec.Messages {
		entry := viewstate.TranscriptEntry{
			Role:        msg.Role,
			Content:     msg.Content,
			Attachments: append([]string(nil), msg.Attachments...),
		}
		if msg.Role == viewstate.RoleAssistant {
			turn++
			entry.Turn = turn
		} else {
			entry.Turn = turn + 1
		}
		fg.View.AppendTranscript(entry)
	}

	title := rec.Title
	if title == "" {
		title = "Session " + shortID(rec.ID)
	}
	fg.View.Header = viewstate.Header{
		Title:           title,
		KnowledgeBanner: strings.Join(rec.KnowledgeRepos, ", "),
		InputTokens:     rec.Tokens.Input,
		OutputTokens:    rec.Tokens.Output,
		Cost:            rec.Cost,
		Model:           rec.Model,
		Provider:        rec.Provider,
	}
	fg.Flags.Model = rec.Model
	fg.Flags.Provider = rec.Provider

	fg.View.ResetStatus()
}

// replayLocked re-dispatches a buffer's events in arrival order. Replay
// mode suppresses transient animations while applying every counter and
// flag mutation identically to live dispatch, then marks the task active
// so further live events keep applying to the now-foregrounded view.
func (c *Controller) replayLocked(buf EventBuffer, rec *store.SessionRecord) {
	for _, ev := range buf.Events {
		c.disp.Dispatch(c.fg, ev, ModeReplay)
	}
	taskID := buf.TaskID
	if taskID == "" {
		taskID = rec.ActiveTaskID
	}
	if taskID == "" {
		taskID = c.fg.Flags.TaskID
	}
	if taskID != "" {
		c.fg.Flags.Activate(taskID)
		c.fg.View.Header.TaskID = taskID
	}
}

// applyTraceLocked shows a finalized execution trace passively: status
// lines only, no flags, no animations.
func (c *Controller) applyTraceLocked(trace *store.TurnTrace) {
	if trace == nil {
		return
	}
	fg := c.fg
	fg.View.Status = nil
	for _, step := range trace.Steps {
		fg.View.AppendStatus("trace", stepText(step.Label, step.Detail), step.At)
	}
	fg.View.AppendStatus("trace", fmt.Sprintf("task %s %s", trace.TaskID, trace.Status), trace.CompletedAt)
}

// ForegroundID returns the id of the session currently on screen.
func (c *Controller) ForegroundID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fg.SessionID
}

// SessionLive reports whether a session is known to have an open stream.
func (c *Controller) SessionLive(sessionID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.live[sessionID]
}

// ViewSnapshot returns a copy of the current foreground state for
// rendering. The copy is taken under the controller lock, so it is
// always internally consistent.
func (c *Controller) ViewSnapshot() viewstate.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fg.Capture(c.clock.Now())
}

// BufferedEventCount reports how many events are queued for a session.
func (c *Controller) BufferedEventCount(sessionID string) int {
	return c.buffers.Len(sessionID)
}

// shortID abbreviates an id for display.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
