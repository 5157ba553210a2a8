package mux

import (
	"sync"

	"github.com/rgeissen/uderia-sub002/stream"
)

// EventBuffer is the ordered log of live events received for one session
// while it was not foregrounded, plus its task metadata.
type EventBuffer struct {
	SessionID string
	TaskID    string
	Events    []stream.Event

	// Complete is set when a terminal lifecycle event was buffered. A
	// complete buffer is never replayed; the store's persisted record
	// supersedes it.
	Complete bool
}

// BufferRegistry holds event buffers keyed by session id. Buffers for
// different sessions have no ordering relation to each other; within one
// buffer, arrival order is preserved.
type BufferRegistry struct {
	mu      sync.Mutex
	buffers map[string]*EventBuffer
}

// NewBufferRegistry creates an empty registry.
func NewBufferRegistry() *BufferRegistry {
	return &BufferRegistry{buffers: make(map[string]*EventBuffer)}
}

// Append pushes an event onto the session's buffer, creating the buffer
// on first use. Events are never dropped regardless of buffer size:
// losing one would be a correctness bug, since it must show up in the
// next replay or reconstruction.
func (r *BufferRegistry) Append(sessionID string, ev stream.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	buf, ok := r.buffers[sessionID]
	if !ok {
		buf = &EventBuffer{SessionID: sessionID}
		r.buffers[sessionID] = buf
	}
	buf.Events = append(buf.Events, ev)
	if buf.TaskID == "" {
		if taskID := ev.TaskID(); taskID != "" {
			buf.TaskID = taskID
		}
	}
}

// MarkComplete flags the session's buffer complete. The buffer is not
// deleted here: deletion only happens after a successful replay or cold
// reconstruction has made the backend's own record authoritative again.
func (r *BufferRegistry) MarkComplete(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if buf, ok := r.buffers[sessionID]; ok {
		buf.Complete = true
	}
}

// Take returns a stable copy of the session's buffer for replay. The
// caller is responsible for calling Delete afterwards if Complete was
// true at read time.
func (r *BufferRegistry) Take(sessionID string) (EventBuffer, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	buf, ok := r.buffers[sessionID]
	if !ok {
		return EventBuffer{}, false
	}
	out := EventBuffer{
		SessionID: buf.SessionID,
		TaskID:    buf.TaskID,
		Complete:  buf.Complete,
	}
	out.Events = append([]stream.Event(nil), buf.Events...)
	return out, true
}

// Delete removes the session's buffer.
func (r *BufferRegistry) Delete(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.buffers, sessionID)
}

// Len returns the number of buffered events for a session.
func (r *BufferRegistry) Len(sessionID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	if buf, ok := r.buffers[sessionID]; ok {
		return len(buf.Events)
	}
	return 0
}
