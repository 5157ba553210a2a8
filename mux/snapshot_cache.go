package mux

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rgeissen/uderia-sub002/viewstate"
)

// DefaultSnapshotTTL bounds how long a left-while-active snapshot stays
// restorable. Streams can die without a terminal event (backend crash,
// dropped connection); without a TTL such sessions would pin a stale
// snapshot forever.
const DefaultSnapshotTTL = 30 * time.Minute

// SnapshotCache holds view snapshots keyed by session id. Entries are
// disposable by contract: a lost snapshot costs one cold reconstruction,
// never correctness.
type SnapshotCache struct {
	mu      sync.Mutex
	clock   clock.Clock
	ttl     time.Duration
	entries map[string]snapEntry
}

type snapEntry struct {
	snap     viewstate.Snapshot
	storedAt time.Time
}

// NewSnapshotCache creates a cache. A nil clock uses wall time; a
// non-positive ttl uses DefaultSnapshotTTL.
func NewSnapshotCache(clk clock.Clock, ttl time.Duration) *SnapshotCache {
	if clk == nil {
		clk = clock.New()
	}
	if ttl <= 0 {
		ttl = DefaultSnapshotTTL
	}
	return &SnapshotCache{
		clock:   clk,
		ttl:     ttl,
		entries: make(map[string]snapEntry),
	}
}

// Put stores a snapshot, overwriting any prior snapshot for the same
// session and refreshing its TTL.
func (c *SnapshotCache) Put(snap viewstate.Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[snap.SessionID] = snapEntry{snap: snap, storedAt: c.clock.Now()}
}

// Get returns the snapshot for a session. Expired or malformed entries
// are dropped and reported as a miss, so callers fall through to cold
// reconstruction.
func (c *SnapshotCache) Get(sessionID string) (viewstate.Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[sessionID]
	if !ok {
		return viewstate.Snapshot{}, false
	}
	if c.clock.Now().Sub(entry.storedAt) > c.ttl {
		delete(c.entries, sessionID)
		return viewstate.Snapshot{}, false
	}
	if err := entry.snap.Validate(); err != nil {
		delete(c.entries, sessionID)
		return viewstate.Snapshot{}, false
	}
	return entry.snap, true
}

// Delete removes the snapshot for a session.
func (c *SnapshotCache) Delete(sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, sessionID)
}

// Sweep drops expired entries and returns how many were removed.
func (c *SnapshotCache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	removed := 0
	for id, entry := range c.entries {
		if now.Sub(entry.storedAt) > c.ttl {
			delete(c.entries, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of cached snapshots.
func (c *SnapshotCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
