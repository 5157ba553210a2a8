// Package mux implements the session stream multiplexer: the machinery
// that lets a user hold several conversational sessions, some of them
// mid-execution with a live backend event stream, and move between them
// without losing in-flight progress, re-issuing backend calls
// unnecessarily, or leaking one session's events into another's view.
//
// Components:
//
//   - Dispatcher routes one event at a time into the foreground view,
//     identically in live and replay mode except for suppressed
//     transient animations.
//   - BufferRegistry keeps a per-session append-only log of events that
//     arrive while their session is not foregrounded.
//   - SnapshotCache holds versioned captures of left-while-active views
//     for instant restore.
//   - Controller orchestrates capture-on-leave, route selection and
//     apply-on-enter for every session switch.
//
// Switch routes, in priority order:
//
//	fast path     target has a live stream and a cached snapshot:
//	              restore verbatim, no backend call
//	cold path     fetch the durable record, rebuild the transcript,
//	              reset flags and trackers
//	catch-up      after a cold rebuild, replay any incomplete buffer in
//	              arrival order; a complete buffer is discarded in favor
//	              of the finalized trace
//
// Concurrency: the controller serializes all state access behind one
// mutex. The capture step of a switch runs entirely inside the same
// critical section that applies events, so a snapshot can never observe
// a half-applied event. Cold reconstruction releases the lock for the
// network fetch and revalidates the switch target afterwards.
package mux
