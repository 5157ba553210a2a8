package uderia

import (
	"context"
	"sort"

	"github.com/samber/lo"

	"github.com/rgeissen/uderia-sub002/store"
)

// NewSession creates a session on the backend and foregrounds it.
// profileOverrideID optionally selects a non-default agent profile; when
// the profile auto-executes a primer instruction, the reconstructed view
// already contains the primer exchange.
func (c *Client) NewSession(ctx context.Context, profileOverrideID string) (string, error) {
	rec, err := c.store.StartSession(ctx, profileOverrideID)
	if err != nil {
		return "", NewSessionError("NewSession", err)
	}
	c.log.Info("session created", "session", rec.ID, "profile", profileOverrideID)
	if err := c.ctrl.SwitchTo(ctx, rec.ID); err != nil {
		return rec.ID, NewSessionErrorWithSession("NewSession", rec.ID, err)
	}
	return rec.ID, nil
}

// RenameSession sets a session's title.
func (c *Client) RenameSession(ctx context.Context, sessionID, name string) error {
	if err := c.store.RenameSession(ctx, sessionID, name); err != nil {
		return NewSessionErrorWithSession("RenameSession", sessionID, err)
	}
	return nil
}

// ListSessions returns the user's sessions, most recently updated first.
// Archived sessions are filtered here; the backend returns everything.
func (c *Client) ListSessions(ctx context.Context, includeArchived bool) ([]store.SessionSummary, error) {
	all, err := c.store.ListSessions(ctx)
	if err != nil {
		return nil, NewSessionError("ListSessions", err)
	}
	if !includeArchived {
		all = lo.Filter(all, func(s store.SessionSummary, _ int) bool {
			return !s.Archived
		})
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].UpdatedAt.After(all[j].UpdatedAt)
	})
	return all, nil
}

// DeleteSession removes a session (and whatever child sessions the
// backend cascades to), then ensures the front end still has something
// to render: if the deleted session was foregrounded, it switches to the
// most recent remaining session, and when that fails or none remain it
// creates a fresh session. The returned id is the session now rendered.
func (c *Client) DeleteSession(ctx context.Context, sessionID string) (string, error) {
	removed, err := c.store.DeleteSession(ctx, sessionID)
	if err != nil {
		return "", NewSessionErrorWithSession("DeleteSession", sessionID, err)
	}
	if len(removed) > 0 {
		c.log.Info("session deleted with children",
			"session", sessionID, "children", len(removed))
	}

	gone := append(removed, sessionID)
	current := c.ctrl.ForegroundID()
	if current != "" && !lo.Contains(gone, current) {
		return current, nil
	}

	// The rendered session is gone; pick the most recent survivor.
	summaries, err := c.ListSessions(ctx, false)
	if err == nil {
		for _, s := range summaries {
			if lo.Contains(gone, s.ID) {
				continue
			}
			if switchErr := c.ctrl.SwitchTo(ctx, s.ID); switchErr == nil {
				return s.ID, nil
			}
			// A candidate that fails to load may itself be half-deleted;
			// try the next one before giving up.
			c.log.Warn("fallback switch failed", "session", s.ID)
		}
	}

	// Nothing remained (or nothing loadable); start fresh.
	id, err := c.NewSession(ctx, "")
	if err != nil {
		return "", NewSessionError("DeleteSession", err).
			WithContext("reason", "no remaining session and creating one failed")
	}
	return id, nil
}
