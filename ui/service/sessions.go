package service

import (
	"context"
	"time"

	"github.com/samber/lo"

	"github.com/rgeissen/uderia-sub002/store"
)

// SessionRow is the session list DTO.
type SessionRow struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	MessageCount int       `json:"message_count"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Live is true while the session has an open task stream.
	Live bool `json:"live"`

	// Foreground marks the session currently rendered.
	Foreground bool `json:"foreground"`
}

// ListSessions returns the session list, most recent first.
func (s *Service) ListSessions(ctx context.Context, includeArchived bool) ([]SessionRow, error) {
	summaries, err := s.client.ListSessions(ctx, includeArchived)
	if err != nil {
		return nil, err
	}

	foreground := s.client.ForegroundID()
	rows := lo.Map(summaries, func(sum store.SessionSummary, _ int) SessionRow {
		title := sum.Title
		if title == "" {
			title = "Untitled session"
		}
		return SessionRow{
			ID:           sum.ID,
			Title:        title,
			MessageCount: sum.MessageCount,
			UpdatedAt:    sum.UpdatedAt,
			Live:         s.client.SessionLive(sum.ID),
			Foreground:   sum.ID == foreground,
		}
	})
	return rows, nil
}

// CreateSession creates a session and foregrounds it, returning its id.
// profileID optionally selects a non-default agent profile.
func (s *Service) CreateSession(ctx context.Context, profileID string) (string, error) {
	return s.client.NewSession(ctx, profileID)
}

// RenameSession sets a session's title.
func (s *Service) RenameSession(ctx context.Context, id, title string) error {
	return s.client.RenameSession(ctx, id, title)
}

// DeleteSession removes a session and returns the id now rendered.
func (s *Service) DeleteSession(ctx context.Context, id string) (string, error) {
	return s.client.DeleteSession(ctx, id)
}

// SwitchSession makes the target session the rendered one.
func (s *Service) SwitchSession(ctx context.Context, id string) error {
	return s.client.SwitchSession(ctx, id)
}
