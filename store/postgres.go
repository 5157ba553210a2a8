package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements Store against a local PostgreSQL database, for
// self-hosted deployments where the front end owns its own session
// tables instead of talking to a remote backend.
//
// Schema (created out of band):
//
//	CREATE TABLE uderia_sessions (
//	    id              UUID PRIMARY KEY,
//	    title           TEXT NOT NULL DEFAULT '',
//	    provider        TEXT NOT NULL DEFAULT '',
//	    model           TEXT NOT NULL DEFAULT '',
//	    profile_tags    JSONB NOT NULL DEFAULT '[]',
//	    knowledge_repos JSONB NOT NULL DEFAULT '[]',
//	    input_tokens    INT NOT NULL DEFAULT 0,
//	    output_tokens   INT NOT NULL DEFAULT 0,
//	    cost            DOUBLE PRECISION NOT NULL DEFAULT 0,
//	    last_trace      JSONB,
//	    active_task_id  TEXT NOT NULL DEFAULT '',
//	    has_live_stream BOOLEAN NOT NULL DEFAULT FALSE,
//	    parent_id       UUID REFERENCES uderia_sessions(id),
//	    archived        BOOLEAN NOT NULL DEFAULT FALSE,
//	    created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
//	    updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
//	);
//
//	CREATE TABLE uderia_messages (
//	    id          UUID PRIMARY KEY,
//	    session_id  UUID NOT NULL REFERENCES uderia_sessions(id),
//	    role        TEXT NOT NULL,
//	    content     TEXT NOT NULL,
//	    attachments JSONB NOT NULL DEFAULT '[]',
//	    turn        INT NOT NULL DEFAULT 0,
//	    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
//	);
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a Postgres-backed session store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// LoadSession fetches the full durable record for a session.
func (s *PostgresStore) LoadSession(ctx context.Context, id string) (*SessionRecord, error) {
	query := `
		SELECT id, title, provider, model, profile_tags, knowledge_repos,
		       input_tokens, output_tokens, cost, last_trace, active_task_id,
		       has_live_stream, archived, created_at, updated_at
		FROM uderia_sessions
		WHERE id = $1
	`

	var rec SessionRecord
	var tagsJSON, reposJSON []byte
	var traceJSON []byte

	row := s.pool.QueryRow(ctx, query, id)
	err := row.Scan(
		&rec.ID,
		&rec.Title,
		&rec.Provider,
		&rec.Model,
		&tagsJSON,
		&reposJSON,
		&rec.Tokens.Input,
		&rec.Tokens.Output,
		&rec.Cost,
		&traceJSON,
		&rec.ActiveTaskID,
		&rec.HasLiveStream,
		&rec.Archived,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	if err := json.Unmarshal(tagsJSON, &rec.ProfileTags); err != nil {
		return nil, fmt.Errorf("failed to unmarshal profile tags: %w", err)
	}
	if err := json.Unmarshal(reposJSON, &rec.KnowledgeRepos); err != nil {
		return nil, fmt.Errorf("failed to unmarshal knowledge repos: %w", err)
	}
	if len(traceJSON) > 0 {
		var trace TurnTrace
		if err := json.Unmarshal(traceJSON, &trace); err != nil {
			return nil, fmt.Errorf("failed to unmarshal trace: %w", err)
		}
		rec.LastTrace = &trace
	}

	messages, err := s.loadMessages(ctx, id)
	if err != nil {
		return nil, err
	}
	rec.Messages = messages

	return &rec, nil
}

// loadMessages fetches the ordered message history for a session.
func (s *PostgresStore) loadMessages(ctx context.Context, sessionID string) ([]Message, error) {
	query := `
		SELECT role, content, attachments, turn
		FROM uderia_messages
		WHERE session_id = $1
		ORDER BY created_at ASC
	`

	rows, err := s.pool.Query(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var msg Message
		var attachmentsJSON []byte
		if err := rows.Scan(&msg.Role, &msg.Content, &attachmentsJSON, &msg.Turn); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		if err := json.Unmarshal(attachmentsJSON, &msg.Attachments); err != nil {
			return nil, fmt.Errorf("failed to unmarshal attachments: %w", err)
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// StartSession creates a new session row.
func (s *PostgresStore) StartSession(ctx context.Context, profileOverrideID string) (*SessionRecord, error) {
	sessionID := uuid.New().String()

	tags := []string{}
	if profileOverrideID != "" {
		tags = append(tags, profileOverrideID)
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal profile tags: %w", err)
	}

	query := `
		INSERT INTO uderia_sessions (id, profile_tags, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
	`
	if _, err := s.pool.Exec(ctx, query, sessionID, tagsJSON); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return s.LoadSession(ctx, sessionID)
}

// RenameSession sets the session title.
func (s *PostgresStore) RenameSession(ctx context.Context, id, name string) error {
	query := `
		UPDATE uderia_sessions
		SET title = $2, updated_at = NOW()
		WHERE id = $1
	`
	tag, err := s.pool.Exec(ctx, query, id, name)
	if err != nil {
		return fmt.Errorf("failed to rename session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// DeleteSession archives a session and its children (soft delete) and
// returns the ids of archived children.
func (s *PostgresStore) DeleteSession(ctx context.Context, id string) ([]string, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	childQuery := `
		UPDATE uderia_sessions
		SET archived = TRUE, updated_at = NOW()
		WHERE parent_id = $1 AND NOT archived
		RETURNING id
	`
	rows, err := tx.Query(ctx, childQuery, id)
	if err != nil {
		return nil, fmt.Errorf("failed to archive child sessions: %w", err)
	}
	var children []string
	for rows.Next() {
		var childID string
		if err := rows.Scan(&childID); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan child id: %w", err)
		}
		children = append(children, childID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	query := `
		UPDATE uderia_sessions
		SET archived = TRUE, updated_at = NOW()
		WHERE id = $1
	`
	tag, err := tx.Exec(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to archive session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrSessionNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}
	return children, nil
}

// ListSessions returns all sessions including archived ones.
func (s *PostgresStore) ListSessions(ctx context.Context) ([]SessionSummary, error) {
	query := `
		SELECT s.id, s.title, s.archived, s.updated_at,
		       (SELECT COUNT(*) FROM uderia_messages m WHERE m.session_id = s.id)
		FROM uderia_sessions s
		ORDER BY s.updated_at DESC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []SessionSummary
	for rows.Next() {
		var sum SessionSummary
		if err := rows.Scan(&sum.ID, &sum.Title, &sum.Archived, &sum.UpdatedAt, &sum.MessageCount); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, sum)
	}
	return sessions, rows.Err()
}
