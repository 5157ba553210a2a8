package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultRequestTimeout bounds a single backend round trip.
const DefaultRequestTimeout = 30 * time.Second

// RESTStore implements Store over the backend's session REST API. This is
// the normal deployment: the backend owns the durable record and the
// front end only reads and writes through it.
type RESTStore struct {
	base   *url.URL
	client *http.Client
}

// NewRESTStore creates a REST store for the given backend base URL, e.g.
// "https://backend.example.com/api". An optional http.Client can be
// supplied; otherwise a client with DefaultRequestTimeout is used.
func NewRESTStore(baseURL string, client *http.Client) (*RESTStore, error) {
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("store: invalid base URL %q: %w", baseURL, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("store: base URL %q must be absolute", baseURL)
	}
	if client == nil {
		client = &http.Client{Timeout: DefaultRequestTimeout}
	}
	return &RESTStore{base: base, client: client}, nil
}

// LoadSession fetches the full durable record for a session.
func (s *RESTStore) LoadSession(ctx context.Context, id string) (*SessionRecord, error) {
	var rec SessionRecord
	if err := s.do(ctx, http.MethodGet, "/sessions/"+url.PathEscape(id), nil, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// StartSession creates a new session, optionally with a profile override.
func (s *RESTStore) StartSession(ctx context.Context, profileOverrideID string) (*SessionRecord, error) {
	body := map[string]any{}
	if profileOverrideID != "" {
		body["profile_override_id"] = profileOverrideID
	}
	var rec SessionRecord
	if err := s.do(ctx, http.MethodPost, "/sessions", body, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// RenameSession sets the session title.
func (s *RESTStore) RenameSession(ctx context.Context, id, name string) error {
	body := map[string]any{"title": name}
	return s.do(ctx, http.MethodPatch, "/sessions/"+url.PathEscape(id), body, nil)
}

// DeleteSession archives a session and returns deleted child ids.
func (s *RESTStore) DeleteSession(ctx context.Context, id string) ([]string, error) {
	var resp struct {
		DeletedChildIDs []string `json:"deleted_child_ids"`
	}
	if err := s.do(ctx, http.MethodDelete, "/sessions/"+url.PathEscape(id), nil, &resp); err != nil {
		return nil, err
	}
	return resp.DeletedChildIDs, nil
}

// ListSessions returns all sessions including archived ones.
func (s *RESTStore) ListSessions(ctx context.Context) ([]SessionSummary, error) {
	var resp struct {
		Sessions []SessionSummary `json:"sessions"`
	}
	if err := s.do(ctx, http.MethodGet, "/sessions", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Sessions, nil
}

// do performs one backend round trip and decodes the response into out
// when out is non-nil.
func (s *RESTStore) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("store: marshal request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.base.String()+path, reader)
	if err != nil {
		return fmt.Errorf("store: build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrSessionNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("store: decode response: %w", err)
	}
	return nil
}
