package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	uderia "github.com/rgeissen/uderia-sub002"
	"github.com/rgeissen/uderia-sub002/store"
	"github.com/rgeissen/uderia-sub002/ui/service"
	"github.com/rgeissen/uderia-sub002/viewstate"
)

type memStore struct {
	mu      sync.Mutex
	records map[string]*store.SessionRecord
}

func (s *memStore) LoadSession(ctx context.Context, id string) (*store.SessionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, store.ErrSessionNotFound
	}
	cp := *rec
	return &cp, nil
}

func (s *memStore) StartSession(ctx context.Context, profileOverrideID string) (*store.SessionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := &store.SessionRecord{ID: "fresh", UpdatedAt: time.Now()}
	s.records[rec.ID] = rec
	return rec, nil
}

func (s *memStore) RenameSession(ctx context.Context, id, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return store.ErrSessionNotFound
	}
	rec.Title = name
	return nil
}

func (s *memStore) DeleteSession(ctx context.Context, id string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, id)
	return nil, nil
}

func (s *memStore) ListSessions(ctx context.Context) ([]store.SessionSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []store.SessionSummary
	for _, rec := range s.records {
		out = append(out, store.SessionSummary{ID: rec.ID, Title: rec.Title, UpdatedAt: rec.UpdatedAt})
	}
	return out, nil
}

func newTestRouter(t *testing.T, cfg *Config) (http.Handler, *memStore) {
	t.Helper()
	st := &memStore{records: make(map[string]*store.SessionRecord)}
	client, err := uderia.New(uderia.Config{Store: st})
	if err != nil {
		t.Fatal(err)
	}
	return NewRouter(service.New(client), cfg), st
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v (%s)", err, rec.Body.String())
	}
	return resp
}

func TestGetView(t *testing.T) {
	h, st := newTestRouter(t, nil)
	st.records["a"] = &store.SessionRecord{
		ID:    "a",
		Title: "Report",
		Messages: []store.Message{
			{Role: viewstate.RoleUser, Content: "go"},
		},
	}

	// Foreground the session through the switch endpoint.
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/sessions/a/switch", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("switch status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/view", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("view status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q", ct)
	}
	resp := decode(t, rec)
	data := resp.Data.(map[string]any)
	if data["session_id"] != "a" || data["title"] != "Report" {
		t.Errorf("view data = %v", data)
	}
}

func TestSwitchUnknownSessionReturns404(t *testing.T) {
	h, _ := newTestRouter(t, nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/sessions/ghost/switch", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	resp := decode(t, rec)
	if resp.Error == nil || resp.Error.Code != "not_found" {
		t.Errorf("error = %+v", resp.Error)
	}
}

func TestSessionLifecycleOverAPI(t *testing.T) {
	h, st := newTestRouter(t, nil)
	st.records["a"] = &store.SessionRecord{ID: "a", UpdatedAt: time.Now()}

	// Create
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/sessions", strings.NewReader(`{}`)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body.String())
	}

	// Rename
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/sessions/fresh",
		strings.NewReader(`{"title":"Renamed"}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("rename status = %d: %s", rec.Code, rec.Body.String())
	}
	if st.records["fresh"].Title != "Renamed" {
		t.Errorf("title = %q", st.records["fresh"].Title)
	}

	// Rename with empty title is rejected
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/sessions/fresh",
		strings.NewReader(`{"title":"  "}`)))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty rename status = %d, want 400", rec.Code)
	}

	// Delete falls back to the remaining session
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/sessions/fresh", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d: %s", rec.Code, rec.Body.String())
	}
	resp := decode(t, rec)
	if resp.Data.(map[string]any)["foreground"] != "a" {
		t.Errorf("foreground after delete = %v", resp.Data)
	}

	// List
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sessions", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
}

func TestReadOnlyBlocksWrites(t *testing.T) {
	h, st := newTestRouter(t, &Config{ReadOnly: true, PageSize: 25})
	st.records["a"] = &store.SessionRecord{ID: "a"}

	writes := []struct {
		method, path string
	}{
		{http.MethodPost, "/sessions"},
		{http.MethodPatch, "/sessions/a"},
		{http.MethodDelete, "/sessions/a"},
	}
	for _, req := range writes {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(req.method, req.path, strings.NewReader(`{"title":"x"}`)))
		if rec.Code != http.StatusForbidden {
			t.Errorf("%s %s status = %d, want 403", req.method, req.path, rec.Code)
		}
	}

	// Switching stays allowed: it only changes what this viewer sees.
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/sessions/a/switch", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("switch in read-only = %d, want 200", rec.Code)
	}
}
