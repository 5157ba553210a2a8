package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/rgeissen/uderia-sub002/store"
)

// Response wraps all API responses.
type Response struct {
	Data  any       `json:"data,omitempty"`
	Error *APIError `json:"error,omitempty"`
}

// APIError represents an API error.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Response{Data: data})
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Response{
		Error: &APIError{Code: code, Message: message},
	})
}

// writeStoreError maps store failures onto API statuses.
func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "not_found", "session not found")
	case errors.Is(err, store.ErrBackendUnavailable):
		writeError(w, http.StatusBadGateway, "backend_unavailable", "backend unavailable")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func (rt *router) requireWritable(w http.ResponseWriter) bool {
	if rt.config.ReadOnly {
		writeError(w, http.StatusForbidden, "read_only", "ui is in read-only mode")
		return false
	}
	return true
}

// View handlers

func (rt *router) handleGetView(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, rt.svc.CurrentView())
}

// Session handlers

func (rt *router) handleListSessions(w http.ResponseWriter, r *http.Request) {
	includeArchived := r.URL.Query().Get("archived") == "1"
	rows, err := rt.svc.ListSessions(r.Context(), includeArchived)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if rt.config.PageSize > 0 && len(rows) > rt.config.PageSize {
		rows = rows[:rt.config.PageSize]
	}
	writeJSON(w, http.StatusOK, rows)
}

func (rt *router) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	if !rt.requireWritable(w) {
		return
	}
	var body struct {
		ProfileID string `json:"profile_id"`
	}
	if r.Body != nil {
		// An empty body means default profile.
		_ = json.NewDecoder(r.Body).Decode(&body)
	}
	id, err := rt.svc.CreateSession(r.Context(), body.ProfileID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (rt *router) handleSwitchSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := rt.svc.SwitchSession(r.Context(), id); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rt.svc.CurrentView())
}

func (rt *router) handleRenameSession(w http.ResponseWriter, r *http.Request) {
	if !rt.requireWritable(w) {
		return
	}
	id := r.PathValue("id")
	var body struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	title := strings.TrimSpace(body.Title)
	if title == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "title is required")
		return
	}
	if err := rt.svc.RenameSession(r.Context(), id, title); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id, "title": title})
}

func (rt *router) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if !rt.requireWritable(w) {
		return
	}
	id := r.PathValue("id")
	foreground, err := rt.svc.DeleteSession(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"foreground": foreground})
}
