package frontend

import (
	"net/http"
	"strings"
)

const maxTitleLength = 256

// logError logs an error if the logger is configured.
func (rt *router) logError(msg string, err error) {
	if rt.config.Logger != nil {
		rt.config.Logger.Warn(msg, "error", err.Error())
	}
}

// redirect issues a see-other redirect honoring the mount prefix.
func (rt *router) redirect(w http.ResponseWriter, r *http.Request, path string) {
	http.Redirect(w, r, rt.config.BasePath+path, http.StatusSeeOther)
}

// Main page handlers

func (rt *router) handleRedirectToChat(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	rt.redirect(w, r, "/chat")
}

func (rt *router) handleChat(w http.ResponseWriter, r *http.Request) {
	sessions, err := rt.svc.ListSessions(r.Context(), false)
	if err != nil {
		// The chat view still renders without the sidebar list.
		rt.logError("list sessions", err)
	}
	if len(sessions) > rt.config.PageSize {
		sessions = sessions[:rt.config.PageSize]
	}

	data := map[string]any{
		"View":     rt.svc.CurrentView(),
		"Sessions": sessions,
	}
	if err := rt.renderer.render(w, r, "chat.html", "Chat", data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (rt *router) handleSessions(w http.ResponseWriter, r *http.Request) {
	includeArchived := r.URL.Query().Get("archived") == "1"
	sessions, err := rt.svc.ListSessions(r.Context(), includeArchived)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	data := map[string]any{
		"Sessions":        sessions,
		"IncludeArchived": includeArchived,
	}
	if err := rt.renderer.render(w, r, "sessions.html", "Sessions", data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// Session action handlers

func (rt *router) handleSessionCreate(w http.ResponseWriter, r *http.Request) {
	if rt.config.ReadOnly {
		http.Error(w, "read-only mode", http.StatusForbidden)
		return
	}
	profileID := strings.TrimSpace(r.FormValue("profile_id"))
	if _, err := rt.svc.CreateSession(r.Context(), profileID); err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	rt.redirect(w, r, "/chat")
}

func (rt *router) handleSessionSwitch(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := rt.svc.SwitchSession(r.Context(), id); err != nil {
		// The view shows the failure inline; land the user on it anyway.
		rt.logError("switch session", err)
	}
	rt.redirect(w, r, "/chat")
}

func (rt *router) handleSessionRename(w http.ResponseWriter, r *http.Request) {
	if rt.config.ReadOnly {
		http.Error(w, "read-only mode", http.StatusForbidden)
		return
	}
	id := r.PathValue("id")
	title := strings.TrimSpace(r.FormValue("title"))
	if title == "" || len(title) > maxTitleLength {
		http.Error(w, "invalid title", http.StatusBadRequest)
		return
	}
	if err := rt.svc.RenameSession(r.Context(), id, title); err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	rt.redirect(w, r, "/sessions")
}

func (rt *router) handleSessionDelete(w http.ResponseWriter, r *http.Request) {
	if rt.config.ReadOnly {
		http.Error(w, "read-only mode", http.StatusForbidden)
		return
	}
	id := r.PathValue("id")
	if _, err := rt.svc.DeleteSession(r.Context(), id); err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	rt.redirect(w, r, "/chat")
}

// Fragment handlers

func (rt *router) handleFragmentView(w http.ResponseWriter, r *http.Request) {
	if err := rt.renderer.renderFragment(w, "fragment-view", rt.svc.CurrentView()); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (rt *router) handleFragmentSessionList(w http.ResponseWriter, r *http.Request) {
	sessions, err := rt.svc.ListSessions(r.Context(), false)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if len(sessions) > rt.config.PageSize {
		sessions = sessions[:rt.config.PageSize]
	}
	data := map[string]any{
		"Sessions": sessions,
		"BasePath": rt.config.BasePath,
		"ReadOnly": rt.config.ReadOnly,
	}
	if err := rt.renderer.renderFragment(w, "fragment-session-list", data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
