package uderia

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rgeissen/uderia-sub002/store"
)

func TestNewSessionForegrounds(t *testing.T) {
	c, _ := newTestClient(t)

	id, err := c.NewSession(context.Background(), "")
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	if id == "" {
		t.Fatal("expected a session id")
	}
	if c.ForegroundID() != id {
		t.Errorf("foreground = %q, want %q", c.ForegroundID(), id)
	}
}

func TestRenameSessionWrapsErrors(t *testing.T) {
	c, st := newTestClient(t)
	st.put(&store.SessionRecord{ID: "a"})

	if err := c.RenameSession(context.Background(), "a", "Trip planning"); err != nil {
		t.Fatalf("RenameSession: %v", err)
	}
	if st.records["a"].Title != "Trip planning" {
		t.Errorf("title = %q", st.records["a"].Title)
	}

	err := c.RenameSession(context.Background(), "ghost", "x")
	if !errors.Is(err, store.ErrSessionNotFound) {
		t.Errorf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestListSessionsFiltersAndSorts(t *testing.T) {
	c, st := newTestClient(t)
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	st.put(&store.SessionRecord{ID: "old", UpdatedAt: base})
	st.put(&store.SessionRecord{ID: "newest", UpdatedAt: base.Add(2 * time.Hour)})
	st.put(&store.SessionRecord{ID: "gone", Archived: true, UpdatedAt: base.Add(3 * time.Hour)})
	st.put(&store.SessionRecord{ID: "mid", UpdatedAt: base.Add(time.Hour)})

	got, err := c.ListSessions(context.Background(), false)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3 (archived filtered)", len(got))
	}
	for i, want := range []string{"newest", "mid", "old"} {
		if got[i].ID != want {
			t.Errorf("order[%d] = %q, want %q", i, got[i].ID, want)
		}
	}

	all, err := c.ListSessions(context.Background(), true)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 4 {
		t.Errorf("len = %d, want 4 with archived included", len(all))
	}
}

func TestDeleteBackgroundSessionKeepsForeground(t *testing.T) {
	c, st := newTestClient(t)
	st.put(&store.SessionRecord{ID: "a"})
	st.put(&store.SessionRecord{ID: "b"})

	ctx := context.Background()
	if err := c.SwitchSession(ctx, "a"); err != nil {
		t.Fatal(err)
	}

	now, err := c.DeleteSession(ctx, "b")
	if err != nil {
		t.Fatalf("DeleteSession: %v", err)
	}
	if now != "a" || c.ForegroundID() != "a" {
		t.Errorf("foreground after delete = %q, want a", now)
	}
}

func TestDeleteForegroundSwitchesToMostRecent(t *testing.T) {
	c, st := newTestClient(t)
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	st.put(&store.SessionRecord{ID: "a", UpdatedAt: base.Add(2 * time.Hour)})
	st.put(&store.SessionRecord{ID: "b", UpdatedAt: base.Add(time.Hour)})
	st.put(&store.SessionRecord{ID: "c", UpdatedAt: base.Add(3 * time.Hour)})

	ctx := context.Background()
	if err := c.SwitchSession(ctx, "a"); err != nil {
		t.Fatal(err)
	}

	now, err := c.DeleteSession(ctx, "a")
	if err != nil {
		t.Fatalf("DeleteSession: %v", err)
	}
	if now != "c" {
		t.Errorf("foreground = %q, want c (most recently updated survivor)", now)
	}
}

func TestDeleteCascadeSkipsRemovedChildren(t *testing.T) {
	c, st := newTestClient(t)
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	st.put(&store.SessionRecord{ID: "parent", UpdatedAt: base.Add(time.Hour)})
	st.put(&store.SessionRecord{ID: "child", UpdatedAt: base.Add(2 * time.Hour)})
	st.put(&store.SessionRecord{ID: "other", UpdatedAt: base})
	st.children["parent"] = []string{"child"}

	ctx := context.Background()
	if err := c.SwitchSession(ctx, "parent"); err != nil {
		t.Fatal(err)
	}

	now, err := c.DeleteSession(ctx, "parent")
	if err != nil {
		t.Fatalf("DeleteSession: %v", err)
	}
	if now != "other" {
		t.Errorf("foreground = %q, want other (child was removed with parent)", now)
	}
}

func TestDeleteLastSessionCreatesFresh(t *testing.T) {
	c, st := newTestClient(t)
	st.put(&store.SessionRecord{ID: "only"})

	ctx := context.Background()
	if err := c.SwitchSession(ctx, "only"); err != nil {
		t.Fatal(err)
	}

	now, err := c.DeleteSession(ctx, "only")
	if err != nil {
		t.Fatalf("DeleteSession: %v", err)
	}
	if now == "" || now == "only" {
		t.Fatalf("foreground = %q, want a fresh session", now)
	}
	if c.ForegroundID() != now {
		t.Errorf("foreground = %q, want %q", c.ForegroundID(), now)
	}
}

func TestDeleteFallsPastUnloadableCandidate(t *testing.T) {
	c, st := newTestClient(t)
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	st.put(&store.SessionRecord{ID: "a", UpdatedAt: base.Add(2 * time.Hour)})
	st.put(&store.SessionRecord{ID: "broken", UpdatedAt: base.Add(3 * time.Hour)})
	st.put(&store.SessionRecord{ID: "ok", UpdatedAt: base.Add(time.Hour)})
	st.failLoad["broken"] = store.ErrBackendUnavailable

	ctx := context.Background()
	if err := c.SwitchSession(ctx, "a"); err != nil {
		t.Fatal(err)
	}

	now, err := c.DeleteSession(ctx, "a")
	if err != nil {
		t.Fatalf("DeleteSession: %v", err)
	}
	if now != "ok" {
		t.Errorf("foreground = %q, want ok (skipping the unloadable candidate)", now)
	}
}
