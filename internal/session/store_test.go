package session

import (
	"testing"
	"time"
)

func TestStoreGetOrCreate(t *testing.T) {
	st := NewStore("New York")

	s, created := st.GetOrCreate("")
	if !created {
		t.Fatal("expected a new session for empty id")
	}
	if s.ID == "" {
		t.Fatal("expected generated session id")
	}
	if s.Selected() != "New York" {
		t.Fatalf("expected default city, got %s", s.Selected())
	}

	again, created := st.GetOrCreate(s.ID)
	if created || again != s {
		t.Fatal("expected existing session to be returned")
	}

	_, created = st.GetOrCreate("unknown-id")
	if !created {
		t.Fatal("expected unknown id to create a session")
	}
	if st.Len() != 2 {
		t.Fatalf("expected 2 sessions, got %d", st.Len())
	}
}

func TestSessionsAreIsolated(t *testing.T) {
	st := NewStore("New York")
	a := st.Create()
	b := st.Create()

	a.Select("Austin")

	if a.Selected() != "Austin" {
		t.Fatalf("expected Austin, got %s", a.Selected())
	}
	if b.Selected() != "New York" {
		t.Fatalf("selection leaked across sessions: %s", b.Selected())
	}
}

func TestStoreSweep(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	st := NewStore("New York")
	st.now = func() time.Time { return now }

	stale := st.Create()
	now = now.Add(20 * time.Minute)
	fresh := st.Create()
	now = now.Add(20 * time.Minute)

	if removed := st.Sweep(30 * time.Minute); removed != 1 {
		t.Fatalf("expected 1 removed session, got %d", removed)
	}
	if _, ok := st.Get(stale.ID); ok {
		t.Fatal("expected stale session to be swept")
	}
	if _, ok := st.Get(fresh.ID); !ok {
		t.Fatal("expected fresh session to survive")
	}
}
