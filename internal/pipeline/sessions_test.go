package pipeline

import (
	"testing"
	"time"

	"github.com/dgallion1/maillink/internal/review"
	"github.com/dgallion1/maillink/internal/scanner"
)

func newSession(t *testing.T) *review.Session {
	t.Helper()
	s, err := review.NewSession("mail a@b.com", scanner.Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return s
}

func TestSessionStore_PutGetDelete(t *testing.T) {
	store := NewSessionStore(time.Hour)
	s := newSession(t)
	store.Put(s)

	if got := store.Get(s.ID); got != s {
		t.Fatalf("expected stored session back, got %v", got)
	}
	if store.Len() != 1 {
		t.Errorf("expected 1 session, got %d", store.Len())
	}
	if !store.Delete(s.ID) {
		t.Error("expected delete to report existing session")
	}
	if store.Delete(s.ID) {
		t.Error("expected second delete to report missing session")
	}
	if store.Get(s.ID) != nil {
		t.Error("expected session to be gone")
	}
}

func TestSessionStore_CleanupIdle(t *testing.T) {
	store := NewSessionStore(50 * time.Millisecond)
	idle := newSession(t)
	active := newSession(t)
	store.Put(idle)
	store.Put(active)

	time.Sleep(100 * time.Millisecond)
	// Touching keeps a session alive.
	store.Get(active.ID)
	store.Cleanup()

	if store.Get(idle.ID) != nil {
		t.Error("expected idle session to be evicted")
	}
	if store.Get(active.ID) == nil {
		t.Error("expected recently used session to survive")
	}
}
