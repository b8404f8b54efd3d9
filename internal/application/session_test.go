package application

import "testing"

func TestSession(t *testing.T) {
	t.Parallel()

	var nilSession *Session
	if nilSession.Active() {
		t.Fatalf("nil session must not be active")
	}

	s := NewSession()
	if _, ok := s.CurrentUser(); ok {
		t.Fatalf("expected new session to be empty")
	}

	s.set(User{ID: "u-1", Username: "alice"})
	if user, ok := s.CurrentUser(); !ok || user.ID != "u-1" {
		t.Fatalf("expected user after set, got %#v", user)
	}

	s.clear()
	if s.Active() {
		t.Fatalf("expected session to be cleared")
	}
}
