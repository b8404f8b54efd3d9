package application

import "sync"

// Session holds the logged-in user of an engine. It is empty until a login
// succeeds and is cleared on logout.
type Session struct {
	mu   sync.RWMutex
	user *User
}

// NewSession returns an empty session.
func NewSession() *Session {
	return &Session{}
}

// CurrentUser returns the logged-in user.
func (s *Session) CurrentUser() (User, bool) {
	if s == nil {
		return User{}, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return User{}, false
	}
	return *s.user, true
}

// Active reports whether a user is logged in.
func (s *Session) Active() bool {
	_, ok := s.CurrentUser()
	return ok
}

func (s *Session) set(user User) {
	s.mu.Lock()
	s.user = &user
	s.mu.Unlock()
}

func (s *Session) clear() {
	s.mu.Lock()
	s.user = nil
	s.mu.Unlock()
}
