package client

import "sync"

// User is the logged-in admin profile returned by the auth endpoints.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	FullName string `json:"fullName"`
	Role     string `json:"role"`
}

// Session holds the token pair and profile for one logged-in admin. It is
// an explicit object injected into the Client so tests can provide fixture
// tokens instead of reading ambient global state.
type Session struct {
	mu           sync.RWMutex
	accessToken  string
	refreshToken string
	user         User
}

// NewSession creates an empty, logged-out session.
func NewSession() *Session {
	return &Session{}
}

// Set replaces the token pair and profile after a successful login or refresh.
func (s *Session) Set(accessToken, refreshToken string, user User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = accessToken
	s.refreshToken = refreshToken
	s.user = user
}

// AccessToken returns the current bearer token, empty if logged out.
func (s *Session) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

// RefreshToken returns the current refresh token, empty if logged out.
func (s *Session) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshToken
}

// User returns the profile of the logged-in admin.
func (s *Session) User() User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// Clear drops all session state, forcing a fresh login.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = ""
	s.refreshToken = ""
	s.user = User{}
}

// LoggedIn reports whether the session holds an access token.
func (s *Session) LoggedIn() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken != ""
}
