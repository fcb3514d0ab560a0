package backend

import (
	"log/slog"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims is who the session belongs to. It is read out of the bearer
// token without the signing key and completed from /auth/me after login.
// All fields are empty for an opaque token until then.
type SessionClaims struct {
	Subject   string    `json:"subject,omitempty"`
	Roles     []string  `json:"roles,omitempty"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
	// RolesKnown is set once a token claim or the backend profile named the
	// roles, even when the list is empty.
	RolesKnown bool `json:"roles_known"`
}

type tokenClaims struct {
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

// Session holds the bearer credential for the lifetime of the process.
// There is no logout; the token is replaced only by a later login.
type Session struct {
	mu     sync.RWMutex
	token  string
	claims SessionClaims
}

func (s *Session) Set(token string) {
	claims := decodeClaims(token)
	s.mu.Lock()
	s.token = token
	s.claims = claims
	s.mu.Unlock()
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) Authenticated() bool {
	return s.Token() != ""
}

func (s *Session) Claims() SessionClaims {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c := s.claims
	c.Roles = append([]string(nil), s.claims.Roles...)
	return c
}

// Identify records the profile the backend reports for the current token.
func (s *Session) Identify(subject string, roles []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if subject != "" {
		s.claims.Subject = subject
	}
	s.claims.Roles = append([]string(nil), roles...)
	s.claims.RolesKnown = true
}

// HasRole reports whether the session holds role.
func (s *Session) HasRole(role string) bool {
	for _, r := range s.Claims().Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Expired is true only when the token declares an expiry that has passed.
func (s *Session) Expired(now time.Time) bool {
	c := s.Claims()
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}

// decodeClaims reads JWT claims unverified. The backend verifies the
// signature on every call; the console only uses them for display.
func decodeClaims(token string) SessionClaims {
	if token == "" {
		return SessionClaims{}
	}
	var tc tokenClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &tc); err != nil {
		slog.Debug("session token is not a readable JWT", "error", err)
		return SessionClaims{}
	}
	out := SessionClaims{Subject: tc.Subject, Roles: tc.Roles, RolesKnown: tc.Roles != nil}
	if tc.ExpiresAt != nil {
		out.ExpiresAt = tc.ExpiresAt.Time
	}
	return out
}
