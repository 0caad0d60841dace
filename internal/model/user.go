package model

import (
	"strings"
	"time"
)

// User is an authenticated identity.
type User struct {
	ID          string    `json:"id" bson:"_id"`
	Email       string    `json:"email" bson:"email"`
	DisplayName string    `json:"display_name" bson:"display_name"`
	Avatar      string    `json:"avatar,omitempty" bson:"avatar"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
}

// Name returns the display name, falling back to the email's local part.
func (u User) Name() string {
	if strings.TrimSpace(u.DisplayName) != "" {
		return u.DisplayName
	}
	local, _, _ := strings.Cut(u.Email, "@")
	return local
}

// SessionStatus tags the variant held by a SessionState.
type SessionStatus int

const (
	SessionUnauthenticated SessionStatus = iota
	SessionLoading
	SessionAuthenticated
)

func (s SessionStatus) String() string {
	switch s {
	case SessionLoading:
		return "loading"
	case SessionAuthenticated:
		return "authenticated"
	default:
		return "unauthenticated"
	}
}

// SessionState is one of Unauthenticated, Loading or Authenticated(User).
// The zero value is Unauthenticated.
type SessionState struct {
	Status SessionStatus
	user   User
}

// Unauthenticated returns the signed-out state.
func Unauthenticated() SessionState { return SessionState{Status: SessionUnauthenticated} }

// Loading returns the state used while identity is being resolved.
func Loading() SessionState { return SessionState{Status: SessionLoading} }

// Authenticated returns the signed-in state for u.
func Authenticated(u User) SessionState {
	return SessionState{Status: SessionAuthenticated, user: u}
}

// User returns the signed-in user; ok is false in every other state.
func (s SessionState) User() (User, bool) {
	if s.Status != SessionAuthenticated {
		return User{}, false
	}
	return s.user, true
}

// IsLoading reports whether identity is still being resolved.
func (s SessionState) IsLoading() bool { return s.Status == SessionLoading }
