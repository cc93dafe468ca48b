package sessions

import (
	"strings"
	"time"

	internalerrors "github.com/jrsteele09/postureiq-client/internal/errors"
)

// Session is the opaque proof of authentication handed out by the identity
// provider. A nil *Session means signed out. Sessions are never mutated once
// built; every update replaces the whole value.
type Session struct {
	ID          string    // Provider session identifier (token ID or generated UUID)
	AccessToken string    // Bearer token for the data backend
	UserID      string    // Subject of the authenticated principal
	Email       string    // Email claim, if present
	IssuedAt    time.Time // When the token was issued
	ExpiresAt   time.Time // When the token expires; zero means unknown
}

// Expired reports whether the session has a known expiry before now.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

// Validate rejects sessions that cannot identify a principal.
func (s Session) Validate() error {
	if strings.TrimSpace(s.AccessToken) == "" {
		return internalerrors.Wrapf(internalerrors.ErrInvalidSession, "missing access token")
	}
	if strings.TrimSpace(s.UserID) == "" {
		return internalerrors.Wrapf(internalerrors.ErrInvalidSession, "missing user id")
	}
	return nil
}

// EventType names an auth state change reported by the identity provider.
type EventType string

const (
	EventInitialSession EventType = "INITIAL_SESSION"
	EventSignedIn       EventType = "SIGNED_IN"
	EventSignedOut      EventType = "SIGNED_OUT"
	EventTokenRefreshed EventType = "TOKEN_REFRESHED"
	EventUserUpdated    EventType = "USER_UPDATED"
)

// AuthEvent is a single notification from the provider's auth-event stream.
type AuthEvent struct {
	Type    EventType
	Session *Session
}
