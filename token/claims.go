package token

import (
	"errors"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	internalerrors "github.com/jrsteele09/postureiq-client/internal/errors"
	"github.com/jrsteele09/postureiq-client/sessions"
)

// Claims are the fields read from a provider-issued JWT.
type Claims struct {
	Subject   string
	Email     string
	SessionID string // sid, falling back to jti
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// ParseClaims reads claims from raw without verifying its signature. ID
// tokens are verified by the provider before they are stored; access tokens
// are opaque to this client and only inspected for display fields.
func ParseClaims(raw string) (*Claims, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, errors.New("empty token")
	}
	parsed, _, err := jwtlib.NewParser().ParseUnverified(raw, jwtlib.MapClaims{})
	if err != nil {
		return nil, err
	}
	mc, ok := parsed.Claims.(jwtlib.MapClaims)
	if !ok {
		return nil, errors.New("error extracting claims")
	}

	c := &Claims{}
	c.Subject, _ = mc.GetSubject()
	c.Email, _ = mc["email"].(string)
	if sid, ok := mc["sid"].(string); ok && sid != "" {
		c.SessionID = sid
	} else if jti, ok := mc["jti"].(string); ok {
		c.SessionID = jti
	}
	if iat, err := mc.GetIssuedAt(); err == nil && iat != nil {
		c.IssuedAt = iat.Time
	}
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		c.ExpiresAt = exp.Time
	}
	return c, nil
}

// SessionFromCredentials builds a session from stored credentials. The ID
// token is preferred as the claim source; the access token is used when it
// is itself a JWT.
func SessionFromCredentials(creds *Credentials) (*sessions.Session, error) {
	if creds == nil || strings.TrimSpace(creds.AccessToken) == "" {
		return nil, internalerrors.Wrapf(internalerrors.ErrInvalidSession, "missing access token")
	}

	var claims *Claims
	for _, raw := range []string{creds.IDToken, creds.AccessToken} {
		if raw == "" {
			continue
		}
		if c, err := ParseClaims(raw); err == nil && c.Subject != "" {
			claims = c
			break
		}
	}
	if claims == nil {
		return nil, internalerrors.Wrapf(internalerrors.ErrInvalidSession, "no subject claim in tokens")
	}

	id := claims.SessionID
	if id == "" {
		id = uuid.NewSHA1(uuid.NameSpaceOID, []byte(creds.AccessToken)).String()
	}
	expires := creds.Expiry
	if expires.IsZero() {
		expires = claims.ExpiresAt
	}

	s := &sessions.Session{
		ID:          id,
		AccessToken: creds.AccessToken,
		UserID:      claims.Subject,
		Email:       claims.Email,
		IssuedAt:    claims.IssuedAt,
		ExpiresAt:   expires,
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}
