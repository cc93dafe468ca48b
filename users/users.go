package users

import (
	"fmt"
	"strings"
	"time"

	internalerrors "github.com/jrsteele09/postureiq-client/internal/errors"
)

// UserRecord is the profile of the principal behind a session. It is
// immutable once fetched; a fresh fetch replaces it entirely.
type UserRecord struct {
	ID              string    `json:"id"`                          // Provider subject
	Email           string    `json:"email"`                       // Email address, may be empty
	DisplayNameHint *string   `json:"display_name_hint,omitempty"` // full_name / name claim, optional
	CreatedAt       time.Time `json:"created_at"`                  // When the account was created
}

// Claims are the raw userinfo / ID token claims returned by the provider.
type Claims map[string]any

// nameClaims are checked in order for a display name hint.
var nameClaims = []string{"full_name", "name", "preferred_username"}

// FromClaims validates and normalizes provider claims into a UserRecord.
// Unexpected value types are dropped rather than propagated.
func FromClaims(claims Claims) (*UserRecord, error) {
	if claims == nil {
		return nil, internalerrors.Wrapf(internalerrors.ErrInvalidUser, "no claims")
	}
	id := strings.TrimSpace(stringClaim(claims, "sub"))
	if id == "" {
		id = strings.TrimSpace(stringClaim(claims, "id"))
	}
	if id == "" {
		return nil, internalerrors.Wrapf(internalerrors.ErrInvalidUser, "missing subject")
	}

	u := &UserRecord{
		ID:        id,
		Email:     strings.TrimSpace(stringClaim(claims, "email")),
		CreatedAt: timeClaim(claims, "created_at"),
	}

	// Supabase-style nested metadata takes precedence over top-level claims.
	if meta, ok := claims["user_metadata"].(map[string]any); ok {
		if name := strings.TrimSpace(stringClaim(meta, "full_name")); name != "" {
			u.DisplayNameHint = &name
		}
	}
	if u.DisplayNameHint == nil {
		for _, c := range nameClaims {
			if name := strings.TrimSpace(stringClaim(claims, c)); name != "" {
				u.DisplayNameHint = &name
				break
			}
		}
	}
	return u, nil
}

func stringClaim(claims map[string]any, key string) string {
	v, ok := claims[key].(string)
	if !ok {
		return ""
	}
	return v
}

// timeClaim accepts RFC 3339 strings and unix seconds.
func timeClaim(claims map[string]any, key string) time.Time {
	switch v := claims[key].(type) {
	case string:
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return time.Time{}
		}
		return t
	case float64:
		return time.Unix(int64(v), 0).UTC()
	case int64:
		return time.Unix(v, 0).UTC()
	case int:
		return time.Unix(int64(v), 0).UTC()
	}
	return time.Time{}
}

func (u UserRecord) String() string {
	return fmt.Sprintf("user(%s)", u.ID)
}
