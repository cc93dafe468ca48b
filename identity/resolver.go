// Package identity derives what the UI shows for the signed-in user.
package identity

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/jrsteele09/postureiq-client/internal/utils"
	"github.com/jrsteele09/postureiq-client/users"
)

const (
	fallbackName    = "User"
	fallbackInitial = "U"
)

// Identity is the display name and avatar initial for a user.
type Identity struct {
	DisplayName   string
	AvatarInitial string
}

// Resolve picks the display name hint, then the email local part, then
// "User". The result is never empty.
func Resolve(u users.UserRecord) Identity {
	name := strings.TrimSpace(utils.Value(u.DisplayNameHint))
	if name == "" {
		name = strings.TrimSpace(localPart(u.Email))
	}
	if name == "" {
		name = fallbackName
	}
	return Identity{DisplayName: name, AvatarInitial: Initial(name)}
}

// ResolveOptional resolves a possibly missing user record.
func ResolveOptional(u *users.UserRecord) Identity {
	if u == nil {
		return Identity{DisplayName: fallbackName, AvatarInitial: fallbackInitial}
	}
	return Resolve(*u)
}

// Initial upper-cases the first character of name, or "U" when name is blank.
func Initial(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return fallbackInitial
	}
	r, _ := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError {
		return fallbackInitial
	}
	return string(unicode.ToUpper(r))
}

func localPart(email string) string {
	local, _, _ := strings.Cut(email, "@")
	return local
}
