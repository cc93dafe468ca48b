package identity_test

import (
	"testing"

	"github.com/jrsteele09/postureiq-client/identity"
	"github.com/jrsteele09/postureiq-client/internal/utils"
	"github.com/jrsteele09/postureiq-client/users"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name    string
		user    users.UserRecord
		display string
		initial string
	}{
		{"empty hint uses email local part", users.UserRecord{DisplayNameHint: utils.Ptr(""), Email: "jane@x.com"}, "jane", "J"},
		{"no hint no email", users.UserRecord{Email: ""}, "User", "U"},
		{"hint wins", users.UserRecord{DisplayNameHint: utils.Ptr("ada lovelace"), Email: "ada@x.com"}, "ada lovelace", "A"},
		{"whitespace hint ignored", users.UserRecord{DisplayNameHint: utils.Ptr("   "), Email: "bob@x.com"}, "bob", "B"},
		{"hint is trimmed", users.UserRecord{DisplayNameHint: utils.Ptr("  zoe ")}, "zoe", "Z"},
		{"email without at sign", users.UserRecord{Email: "carol"}, "carol", "C"},
		{"empty local part", users.UserRecord{Email: "@x.com"}, "User", "U"},
		{"first @ splits", users.UserRecord{Email: "dan@home@x.com"}, "dan", "D"},
		{"non ascii initial", users.UserRecord{DisplayNameHint: utils.Ptr("élodie")}, "élodie", "É"},
		{"digit initial", users.UserRecord{Email: "42fit@x.com"}, "42fit", "4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := identity.Resolve(tt.user)
			require.Equal(t, tt.display, got.DisplayName)
			require.Equal(t, tt.initial, got.AvatarInitial)
			require.NotEmpty(t, got.DisplayName)
		})
	}
}

func TestResolveOptional_NilUser(t *testing.T) {
	got := identity.ResolveOptional(nil)
	require.Equal(t, "User", got.DisplayName)
	require.Equal(t, "U", got.AvatarInitial)
}

func TestInitial(t *testing.T) {
	require.Equal(t, "U", identity.Initial(""))
	require.Equal(t, "U", identity.Initial("  \t"))
	require.Equal(t, "S", identity.Initial("sam"))
	require.Equal(t, "Ä", identity.Initial(" ärger"))
}
