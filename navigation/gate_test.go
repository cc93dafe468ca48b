package navigation_test

import (
	"testing"
	"time"

	"github.com/jrsteele09/postureiq-client/navigation"
	"github.com/jrsteele09/postureiq-client/sessions"
	"github.com/stretchr/testify/require"
)

func session() *sessions.Session {
	return &sessions.Session{
		ID:          "s1",
		AccessToken: "token",
		UserID:      "user-1",
		ExpiresAt:   time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name string
		snap sessions.Snapshot
		want navigation.Decision
	}{
		{"loading without session", sessions.Snapshot{Loading: true}, navigation.Decision{Action: navigation.Allow, Pending: true}},
		{"loading with session", sessions.Snapshot{Loading: true, Session: session()}, navigation.Decision{Action: navigation.Allow, Pending: true}},
		{"signed out", sessions.Snapshot{}, navigation.Decision{Action: navigation.Redirect, Path: "/Login"}},
		{"signed in", sessions.Snapshot{Session: session()}, navigation.Decision{Action: navigation.Allow}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, navigation.Evaluate(tt.snap, "/Login"))
		})
	}

	require.Equal(t, navigation.DefaultLoginPath, navigation.Evaluate(sessions.Snapshot{}, "").Path)
}

func TestIsProtected(t *testing.T) {
	protected := []string{"/Profile", "/history/"}

	require.True(t, navigation.IsProtected("/Profile", protected))
	require.True(t, navigation.IsProtected("/Profile/", protected))
	require.True(t, navigation.IsProtected("/Profile/edit?tab=1", protected))
	require.True(t, navigation.IsProtected("/history", protected))
	require.False(t, navigation.IsProtected("/ProfileX", protected))
	require.False(t, navigation.IsProtected("/", protected))
	require.False(t, navigation.IsProtected("/Login", protected))
	require.False(t, navigation.IsProtected("/anything", nil))
}

func TestAction_String(t *testing.T) {
	require.Equal(t, "allow", navigation.Allow.String())
	require.Equal(t, "redirect", navigation.Redirect.String())
}
