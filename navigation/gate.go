// Package navigation decides whether a protected page may render and drives
// the router when it may not.
package navigation

import (
	"strings"

	"github.com/jrsteele09/postureiq-client/sessions"
)

// DefaultLoginPath is where signed-out users are sent.
const DefaultLoginPath = "/Login"

type Action int

const (
	Allow Action = iota
	Redirect
)

func (a Action) String() string {
	switch a {
	case Allow:
		return "allow"
	case Redirect:
		return "redirect"
	default:
		return "unknown"
	}
}

// Decision is the gate's verdict for one snapshot.
type Decision struct {
	Action Action
	// Path is the redirect target; empty unless Action is Redirect.
	Path string
	// Pending asks the view to render a placeholder while the session check runs.
	Pending bool
}

// Evaluate never redirects while the snapshot is loading.
func Evaluate(snap sessions.Snapshot, loginPath string) Decision {
	if snap.Loading {
		return Decision{Action: Allow, Pending: true}
	}
	if snap.Session == nil {
		if loginPath == "" {
			loginPath = DefaultLoginPath
		}
		return Decision{Action: Redirect, Path: loginPath}
	}
	return Decision{Action: Allow}
}

// IsProtected reports whether path equals, or is nested under, one of protected.
func IsProtected(path string, protected []string) bool {
	path = normalize(path)
	for _, p := range protected {
		p = normalize(p)
		if p == "" {
			continue
		}
		if path == p || (p != "/" && strings.HasPrefix(path, p+"/")) {
			return true
		}
	}
	return false
}

func normalize(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	return path
}
