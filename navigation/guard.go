package navigation

import (
	"errors"
	"sync"
	"sync/atomic"

	internalerrors "github.com/jrsteele09/postureiq-client/internal/errors"
	"github.com/jrsteele09/postureiq-client/internal/metrics"
	"github.com/jrsteele09/postureiq-client/sessions"
	"github.com/rs/zerolog/log"
)

// Router is the navigation collaborator.
type Router interface {
	RedirectTo(path string)
	CurrentPath() string
	// OnRouteChange registers fn for route changes and returns its removal.
	OnRouteChange(fn func(path string)) (remove func())
}

// Guard re-evaluates the gate on every store notification and route change
// and redirects away from protected paths once the session is known to be
// absent.
type Guard struct {
	reader    sessions.Reader
	router    Router
	loginPath string
	protected []string
	metrics   metrics.Recorder

	mu           sync.Mutex
	started      bool
	closed       atomic.Bool
	unsubscribe  sessions.Unsubscribe
	removeRoutes func()
}

// GuardOption modifies a Guard at construction.
type GuardOption func(*Guard)

func WithLoginPath(path string) GuardOption {
	return func(g *Guard) {
		if path != "" {
			g.loginPath = path
		}
	}
}

func WithProtectedPaths(paths ...string) GuardOption {
	return func(g *Guard) {
		g.protected = append([]string(nil), paths...)
	}
}

func WithMetrics(r metrics.Recorder) GuardOption {
	return func(g *Guard) {
		if r != nil {
			g.metrics = r
		}
	}
}

func NewGuard(reader sessions.Reader, router Router, options ...GuardOption) (*Guard, error) {
	if reader == nil {
		return nil, errors.New("[NewGuard] session reader is required")
	}
	if router == nil {
		return nil, errors.New("[NewGuard] router is required")
	}
	g := &Guard{
		reader:    reader,
		router:    router,
		loginPath: DefaultLoginPath,
		metrics:   metrics.Nop{},
	}
	for _, opt := range options {
		opt(g)
	}
	return g, nil
}

// Start subscribes to the store and the router and evaluates the current
// state once.
func (g *Guard) Start() error {
	g.mu.Lock()
	if g.closed.Load() {
		g.mu.Unlock()
		return internalerrors.ErrStoreClosed
	}
	if g.started {
		g.mu.Unlock()
		return internalerrors.ErrAlreadySubscribed
	}
	g.started = true
	g.unsubscribe = g.reader.Subscribe(func(snap sessions.Snapshot) {
		g.check(snap, g.router.CurrentPath())
	})
	g.removeRoutes = g.router.OnRouteChange(func(path string) {
		g.check(g.reader.Snapshot(), path)
	})
	g.mu.Unlock()

	g.check(g.reader.Snapshot(), g.router.CurrentPath())
	return nil
}

// Decide evaluates the gate for path without acting on it.
func (g *Guard) Decide(path string) Decision {
	if !IsProtected(path, g.protected) {
		return Decision{Action: Allow}
	}
	return Evaluate(g.reader.Snapshot(), g.loginPath)
}

func (g *Guard) check(snap sessions.Snapshot, path string) {
	if g.closed.Load() || !IsProtected(path, g.protected) {
		return
	}

	d := Evaluate(snap, g.loginPath)
	if d.Action != Redirect || normalize(path) == normalize(d.Path) {
		return
	}
	log.Info().Str("from", path).Str("to", d.Path).Msg("redirecting signed out user")
	g.metrics.RecordRedirect(d.Path)
	g.router.RedirectTo(d.Path)
}

// Close removes both subscriptions. Closing twice is a no-op.
func (g *Guard) Close() error {
	if g.closed.Swap(true) {
		return nil
	}
	g.mu.Lock()
	unsubscribe, removeRoutes := g.unsubscribe, g.removeRoutes
	g.unsubscribe, g.removeRoutes = nil, nil
	g.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	if removeRoutes != nil {
		removeRoutes()
	}
	return nil
}
