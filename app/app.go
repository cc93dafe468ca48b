// Package app composes the session store, auth-event subscriber, navigation
// guard, menu and profile data into the views a client renders.
package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jrsteele09/postureiq-client/activity"
	internalerrors "github.com/jrsteele09/postureiq-client/internal/errors"
	"github.com/jrsteele09/postureiq-client/internal/metrics"
	"github.com/jrsteele09/postureiq-client/menu"
	"github.com/jrsteele09/postureiq-client/navigation"
	"github.com/jrsteele09/postureiq-client/provider"
	"github.com/jrsteele09/postureiq-client/sessions"
	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// App is one client lifetime. Create it with New, call Start once, and
// Close on teardown.
type App struct {
	provider provider.IdentityProvider
	router   navigation.Router

	store      *sessions.Store
	subscriber *sessions.Subscriber
	guard      *navigation.Guard
	menu       *menu.Controller
	loader     *activity.Loader

	metrics     metrics.Recorder
	nowTime     func() time.Time
	location    *time.Location
	loginPath   string
	homePath    string
	protected   []string
	menuOptions []menu.Option

	mu           sync.Mutex
	started      bool
	closed       bool
	removeRoutes func()
}

type Option func(*App)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) Option {
	return func(a *App) {
		if nowFunc != nil {
			a.nowTime = nowFunc
		}
	}
}

// WithLocation sets the zone whose calendar decides "today" for the heatmap.
// The default is UTC.
func WithLocation(loc *time.Location) Option {
	return func(a *App) {
		if loc != nil {
			a.location = loc
		}
	}
}

func WithMetrics(r metrics.Recorder) Option {
	return func(a *App) {
		if r != nil {
			a.metrics = r
		}
	}
}

// WithPaths overrides the login, home and protected paths.
func WithPaths(loginPath, homePath string, protected ...string) Option {
	return func(a *App) {
		if loginPath != "" {
			a.loginPath = loginPath
		}
		if homePath != "" {
			a.homePath = homePath
		}
		if len(protected) > 0 {
			a.protected = append([]string(nil), protected...)
		}
	}
}

func WithMenuOptions(options ...menu.Option) Option {
	return func(a *App) {
		a.menuOptions = append(a.menuOptions, options...)
	}
}

// New wires the components; nothing talks to the provider until Start.
func New(p provider.IdentityProvider, router navigation.Router, options ...Option) (*App, error) {
	if p == nil {
		return nil, errors.New("[app.New] identity provider is required")
	}
	if router == nil {
		return nil, errors.New("[app.New] router is required")
	}

	a := &App{
		provider:  p,
		router:    router,
		metrics:   metrics.Nop{},
		nowTime:   time.Now,
		location:  time.UTC,
		loginPath: navigation.DefaultLoginPath,
		homePath:  "/",
		protected: []string{menu.ProfilePath, "/Dashboard", menu.HistoryPath, menu.SettingsPath},
	}
	for _, opt := range options {
		opt(a)
	}

	var err error
	if a.store, err = sessions.NewStore(p, sessions.WithMetrics(a.metrics)); err != nil {
		return nil, err
	}
	if a.subscriber, err = sessions.NewSubscriber(p, a.store, sessions.WithSubscriberMetrics(a.metrics)); err != nil {
		return nil, err
	}
	a.guard, err = navigation.NewGuard(a.store, router,
		navigation.WithLoginPath(a.loginPath),
		navigation.WithProtectedPaths(a.protected...),
		navigation.WithMetrics(a.metrics),
	)
	if err != nil {
		return nil, err
	}
	if a.loader, err = activity.NewLoader(p, a.metrics); err != nil {
		return nil, err
	}
	a.menu = menu.NewController(a.menuOptions...)
	return a, nil
}

// Start subscribes to provider events before running the session check so
// that no event is missed while the check is in flight.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return internalerrors.ErrStoreClosed
	}
	if a.started {
		return internalerrors.ErrAlreadyInitialized
	}
	a.started = true

	if err := a.subscriber.Start(); err != nil {
		return pkgerrors.Wrap(err, "[App.Start] failed to subscribe to auth events")
	}
	if err := a.guard.Start(); err != nil {
		return pkgerrors.Wrap(err, "[App.Start] failed to start navigation guard")
	}
	a.removeRoutes = a.router.OnRouteChange(func(path string) {
		a.menu.RouteChanged(path)
	})
	if err := a.store.Initialize(ctx); err != nil {
		return pkgerrors.Wrap(err, "[App.Start] failed to start session check")
	}
	log.Debug().Str("path", a.router.CurrentPath()).Msg("client started")
	return nil
}

// Session is the read-only view of session state.
func (a *App) Session() sessions.Reader {
	return a.store
}

// Ready is closed once the initial session check has been applied.
func (a *App) Ready() <-chan struct{} {
	return a.store.Done()
}

func (a *App) Menu() *menu.Controller {
	return a.menu
}

// Decide reports what the gate says about rendering path right now.
func (a *App) Decide(path string) navigation.Decision {
	return a.guard.Decide(path)
}

// Close releases the provider subscription and tears the store down.
// In-flight provider calls that finish afterwards are ignored.
func (a *App) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	removeRoutes := a.removeRoutes
	a.removeRoutes = nil
	a.mu.Unlock()

	if removeRoutes != nil {
		removeRoutes()
	}
	return errors.Join(a.subscriber.Close(), a.guard.Close(), a.store.Close())
}

func (a *App) today() activity.Date {
	return activity.DateOf(a.nowTime().In(a.location))
}
