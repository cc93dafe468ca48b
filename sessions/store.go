package sessions

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	internalerrors "github.com/jrsteele09/postureiq-client/internal/errors"
	"github.com/jrsteele09/postureiq-client/internal/metrics"
	"github.com/jrsteele09/postureiq-client/internal/utils"
	"github.com/rs/zerolog/log"
)

// Snapshot is a point-in-time read of the store.
type Snapshot struct {
	Session *Session // nil when signed out
	Loading bool     // true until the first session resolution
}

// Authenticated reports whether a session is present.
func (s Snapshot) Authenticated() bool {
	return s.Session != nil
}

// Listener receives every applied transition, in order.
type Listener func(Snapshot)

// Unsubscribe removes a listener. Calling it more than once is a no-op.
type Unsubscribe func()

// Reader is the read-only view handed to consumers of session state.
type Reader interface {
	Snapshot() Snapshot
	Subscribe(listener Listener) Unsubscribe
}

// Writer is implemented by the store and used only by the auth-event
// subscriber and the explicit sign-in/sign-out flows.
type Writer interface {
	SetSession(session *Session)
}

// Fetcher performs the one-shot session check.
type Fetcher interface {
	GetSession(ctx context.Context) (*Session, error)
}

type listenerEntry struct {
	id      string
	fn      Listener
	removed atomic.Bool
}

// Store holds the current authentication session for one application
// lifetime. Notifications are delivered FIFO: a SetSession issued while
// another goroutine is delivering is queued behind the in-flight ones.
type Store struct {
	fetcher Fetcher
	metrics metrics.Recorder

	mu          sync.Mutex
	session     *Session
	loading     bool
	initialized bool
	closed      bool
	listeners   []*listenerEntry
	queue       []Snapshot
	draining    bool
	cancel      context.CancelFunc
	done        chan struct{}
}

var (
	_ Reader = (*Store)(nil)
	_ Writer = (*Store)(nil)
)

// StoreOption modifies a Store at construction.
type StoreOption func(*Store)

// WithMetrics sets the metrics recorder.
func WithMetrics(r metrics.Recorder) StoreOption {
	return func(s *Store) {
		if r != nil {
			s.metrics = r
		}
	}
}

// NewStore creates a store in the loading state.
func NewStore(fetcher Fetcher, options ...StoreOption) (*Store, error) {
	if fetcher == nil {
		return nil, errors.New("[NewStore] fetcher is required")
	}
	s := &Store{
		fetcher: fetcher,
		metrics: metrics.Nop{},
		loading: true,
		done:    make(chan struct{}),
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// Snapshot returns the current state. The returned session is a copy.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{Session: utils.Clone(s.session), Loading: s.loading}
}

// Subscribe registers listener for all future transitions.
func (s *Store) Subscribe(listener Listener) Unsubscribe {
	entry := &listenerEntry{id: uuid.New().String(), fn: listener}

	s.mu.Lock()
	if s.closed || listener == nil {
		s.mu.Unlock()
		return func() {}
	}
	s.listeners = append(s.listeners, entry)
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			entry.removed.Store(true)
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, l := range s.listeners {
				if l.id == entry.id {
					s.listeners = append(s.listeners[:i], s.listeners[i+1:]...)
					break
				}
			}
		})
	}
}

// Initialize starts the single session check against the provider. It
// returns immediately; Done is closed once the result has been applied.
// A failed check resolves to no session.
func (s *Store) Initialize(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return internalerrors.ErrStoreClosed
	}
	if s.initialized {
		s.mu.Unlock()
		return internalerrors.ErrAlreadyInitialized
	}
	s.initialized = true
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()

	go func() {
		defer close(s.done)
		session, err := s.fetcher.GetSession(ctx)
		switch {
		case ctx.Err() != nil:
			log.Debug().Err(ctx.Err()).Msg("session check cancelled")
			session = nil
		case err != nil:
			log.Warn().Err(err).Msg("session check failed, treating as signed out")
			s.metrics.RecordAuthCheckFailure()
			session = nil
		case session != nil:
			if err := session.Validate(); err != nil {
				log.Warn().Err(err).Msg("rejecting malformed session from session check")
				session = nil
			}
		}
		if s.apply(session) {
			s.metrics.RecordTransition(string(EventInitialSession))
			log.Debug().Bool("authenticated", session != nil).Msg("session check resolved")
		}
	}()
	return nil
}

// Done is closed when the Initialize check has completed.
func (s *Store) Done() <-chan struct{} {
	return s.done
}

// SetSession replaces the current session and resolves loading.
func (s *Store) SetSession(session *Session) {
	s.apply(session)
}

// apply reports whether the write was accepted; writes after Close are dropped.
func (s *Store) apply(session *Session) bool {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		log.Debug().Msg("dropping session write to closed store")
		return false
	}
	s.session = utils.Clone(session)
	s.loading = false
	s.queue = append(s.queue, s.snapshotLocked())
	if s.draining {
		s.mu.Unlock()
		return true
	}

	s.draining = true
	for len(s.queue) > 0 {
		snap := s.queue[0]
		s.queue = s.queue[1:]
		listeners := append([]*listenerEntry(nil), s.listeners...)
		s.mu.Unlock()
		for _, l := range listeners {
			if !l.removed.Load() {
				l.fn(snap)
			}
		}
		s.mu.Lock()
	}
	s.draining = false
	s.mu.Unlock()
	return true
}

// Close tears the store down. In-flight checks are cancelled and any
// result arriving afterwards is ignored.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.listeners = nil
	s.queue = nil
	if s.cancel != nil {
		s.cancel()
	}
	return nil
}
