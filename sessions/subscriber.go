package sessions

import (
	"errors"
	"sync"
	"sync/atomic"

	internalerrors "github.com/jrsteele09/postureiq-client/internal/errors"
	"github.com/jrsteele09/postureiq-client/internal/metrics"
	"github.com/rs/zerolog/log"
)

// Subscription is the provider handle for a registered auth-state callback.
type Subscription interface {
	Unsubscribe()
}

// AuthStateSource is the provider's long-lived auth-event stream.
type AuthStateSource interface {
	OnAuthStateChange(callback func(AuthEvent)) Subscription
}

// Subscriber owns the single subscription to the provider's auth events
// and forwards each one into the store. Events are applied in arrival order.
type Subscriber struct {
	source  AuthStateSource
	store   Writer
	metrics metrics.Recorder

	mu      sync.Mutex
	sub     Subscription
	started bool
	closed  atomic.Bool
}

// SubscriberOption modifies a Subscriber at construction.
type SubscriberOption func(*Subscriber)

// WithSubscriberMetrics sets the metrics recorder.
func WithSubscriberMetrics(r metrics.Recorder) SubscriberOption {
	return func(s *Subscriber) {
		if r != nil {
			s.metrics = r
		}
	}
}

// NewSubscriber binds source to store without registering anything yet.
func NewSubscriber(source AuthStateSource, store Writer, options ...SubscriberOption) (*Subscriber, error) {
	if source == nil {
		return nil, errors.New("[NewSubscriber] auth state source is required")
	}
	if store == nil {
		return nil, errors.New("[NewSubscriber] store is required")
	}
	s := &Subscriber{
		source:  source,
		store:   store,
		metrics: metrics.Nop{},
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// Start registers the provider subscription. It may only succeed once.
func (s *Subscriber) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed.Load() {
		return internalerrors.ErrStoreClosed
	}
	if s.started {
		return internalerrors.ErrAlreadySubscribed
	}
	s.started = true
	s.sub = s.source.OnAuthStateChange(s.handle)
	return nil
}

func (s *Subscriber) handle(event AuthEvent) {
	if s.closed.Load() {
		return
	}

	session := event.Session
	switch {
	case event.Type == EventSignedOut:
		session = nil
	case session != nil:
		if err := session.Validate(); err != nil {
			log.Warn().Err(err).Str("event", string(event.Type)).Msg("rejecting malformed session from provider")
			session = nil
		}
	}

	log.Debug().Str("event", string(event.Type)).Bool("authenticated", session != nil).Msg("auth state change")
	s.store.SetSession(session)
	s.metrics.RecordTransition(string(event.Type))
}

// Close releases the provider subscription. Events delivered after Close
// are dropped. Closing twice is a no-op.
func (s *Subscriber) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sub != nil {
		s.sub.Unsubscribe()
		s.sub = nil
	}
	return nil
}
