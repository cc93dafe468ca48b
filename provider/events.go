package provider

import (
	"sync"

	"github.com/google/uuid"
	"github.com/jrsteele09/postureiq-client/sessions"
)

// Broadcaster fans auth events out to registered callbacks in registration
// order. Providers embed it to implement sessions.AuthStateSource.
type Broadcaster struct {
	mu    sync.Mutex
	subs  map[string]func(sessions.AuthEvent)
	order []string
}

var _ sessions.AuthStateSource = (*Broadcaster)(nil)

type subscription struct {
	once   sync.Once
	remove func()
}

func (s *subscription) Unsubscribe() {
	s.once.Do(s.remove)
}

func (b *Broadcaster) OnAuthStateChange(callback func(sessions.AuthEvent)) sessions.Subscription {
	id := uuid.New().String()

	b.mu.Lock()
	if b.subs == nil {
		b.subs = make(map[string]func(sessions.AuthEvent))
	}
	b.subs[id] = callback
	b.order = append(b.order, id)
	b.mu.Unlock()

	return &subscription{remove: func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs, id)
		for i, v := range b.order {
			if v == id {
				b.order = append(b.order[:i], b.order[i+1:]...)
				break
			}
		}
	}}
}

// Emit delivers ev to every current subscriber on the calling goroutine.
func (b *Broadcaster) Emit(ev sessions.AuthEvent) {
	b.mu.Lock()
	callbacks := make([]func(sessions.AuthEvent), 0, len(b.order))
	for _, id := range b.order {
		callbacks = append(callbacks, b.subs[id])
	}
	b.mu.Unlock()

	for _, cb := range callbacks {
		cb(ev)
	}
}

// Subscribers returns the number of active subscriptions.
func (b *Broadcaster) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
