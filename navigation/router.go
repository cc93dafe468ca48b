package navigation

import (
	"sync"

	"github.com/google/uuid"
)

var _ Router = (*MemoryRouter)(nil)

// MemoryRouter is a headless Router that keeps the current path and a
// history of visited paths. Route-change callbacks run synchronously after
// the path is updated.
type MemoryRouter struct {
	mu        sync.Mutex
	current   string
	history   []string
	listeners map[string]func(string)
	order     []string
}

func NewMemoryRouter(start string) *MemoryRouter {
	if start == "" {
		start = "/"
	}
	return &MemoryRouter{
		current:   start,
		history:   []string{start},
		listeners: make(map[string]func(string)),
	}
}

func (r *MemoryRouter) CurrentPath() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// RedirectTo replaces the current path.
func (r *MemoryRouter) RedirectTo(path string) {
	r.Navigate(path)
}

// Navigate moves to path and notifies route-change listeners.
func (r *MemoryRouter) Navigate(path string) {
	r.mu.Lock()
	r.current = path
	r.history = append(r.history, path)
	fns := make([]func(string), 0, len(r.order))
	for _, id := range r.order {
		if fn, ok := r.listeners[id]; ok {
			fns = append(fns, fn)
		}
	}
	r.mu.Unlock()

	for _, fn := range fns {
		fn(path)
	}
}

func (r *MemoryRouter) OnRouteChange(fn func(path string)) func() {
	id := uuid.New().String()
	r.mu.Lock()
	r.listeners[id] = fn
	r.order = append(r.order, id)
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.listeners, id)
		for i, v := range r.order {
			if v == id {
				r.order = append(r.order[:i], r.order[i+1:]...)
				break
			}
		}
	}
}

// History returns every path visited, oldest first.
func (r *MemoryRouter) History() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.history...)
}
