package oidcprovider

import (
	"errors"
	"sync"
	"time"
)

// FlowState is what a pending authorization-code login needs at callback.
type FlowState struct {
	CodeVerifier string
	Nonce        string
	ReturnURL    string
	CreatedAt    time.Time
}

// FlowRepo stores pending logins keyed by their state parameter.
type FlowRepo interface {
	Upsert(state string, flow *FlowState) error
	Get(state string) (*FlowState, error)
	Delete(state string) error
}

// InMemoryFlowRepo is a thread-safe in-memory FlowRepo.
type InMemoryFlowRepo struct {
	mu     sync.RWMutex
	states map[string]*FlowState
}

var _ FlowRepo = (*InMemoryFlowRepo)(nil)

func NewInMemoryFlowRepo() *InMemoryFlowRepo {
	return &InMemoryFlowRepo{
		states: make(map[string]*FlowState),
	}
}

func (r *InMemoryFlowRepo) Upsert(state string, flow *FlowState) error {
	if state == "" {
		return errors.New("state cannot be empty")
	}
	if flow == nil {
		return errors.New("flow cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Copy to prevent external modifications
	c := *flow
	r.states[state] = &c
	return nil
}

func (r *InMemoryFlowRepo) Get(state string) (*FlowState, error) {
	if state == "" {
		return nil, errors.New("state cannot be empty")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	flow, exists := r.states[state]
	if !exists {
		return nil, errors.New("state not found")
	}
	c := *flow
	return &c, nil
}

func (r *InMemoryFlowRepo) Delete(state string) error {
	if state == "" {
		return errors.New("state cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.states, state)
	return nil
}
