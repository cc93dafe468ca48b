// Package fakeprovider is a scriptable in-memory IdentityProvider.
package fakeprovider

import (
	"context"
	"sync"

	"github.com/jrsteele09/postureiq-client/activity"
	activityfakerepo "github.com/jrsteele09/postureiq-client/activity/repofake"
	"github.com/jrsteele09/postureiq-client/internal/utils"
	"github.com/jrsteele09/postureiq-client/provider"
	"github.com/jrsteele09/postureiq-client/sessions"
	"github.com/jrsteele09/postureiq-client/users"
)

var _ provider.IdentityProvider = (*Provider)(nil)

// Provider answers from fields set by the test. GetSession can be held
// with HoldSessions to exercise slow checks.
type Provider struct {
	provider.Broadcaster
	Activity *activityfakerepo.FakeActivityRepo

	lock         sync.RWMutex
	session      *sessions.Session
	user         *users.UserRecord
	sessionErr   error
	userErr      error
	signOutErr   error
	gate         chan struct{}
	signOutGate  chan struct{}
	sessionCalls int
	userCalls    int
	signOutCalls int
}

func New() *Provider {
	return &Provider{Activity: activityfakerepo.NewFakeActivityRepo()}
}

// SignIn sets the current session and user and emits SIGNED_IN.
func (p *Provider) SignIn(session *sessions.Session, user *users.UserRecord) {
	p.lock.Lock()
	p.session = utils.Clone(session)
	p.user = utils.Clone(user)
	p.lock.Unlock()

	p.Emit(sessions.AuthEvent{Type: sessions.EventSignedIn, Session: utils.Clone(session)})
}

// SetSession changes what GetSession returns without emitting anything.
func (p *Provider) SetSession(session *sessions.Session) {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.session = utils.Clone(session)
}

func (p *Provider) SetUser(user *users.UserRecord) {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.user = utils.Clone(user)
}

// Fail makes the named calls return the given errors. nil clears.
func (p *Provider) Fail(sessionErr, userErr, signOutErr error) {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.sessionErr, p.userErr, p.signOutErr = sessionErr, userErr, signOutErr
}

// HoldSessions blocks GetSession until ReleaseSessions is called.
func (p *Provider) HoldSessions() {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.gate = make(chan struct{})
}

func (p *Provider) ReleaseSessions() {
	p.lock.Lock()
	defer p.lock.Unlock()
	if p.gate != nil {
		close(p.gate)
		p.gate = nil
	}
}

// HoldSignOut blocks SignOut until ReleaseSignOut is called.
func (p *Provider) HoldSignOut() {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.signOutGate = make(chan struct{})
}

func (p *Provider) ReleaseSignOut() {
	p.lock.Lock()
	defer p.lock.Unlock()
	if p.signOutGate != nil {
		close(p.signOutGate)
		p.signOutGate = nil
	}
}

func (p *Provider) GetSession(ctx context.Context) (*sessions.Session, error) {
	p.lock.Lock()
	p.sessionCalls++
	gate := p.gate
	p.lock.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	p.lock.RLock()
	defer p.lock.RUnlock()
	if p.sessionErr != nil {
		return nil, p.sessionErr
	}
	return utils.Clone(p.session), nil
}

func (p *Provider) GetUser(_ context.Context) (*users.UserRecord, error) {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.userCalls++
	if p.userErr != nil {
		return nil, p.userErr
	}
	if p.session == nil {
		return nil, nil
	}
	return utils.Clone(p.user), nil
}

// SignOut clears the session and emits SIGNED_OUT unless a sign-out error
// is scripted.
func (p *Provider) SignOut(ctx context.Context) error {
	p.lock.Lock()
	p.signOutCalls++
	gate := p.signOutGate
	p.lock.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	p.lock.Lock()
	if err := p.signOutErr; err != nil {
		p.lock.Unlock()
		return err
	}
	p.session = nil
	p.user = nil
	p.lock.Unlock()

	p.Emit(sessions.AuthEvent{Type: sessions.EventSignedOut})
	return nil
}

func (p *Provider) QueryActivity(ctx context.Context, userID string) ([]activity.Record, error) {
	return p.Activity.ListByUser(ctx, userID)
}

// Calls returns how many times GetSession, GetUser and SignOut ran.
func (p *Provider) Calls() (session, user, signOut int) {
	p.lock.RLock()
	defer p.lock.RUnlock()
	return p.sessionCalls, p.userCalls, p.signOutCalls
}
