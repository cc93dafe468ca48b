package tokenfakerepo

import (
	"context"
	"sync"

	internalerrors "github.com/jrsteele09/postureiq-client/internal/errors"
	"github.com/jrsteele09/postureiq-client/token"
)

var _ token.Repo = (*FakeTokenRepo)(nil)

type FakeTokenRepo struct {
	creds *token.Credentials
	saves int
	lock  sync.RWMutex
}

func NewFakeTokenRepo() *FakeTokenRepo {
	return &FakeTokenRepo{}
}

func (tr *FakeTokenRepo) Save(_ context.Context, creds *token.Credentials) error {
	tr.lock.Lock()
	defer tr.lock.Unlock()

	c := *creds
	tr.creds = &c
	tr.saves++
	return nil
}

func (tr *FakeTokenRepo) Load(_ context.Context) (*token.Credentials, error) {
	tr.lock.RLock()
	defer tr.lock.RUnlock()

	if tr.creds == nil {
		return nil, internalerrors.ErrNotFound
	}
	c := *tr.creds
	return &c, nil
}

func (tr *FakeTokenRepo) Delete(_ context.Context) error {
	tr.lock.Lock()
	defer tr.lock.Unlock()
	tr.creds = nil
	return nil
}

// Saves returns how many times Save has been called.
func (tr *FakeTokenRepo) Saves() int {
	tr.lock.RLock()
	defer tr.lock.RUnlock()
	return tr.saves
}
