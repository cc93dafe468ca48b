package activityfakerepo

import (
	"context"
	"sort"
	"sync"

	"github.com/jrsteele09/postureiq-client/activity"
)

var _ activity.Repo = (*FakeActivityRepo)(nil)

type FakeActivityRepo struct {
	records map[string][]activity.Record // userID -> records
	err     error
	lock    sync.RWMutex
}

func NewFakeActivityRepo() *FakeActivityRepo {
	return &FakeActivityRepo{
		records: make(map[string][]activity.Record),
	}
}

func (r *FakeActivityRepo) Append(userID string, dates ...activity.Date) {
	r.lock.Lock()
	defer r.lock.Unlock()

	for _, d := range dates {
		r.records[userID] = append(r.records[userID], activity.Record{UserID: userID, Date: d})
	}
}

// FailWith makes every subsequent ListByUser return err.
func (r *FakeActivityRepo) FailWith(err error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.err = err
}

func (r *FakeActivityRepo) ListByUser(_ context.Context, userID string) ([]activity.Record, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	if r.err != nil {
		return nil, r.err
	}
	out := append([]activity.Record(nil), r.records[userID]...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out, nil
}
