package fakesessionrepo

import (
	"context"
	"sync"

	"github.com/jrsteele09/go-storefront/sessions"
)

var _ sessions.Repo = (*FakeRecordRepo)(nil)

// FakeRecordRepo keeps the encoded record in memory. Several stores sharing one
// FakeRecordRepo behave like browser tabs sharing local storage.
type FakeRecordRepo struct {
	data       []byte
	lock       sync.RWMutex
	clearCalls int
	saveErr    error
}

func NewFakeRecordRepo() *FakeRecordRepo {
	return &FakeRecordRepo{}
}

func (r *FakeRecordRepo) Load(_ context.Context) (*sessions.Record, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	if r.data == nil {
		return nil, nil
	}
	return sessions.DecodeRecord(r.data)
}

func (r *FakeRecordRepo) Save(_ context.Context, record sessions.Record) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	data, err := sessions.EncodeRecord(record)
	if err != nil {
		return err
	}
	r.data = data
	return nil
}

func (r *FakeRecordRepo) Clear(_ context.Context) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.clearCalls++
	r.data = nil
	return nil
}

// SetRaw stores raw bytes, bypassing encoding. Tests use it to plant corrupt records.
func (r *FakeRecordRepo) SetRaw(data []byte) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.data = data
}

// Raw returns the stored bytes, or nil when nothing is stored.
func (r *FakeRecordRepo) Raw() []byte {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return r.data
}

// ClearCalls returns how many times Clear was called.
func (r *FakeRecordRepo) ClearCalls() int {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return r.clearCalls
}

// FailSaves makes every subsequent Save return err.
func (r *FakeRecordRepo) FailSaves(err error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.saveErr = err
}
