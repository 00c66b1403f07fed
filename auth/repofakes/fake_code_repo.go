package fakecoderepo

import (
	"sync"

	"github.com/jrsteele09/go-storefront/auth"
)

var _ auth.CodeRepo = (*FakeCodeRepo)(nil)

type FakeCodeRepo struct {
	entries map[string]auth.CodeEntry
	lock    sync.RWMutex
}

func NewFakeCodeRepo() auth.CodeRepo {
	return &FakeCodeRepo{entries: make(map[string]auth.CodeEntry)}
}

func (cr *FakeCodeRepo) Upsert(entry *auth.CodeEntry) error {
	cr.lock.Lock()
	defer cr.lock.Unlock()
	cr.entries[entry.Phone] = *entry
	return nil
}

func (cr *FakeCodeRepo) Get(phone string) (*auth.CodeEntry, error) {
	cr.lock.RLock()
	defer cr.lock.RUnlock()
	entry, ok := cr.entries[phone]
	if !ok {
		return nil, auth.ErrCodeNotFound
	}
	return &entry, nil
}

func (cr *FakeCodeRepo) Delete(phone string) error {
	cr.lock.Lock()
	defer cr.lock.Unlock()
	delete(cr.entries, phone)
	return nil
}
