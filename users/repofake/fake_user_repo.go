package fakeuserrepo

import (
	"sync"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-storefront/storemodel"
	"github.com/jrsteele09/go-storefront/users"
)

var _ users.UserRepo = (*FakeUserRepo)(nil)

var ErrNotFound = users.ErrUserNotFound

type FakeUserRepo struct {
	users    map[storemodel.ID]*users.User
	phoneIDs map[string]storemodel.ID // phone to user id
	lock     sync.RWMutex
}

func NewFakeUserRepo() users.UserRepo {
	return &FakeUserRepo{
		users:    make(map[storemodel.ID]*users.User),
		phoneIDs: make(map[string]storemodel.ID),
	}
}

func (ur *FakeUserRepo) Upsert(user *users.User) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	if user.ID.IsZero() {
		user.ID = storemodel.ID(uuid.New().String())
	}
	ur.users[user.ID] = user
	ur.phoneIDs[user.Phone] = user.ID
	return nil
}

func (ur *FakeUserRepo) GetByPhone(phone string) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	id, ok := ur.phoneIDs[phone]
	if !ok {
		return nil, ErrNotFound
	}
	return ur.users[id], nil
}

func (ur *FakeUserRepo) GetByID(id storemodel.ID) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	user, ok := ur.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return user, nil
}
