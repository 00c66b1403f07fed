package users

import "github.com/jrsteele09/go-storefront/storemodel"

type UserRepo interface {
	Upsert(user *User) error
	GetByPhone(phone string) (*User, error)
	GetByID(id storemodel.ID) (*User, error)
}
