package users

import "errors"

var (
	ErrNotFound      = errors.New("user not found")
	ErrUsernameTaken = errors.New("username already exists")
)

type UserRepo interface {
	// Create assigns an ID and stores the user. Fails with ErrUsernameTaken.
	Create(user *User) error
	Upsert(user *User) error
	Delete(username string) error
	GetByUsername(username string) (*User, error)
	GetByID(id int64) (*User, error)
	List(offset, limit int) ([]*User, error)
	SetBlocked(username string, blocked bool) error
}

// RoleRepo stores the role catalogue users are assigned from
type RoleRepo interface {
	Upsert(role Role) error
	GetByName(name string) (Role, error)
	List() ([]Role, error)
}
