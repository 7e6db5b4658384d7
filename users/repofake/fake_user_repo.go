package fakeuserrepo

import (
	"sort"
	"sync"

	"github.com/jrsteele09/hr-dashboard/users"
)

var _ users.UserRepo = (*FakeUserRepo)(nil)

type FakeUserRepo struct {
	users     map[int64]*users.User
	usernames map[string]int64 // username to user id
	nextID    int64
	lock      sync.RWMutex
}

func NewFakeUserRepo() users.UserRepo {
	return &FakeUserRepo{
		users:     make(map[int64]*users.User),
		usernames: make(map[string]int64),
	}
}

func (ur *FakeUserRepo) Create(user *users.User) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	if _, ok := ur.usernames[user.Username]; ok {
		return users.ErrUsernameTaken
	}
	ur.store(user)
	return nil
}

func (ur *FakeUserRepo) Upsert(user *users.User) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	if id, ok := ur.usernames[user.Username]; ok && user.ID == 0 {
		user.ID = id
	}
	ur.store(user)
	return nil
}

// store must be called with the write lock held
func (ur *FakeUserRepo) store(user *users.User) {
	if user.ID == 0 {
		ur.nextID++
		user.ID = ur.nextID
	} else if user.ID > ur.nextID {
		ur.nextID = user.ID
	}
	ur.users[user.ID] = user
	ur.usernames[user.Username] = user.ID
}

func (ur *FakeUserRepo) Delete(username string) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	userID, ok := ur.usernames[username]
	if !ok {
		return users.ErrNotFound
	}
	delete(ur.usernames, username)
	delete(ur.users, userID)
	return nil
}

func (ur *FakeUserRepo) GetByUsername(username string) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	id, ok := ur.usernames[username]
	if !ok {
		return nil, users.ErrNotFound
	}
	return ur.users[id], nil
}

func (ur *FakeUserRepo) GetByID(id int64) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	user, ok := ur.users[id]
	if !ok {
		return nil, users.ErrNotFound
	}
	return user, nil
}

func (ur *FakeUserRepo) List(offset, limit int) ([]*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	userList := make([]*users.User, 0, len(ur.users))
	for _, v := range ur.users {
		userList = append(userList, v)
	}

	sort.Slice(userList, func(i, j int) bool {
		return userList[i].ID < userList[j].ID
	})

	if offset >= len(userList) {
		return []*users.User{}, nil
	}
	end := len(userList)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return userList[offset:end], nil
}

func (ur *FakeUserRepo) SetBlocked(username string, blocked bool) error {
	user, err := ur.GetByUsername(username)
	if err != nil {
		return err
	}
	ur.lock.Lock()
	defer ur.lock.Unlock()
	user.Blocked = blocked
	return nil
}

var _ users.RoleRepo = (*FakeRoleRepo)(nil)

type FakeRoleRepo struct {
	roles map[string]users.Role
	lock  sync.RWMutex
}

func NewFakeRoleRepo() users.RoleRepo {
	return &FakeRoleRepo{roles: make(map[string]users.Role)}
}

func (rr *FakeRoleRepo) Upsert(role users.Role) error {
	rr.lock.Lock()
	defer rr.lock.Unlock()
	rr.roles[role.Name] = role
	return nil
}

func (rr *FakeRoleRepo) GetByName(name string) (users.Role, error) {
	rr.lock.RLock()
	defer rr.lock.RUnlock()
	role, ok := rr.roles[name]
	if !ok {
		return users.Role{}, users.ErrNotFound
	}
	return role, nil
}

func (rr *FakeRoleRepo) List() ([]users.Role, error) {
	rr.lock.RLock()
	defer rr.lock.RUnlock()
	roles := make([]users.Role, 0, len(rr.roles))
	for _, r := range rr.roles {
		roles = append(roles, r)
	}
	sort.Slice(roles, func(i, j int) bool {
		return roles[i].ID < roles[j].ID
	})
	return roles, nil
}
