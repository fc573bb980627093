package dummydb

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/walimuhq/walimu/core"
	"github.com/walimuhq/walimu/core/user"
)

type userRepository struct {
	db *userTable
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *DB) *userRepository {
	return &userRepository{db: db.user}
}

func (repo *userRepository) query() []user.User {
	users := make([]user.User, 0, len(repo.db.table))
	for _, u := range repo.db.table {
		users = append(users, *u)
	}
	return users
}

func (repo *userRepository) CheckUsernameUniqueness(_ context.Context, username, email string, excludedUsers []user.User) error {
	repo.db.RLock()
	defer repo.db.RUnlock()

	excluded := make(map[string]bool, len(excludedUsers))
	for _, u := range excludedUsers {
		excluded[u.ID] = true
	}

	for _, usr := range repo.query() {
		if excluded[usr.ID] {
			continue
		}
		if username != "" && usr.Username == username {
			return user.ErrUsernameExists
		}
		if email != "" && usr.Email == email {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo *userRepository) CreateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	usr.ID = uuid.New().String()
	repo.db.table[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) QueryUsers(_ context.Context, filter *user.QueryFilter, ordering []core.DBOrdering) ([]user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	users := repo.query()

	if filter != nil && !filter.IsEmpty() {
		var filtered []user.User
		for _, usr := range users {
			if matchesFilter(usr, filter) {
				filtered = append(filtered, usr)
			}
		}
		users = filtered
	}

	// only CreatedAt ordering is supported here; enough for the apps
	for _, ord := range ordering {
		if ord.Field == "created_at" {
			asc := ord.Ascending
			sort.Slice(users, func(i, j int) bool {
				if asc {
					return users[i].CreatedAt.Before(users[j].CreatedAt)
				}
				return users[j].CreatedAt.Before(users[i].CreatedAt)
			})
			break
		}
	}
	return users, nil
}

func matchesFilter(usr user.User, filter *user.QueryFilter) bool {
	if filter.Search != "" {
		kw := strings.ToLower(filter.Search)
		if !strings.Contains(strings.ToLower(usr.Name), kw) &&
			!strings.Contains(strings.ToLower(usr.Username), kw) &&
			!strings.Contains(strings.ToLower(usr.Email), kw) {
			return false
		}
	}
	if len(filter.Roles) > 0 {
		var match bool
		for _, role := range filter.Roles {
			if usr.RoleStartsWith(role) {
				match = true
				break
			}
		}
		if !match {
			return false
		}
	}
	if filter.IsActive != nil {
		if usr.IsActive == nil || *usr.IsActive != *filter.IsActive {
			return false
		}
	}
	if !filter.CreatedFrom.IsZero() && usr.CreatedAt.Before(filter.CreatedFrom) {
		return false
	}
	if !filter.CreatedTo.IsZero() && usr.CreatedAt.After(filter.CreatedTo) {
		return false
	}
	return true
}

func (repo *userRepository) GetUser(_ context.Context, filter user.GetFilter) (user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	switch {
	case filter.ID != "":
		if usr, ok := repo.db.table[filter.ID]; ok {
			return *usr, nil
		}
	case filter.Username != "":
		for _, usr := range repo.query() {
			if usr.Username == filter.Username {
				return usr, nil
			}
		}
	case filter.Email != "":
		for _, usr := range repo.query() {
			if usr.Email == filter.Email {
				return usr, nil
			}
		}
	case len(filter.UsernameOrEmail) > 0:
		uname := filter.UsernameOrEmail[0]
		email := uname
		if len(filter.UsernameOrEmail) > 1 {
			email = filter.UsernameOrEmail[1]
		}
		for _, usr := range repo.query() {
			if usr.Username == uname || usr.Email == email {
				return usr, nil
			}
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) UpdateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.table[usr.ID]
	if !ok {
		return user.User{}, user.ErrNotFound
	}

	if usr.Name != "" {
		orig.Name = usr.Name
	}
	if usr.Username != "" {
		orig.Username = usr.Username
	}
	if usr.Email != "" {
		orig.Email = usr.Email
	}
	if usr.IsActive != nil {
		orig.IsActive = usr.IsActive
	}
	if usr.Roles != nil {
		orig.Roles = usr.Roles
	}
	if len(usr.PasswordHash) > 0 {
		orig.PasswordHash = usr.PasswordHash
	}
	if !usr.LastLogin.IsZero() {
		orig.LastLogin = usr.LastLogin
	}
	orig.UpdatedAt = time.Now().UTC()
	return *orig, nil
}

func (repo *userRepository) UpdateOrCreateUser(ctx context.Context, usr user.User) (user.User, error) {
	if usr.ID != "" {
		if updated, err := repo.UpdateUser(ctx, usr); err == nil {
			return updated, nil
		}
	}
	return repo.CreateUser(ctx, usr)
}

func (repo *userRepository) DeleteUsersByID(_ context.Context, ids []string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, id := range ids {
		delete(repo.db.table, id)
	}
	return nil
}
