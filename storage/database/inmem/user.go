package inmemdb

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/coursehub/core"
	"github.com/trezcool/coursehub/core/user"
)

type userRepository struct {
	db *DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *DB) *userRepository {
	return &userRepository{db: db}
}

// emailTaken must be called with the lock held.
func (repo *userRepository) emailTaken(email string, excludedIDs ...int) bool {
	excluded := make(map[int]bool, len(excludedIDs))
	for _, id := range excludedIDs {
		excluded[id] = true
	}
	for _, usr := range repo.db.users {
		if usr.Email == email && !excluded[usr.ID] {
			return true
		}
	}
	return false
}

func (repo *userRepository) CheckEmailUniqueness(_ context.Context, email string, excludedIDs ...int) error {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if repo.emailTaken(email, excludedIDs...) {
		return user.ErrEmailExists
	}
	return nil
}

func (repo *userRepository) CountUsers(context.Context) (int, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return len(repo.db.users), nil
}

func (repo *userRepository) QueryUsers(_ context.Context, limit, offset int) ([]user.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	users := make([]user.User, 0, len(repo.db.users))
	for _, id := range sortedKeys(repo.db.users) {
		users = append(users, repo.db.users[id])
	}
	return window(users, limit, offset), nil
}

func (repo *userRepository) GetUserByID(_ context.Context, id int) (user.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if usr, ok := repo.db.users[id]; ok {
		return usr, nil
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) GetUserByEmail(_ context.Context, email string) (user.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, usr := range repo.db.users {
		if usr.Email == email {
			return usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) CreateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if repo.emailTaken(usr.Email) {
		return user.User{}, user.ErrEmailExists
	}
	usr.ID = repo.db.nextPK("users")
	repo.db.users[usr.ID] = usr
	return usr, nil
}

func (repo *userRepository) UpdateUser(_ context.Context, id int, changes core.Changes) (bool, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	usr, ok := repo.db.users[id]
	if !ok {
		return false, nil
	}
	for name, val := range user.Fields.Whitelist(changes) {
		var valid bool
		switch name {
		case "name":
			usr.Name, valid = val.(string)
		case "email":
			usr.Email, valid = val.(string)
			if valid && repo.emailTaken(usr.Email, id) {
				return false, user.ErrEmailExists
			}
		case "role":
			usr.Role, valid = val.(user.Role)
		case "password":
			usr.PasswordHash, valid = val.([]byte)
		}
		if !valid {
			return false, badValue(name, val)
		}
	}
	usr.UpdatedAt = time.Now().UTC()
	repo.db.users[id] = usr
	return true, nil
}

// DeleteUser refuses to delete an instructor who still teaches; a student's enrollments & submissions go with them.
func (repo *userRepository) DeleteUser(_ context.Context, id int) (bool, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.users[id]; !ok {
		return false, nil
	}
	for _, c := range repo.db.courses {
		if c.InstructorID == id {
			return false, errors.Wrap(core.ErrInconsistentReference, "user still teaches courses")
		}
	}
	for key := range repo.db.enrollments {
		if key.studentID == id {
			delete(repo.db.enrollments, key)
		}
	}
	for sid, s := range repo.db.submissions {
		if s.StudentID == id {
			delete(repo.db.submissions, sid)
		}
	}
	delete(repo.db.users, id)
	return true, nil
}
