package sqlxrepos

import (
	"context"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/coursehub/core"
	"github.com/trezcool/coursehub/core/user"
)

const userColumns = "id, name, email, role, password_hash, created_at, updated_at"

type userRepository struct {
	db core.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db core.DB) *userRepository {
	return &userRepository{db: db}
}

func (repo userRepository) CheckEmailUniqueness(ctx context.Context, email string, excludedIDs ...int) error {
	excl := make([]int64, 0, len(excludedIDs))
	for _, id := range excludedIDs {
		excl = append(excl, int64(id))
	}

	var exists bool
	q := "SELECT EXISTS (SELECT 1 FROM users WHERE email = $1 AND NOT (id = ANY($2)))"
	if err := repo.db.GetContext(ctx, &exists, q, email, pq.Array(excl)); err != nil {
		return errors.Wrap(err, "checking user uniqueness")
	}
	if exists {
		return user.ErrEmailExists
	}
	return nil
}

func (repo userRepository) CountUsers(ctx context.Context) (int, error) {
	var count int
	if err := repo.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM users"); err != nil {
		return 0, errors.Wrap(err, "counting users")
	}
	return count, nil
}

func (repo userRepository) QueryUsers(ctx context.Context, limit, offset int) ([]user.User, error) {
	q, args := conditions{}.paginate("SELECT "+userColumns+" FROM users", limit, offset)
	users := make([]user.User, 0, limit)
	if err := repo.db.SelectContext(ctx, &users, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	return users, nil
}

func (repo userRepository) GetUserByID(ctx context.Context, id int) (user.User, error) {
	var usr user.User
	err := repo.db.GetContext(ctx, &usr, "SELECT "+userColumns+" FROM users WHERE id = $1", id)
	if err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "getting user by id")
	}
	return usr, nil
}

func (repo userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	var usr user.User
	err := repo.db.GetContext(ctx, &usr, "SELECT "+userColumns+" FROM users WHERE email = $1", email)
	if err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "getting user by email")
	}
	return usr, nil
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	q := "INSERT INTO users (name, email, role, password_hash, created_at, updated_at) " +
		"VALUES ($1, $2, $3, $4, $5, $6) RETURNING id"
	err := repo.db.GetContext(ctx, &usr.ID, q, usr.Name, usr.Email, usr.Role, usr.PasswordHash, usr.CreatedAt, usr.UpdatedAt)
	if err != nil {
		if pgErrCode(err) == pgUniqueViolation {
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo userRepository) UpdateUser(ctx context.Context, id int, changes core.Changes) (bool, error) {
	set, args := user.Fields.SetClause(changes, 1)
	if set != "" {
		set += ", "
	}
	n := len(args)
	q := fmt.Sprintf("UPDATE users SET %supdated_at = $%d WHERE id = $%d", set, n+1, n+2)
	args = append(args, time.Now().UTC(), id)

	res, err := repo.db.ExecContext(ctx, q, args...)
	if pgErrCode(err) == pgUniqueViolation {
		return false, user.ErrEmailExists
	}
	return affected(res, err, "updating user")
}

func (repo userRepository) DeleteUser(ctx context.Context, id int) (bool, error) {
	res, err := repo.db.ExecContext(ctx, "DELETE FROM users WHERE id = $1", id)
	if pgErrCode(err) == pgForeignKeyViolation {
		return false, errors.Wrap(core.ErrInconsistentReference, "user still teaches courses")
	}
	return affected(res, err, "deleting user")
}
