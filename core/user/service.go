package user

import (
	"context"
	"errors"
	"time"

	"github.com/trezcool/coursehub/core"
	"github.com/trezcool/coursehub/core/pagination"
)

var (
	// errors
	ErrNotFound           = core.NewNotFoundError("user")
	ErrEmailExists        = errors.New("a user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

type (
	Repository interface {
		CheckEmailUniqueness(ctx context.Context, email string, excludedIDs ...int) error
		CountUsers(ctx context.Context) (int, error)
		QueryUsers(ctx context.Context, limit, offset int) ([]User, error)
		GetUserByID(ctx context.Context, id int) (User, error)
		GetUserByEmail(ctx context.Context, email string) (User, error)
		CreateUser(ctx context.Context, usr User) (User, error)
		// UpdateUser only writes the whitelisted Fields; it reports whether a row was affected.
		UpdateUser(ctx context.Context, id int, changes core.Changes) (bool, error)
		DeleteUser(ctx context.Context, id int) (bool, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// emailTaken turns ErrEmailExists into a validation error on the email field.
func emailTaken(err error) error {
	if err == ErrEmailExists {
		return core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
	}
	return err
}

func (svc *Service) checkUniqueness(ctx context.Context, email string, exclIDs ...int) error {
	return emailTaken(svc.repo.CheckEmailUniqueness(ctx, email, exclIDs...))
}

func (svc *Service) Create(ctx context.Context, nu NewUser) (User, error) {
	now := time.Now().UTC()
	usr := User{
		Name:      nu.Name,
		Email:     nu.Email,
		Role:      nu.GetRole(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, err
	}
	created, err := svc.repo.CreateUser(ctx, usr)
	if err != nil {
		return User{}, emailTaken(err)
	}
	return created, nil
}

// Authenticate finds the User with the given email and checks their password.
func (svc *Service) Authenticate(ctx context.Context, email, pwd string) (User, error) {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		if err == ErrNotFound {
			return User{}, ErrInvalidCredentials
		}
		return User{}, err
	}
	if err = usr.CheckPassword(pwd); err != nil {
		return User{}, ErrInvalidCredentials
	}
	return usr, nil
}

func (svc *Service) Count(ctx context.Context) (int, error) {
	return svc.repo.CountUsers(ctx)
}

// Page returns the requested page of Users, ordered by ID.
func (svc *Service) Page(ctx context.Context, requested int) ([]User, pagination.Page, error) {
	count, err := svc.repo.CountUsers(ctx)
	if err != nil {
		return nil, pagination.Page{}, err
	}
	pg := pagination.New(count, requested, pagination.DefaultSize)
	users, err := svc.repo.QueryUsers(ctx, pg.Size, pg.Offset)
	return users, pg, err
}

func (svc *Service) GetByID(ctx context.Context, id int) (User, error) {
	return svc.repo.GetUserByID(ctx, id)
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUserByEmail(ctx, core.CleanString(email, true /* lower */))
}

// SetPassword hashes and saves a new password for the User.
func (svc *Service) SetPassword(ctx context.Context, usr User, pwd string) error {
	if err := usr.SetPassword(pwd); err != nil {
		return err
	}
	ok, err := svc.repo.UpdateUser(ctx, usr.ID, core.Changes{"password": usr.PasswordHash})
	if err != nil {
		return emailTaken(err)
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

func (svc *Service) Update(ctx context.Context, id int, changes core.Changes) (bool, error) {
	ok, err := svc.repo.UpdateUser(ctx, id, changes)
	return ok, emailTaken(err)
}

func (svc *Service) Delete(ctx context.Context, id int) (bool, error) {
	return svc.repo.DeleteUser(ctx, id)
}
