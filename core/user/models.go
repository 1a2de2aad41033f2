package user

import (
	"context"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/coursehub/core"
)

// Role is a closed enum; values outside of it are never granted anything.
type Role int

const (
	RoleStudent Role = iota
	RoleInstructor
	RoleAdmin
)

var (
	AllRoles  = []Role{RoleStudent, RoleInstructor, RoleAdmin}
	roleNames = map[Role]string{
		RoleStudent:    "student",
		RoleInstructor: "instructor",
		RoleAdmin:      "admin",
	}
)

func (r Role) Valid() bool {
	_, ok := roleNames[r]
	return ok
}

func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return "role(" + strconv.Itoa(int(r)) + ")"
}

// ParseRole accepts a role name or its numeric value.
func ParseRole(s string) (Role, bool) {
	s = core.CleanString(s, true /* lower */)
	for role, name := range roleNames {
		if s == name || s == strconv.Itoa(int(role)) {
			return role, true
		}
	}
	return 0, false
}

type User struct {
	ID           int       `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	Role         Role      `json:"role" db:"role"`
	PasswordHash []byte    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"-" db:"created_at"` // UTC
	UpdatedAt    time.Time `json:"-" db:"updated_at"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u User) IsAdmin() bool      { return u.Role == RoleAdmin }
func (u User) IsInstructor() bool { return u.Role == RoleInstructor }
func (u User) IsStudent() bool    { return u.Role == RoleStudent }

// Fields are the writable fields of a User.
var Fields = core.FieldSet{
	{Name: "name", Column: "name"},
	{Name: "email", Column: "email"},
	{Name: "role", Column: "role"},
	{Name: "password", Column: "password_hash"},
}

// NewUser contains information needed to create a new User.
type NewUser struct {
	Name     string `json:"name" validate:"required,notblank"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Role     *Role  `json:"role" validate:"omitempty,role"`
}

// GetRole returns the requested role; students by default.
func (nu NewUser) GetRole() Role {
	if nu.Role == nil {
		return RoleStudent
	}
	return *nu.Role
}

func (nu *NewUser) Validate(ctx context.Context, validate *validator.Validate, svc *Service) error {
	nu.Name = core.CleanString(nu.Name)
	nu.Email = core.CleanString(nu.Email, true /* lower */)

	if err := validate.Struct(nu); err != nil {
		return err
	}
	return svc.checkUniqueness(ctx, nu.Email)
}

// Detail is a User with the IDs of the Courses they teach (instructors) or attend (students).
type Detail struct {
	User
	Courses []int `json:"courses,omitempty"`
}
