package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Common validation errors
var (
	ErrEmptyUserID         = errors.New("user ID cannot be empty")
	ErrInvalidEmail        = errors.New("invalid email format")
	ErrEmptyEmail          = errors.New("email cannot be empty")
	ErrEmptyName           = errors.New("first and last name cannot be empty")
	ErrPasswordTooShort    = errors.New("password must be at least 12 characters long")
	ErrPasswordTooLong     = errors.New("password must be at most 72 characters long")
	ErrEmptyPassword       = errors.New("password cannot be empty")
	ErrEmptyHashedPassword = errors.New("hashed password cannot be empty")
)

var validate = validator.New()

// User represents a registered user of the task management system.
// Roles drive which notifications the user receives.
type User struct {
	ID             uuid.UUID `json:"id"`
	Email          string    `json:"email"`
	FirstName      string    `json:"firstName"`
	LastName       string    `json:"lastName"`
	Password       string    `json:"-"` // Plaintext password, used temporarily during registration
	HashedPassword string    `json:"-"`
	Roles          Roles     `json:"roles"`
	IsActive       bool      `json:"isActive"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// NewUser creates a new active User with the given identity and plaintext password.
// Users without an explicit role receive RoleUser.
//
// The caller is responsible for hashing the password before storing the user.
func NewUser(email, firstName, lastName, password string, roles ...Role) (*User, error) {
	if len(roles) == 0 {
		roles = Roles{RoleUser}
	}

	now := time.Now().UTC()
	user := &User{
		ID:        uuid.New(),
		Email:     strings.TrimSpace(email),
		FirstName: strings.TrimSpace(firstName),
		LastName:  strings.TrimSpace(lastName),
		Password:  password,
		Roles:     roles,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := user.Validate(); err != nil {
		return nil, err
	}

	return user, nil
}

// Validate checks if the User has valid data.
func (u *User) Validate() error {
	if u.ID == uuid.Nil {
		return ErrEmptyUserID
	}

	if u.Email == "" {
		return ErrEmptyEmail
	}

	if err := validate.Var(u.Email, "email"); err != nil {
		return ErrInvalidEmail
	}

	if u.FirstName == "" || u.LastName == "" {
		return ErrEmptyName
	}

	if u.Password != "" {
		switch {
		case len(u.Password) < 12:
			return ErrPasswordTooShort
		case len(u.Password) > 72:
			// bcrypt ignores input past 72 bytes
			return ErrPasswordTooLong
		}
	} else if u.HashedPassword == "" {
		return ErrEmptyPassword
	}

	return nil
}

// FullName returns the first and last name separated by a space.
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// Identity returns the user's id and roles, the only facts the notification
// subsystem keeps about a connected user.
func (u *User) Identity() Identity {
	roles := make(Roles, len(u.Roles))
	copy(roles, u.Roles)
	return Identity{UserID: u.ID, Roles: roles}
}

// Identity is an authenticated principal as seen by the notification subsystem.
type Identity struct {
	UserID uuid.UUID
	Roles  Roles
}
