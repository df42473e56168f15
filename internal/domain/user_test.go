package domain

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUser(t *testing.T) {
	t.Run("valid user defaults to USER role", func(t *testing.T) {
		user, err := NewUser(" ada@example.com ", "Ada", "Lovelace", "correct-horse-battery")
		require.NoError(t, err)

		assert.NotEqual(t, uuid.Nil, user.ID)
		assert.Equal(t, "ada@example.com", user.Email)
		assert.Equal(t, Roles{RoleUser}, user.Roles)
		assert.True(t, user.IsActive)
		assert.False(t, user.CreatedAt.IsZero())
		assert.Equal(t, "Ada Lovelace", user.FullName())
	})

	t.Run("explicit roles are kept", func(t *testing.T) {
		user, err := NewUser("root@example.com", "Root", "Admin", "correct-horse-battery", RoleAdmin, RoleUser)
		require.NoError(t, err)
		assert.True(t, user.Roles.IsAdmin())
	})

	tests := []struct {
		name     string
		email    string
		first    string
		last     string
		password string
		wantErr  error
	}{
		{"empty email", "", "A", "B", "correct-horse-battery", ErrEmptyEmail},
		{"invalid email", "not-an-email", "A", "B", "correct-horse-battery", ErrInvalidEmail},
		{"missing name", "a@example.com", "", "B", "correct-horse-battery", ErrEmptyName},
		{"short password", "a@example.com", "A", "B", "short", ErrPasswordTooShort},
		{"long password", "a@example.com", "A", "B", strings.Repeat("x", 73), ErrPasswordTooLong},
		{"no password", "a@example.com", "A", "B", "", ErrEmptyPassword},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewUser(tt.email, tt.first, tt.last, tt.password)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestUserValidateStoredUser(t *testing.T) {
	user := User{
		ID:             uuid.New(),
		Email:          "test@example.com",
		FirstName:      "Test",
		LastName:       "User",
		HashedPassword: "$2a$10$hash",
	}
	assert.NoError(t, user.Validate())

	user.ID = uuid.Nil
	assert.ErrorIs(t, user.Validate(), ErrEmptyUserID)
}

func TestUserIdentityCopiesRoles(t *testing.T) {
	user := &User{ID: uuid.New(), Roles: Roles{RoleAdmin}}

	identity := user.Identity()
	identity.Roles[0] = RoleUser

	assert.Equal(t, user.ID, identity.UserID)
	assert.Equal(t, RoleAdmin, user.Roles[0], "mutating the identity must not alter the user")
}

func TestRoles(t *testing.T) {
	role, err := ParseRole("admin")
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, role)

	_, err = ParseRole("superuser")
	assert.ErrorIs(t, err, ErrValidation)

	roles := ParseRoles([]string{"USER", "", "admin", "bogus", "user"})
	assert.Equal(t, Roles{RoleUser, RoleAdmin}, roles)
	assert.True(t, roles.IsAdmin())
	assert.Equal(t, []string{"USER", "ADMIN"}, roles.Strings())

	assert.False(t, Roles(nil).IsAdmin())
	assert.Empty(t, ParseRoles(nil))
}
