package postgres_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/phrazzld/taskhub/internal/domain"
	"github.com/phrazzld/taskhub/internal/platform/postgres"
	"github.com/phrazzld/taskhub/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var userCols = []string{
	"id", "email", "first_name", "last_name", "password_hash", "roles", "is_active", "created_at", "updated_at",
}

func newUserStore(t *testing.T) (*postgres.PostgresUserStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return postgres.NewPostgresUserStore(db, nil), mock
}

func testUser(roles ...domain.Role) *domain.User {
	now := time.Now().UTC()
	return &domain.User{
		ID:             uuid.New(),
		Email:          "ada@example.com",
		FirstName:      "Ada",
		LastName:       "Lovelace",
		HashedPassword: "$2a$10$abcdefghijklmnopqrstuv",
		Roles:          roles,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func TestUserStore_Create(t *testing.T) {
	s, mock := newUserStore(t)
	u := testUser(domain.RoleAdmin, domain.RoleUser)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WithArgs(u.ID.String(), u.Email, u.FirstName, u.LastName, u.HashedPassword,
			"{ADMIN,USER}", true, u.CreatedAt, u.UpdatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.Create(context.Background(), u))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserStore_CreateDuplicateEmail(t *testing.T) {
	s, mock := newUserStore(t)
	mock.ExpectExec("INSERT INTO users").WillReturnError(newPgError("23505"))

	err := s.Create(context.Background(), testUser(domain.RoleUser))
	assert.ErrorIs(t, err, store.ErrEmailExists)
}

func TestUserStore_CreateRequiresHash(t *testing.T) {
	s, _ := newUserStore(t)
	u := testUser(domain.RoleUser)
	u.HashedPassword = ""

	err := s.Create(context.Background(), u)
	assert.ErrorIs(t, err, store.ErrInvalidEntity)
}

func TestUserStore_GetByID(t *testing.T) {
	s, mock := newUserStore(t)
	u := testUser()

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = $1")).
		WithArgs(u.ID).
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(
			u.ID.String(), u.Email, u.FirstName, u.LastName, u.HashedPassword,
			"{ADMIN,USER}", true, u.CreatedAt, u.UpdatedAt))

	got, err := s.GetByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, domain.Roles{domain.RoleAdmin, domain.RoleUser}, got.Roles)
	assert.True(t, got.IsActive)
	assert.Empty(t, got.Password)
}

func TestUserStore_GetByIDNotFound(t *testing.T) {
	s, mock := newUserStore(t)
	mock.ExpectQuery("SELECT").WillReturnRows(sqlmock.NewRows(userCols))

	_, err := s.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, store.ErrUserNotFound)
}

func TestUserStore_ListByRole(t *testing.T) {
	s, mock := newUserStore(t)
	a, b := testUser(), testUser()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE $1 = ANY(roles) AND is_active")).
		WithArgs("ADMIN").
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow(a.ID.String(), a.Email, a.FirstName, a.LastName, a.HashedPassword, "{ADMIN}", true, a.CreatedAt, a.UpdatedAt).
			AddRow(b.ID.String(), b.Email, b.FirstName, b.LastName, b.HashedPassword, "{USER,ADMIN}", true, b.CreatedAt, b.UpdatedAt))

	admins, err := s.ListByRole(context.Background(), domain.RoleAdmin)
	require.NoError(t, err)
	require.Len(t, admins, 2)
	for _, admin := range admins {
		assert.True(t, admin.Roles.IsAdmin())
	}
}
