package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/taskhub/internal/domain"
)

// UserStore defines the interface for user data persistence.
// The notification subsystem only reads users; Create exists for seeding.
type UserStore interface {
	// Create saves a new user to the store. The user must carry a HashedPassword.
	// Returns ErrEmailExists if the email is already taken.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by their unique ID.
	// Returns ErrUserNotFound if the user does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// ListByRole returns every active user holding role.
	ListByRole(ctx context.Context, role domain.Role) ([]*domain.User, error)

	// WithTx returns a new UserStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) UserStore
}
