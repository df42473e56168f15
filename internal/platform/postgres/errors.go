package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/taskhub/internal/store"
)

// SQLSTATE codes the stores react to.
const (
	uniqueViolationCode     = "23505"
	foreignKeyViolationCode = "23503"
	checkViolationCode      = "23514"
	notNullViolationCode    = "23502"
)

// Entity names recorded on store errors.
const (
	entityUser         = "user"
	entityNotification = "notification"
)

// MapError translates a driver error into a *store.StoreError for entity and
// op. Known conditions wrap the matching store sentinel so errors.Is keeps
// working; anything else is wrapped unchanged.
func MapError(entity, op string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return store.NewStoreError(entity, op, "no matching row", fmt.Errorf("%w: %w", store.ErrNotFound, err))
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolationCode:
			return store.NewStoreError(entity, op, "unique constraint "+pgErr.ConstraintName,
				fmt.Errorf("%w: %w", store.ErrDuplicate, err))
		case foreignKeyViolationCode, checkViolationCode:
			return store.NewStoreError(entity, op, "constraint "+pgErr.ConstraintName,
				fmt.Errorf("%w: %w", store.ErrInvalidEntity, err))
		case notNullViolationCode:
			return store.NewStoreError(entity, op, "column "+pgErr.ColumnName+" is required",
				fmt.Errorf("%w: %w", store.ErrInvalidEntity, err))
		}
	}

	return store.NewStoreError(entity, op, "database error", err)
}

// IsUniqueViolation reports whether err carries a PostgreSQL unique violation.
func IsUniqueViolation(err error) bool {
	return hasCode(err, uniqueViolationCode)
}

// IsForeignKeyViolation reports whether err carries a PostgreSQL foreign key violation.
func IsForeignKeyViolation(err error) bool {
	return hasCode(err, foreignKeyViolationCode)
}

func hasCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}
