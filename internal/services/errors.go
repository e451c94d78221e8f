package services

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrForbidden  = errors.New("forbidden")
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// wrapDBError attaches action context and maps constraint violations onto the
// service sentinels. what names the entity for not-found and conflict messages.
func wrapDBError(err error, action, what string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	switch pgErrorCode(err) {
	case pgUniqueViolation:
		return fmt.Errorf("%s already exists: %w", what, ErrConflict)
	case pgForeignKeyViolation:
		return fmt.Errorf("failed to %s: referenced record does not exist: %w", action, ErrValidation)
	case pgCheckViolation:
		return fmt.Errorf("failed to %s: value out of range: %w", action, ErrValidation)
	}
	return fmt.Errorf("failed to %s: %w", action, err)
}

func validationError(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrValidation)
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
