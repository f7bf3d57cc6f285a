package repositories

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrUniqueViolation is returned when an insert collides with a unique constraint.
var ErrUniqueViolation = errors.New("unique constraint violation")

// ErrForeignKeyViolation is returned when a row references a missing parent.
var ErrForeignKeyViolation = errors.New("foreign key constraint violation")

// PostgreSQL SQLSTATE codes.
const (
	uniqueViolationCode     = "23505"
	foreignKeyViolationCode = "23503"
)

// mapError translates driver errors into repository sentinel errors.
func mapError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case uniqueViolationCode:
		return fmt.Errorf("%w: %s", ErrUniqueViolation, pgErr.ConstraintName)
	case foreignKeyViolationCode:
		return fmt.Errorf("%w: %s", ErrForeignKeyViolation, pgErr.ConstraintName)
	}
	return err
}

// oneLine collapses a query onto a single line for logging.
func oneLine(query string) string {
	return strings.Join(strings.Fields(query), " ")
}
