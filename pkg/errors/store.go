package errors

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// postgres SQLSTATE for unique_violation.
const pgUniqueViolation = "23505"

// FromStore classifies a persistence error. A missing row becomes
// CodeNotFound with notFound as its message, a duplicate key becomes
// CodeConflict, a timed out query CodeDependency. Anything else is
// CodeInternal wrapping op. Errors that already carry a Code pass through.
func FromStore(err error, op, notFound string) error {
	switch {
	case err == nil:
		return nil
	case As(err) != nil:
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return Wrap(CodeNotFound, err, notFound)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return Wrap(CodeConflict, err, op+": already exists")
	case errors.Is(err, context.DeadlineExceeded):
		return Wrap(CodeDependency, err, op+": timed out")
	}
	if pg := pgError(err); pg != nil && pg.Code == pgUniqueViolation {
		return Wrap(CodeConflict, err, op+": already exists")
	}
	return Wrap(CodeInternal, err, op)
}
