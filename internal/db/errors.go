package db

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotFound is returned when no task has the requested id.
var ErrNotFound = errors.New("task not found")

const msgNullChar = "Null characters are not allowed."

// PostgreSQL error codes the task table can raise.
const (
	codeStringTooLong  = "22001"
	codeUntranslatable = "22021"
	codeNotNull        = "23502"
	codeCheck          = "23514"
)

// ConstraintError reports a value the tasks table refused to store.
type ConstraintError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ConstraintError) Error() string {
	return fmt.Sprintf("constraint violation on %s: %s", e.Field, e.Reason)
}

func (e *ConstraintError) Unwrap() error { return e.Err }

// mapError turns PostgreSQL constraint failures into ConstraintError and
// leaves every other error as is.
func mapError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case codeStringTooLong:
		// title is the only length-bounded column
		return &ConstraintError{
			Field:  "title",
			Reason: fmt.Sprintf("Ensure this field has no more than %d characters.", MaxTitleLength),
			Err:    err,
		}
	case codeUntranslatable:
		// the server does not say which column held the byte
		return &ConstraintError{Field: "non_field_errors", Reason: msgNullChar, Err: err}
	case codeNotNull:
		return &ConstraintError{Field: pgErr.ColumnName, Reason: "This field may not be null.", Err: err}
	case codeCheck:
		field := "non_field_errors"
		if pgErr.ConstraintName == "tasks_status_check" {
			field = "status"
		}
		return &ConstraintError{Field: field, Reason: "Value is not a valid choice.", Err: err}
	}
	return err
}
