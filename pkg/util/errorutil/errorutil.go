package errorutil

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Kind tags a DomainError with the failure category it reports.
type Kind string

const (
	KindValidation   Kind = "VALIDATION_FAILED"
	KindNotFound     Kind = "NOT_FOUND"
	KindConflict     Kind = "CONFLICT"
	KindUnauthorized Kind = "UNAUTHORIZED"
	KindInternal     Kind = "INTERNAL_ERROR"
)

// Postgres SQLSTATE codes the store maps onto domain kinds.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// DomainError standardizes application errors. A nil error is the Ok case of a
// collaborator result; a *DomainError is the Err case and its Message is shown
// to the caller verbatim.
type DomainError struct {
	Kind       Kind
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(kind Kind, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Kind: kind, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(KindValidation, message, http.StatusBadRequest, details)
}

// NewNotFound reports a missing entity using message as-is.
func NewNotFound(message string) error {
	return NewDomainError(KindNotFound, message, http.StatusNotFound, nil)
}

func NewUnauthorized(message string) error {
	return NewDomainError(KindUnauthorized, message, http.StatusUnauthorized, nil)
}

// NewConflict reports duplicates and blocking associations. The users API
// answers these with 400 rather than 409.
func NewConflict(message string, details map[string]any) error {
	return NewDomainError(KindConflict, message, http.StatusBadRequest, details)
}

// NewFailure reports a collaborator failure whose message may be shown to the
// caller with a 500 status.
func NewFailure(message string, err error) error {
	return &DomainError{
		Kind:       KindInternal,
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func NewInternalError(err error) error {
	return &DomainError{
		Kind:       KindInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// AsDomainError reports whether err carries a DomainError and returns it.
func AsDomainError(err error) (*DomainError, bool) {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr, true
	}
	return nil, false
}

// IsKind reports whether err is a DomainError of the given kind.
func IsKind(err error, kind Kind) bool {
	domainErr, ok := AsDomainError(err)
	return ok && domainErr.Kind == kind
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	if domainErr, ok := AsDomainError(err); ok {
		return domainErr
	}
	return &DomainError{
		Kind:       KindInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// FromStoreError maps driver errors raised by the datastore. notFound is the
// message used when the row is missing. Unknown errors are returned wrapped so
// they surface as internal failures.
func FromStoreError(err error, notFound string) error {
	if err == nil {
		return nil
	}
	if _, ok := AsDomainError(err); ok {
		return err
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return NewNotFound(notFound)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return &DomainError{
				Kind:       KindConflict,
				Message:    uniqueMessage(pgErr.ConstraintName),
				HTTPStatus: http.StatusBadRequest,
				Details:    map[string]any{"constraint": pgErr.ConstraintName},
				Err:        err,
			}
		case pgForeignKeyViolation:
			return &DomainError{
				Kind:       KindNotFound,
				Message:    foreignKeyMessage(pgErr.ConstraintName),
				HTTPStatus: http.StatusNotFound,
				Details:    map[string]any{"constraint": pgErr.ConstraintName},
				Err:        err,
			}
		}
	}
	return fmt.Errorf("datastore: %w", err)
}

func uniqueMessage(constraint string) string {
	switch constraint {
	case "users_email_key", "users_email_lower_idx":
		return "User with this email already exists"
	}
	return "Record already exists"
}

func foreignKeyMessage(constraint string) string {
	switch constraint {
	case "users_team_id_fkey":
		return "Team not found"
	}
	return "Referenced record not found"
}
