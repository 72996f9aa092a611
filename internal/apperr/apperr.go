// Package apperr defines the application error taxonomy. Components
// return typed errors; the HTTP edge maps them to wire status codes.
package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
)

// Kind classifies an error into the response taxonomy.
type Kind int

const (
	// Validation covers malformed fields, out-of-range numerics and
	// missing required keys.
	Validation Kind = iota + 1
	// Unauthenticated covers missing, invalid or expired tokens.
	Unauthenticated
	// Forbidden covers authenticated but disallowed operations.
	Forbidden
	// NotFound covers resources that do not exist or that the caller
	// does not own. Both cases share one shape to prevent enumeration.
	NotFound
	// Conflict covers uniqueness violations at the catalog layer.
	Conflict
	// Internal covers everything unexpected.
	Internal
)

// Error carries the kind, a Spanish human message and optional
// per-field details.
type Error struct {
	Kind    Kind
	Message string
	Fields  map[string]string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap attaches a cause to a new error of the given kind.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Validationf builds a validation error for a single field.
func Validationf(field, format string, args ...any) *Error {
	msg := fmt.Sprintf(format, args...)
	return &Error{
		Kind:    Validation,
		Message: msg,
		Fields:  map[string]string{field: msg},
	}
}

// NotFoundf builds a uniform not-found error.
func NotFoundf(format string, args ...any) *Error {
	return &Error{Kind: NotFound, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the kind from any error, defaulting to Internal.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return Internal
}

// HTTPStatus maps a kind to its wire status code.
func HTTPStatus(kind Kind) int {
	switch kind {
	case Validation:
		return http.StatusBadRequest
	case Unauthenticated:
		return http.StatusUnauthorized
	case Forbidden:
		return http.StatusForbidden
	case NotFound:
		return http.StatusNotFound
	case Conflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// FromPG maps a database error to the taxonomy by SQLSTATE:
// 23505 unique violation, 23503 foreign key, 23502 not-null,
// 22P02 invalid text representation, 42P01 undefined table.
func FromPG(err error) *Error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return Wrap(Conflict, "el registro ya existe", err)
		case "23503":
			return Wrap(Validation, "referencia inválida a otro registro", err)
		case "23502":
			return Wrap(Validation, "falta un campo obligatorio", err)
		case "22P02":
			return Wrap(Validation, "formato de dato inválido", err)
		case "42P01":
			return Wrap(Internal, "error interno de base de datos", err)
		}
	}
	return Wrap(Internal, "error interno de base de datos", err)
}
