package services

import (
	"errors"
	"fmt"

	"github.com/anonto42/pulse/backend/internal/repositories"
)

// Kind classifies a service failure. The HTTP layer maps each kind to a
// status code.
type Kind string

const (
	KindValidation     Kind = "validation_error"
	KindAuthentication Kind = "authentication_error"
	KindAuthorization  Kind = "authorization_error"
	KindNotFound       Kind = "not_found"
	KindConflict       Kind = "conflict"
	KindInternal       Kind = "internal_error"
)

// Error is the error type returned by every service operation.
type Error struct {
	Kind   Kind
	Detail string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

// Is matches two service errors of the same kind and detail, so the named
// conflicts below work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Detail == t.Detail
}

var (
	ErrSelfFollow       = &Error{Kind: KindConflict, Detail: "You cannot follow or unfollow yourself."}
	ErrAlreadyFollowing = &Error{Kind: KindConflict, Detail: "You are already following this user."}
	ErrNotFollowing     = &Error{Kind: KindConflict, Detail: "You are not following this user."}
	ErrUnauthenticated  = &Error{Kind: KindAuthentication, Detail: "Authentication credentials were not provided."}
	ErrForbidden        = &Error{Kind: KindAuthorization, Detail: "You do not have permission to perform this action."}
	ErrBadCredentials   = &Error{Kind: KindAuthentication, Detail: "Invalid email or password."}
)

func validationError(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Detail: fmt.Sprintf(format, args...)}
}

func notFound(what string) *Error {
	return &Error{Kind: KindNotFound, Detail: what + " not found."}
}

func duplicate(what string) *Error {
	return &Error{Kind: KindConflict, Detail: what + " already exists."}
}

// KindOf reports the kind of err, treating anything that is not a service
// error as internal.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindInternal
}

// storeError converts a repository error, naming the missing or duplicated
// entity. Other failures are wrapped with op for the log.
func storeError(err error, op, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrNotFound):
		return notFound(what)
	case errors.Is(err, repositories.ErrAlreadyExists):
		return duplicate(what)
	}
	return fmt.Errorf("%s: %w", op, err)
}
