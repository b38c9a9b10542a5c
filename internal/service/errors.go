package service

import "fmt"

// ErrorKind classifies a failure for the HTTP layer and the caller:
// validation problems are fixable by the caller, provider/internal
// failures are transient, authorization failures end the session's
// usefulness for the attempted action.
type ErrorKind string

const (
	KindValidation     ErrorKind = "validation"
	KindUnauthorized   ErrorKind = "unauthorized"
	KindForbidden      ErrorKind = "forbidden"
	KindNotFound       ErrorKind = "not_found"
	KindConflict       ErrorKind = "conflict"
	KindWrongRecipient ErrorKind = "wrong_recipient"
	KindAccessRevoked  ErrorKind = "access_revoked"
	KindProvider       ErrorKind = "provider"
	KindInternal       ErrorKind = "internal"
)

type Error struct {
	Kind    ErrorKind
	Message string
	Field   string // set for per-field validation failures
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func E(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Ef(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func fieldErr(field, message string) *Error {
	return &Error{Kind: KindValidation, Message: message, Field: field}
}

func wrap(kind ErrorKind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}
