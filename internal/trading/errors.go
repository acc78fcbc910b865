package trading

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies a failed precondition so transports can pick a status.
type ErrorKind string

const (
	KindNotFound      ErrorKind = "not_found"
	KindValidation    ErrorKind = "validation"
	KindAuthorization ErrorKind = "authorization"
)

// Error is returned for every rejected operation. Any other error coming out
// of the service is an infrastructure failure.
type Error struct {
	Kind    ErrorKind
	Message string
	Fields  map[string]any
}

func (e *Error) Error() string { return e.Message }

func NewNotFoundError(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func NewValidationError(format string, args ...any) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func NewAuthorizationError(format string, args ...any) error {
	return &Error{Kind: KindAuthorization, Message: fmt.Sprintf(format, args...)}
}

// newFieldError builds a validation error that names the offending field.
func newFieldError(field string, value any, format string, args ...any) error {
	return &Error{
		Kind:    KindValidation,
		Message: fmt.Sprintf(format, args...),
		Fields:  map[string]any{field: value},
	}
}

func newMissingSkillsError(subject string, names []string) error {
	return &Error{
		Kind:    KindValidation,
		Message: fmt.Sprintf("%s the required skills: %s", subject, strings.Join(names, ", ")),
		Fields:  map[string]any{"missing_skills": names},
	}
}

// AsError unwraps err into an *Error.
func AsError(err error) (*Error, bool) {
	var te *Error
	if errors.As(err, &te) {
		return te, true
	}
	return nil, false
}

// KindOf returns the kind of err, or "" for infrastructure errors.
func KindOf(err error) ErrorKind {
	if te, ok := AsError(err); ok {
		return te.Kind
	}
	return ""
}

func IsNotFound(err error) bool      { return KindOf(err) == KindNotFound }
func IsValidation(err error) bool    { return KindOf(err) == KindValidation }
func IsAuthorization(err error) bool { return KindOf(err) == KindAuthorization }
