package keychain

import (
	"fmt"

	"github.com/juju/errors"

	"github.com/atinyakov/keychain/internal/exception"
)

// Kind classifies a canonical keychain error.
type Kind string

const (
	// KindNotFound is reported when Get targets an absent key.
	KindNotFound Kind = "NotFound"
	// KindBackendFailure is reported for any other failed backend call.
	KindBackendFailure Kind = "BackendFailure"
)

// Error is the canonical error returned by Keychain operations. Message and
// Stack are diagnostic text produced by the exception package.
type Error struct {
	Kind    Kind
	Op      string
	Key     string
	Message string
	Stack   string
	// Err is the backend error, nil when the error originates in the facade.
	Err error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

// Is makes a NotFound error match errors.NotFound from github.com/juju/errors.
func (e *Error) Is(target error) bool {
	return e.Kind == KindNotFound && target == errors.NotFound
}

// NotFoundMessage is the exact message carried by NotFound errors.
func NotFoundMessage(key string) string {
	return fmt.Sprintf("%s secret not found", key)
}

func newNotFound(key string, cause error) *Error {
	stack := exception.NoStack
	if cause != nil {
		stack = exception.ExtractStack(cause)
	}
	return &Error{
		Kind:    KindNotFound,
		Op:      "get",
		Key:     key,
		Message: NotFoundMessage(key),
		Stack:   stack,
		Err:     cause,
	}
}

func newBackendFailure(op, key string, cause error) *Error {
	return &Error{
		Kind:    KindBackendFailure,
		Op:      op,
		Key:     key,
		Message: exception.ExtractMessage(cause),
		Stack:   exception.ExtractStack(cause),
		Err:     cause,
	}
}

// IsNotFound reports whether err is a canonical NotFound error.
func IsNotFound(err error) bool {
	return kindOf(err) == KindNotFound
}

// IsBackendFailure reports whether err is a canonical BackendFailure error.
func IsBackendFailure(err error) bool {
	return kindOf(err) == KindBackendFailure
}

func kindOf(err error) Kind {
	var kerr *Error
	if errors.As(err, &kerr) {
		return kerr.Kind
	}
	return ""
}
