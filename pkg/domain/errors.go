package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies request failures so callers can branch on kind
// instead of parsing message text.
type ErrorKind string

const (
	KindInvalidRequest       ErrorKind = "INVALID_REQUEST"
	KindForbidden            ErrorKind = "FORBIDDEN"
	KindUnsupportedMediaType ErrorKind = "UNSUPPORTED_MEDIA_TYPE"
	KindPayloadTooLarge      ErrorKind = "PAYLOAD_TOO_LARGE"
	KindDependencyNotMet     ErrorKind = "DEPENDENCY_NOT_MET"
	KindQuotaExceeded        ErrorKind = "QUOTA_EXCEEDED"
	KindNotFound             ErrorKind = "NOT_FOUND"
	KindStorageFailure       ErrorKind = "STORAGE_FAILURE"
)

// Error carries a kind plus the structured context of the failed request.
type Error struct {
	Kind    ErrorKind
	Message string
	TaskID  string
	Limit   int64
	Cause   error
}

func (e *Error) Error() string {
	if e.TaskID != "" {
		return fmt.Sprintf("%s: %s (task %s)", e.Kind, e.Message, e.TaskID)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// NewError builds an Error with no task context.
func NewError(kind ErrorKind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// NewTaskError builds an Error tied to a task id.
func NewTaskError(kind ErrorKind, taskID, msg string) *Error {
	return &Error{Kind: kind, Message: msg, TaskID: taskID}
}

// NewLimitError builds an Error carrying the violated limit value.
func NewLimitError(kind ErrorKind, taskID string, limit int64, msg string) *Error {
	return &Error{Kind: kind, Message: msg, TaskID: taskID, Limit: limit}
}

// StorageError wraps a low-level I/O failure.
func StorageError(msg string, cause error) *Error {
	return &Error{Kind: KindStorageFailure, Message: msg, Cause: cause}
}

// KindOf extracts the ErrorKind from err, or KindStorageFailure for
// errors that did not originate from a coordinator.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindStorageFailure
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}
