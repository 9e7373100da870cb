package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures so transports can map them to a status code
// and clients can render an actionable message.
type ErrorKind string

const (
	KindValidation        ErrorKind = "VALIDATION_ERROR"
	KindNotAuthorized     ErrorKind = "NOT_AUTHORIZED"
	KindNotFound          ErrorKind = "NOT_FOUND"
	KindInvalidState      ErrorKind = "INVALID_STATE"
	KindAlreadyApplied    ErrorKind = "ALREADY_APPLIED"
	KindOpportunityClosed ErrorKind = "OPPORTUNITY_CLOSED"
	KindCapacityExceeded  ErrorKind = "CAPACITY_EXCEEDED"
	KindConflictRetry     ErrorKind = "CONFLICT_RETRY"
	KindInternal          ErrorKind = "INTERNAL"
)

var defaultMessages = map[ErrorKind]string{
	KindValidation:        "The request is invalid",
	KindNotAuthorized:     "You are not allowed to perform this action",
	KindNotFound:          "The requested item does not exist",
	KindInvalidState:      "This action is not possible in the current state",
	KindAlreadyApplied:    "You have already applied to this opportunity",
	KindOpportunityClosed: "This opportunity is no longer accepting applications",
	KindCapacityExceeded:  "This opportunity has no remaining places",
	KindConflictRetry:     "The request conflicted with another update, please retry",
	KindInternal:          "Something went wrong",
}

// Error is the single error type returned across service boundaries.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on kind only, so errors.Is(err, ErrNotFound) holds for any
// not-found error regardless of its message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrValidation        = &Error{Kind: KindValidation, Message: defaultMessages[KindValidation]}
	ErrNotAuthorized     = &Error{Kind: KindNotAuthorized, Message: defaultMessages[KindNotAuthorized]}
	ErrNotFound          = &Error{Kind: KindNotFound, Message: defaultMessages[KindNotFound]}
	ErrInvalidState      = &Error{Kind: KindInvalidState, Message: defaultMessages[KindInvalidState]}
	ErrAlreadyApplied    = &Error{Kind: KindAlreadyApplied, Message: defaultMessages[KindAlreadyApplied]}
	ErrOpportunityClosed = &Error{Kind: KindOpportunityClosed, Message: defaultMessages[KindOpportunityClosed]}
	ErrCapacityExceeded  = &Error{Kind: KindCapacityExceeded, Message: defaultMessages[KindCapacityExceeded]}
	ErrConflictRetry     = &Error{Kind: KindConflictRetry, Message: defaultMessages[KindConflictRetry]}
)

// NewError builds an error of the given kind with a formatted message.
func NewError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapError attaches a cause to a new error of the given kind.
func WrapError(kind ErrorKind, err error, message string) *Error {
	if message == "" {
		message = defaultMessages[kind]
	}
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf reports the kind of err, or KindInternal for foreign errors.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// PublicMessage returns the text safe to show to an end user.
func PublicMessage(err error) string {
	var de *Error
	if errors.As(err, &de) && de.Kind != KindInternal {
		return de.Message
	}
	return defaultMessages[KindInternal]
}
