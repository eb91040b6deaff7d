package models

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a domain failure so transport layers can map it
// to a status code without string matching.
type ErrorKind string

const (
	KindNotFound            ErrorKind = "NOT_FOUND"
	KindInvalidState        ErrorKind = "INVALID_STATE"
	KindForbidden           ErrorKind = "FORBIDDEN"
	KindFull                ErrorKind = "FULL"
	KindAlreadyMember       ErrorKind = "ALREADY_MEMBER"
	KindDuplicateSubmission ErrorKind = "DUPLICATE_SUBMISSION"
	KindInsufficientData    ErrorKind = "INSUFFICIENT_DATA"
	KindUnauthorized        ErrorKind = "UNAUTHORIZED"
	KindConflict            ErrorKind = "CONFLICT"
	KindInternal            ErrorKind = "INTERNAL"
)

// Error is the structured failure returned by every service operation.
type Error struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

func (e *Error) Error() string {
	return e.Message
}

// NewError builds a domain error with a formatted message.
func NewError(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the kind of a domain error, or KindInternal for
// anything else (collaborator I/O failures and the like).
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// IsKind reports whether err is a domain error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}
