package ledger

import (
	"errors"
	"fmt"
)

// ErrorKind classifies ledger and membership failures.
type ErrorKind string

const (
	KindInvalidAmount   ErrorKind = "InvalidAmount"
	KindNonMember       ErrorKind = "NonMember"
	KindSplitMismatch   ErrorKind = "SplitMismatch"
	KindDuplicateMember ErrorKind = "DuplicateMember"
	KindNotFound        ErrorKind = "NotFound"
	KindInvalidState    ErrorKind = "InvalidState"
	KindInvalidInput    ErrorKind = "InvalidInput"
)

// Error is returned by every operation in this package that rejects its input.
// Two errors match under errors.Is when their kinds are equal, so callers can
// compare against the Err* sentinels regardless of the detail message.
type Error struct {
	Kind   ErrorKind
	Detail string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrInvalidAmount   = &Error{Kind: KindInvalidAmount}
	ErrNonMember       = &Error{Kind: KindNonMember}
	ErrSplitMismatch   = &Error{Kind: KindSplitMismatch}
	ErrDuplicateMember = &Error{Kind: KindDuplicateMember}
	ErrNotFound        = &Error{Kind: KindNotFound}
	ErrInvalidState    = &Error{Kind: KindInvalidState}
	ErrInvalidInput    = &Error{Kind: KindInvalidInput}
)

// Errorf builds an *Error of the given kind with a formatted detail.
func Errorf(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of err if it is (or wraps) an *Error, and "" otherwise.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
