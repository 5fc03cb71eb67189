package errors

import (
	"errors"
	"fmt"
)

// Kind classifies failures that callers are expected to branch on.
type Kind int

const (
	KindUnknown Kind = iota
	KindTokenNotFound
	KindTokenActivation
	KindLockAcquisitionTimeout
)

func (k Kind) String() string {
	switch k {
	case KindTokenNotFound:
		return "TokenNotFound"
	case KindTokenActivation:
		return "TokenActivation"
	case KindLockAcquisitionTimeout:
		return "LockAcquisitionTimeout"
	default:
		return "Unknown"
	}
}

type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so errors.Is(err, ErrTokenNotFound)
// holds for every TokenNotFound regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrTokenNotFound          = &Error{Kind: KindTokenNotFound, Msg: "token not found"}
	ErrTokenActivation        = &Error{Kind: KindTokenActivation, Msg: "token is not in the required status"}
	ErrLockAcquisitionTimeout = &Error{Kind: KindLockAcquisitionTimeout, Msg: "lock acquisition timed out"}
)

func TokenNotFound(token string) error {
	return &Error{Kind: KindTokenNotFound, Msg: fmt.Sprintf("token not found: %s", token)}
}

func TokenActivation(format string, args ...any) error {
	return &Error{Kind: KindTokenActivation, Msg: fmt.Sprintf(format, args...)}
}

func LockAcquisitionTimeout(key string, cause error) error {
	return &Error{Kind: KindLockAcquisitionTimeout, Msg: fmt.Sprintf("lock acquisition timed out: %s", key), Err: cause}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
