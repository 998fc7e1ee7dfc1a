// Package apperr defines the failure kinds surfaced by identity resolution,
// remote fetching and the snapshot cache.
package apperr

import (
	"errors"
	"fmt"
)

// Kind tags an error so callers can decide between falling back to the
// cache, dropping the run, or surfacing the failure to the user.
type Kind string

const (
	IdentityUnavailable Kind = "IDENTITY_UNAVAILABLE"
	NetworkError        Kind = "NETWORK_ERROR"
	ProtocolError       Kind = "PROTOCOL_ERROR"
	ApplicationError    Kind = "APPLICATION_ERROR"
	NoData              Kind = "NO_DATA"
)

// Error is a tagged failure. Op names the operation that failed.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Kind, e.Op)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

func Wrap(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func Network(op string, err error) *Error {
	return Wrap(NetworkError, op, err)
}

func Protocol(op, message string) *Error {
	return New(ProtocolError, op, message)
}

func Application(op, message string) *Error {
	return New(ApplicationError, op, message)
}

// KindOf returns the kind of the first *Error in err's chain, or "".
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
