package session

import (
	"errors"
	"fmt"
)

var (
	ErrNotConnected     = errors.New("not connected to relay")
	ErrRelayError       = errors.New("relay server error")
	ErrTimeout          = errors.New("timeout")
	ErrNotAdmitted      = errors.New("not admitted to room")
	ErrAlreadyAnswered  = errors.New("session already answered")
	ErrAlreadyOffered   = errors.New("offer already sent")
	ErrUnexpectedSignal = errors.New("unexpected signal type")
	ErrPeerDisconnected = errors.New("peer disconnected")
	ErrMediaUnavailable = errors.New("media source unavailable")
	ErrRoomClosed       = errors.New("room session closed")
)

// Error wraps a failure with the operation that produced it.
type Error struct {
	Op      string
	Err     error
	Details string
}

func (e *Error) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %v (%s)", e.Op, e.Err, e.Details)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NewError(op string, err error) *Error {
	return &Error{Op: op, Err: err}
}

func WrapError(op string, err error, details string) *Error {
	return &Error{Op: op, Err: err, Details: details}
}
