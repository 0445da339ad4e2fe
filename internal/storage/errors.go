package storage

import (
	"errors"
	"fmt"

	sqlite3 "modernc.org/sqlite/lib"
)

// Messages shown to users when persistence fails.
const (
	MsgFull        = "Storage is full"
	MsgLoad        = "Unable to load"
	MsgBusy        = "Storage is busy"
	MsgUnavailable = "Storage is unavailable"
)

// Error is a persistence failure with a message fit for users. Err keeps
// the driver error for logs.
type Error struct {
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("storage %s: %s: %v", e.Op, e.Message, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Message returns the user-facing message for err when it is (or wraps) a
// storage *Error. ok is false for any other error.
func Message(err error) (msg string, ok bool) {
	var se *Error
	if errors.As(err, &se) {
		return se.Message, true
	}
	return "", false
}

// coder is implemented by the SQLite driver's error type.
type coder interface {
	Code() int
}

// classify wraps SQLite failures a user can act on in an *Error. Errors it
// does not recognize are returned unchanged.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var c coder
	if !errors.As(err, &c) {
		return err
	}

	var msg string
	// Extended result codes carry the primary code in the low byte.
	switch c.Code() & 0xff {
	case sqlite3.SQLITE_FULL:
		msg = MsgFull
	case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
		msg = MsgBusy
	case sqlite3.SQLITE_CORRUPT, sqlite3.SQLITE_NOTADB:
		msg = MsgLoad
	case sqlite3.SQLITE_CANTOPEN, sqlite3.SQLITE_IOERR, sqlite3.SQLITE_READONLY, sqlite3.SQLITE_PERM:
		msg = MsgUnavailable
	default:
		return err
	}
	return &Error{Op: op, Message: msg, Err: err}
}
