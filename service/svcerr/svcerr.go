// Package svcerr holds the error codes services return to controllers.
package svcerr

import (
	"errors"
	"fmt"
)

type ErrCode string

const (
	ErrNotFound        ErrCode = "NOT_FOUND"
	ErrConflict        ErrCode = "CONFLICT"
	ErrInvalidState    ErrCode = "INVALID_STATE"
	ErrInvalidInput    ErrCode = "INVALID_INPUT"
	ErrUnauthorized    ErrCode = "UNAUTHORIZED"
	ErrUnauthenticated ErrCode = "UNAUTHENTICATED"
)

type codedError struct {
	code ErrCode
	msg  string
	err  error
}

func (e *codedError) Error() string {
	if e.err != nil {
		return e.msg + ": " + e.err.Error()
	}
	return e.msg
}

func (e *codedError) Code() ErrCode   { return e.code }
func (e *codedError) Message() string { return e.msg }
func (e *codedError) Unwrap() error   { return e.err }

// New returns a coded error whose message is safe to show to clients.
func New(c ErrCode, format string, args ...any) error {
	return &codedError{code: c, msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and client message to an underlying cause.
func Wrap(c ErrCode, err error, msg string) error {
	return &codedError{code: c, msg: msg, err: err}
}

// Code extracts error code
func Code(err error) ErrCode {
	var ce interface{ Code() ErrCode }
	if errors.As(err, &ce) {
		return ce.Code()
	}
	return ""
}

// Message returns the client-facing message of a coded error, or "" for plain errors.
func Message(err error) string {
	var ce interface{ Message() string }
	if errors.As(err, &ce) {
		return ce.Message()
	}
	return ""
}
