// Package goerror carries the error classification that the HTTP layer turns
// into a status code and a client message.
package goerror

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinels returned by stores. Use cases translate them into *Error.
var (
	ErrNotFound = errors.New("resource not found")
	ErrConflict = errors.New("resource conflict")
)

// Type is the broad origin of an error.
type Type int

const (
	TypeServer Type = iota
	TypeBusiness
	TypeValidation
)

var typeNames = [...]string{
	TypeServer:     "ERROR_TYPE_SERVER",
	TypeBusiness:   "ERROR_TYPE_BUSINESS",
	TypeValidation: "ERROR_TYPE_VALIDATION",
}

func (t Type) String() string {
	if t < 0 || int(t) >= len(typeNames) {
		return "ERROR_TYPE_UNKNOWN"
	}
	return typeNames[t]
}

// Code is stable across releases and decides the HTTP status.
type Code int

const (
	CodeInternal Code = iota
	CodeInvalidFormat
	CodeInvalidInput
	CodeNotFound
	CodeConflict
	CodeUnauthorized
	CodeForbidden
)

var codeTable = map[Code]struct {
	name   string
	status int
}{
	CodeInternal:      {"ERROR_CODE_INTERNAL", http.StatusInternalServerError},
	CodeInvalidFormat: {"ERROR_CODE_INVALID_FORMAT", http.StatusBadRequest},
	CodeInvalidInput:  {"ERROR_CODE_INVALID_INPUT", http.StatusUnprocessableEntity},
	CodeNotFound:      {"ERROR_CODE_NOT_FOUND", http.StatusNotFound},
	CodeConflict:      {"ERROR_CODE_CONFLICT", http.StatusConflict},
	CodeUnauthorized:  {"ERROR_CODE_UNAUTHORIZED", http.StatusUnauthorized},
	CodeForbidden:     {"ERROR_CODE_FORBIDDEN", http.StatusForbidden},
}

func (c Code) String() string {
	if row, ok := codeTable[c]; ok {
		return row.name
	}
	return codeTable[CodeInternal].name
}

// Status maps c to an HTTP status. Unknown codes are 500.
func (c Code) Status() int {
	if row, ok := codeTable[c]; ok {
		return row.status
	}
	return http.StatusInternalServerError
}

// Error pairs an optional cause with the message safe to show clients.
// Error() prefers the cause so logs keep the detail.
type Error struct {
	err     error
	msg     string
	errType Type
	code    Code
	fields  map[string]string
}

func (e *Error) Error() string {
	switch {
	case e.err != nil:
		return e.err.Error()
	case e.msg != "":
		return e.msg
	}
	return "Internal error"
}

func (e *Error) String() string {
	return fmt.Sprintf("Error Type: %s, Code: %s, Message: %s, Underlying Error: %v", e.errType, e.code, e.msg, e.err)
}

func (e *Error) Msg() string               { return e.msg }
func (e *Error) Type() Type                { return e.errType }
func (e *Error) Code() Code                { return e.code }
func (e *Error) Fields() map[string]string { return e.fields }
func (e *Error) Unwrap() error             { return e.err }
func (e *Error) StatusCode() int           { return e.code.Status() }

// NewServer hides err behind a generic message.
func NewServer(err error) error {
	return &Error{err: err, msg: "Internal server error", errType: TypeServer, code: CodeInternal}
}

// NewBusiness reports a rule the request broke, such as touching another
// user's notification.
func NewBusiness(msg string, code Code) error {
	return &Error{msg: msg, errType: TypeBusiness, code: code}
}

// NewInvalidInput wraps a validator error, or builds field errors from
// alternating field/message pairs. An odd kv length is a caller bug and is
// reported as an invalid format.
func NewInvalidInput(err error, kv ...string) error {
	if err != nil {
		return &Error{err: err, msg: "Validation error", errType: TypeValidation, code: CodeInvalidInput}
	}
	if len(kv)%2 != 0 {
		return NewInvalidFormat()
	}

	fields := make(map[string]string, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		fields[kv[i]] = kv[i+1]
	}
	return &Error{msg: "Validation error", errType: TypeValidation, code: CodeInvalidInput, fields: fields}
}

// NewInvalidFormat reports input that could not be parsed at all.
func NewInvalidFormat(msgs ...string) error {
	msg := "Invalid request body"
	if len(msgs) > 0 {
		msg = msgs[0]
	}
	return &Error{msg: msg, errType: TypeValidation, code: CodeInvalidFormat}
}

// CodeOf returns the Code carried by err, or CodeInternal when err is not an *Error.
func CodeOf(err error) Code {
	var gerr *Error
	if errors.As(err, &gerr) {
		return gerr.code
	}
	return CodeInternal
}
