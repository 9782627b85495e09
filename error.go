package sift

import (
	"errors"
	"fmt"
)

// Application error codes.
const (
	ECONFLICT = "conflict"
	EINTERNAL = "internal"
	EINVALID  = "invalid"
	ENOTFOUND = "not_found"
)

// Pipeline error codes. These appear verbatim in audit events and in
// RunSummary.Meta.ErrorsByCode.
const (
	ENOQUERYINPUT  = "ERR_NO_QUERY_INPUT"
	EFETCHTIMEOUT  = "ERR_FETCH_TIMEOUT"
	EFETCHFAILED   = "ERR_FETCH_FAILED"
	EFETCHNON200   = "ERR_FETCH_NON_200"
	EEXTRACTFAILED = "ERR_EXTRACT_FAILED"
	EPERSISTFAILED = "ERR_PERSIST_FAILED"
	EATTEMPTCAP    = "ERR_ATTEMPT_CAP"
	ESEARCHFAILED  = "ERR_SEARCH_FAILED"
	ERUNCANCELED   = "ERR_RUN_CANCELED"
)

// Error represents an application-specific error.
type Error struct {
	Code    string
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("sift error: code=%s message=%s", e.Code, e.Message)
}

// Errorf is a helper function to return an Error with a given code and
// formatted message.
func Errorf(code string, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// ErrorCode unwraps an application error and returns its code.
// Non-application errors always return EINTERNAL.
func ErrorCode(err error) string {
	var e *Error
	if err == nil {
		return ""
	} else if errors.As(err, &e) {
		return e.Code
	}
	return EINTERNAL
}

// ErrorMessage unwraps an application error and returns its message.
// Non-application errors always return "Internal error.".
func ErrorMessage(err error) string {
	var e *Error
	if err == nil {
		return ""
	} else if errors.As(err, &e) {
		return e.Message
	}
	return "Internal error."
}

// IsTransient reports whether err is a fetch failure worth retrying.
func IsTransient(err error) bool {
	switch ErrorCode(err) {
	case EFETCHTIMEOUT, EFETCHFAILED:
		return true
	}
	return false
}
