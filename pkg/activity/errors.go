package activity

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is the machine-readable error code returned to API clients.
type Code string

const (
	CodeInvalidAddress        Code = "InvalidAddress"
	CodeInvalidRange          Code = "InvalidRange"
	CodeEmptyRange            Code = "EmptyRange"
	CodeRangeTooLarge         Code = "RangeTooLarge"
	CodeDataSourceTimeout     Code = "DataSourceTimeout"
	CodeDataSourceUnavailable Code = "DataSourceUnavailable"
	CodeMalformedRecord       Code = "MalformedRecord"
)

// Error carries a taxonomy code alongside a human-readable message.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func wrapError(code Code, err error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Err: err}
}

// CodeOf extracts the taxonomy code from err, if it carries one.
func CodeOf(err error) (Code, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Code, true
	}
	return "", false
}

// HTTPStatus maps an error to the status the API boundary should return.
// Validation failures are the client's fault; upstream failures are gateway
// errors; anything unrecognized is a plain 500.
func HTTPStatus(err error) int {
	code, ok := CodeOf(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch code {
	case CodeInvalidAddress, CodeInvalidRange, CodeEmptyRange, CodeRangeTooLarge:
		return http.StatusBadRequest
	case CodeDataSourceTimeout:
		return http.StatusGatewayTimeout
	case CodeDataSourceUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
