package errprocess

import (
	"errors"
	"fmt"
	"net/http"
)

// Code stable error code surfaced to clients
type Code string

const (
	// CodeNotFound conversation / message does not exist
	CodeNotFound Code = "NOT_FOUND"
	// CodeForbidden caller not allowed
	CodeForbidden Code = "FORBIDDEN"
	// CodeWrongType message is not an offer
	CodeWrongType Code = "WRONG_TYPE"
	// CodeStaleState offer already answered
	CodeStaleState Code = "STALE_STATE"
	// CodeStoreUnavailable store failed, safe to retry
	CodeStoreUnavailable Code = "STORE_UNAVAILABLE"
	// CodeInvalidArgument malformed request
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
	// CodeUnauthorized missing or invalid token
	CodeUnauthorized Code = "UNAUTHORIZED"
	// CodeInternal anything else
	CodeInternal Code = "INTERNAL"
)

var httpStatus = map[Code]int{
	CodeNotFound:         http.StatusNotFound,
	CodeForbidden:        http.StatusForbidden,
	CodeWrongType:        http.StatusUnprocessableEntity,
	CodeStaleState:       http.StatusConflict,
	CodeStoreUnavailable: http.StatusServiceUnavailable,
	CodeInvalidArgument:  http.StatusBadRequest,
	CodeUnauthorized:     http.StatusUnauthorized,
	CodeInternal:         http.StatusInternalServerError,
}

// AppError error with a client facing code
type AppError struct {
	Code     Code   `json:"code"`
	Message  string `json:"message"`
	HTTPCode int    `json:"-"`
	Err      error  `json:"-"`
}

// New create AppError
func New(code Code, message string, err error) *AppError {
	status, ok := httpStatus[code]
	if !ok {
		status = http.StatusInternalServerError
	}
	return &AppError{Code: code, Message: message, HTTPCode: status, Err: err}
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// As extract AppError from the chain
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
