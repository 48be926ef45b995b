package apperrors

import (
	"errors"
	"fmt"
)

type Code string

const (
	CodeInvalidArgument    Code = "INVALID_ARGUMENT"
	CodeNotFound           Code = "NOT_FOUND"
	CodeAlreadyExists      Code = "ALREADY_EXISTS"
	CodePermissionDenied   Code = "PERMISSION_DENIED"
	CodeUnauthenticated    Code = "UNAUTHENTICATED"
	CodeFailedPrecondition Code = "FAILED_PRECONDITION"
	CodeRateLimited        Code = "RATE_LIMITED"
	CodeProvider           Code = "PROVIDER"
	CodeInternal           Code = "INTERNAL"
)

// AppError is the error type crossing layer boundaries. Handlers map Code to
// an HTTP status; the Cause never leaves the process.
type AppError struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Cause }

func New(code Code, message string) error {
	return &AppError{Code: code, Message: message}
}

func Wrap(code Code, message string, cause error) error {
	return &AppError{Code: code, Message: message, Cause: cause}
}

func InvalidArg(msg string) error {
	return New(CodeInvalidArgument, msg)
}

func NotFound(msg string) error {
	return New(CodeNotFound, msg)
}

func AlreadyExists(msg string) error {
	return New(CodeAlreadyExists, msg)
}

func Forbidden(msg string) error {
	return New(CodePermissionDenied, msg)
}

func Unauthenticated(msg string) error {
	return New(CodeUnauthenticated, msg)
}

func FailedPrecondition(msg string) error {
	return New(CodeFailedPrecondition, msg)
}

func RateLimited(msg string) error {
	return New(CodeRateLimited, msg)
}

func Provider(msg string, cause error) error {
	return &AppError{Code: CodeProvider, Message: msg, Cause: cause}
}

func Internal(msg string, cause error) error {
	return &AppError{Code: CodeInternal, Message: msg, Cause: cause}
}

// CodeOf extracts the code from any error in the chain, defaulting to
// CodeInternal for plain errors.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	return CodeOf(err) == code
}
