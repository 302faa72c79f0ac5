// Package apperr defines the error kinds surfaced to API clients.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Code string

const (
	UserNotFound          Code = "USER_NOT_FOUND"
	UserAlreadyExists     Code = "USER_ALREADY_EXISTS"
	ImageNotFound         Code = "IMAGE_NOT_FOUND"
	ImageGenerationFailed Code = "IMAGE_GENERATION_FAILED"
	ImageUploadFailed     Code = "IMAGE_UPLOAD_FAILED"
	ImageRetrievalFailed  Code = "IMAGE_RETRIEVAL_FAILED"
	InvalidImageFormat    Code = "INVALID_IMAGE_FORMAT"
	ValidationFailed      Code = "VALIDATION_FAILED"
	NotFound              Code = "NOT_FOUND"
	InternalError         Code = "INTERNAL_ERROR"
)

// Status returns the HTTP status a code is reported with.
func (c Code) Status() int {
	switch c {
	case UserNotFound, ImageNotFound, NotFound:
		return http.StatusNotFound
	case UserAlreadyExists:
		return http.StatusConflict
	case InvalidImageFormat, ValidationFailed:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

type Error struct {
	Code    Code
	Message string
	Err     error
}

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap builds an Error whose message carries the upstream failure, e.g.
// "Failed to upload image: upload to s3: access denied".
func Wrap(code Code, message string, err error) *Error {
	if err == nil {
		return New(code, message)
	}
	return &Error{Code: code, Message: fmt.Sprintf("%s: %v", message, err), Err: err}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Status() int {
	return e.Code.Status()
}

// From maps any error to an *Error. Errors that are not application errors
// become INTERNAL_ERROR with a generic message so internals are not leaked.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return &Error{Code: InternalError, Message: "Internal server error", Err: err}
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}
