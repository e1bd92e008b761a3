package common

import (
	"errors"
	"net/http"
)

// Error codes shared by the HTTP handlers.
const (
	CodeBadRequest        = "BAD_REQUEST"
	CodeValidation        = "VALIDATION_FAILED"
	CodeUnknownProduct    = "UNKNOWN_PRODUCT"
	CodeUnknownCoupon     = "UNKNOWN_COUPON"
	CodeInvalidRedemption = "INVALID_REDEMPTION"
	CodeRateLimited       = "RATE_LIMITED"
	CodeInternal          = "INTERNAL"
)

// AppError represents an error with an attached code and HTTP status.
type AppError struct {
	Code       string
	Message    string
	HTTPStatus int
	Err        error
	Details    any
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// Unwrap allows errors.Is/As to inspect the underlying error.
func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// WithDetails attaches structured details and returns the same error.
func (e *AppError) WithDetails(details any) *AppError {
	e.Details = details
	return e
}

// NewAppError constructs an AppError.
func NewAppError(code, message string, status int, err error) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status, Err: err}
}

// IsAppError checks whether the error is an AppError.
func IsAppError(err error) bool {
	var target *AppError
	return errors.As(err, &target)
}

// WriteError renders err. AppErrors keep their code and status; anything else
// becomes a 500 without leaking the underlying message.
func WriteError(w http.ResponseWriter, err error) {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr != nil {
		status := appErr.HTTPStatus
		if status == 0 {
			status = http.StatusBadRequest
		}
		code := appErr.Code
		if code == "" {
			code = CodeBadRequest
		}
		msg := appErr.Message
		if msg == "" {
			msg = appErr.Error()
		}
		JSONError(w, status, code, msg, appErr.Details)
		return
	}
	JSONError(w, http.StatusInternalServerError, CodeInternal, "internal error", nil)
}
