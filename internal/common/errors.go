package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Pipeline error taxonomy: the conditions that abort a document. Per-page
// extraction or matching trouble degrades to a counted, logged skip instead.
var (
	ErrFilenameUnrecognized = errors.New("filename does not encode a period")
	ErrPageExtraction       = errors.New("page extraction failed")
	ErrPersistence          = errors.New("persistence failed")

	ErrInvalidInput = errors.New("invalid input")
)

// NewAppError constructs an AppError wrapping a cause.
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WrapError annotates an error with a message, preserving the chain.
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
