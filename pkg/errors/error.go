// Package errors provides structured error handling with typed error codes.
//
// Error codes are organized into categories:
//   - General errors (1-99): Unknown and general errors
//   - Validation errors (100-199): Invalid parameters, configuration and date ranges
//   - Data/Resource errors (200-299): Missing or empty data, query failures
//   - Market data errors (700-749): Price fetching, parsing and writing errors
//   - Fundamentals errors (750-799): EDGAR lookups and company facts
//
// Usage:
//
//	// Create a new error
//	err := errors.New(errors.ErrCodeInvalidParameter, "invalid parameter value")
//
//	// Create a formatted error
//	err := errors.Newf(errors.ErrCodeDataNotFound, "data not found for ticker %s", ticker)
//
//	// Wrap an existing error
//	err := errors.Wrap(errors.ErrCodeQueryFailed, "failed to execute query", originalErr)
//
//	// Check error code
//	if errors.HasCode(err, errors.ErrCodeDataNotFound) { ... }
package errors

import (
	"errors"
	"fmt"
)

// Error represents a structured error with an error code and message.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// New creates a new Error with the given code and message.
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   nil,
	}
}

// Newf creates a new Error with the given code and formatted message.
func Newf(code ErrorCode, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   nil,
	}
}

// Wrap wraps an existing error with a new Error containing the given code and message.
func Wrap(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Wrapf wraps an existing error with a new Error containing the given code and formatted message.
func Wrapf(code ErrorCode, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Cause)
	}

	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether any error in err's chain matches target.
// This is a convenience wrapper around the standard errors.Is function.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
// This is a convenience wrapper around the standard errors.As function.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// GetCode extracts the ErrorCode from an error if it's an *Error or *DataEmptyError.
// Returns ErrCodeUnknown otherwise.
func GetCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}

	var emptyErr *DataEmptyError
	if errors.As(err, &emptyErr) {
		return emptyErr.Code()
	}

	return ErrCodeUnknown
}

// HasCode checks if an error has a specific ErrorCode.
func HasCode(err error, code ErrorCode) bool {
	return GetCode(err) == code
}

// DataEmptyError is returned when cleaning reduces a table to zero rows.
// Stage names the cleaning step after which the table was empty.
type DataEmptyError struct {
	Stage     string
	InputRows int
	Message   string
}

// NewDataEmptyError creates a new DataEmptyError.
func NewDataEmptyError(stage string, inputRows int) *DataEmptyError {
	return &DataEmptyError{
		Stage:     stage,
		InputRows: inputRows,
		Message: fmt.Sprintf("table is empty after cleaning (stage: %s, input rows: %d), please check the input data",
			stage, inputRows),
	}
}

// Error implements the error interface.
func (e *DataEmptyError) Error() string {
	return e.Message
}

// Code returns ErrCodeDataEmpty.
func (e *DataEmptyError) Code() ErrorCode {
	return ErrCodeDataEmpty
}

// IsDataEmptyError checks if an error is a DataEmptyError.
// It uses errors.As to check the error chain.
func IsDataEmptyError(err error) bool {
	var emptyErr *DataEmptyError

	return errors.As(err, &emptyErr)
}
