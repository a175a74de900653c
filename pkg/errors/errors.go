// Package errors provides structured error handling for tabeval
package errors

import (
	"errors"
	"fmt"
	"runtime"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeInternal represents internal system errors
	ErrorTypeInternal ErrorType = "internal"
	// ErrorTypeSchema represents column/row count inconsistencies in a table or wire dict
	ErrorTypeSchema ErrorType = "schema"
	// ErrorTypeUnsupportedValue represents a boundary value of an unrecognized type
	ErrorTypeUnsupportedValue ErrorType = "unsupported_value"
	// ErrorTypeRowEvaluation represents a row transform failure for a single row
	ErrorTypeRowEvaluation ErrorType = "row_evaluation"
	// ErrorTypeConfig represents configuration errors
	ErrorTypeConfig ErrorType = "config"
	// ErrorTypeData represents payload encoding and decoding errors
	ErrorTypeData ErrorType = "data"
	// ErrorTypeFile represents file operation errors
	ErrorTypeFile ErrorType = "file"
)

// Error represents a structured error with context
type Error struct {
	Type    ErrorType
	Message string
	Cause   error
	Details map[string]interface{}
	Stack   []StackFrame
}

// StackFrame represents a single frame in the call stack
type StackFrame struct {
	Function string
	File     string
	Line     int
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithDetail adds a key-value detail to the error
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// New creates a new error with the given type and message
func New(errType ErrorType, message string) *Error {
	return &Error{
		Type:    errType,
		Message: message,
		Stack:   captureStack(2),
	}
}

// Newf creates a new error with a formatted message
func Newf(errType ErrorType, format string, args ...interface{}) *Error {
	return &Error{
		Type:    errType,
		Message: fmt.Sprintf(format, args...),
		Stack:   captureStack(2),
	}
}

// Wrap wraps an existing error with additional context
func Wrap(err error, errType ErrorType, message string) *Error {
	if err == nil {
		return nil
	}

	// If already our error type, preserve the stack
	var existingErr *Error
	if errors.As(err, &existingErr) {
		return &Error{
			Type:    errType,
			Message: message,
			Cause:   err,
			Stack:   existingErr.Stack,
		}
	}

	return &Error{
		Type:    errType,
		Message: message,
		Cause:   err,
		Stack:   captureStack(2),
	}
}

// NewSchemaError reports a column-count or row-count mismatch.
func NewSchemaError(format string, args ...interface{}) *Error {
	return &Error{
		Type:    ErrorTypeSchema,
		Message: fmt.Sprintf(format, args...),
		Stack:   captureStack(2),
	}
}

// NewUnsupportedValueError reports a value whose runtime type the coercion
// layer does not recognize. The message names the type.
func NewUnsupportedValueError(value interface{}) *Error {
	return (&Error{
		Type:    ErrorTypeUnsupportedValue,
		Message: fmt.Sprintf("type %T is not supported", value),
		Stack:   captureStack(2),
	}).WithDetail("type", fmt.Sprintf("%T", value))
}

// NewRowEvaluationError wraps the failure a row transform raised for one row.
func NewRowEvaluationError(row int, cause error) *Error {
	return (&Error{
		Type:    ErrorTypeRowEvaluation,
		Message: fmt.Sprintf("row %d", row),
		Cause:   cause,
	}).WithDetail("row", row)
}

// IsType checks if the error is of the given type
func IsType(err error, errType ErrorType) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Type == errType
}

// IsSchema reports whether err is a SchemaError.
func IsSchema(err error) bool { return IsType(err, ErrorTypeSchema) }

// IsUnsupportedValue reports whether err is an UnsupportedValueError.
func IsUnsupportedValue(err error) bool { return IsType(err, ErrorTypeUnsupportedValue) }

// IsRowEvaluation reports whether err is a RowEvaluationError.
func IsRowEvaluation(err error) bool { return IsType(err, ErrorTypeRowEvaluation) }

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// captureStack captures the current call stack
func captureStack(skip int) []StackFrame {
	const maxFrames = 32
	frames := make([]StackFrame, 0, maxFrames)

	for i := skip; i < maxFrames+skip; i++ {
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}

		fn := runtime.FuncForPC(pc)
		if fn == nil {
			continue
		}

		frames = append(frames, StackFrame{
			Function: fn.Name(),
			File:     file,
			Line:     line,
		})
	}

	return frames
}
