package rag

import (
	"errors"
	"fmt"
)

// ErrorCode classifies engine failures so the boundary layer can map them
// to user-facing messages without string matching.
type ErrorCode string

const (
	CodeUnsupportedFormat   ErrorCode = "UNSUPPORTED_FORMAT"
	CodeDuplicateDocument   ErrorCode = "DUPLICATE_DOCUMENT"
	CodeEmptyDocument       ErrorCode = "EMPTY_DOCUMENT"
	CodeNotFound            ErrorCode = "NOT_FOUND"
	CodeFileTooLarge        ErrorCode = "FILE_TOO_LARGE"
	CodeTranslationFailed   ErrorCode = "TRANSLATION_FAILED"
	CodeSummarizationFailed ErrorCode = "SUMMARIZATION_FAILED"
	CodeIncompatibleIndices ErrorCode = "INCOMPATIBLE_INDICES"
	CodeEmptyScope          ErrorCode = "EMPTY_SCOPE"
	CodeGenerationFailed    ErrorCode = "GENERATION_FAILED"
)

// Error engine error with a stable code and optional cause.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// NewError creates an engine error.
func NewError(code ErrorCode, message string, cause error) error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// NewErrorf creates an engine error with a formatted message.
func NewErrorf(code ErrorCode, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// CodeOf extracts the engine error code, "" when err carries none.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsCode reports whether err carries the given engine error code.
func IsCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}
