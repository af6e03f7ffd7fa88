package errors

import (
	"fmt"

	pkgerrors "github.com/pkg/errors"
)

// ErrorCode identifies a class of scheduling error.
type ErrorCode string

const (
	// ErrCodeUnresolvableTime indicates the utterance carries no time of day.
	ErrCodeUnresolvableTime ErrorCode = "UNRESOLVABLE_TIME"
	// ErrCodeInvalidArgument indicates invalid input parameters.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
	// ErrCodeInvalidLexicon indicates a lexicon overlay could not be loaded.
	ErrCodeInvalidLexicon ErrorCode = "INVALID_LEXICON"
	// ErrCodeSourceUnavailable indicates a calendar block source could not be read.
	ErrCodeSourceUnavailable ErrorCode = "SOURCE_UNAVAILABLE"
)

// ScheduleError is a structured error carrying a code and a user-facing message.
type ScheduleError struct {
	Code    ErrorCode
	Message string
	Cause   error
	Context map[string]any
}

// Error implements the error interface.
func (e *ScheduleError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *ScheduleError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error.
func (e *ScheduleError) WithContext(key string, value any) *ScheduleError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// UnresolvableTime creates the error reported when no time of day is found.
func UnresolvableTime(msg string) *ScheduleError {
	return &ScheduleError{Code: ErrCodeUnresolvableTime, Message: msg}
}

// InvalidArgument creates an invalid argument error.
func InvalidArgument(msg string) *ScheduleError {
	return &ScheduleError{Code: ErrCodeInvalidArgument, Message: msg}
}

// InvalidLexicon creates a lexicon loading error.
func InvalidLexicon(path string, cause error) *ScheduleError {
	return &ScheduleError{
		Code:    ErrCodeInvalidLexicon,
		Message: fmt.Sprintf("cannot load lexicon %s", path),
		Cause:   cause,
	}
}

// SourceUnavailable creates an error for an unreadable block source.
func SourceUnavailable(source string, cause error) *ScheduleError {
	return &ScheduleError{
		Code:    ErrCodeSourceUnavailable,
		Message: fmt.Sprintf("cannot read calendar source %s", source),
		Cause:   cause,
	}
}

// Wrap wraps an existing error with a code.
func Wrap(cause error, code ErrorCode, msg string) *ScheduleError {
	return &ScheduleError{Code: code, Message: msg, Cause: cause}
}

// IsCode reports whether any error in err's chain is a ScheduleError with code.
func IsCode(err error, code ErrorCode) bool {
	var se *ScheduleError
	if pkgerrors.As(err, &se) {
		return se.Code == code
	}
	return false
}

// GetCodeFromError extracts the error code from any error.
// Returns the provided default code if the error is not a ScheduleError.
func GetCodeFromError(err error, defaultCode ErrorCode) ErrorCode {
	var se *ScheduleError
	if pkgerrors.As(err, &se) {
		return se.Code
	}
	return defaultCode
}
