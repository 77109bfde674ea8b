package errors

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
)

const (
	UnknownCode       = 500
	UnknownReason     = ""
	MetadataSeparator = ", "
	MetadataPrefix    = "metadata={"
	MetadataSuffix    = "}"
	CausePrefix       = "cause="
)

// Status represents the status information of an error: a numeric code, a stable
// machine readable reason, a human readable message and free form metadata.
type Status struct {
	Code     int               `json:"code,omitempty"`
	Reason   string            `json:"reason,omitempty"`
	Message  string            `json:"message,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Error represents a structured error carrying a Status and an optional cause.
type Error struct {
	Status
	cause error
}

// Error returns a human-readable error message with optional error chain.
// Metadata keys are written in sorted order so the output is stable.
func (e *Error) Error() string {
	var msg strings.Builder

	msg.WriteString("code=")
	msg.WriteString(strconv.Itoa(e.Code))
	if e.Reason != "" {
		msg.WriteString(MetadataSeparator)
		msg.WriteString("reason=")
		msg.WriteString(e.Reason)
	}
	msg.WriteString(MetadataSeparator)
	msg.WriteString("message=")
	msg.WriteString(e.Message)

	if len(e.Metadata) > 0 {
		msg.WriteString(MetadataSeparator)
		msg.WriteString(MetadataPrefix)
		for i, k := range slices.Sorted(maps.Keys(e.Metadata)) {
			if i > 0 {
				msg.WriteString(", ")
			}
			msg.WriteString(k)
			msg.WriteByte('=')
			msg.WriteString(e.Metadata[k])
		}
		msg.WriteString(MetadataSuffix)
	}

	if e.cause != nil {
		msg.WriteString(MetadataSeparator)
		msg.WriteString(CausePrefix)
		msg.WriteString(e.cause.Error())
	}

	return msg.String()
}

// Unwrap returns the cause of the error
func (e *Error) Unwrap() error {
	return e.cause
}

// WithMetadata adds metadata to the error. Returns a new error instance to maintain immutability.
func (e *Error) WithMetadata(m map[string]string) *Error {
	if len(m) == 0 {
		return e
	}

	err := e.clone()
	if err.Metadata == nil {
		err.Metadata = make(map[string]string, len(m))
	}

	maps.Copy(err.Metadata, m)
	return err
}

// WithCause adds a cause to the error. Returns a new error instance to maintain immutability.
func (e *Error) WithCause(cause error) *Error {
	if cause == nil {
		return e
	}

	err := e.clone()
	err.cause = cause
	return err
}

// WithReason sets the machine readable reason. Returns a new error instance.
func (e *Error) WithReason(reason string) *Error {
	err := e.clone()
	err.Reason = reason
	return err
}

// WithMessage replaces the message. Returns a new error instance.
func (e *Error) WithMessage(format string, args ...any) *Error {
	err := e.clone()
	err.Message = sprintf(format, args...)
	return err
}

// clone creates a shallow copy of the error while deep copying the metadata map
func (e *Error) clone() *Error {
	var metadata map[string]string
	if len(e.Metadata) > 0 {
		metadata = make(map[string]string, len(e.Metadata))
		maps.Copy(metadata, e.Metadata)
	}

	return &Error{
		Status: Status{
			Code:     e.Code,
			Reason:   e.Reason,
			Message:  e.Message,
			Metadata: metadata,
		},
		cause: e.cause,
	}
}

// Is reports whether err is an *Error describing the same condition.
// Errors that carry a reason match on code and reason, so a sentinel still
// matches after WithMessage or WithMetadata. Errors without a reason match on
// code and message.
func (e *Error) Is(err error) bool {
	var ge *Error
	if !errors.As(err, &ge) {
		return false
	}
	if e.Reason != "" || ge.Reason != "" {
		return e.Code == ge.Code && e.Reason == ge.Reason
	}
	return e.Code == ge.Code && e.Message == ge.Message
}

// GetCode returns the error code
func (e *Error) GetCode() int {
	return e.Code
}

// GetReason returns the error reason
func (e *Error) GetReason() string {
	return e.Reason
}

// GetMessage returns the error message
func (e *Error) GetMessage() string {
	return e.Message
}

// GetMetadata returns a copy of the metadata to prevent external modification
func (e *Error) GetMetadata() map[string]string {
	if len(e.Metadata) == 0 {
		return nil
	}

	result := make(map[string]string, len(e.Metadata))
	maps.Copy(result, e.Metadata)
	return result
}

// GetCause returns the underlying cause of the error
func (e *Error) GetCause() error {
	return e.cause
}

// New creates a new error with the given error code and formatted message
func New(code int, format string, args ...any) *Error {
	return &Error{
		Status: Status{
			Code:    code,
			Message: sprintf(format, args...),
		},
	}
}

// NewWithReason creates a new error with a code, a reason and a formatted message
func NewWithReason(code int, reason, format string, args ...any) *Error {
	err := New(code, format, args...)
	err.Reason = reason
	return err
}

// NewWithMetadata creates a new error with metadata
func NewWithMetadata(code int, metadata map[string]string, format string, args ...any) *Error {
	err := New(code, format, args...)
	if len(metadata) > 0 {
		err.Metadata = make(map[string]string, len(metadata))
		maps.Copy(err.Metadata, metadata)
	}
	return err
}

// FromError converts a generic error to *Error.
// The first *Error found in the chain is returned as is.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}

	var ge *Error
	if errors.As(err, &ge) {
		return ge
	}

	return New(UnknownCode, "%v", err).WithCause(err)
}

// Code returns the code of the first *Error in the chain, 200 for nil and
// UnknownCode for foreign errors.
func Code(err error) int {
	if err == nil {
		return 200
	}
	return FromError(err).Code
}

// Reason returns the reason of the first *Error in the chain.
func Reason(err error) string {
	if err == nil {
		return UnknownReason
	}
	return FromError(err).Reason
}

// Wrap wraps an error with additional context while preserving the original error chain
// Returns nil if the input error is nil
func Wrap(err error, code int, format string, args ...any) *Error {
	if err == nil {
		return nil
	}

	newErr := New(code, format, args...)
	return newErr.WithCause(err)
}

// WrapWithMetadata wraps an error with metadata and additional context
// Returns nil if the input error is nil
func WrapWithMetadata(err error, code int, metadata map[string]string, format string, args ...any) *Error {
	if err == nil {
		return nil
	}

	newErr := NewWithMetadata(code, metadata, format, args...)
	return newErr.WithCause(err)
}

func sprintf(format string, args ...any) string {
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}
