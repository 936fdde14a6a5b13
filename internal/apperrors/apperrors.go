// Package apperrors provides the engine's error vocabulary: sentinel
// errors for each failure kind plus an AppError wrapper that carries
// the failing operation and an optional user-facing message.
package apperrors

import (
	"errors"
	"fmt"
)

// Sentinel errors for the failure kinds the engine distinguishes.
// Check with errors.Is().
var (
	// ErrNotFound indicates a job or profile row was not found.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates a duplicate non-cancelled job for the
	// same (profile, media, season, episode) tuple.
	ErrAlreadyExists = errors.New("job already exists")

	// ErrInvalidJob indicates a malformed enqueue request.
	ErrInvalidJob = errors.New("invalid job")

	// ErrTransport indicates a network/HTTP failure while fetching a
	// playlist, segment, or direct stream.
	ErrTransport = errors.New("transport error")

	// ErrParse indicates malformed playlist content.
	ErrParse = errors.New("parse error")

	// ErrEmptyPlaylist indicates an HLS media playlist resolved to zero
	// segments.
	ErrEmptyPlaylist = errors.New("playlist contained no segments")

	// ErrNestedMaster indicates a media playlist fetch unexpectedly
	// returned another master playlist.
	ErrNestedMaster = errors.New("unexpected nested master playlist")

	// ErrNoVariants indicates a master playlist had no variant streams.
	ErrNoVariants = errors.New("master playlist contained no variants")

	// ErrFilesystem indicates a local filesystem operation failed.
	ErrFilesystem = errors.New("filesystem error")

	// ErrCancelled indicates a job was cancelled by the caller.
	ErrCancelled = errors.New("job cancelled")

	// ErrPaused is a cooperative signal, not a failure: a fetch loop
	// observed its id in the paused set and stopped mid-stream.
	ErrPaused = errors.New("job paused")

	// ErrQuotaExceeded indicates a profile's storage quota would be
	// exceeded by completing this job.
	ErrQuotaExceeded = errors.New("storage quota exceeded")
)

// AppError is a structured error carrying the failing operation and,
// optionally, a user-facing message and code.
type AppError struct {
	Op      string // operation that failed, e.g. "Manager.Enqueue"
	Err     error  // underlying error
	Message string // user-friendly message
	Code    string // stable code for API consumers
}

func (e *AppError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates an AppError for op wrapping err.
func New(op string, err error) *AppError {
	return &AppError{Op: op, Err: err}
}

// NewWithMessage creates an AppError carrying a user-facing message.
func NewWithMessage(op string, err error, message string) *AppError {
	return &AppError{Op: op, Err: err, Message: message}
}

// NewWithCode creates an AppError carrying a stable code and message.
func NewWithCode(op string, err error, code, message string) *AppError {
	return &AppError{Op: op, Err: err, Code: code, Message: message}
}

// Wrap wraps err with operation context, returning nil if err is nil.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &AppError{Op: op, Err: err}
}

// WrapWithMessage wraps err with operation context and a user message.
func WrapWithMessage(op string, err error, message string) error {
	if err == nil {
		return nil
	}
	return &AppError{Op: op, Err: err, Message: message}
}

// IsNotFound reports whether err is or wraps ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists reports whether err is or wraps ErrAlreadyExists.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsCancelled reports whether err is or wraps ErrCancelled.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled)
}

// IsPaused reports whether err is or wraps ErrPaused.
func IsPaused(err error) bool {
	return errors.Is(err, ErrPaused)
}

// IsTransport reports whether err is or wraps ErrTransport.
func IsTransport(err error) bool {
	return errors.Is(err, ErrTransport)
}
