package nanolog

import (
	"errors"
	"fmt"
	"syscall"
)

// Error represents a structured nanolog error with operation context and
// errno mapping for the rare syscall-backed operations (core pinning).
type Error struct {
	Op     string        // Operation that failed (e.g., "register", "alloc", "flush")
	SiteID uint64        // Call-site decoder-registry index, 0 if not applicable
	Code   ErrorCode     // High-level error category
	Errno  syscall.Errno // Kernel errno, 0 if not applicable
	Msg    string        // Human-readable message
	Inner  error         // Wrapped error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var parts []string

	if e.Op != "" {
		parts = append(parts, fmt.Sprintf("op=%s", e.Op))
	}
	if e.SiteID != 0 {
		parts = append(parts, fmt.Sprintf("site=%d", e.SiteID))
	}
	if e.Errno != 0 {
		parts = append(parts, fmt.Sprintf("errno=%d", e.Errno))
	}

	msg := e.Msg
	if msg == "" {
		msg = string(e.Code)
	}

	if len(parts) > 0 {
		return fmt.Sprintf("nanolog: %s (%s)", msg, parts[0])
	}
	return fmt.Sprintf("nanolog: %s", msg)
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Inner
}

// Is provides errors.Is support by comparing error codes.
func (e *Error) Is(target error) bool {
	if target == nil {
		return false
	}
	if te, ok := target.(*Error); ok {
		return e.Code == te.Code
	}
	return false
}

// ErrorCode represents a high-level nanolog error category.
type ErrorCode string

const (
	ErrCodeQueueFull          ErrorCode = "producer queue full"
	ErrCodeNotInitialized     ErrorCode = "logger not initialized"
	ErrCodeAlreadyInitialized ErrorCode = "logger already initialized"
	ErrCodeDecoderCollision   ErrorCode = "decoder fingerprint collision"
	ErrCodeSinkIOError        ErrorCode = "sink write error"
	ErrCodeCalibrationFailed  ErrorCode = "clock calibration failed"
	ErrCodeInvalidArgument    ErrorCode = "invalid argument"
	ErrCodeShutdown           ErrorCode = "logger is shutting down"
	ErrCodeCorePinFailed      ErrorCode = "consumer core pin failed"
	ErrCodeLineTooLarge       ErrorCode = "rendered line exceeds scratch hard cap"
	ErrCodeClockAnomaly       ErrorCode = "wall clock moved backward across calibration"
	ErrCodeRegistrationClosed ErrorCode = "producer registration channel closed"
)

// NewError creates a new structured error.
func NewError(op string, code ErrorCode, msg string) *Error {
	return &Error{Op: op, Code: code, Msg: msg}
}

// NewSiteError creates a new structured error tied to a call site.
func NewSiteError(op string, siteID uint64, code ErrorCode, msg string) *Error {
	return &Error{Op: op, SiteID: siteID, Code: code, Msg: msg}
}

// NewErrnoError creates a new structured error wrapping a syscall errno,
// used by the consumer's CPU-pinning path.
func NewErrnoError(op string, code ErrorCode, errno syscall.Errno) *Error {
	return &Error{Op: op, Code: code, Errno: errno, Msg: errno.Error()}
}

// WrapError wraps an existing error with nanolog operation context.
func WrapError(op string, inner error) *Error {
	if inner == nil {
		return nil
	}
	if ne, ok := inner.(*Error); ok {
		return &Error{
			Op:     op,
			SiteID: ne.SiteID,
			Code:   ne.Code,
			Errno:  ne.Errno,
			Msg:    ne.Msg,
			Inner:  ne.Inner,
		}
	}
	if errno, ok := inner.(syscall.Errno); ok {
		return &Error{Op: op, Code: ErrCodeCorePinFailed, Errno: errno, Msg: errno.Error(), Inner: inner}
	}
	return &Error{Op: op, Code: ErrCodeSinkIOError, Msg: inner.Error(), Inner: inner}
}

// IsCode checks if err (or any error it wraps) is a nanolog *Error with
// the given code.
func IsCode(err error, code ErrorCode) bool {
	var nerr *Error
	if errors.As(err, &nerr) {
		return nerr.Code == code
	}
	return false
}
