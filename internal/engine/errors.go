package engine

import (
	"errors"
	"fmt"
)

// RuntimeError represents an error detected while executing a compiled
// event. The instruction stream is validated at compile time, so runtime
// errors indicate either a corrupted stream or a misbehaving evaluator.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// EventID identifies the affected event task.
	EventID int64

	// Line is the instruction index where the error occurred.
	Line int
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeEvalFailed indicates the test evaluator returned an error.
	ErrCodeEvalFailed RuntimeErrorCode = "EVAL_FAILED"

	// ErrCodeBadSlot indicates an instruction referenced a slot register
	// that is not live.
	ErrCodeBadSlot RuntimeErrorCode = "BAD_SLOT"

	// ErrCodeBadOpcode indicates an opcode the VM cannot dispatch.
	ErrCodeBadOpcode RuntimeErrorCode = "BAD_OPCODE"

	// ErrCodeTickQuota indicates a task executed more lines in one tick
	// than the configured budget allows.
	ErrCodeTickQuota RuntimeErrorCode = "TICK_QUOTA"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	return fmt.Sprintf("%s: %s (event=%d, line=%d)", e.Code, e.Message, e.EventID, e.Line)
}

// IsQuotaError reports whether err is a tick-quota violation.
// Uses errors.As to handle wrapped errors.
func IsQuotaError(err error) bool {
	var re *RuntimeError
	return errors.As(err, &re) && re.Code == ErrCodeTickQuota
}

// IsEvalError reports whether err came from the test evaluator.
func IsEvalError(err error) bool {
	var re *RuntimeError
	return errors.As(err, &re) && re.Code == ErrCodeEvalFailed
}
