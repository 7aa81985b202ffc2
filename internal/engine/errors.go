package engine

import (
	"errors"
	"fmt"
)

// EngineError is a failure of the submission layer itself, as opposed to a
// ledger rejection.
type EngineError struct {
	// Code identifies the error category.
	Code EngineErrorCode

	// Message is a human-readable description.
	Message string

	// Seq is the transition being processed, when known.
	Seq int64

	// RequestID identifies the submission, when known.
	RequestID string

	// Err is the underlying cause.
	Err error
}

// EngineErrorCode categorizes engine errors.
type EngineErrorCode string

const (
	// ErrCodeHalted indicates the engine stopped accepting work after a
	// recorder failure.
	ErrCodeHalted EngineErrorCode = "HALTED"

	// ErrCodeStopped indicates the engine was stopped or its Run loop exited.
	ErrCodeStopped EngineErrorCode = "STOPPED"

	// ErrCodeInvalidCommand indicates an unknown op.
	ErrCodeInvalidCommand EngineErrorCode = "INVALID_COMMAND"

	// ErrCodeRecordFailed indicates the Recorder could not append a transition.
	ErrCodeRecordFailed EngineErrorCode = "RECORD_FAILED"
)

// Sentinels for errors.Is; matching is by Code.
var (
	ErrHalted         = &EngineError{Code: ErrCodeHalted, Message: "engine halted"}
	ErrStopped        = &EngineError{Code: ErrCodeStopped, Message: "engine stopped"}
	ErrInvalidCommand = &EngineError{Code: ErrCodeInvalidCommand, Message: "invalid command"}
)

// Error implements the error interface.
func (e *EngineError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Seq != 0 {
		msg += fmt.Sprintf(" (seq=%d)", e.Seq)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *EngineError) Unwrap() error {
	return e.Err
}

// Is matches any EngineError with the same Code.
func (e *EngineError) Is(target error) bool {
	t, ok := target.(*EngineError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// IsHalted reports whether err came from a halted engine.
// A RECORD_FAILED error also means the engine is now halted.
func IsHalted(err error) bool {
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee.Code == ErrCodeHalted || ee.Code == ErrCodeRecordFailed
	}
	return false
}

// ReplayError reports where a replayed log diverged from its recording.
type ReplayError struct {
	Seq      int64
	Field    string
	Recorded string
	Replayed string
}

func (e *ReplayError) Error() string {
	return fmt.Sprintf("replay diverged at seq=%d: %s recorded %q, replayed %q",
		e.Seq, e.Field, e.Recorded, e.Replayed)
}
