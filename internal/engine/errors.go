package engine

import (
	"errors"
	"fmt"
)

// RuntimeError represents an error detected during engine operation.
//
// Runtime errors include:
//   - Unknown intent: Apply targets an id the engine never created
//   - Unknown operation: Apply names an unrecognized operation
//   - Duplicate intent: CreateIntent reuses an id within the journey
//   - Journal write failed: a transition record could not be stored
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// JourneyToken identifies the affected journey.
	JourneyToken string

	// IntentID identifies the affected intent, when known.
	IntentID string
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeUnknownIntent indicates the intent id is not hosted by the engine.
	ErrCodeUnknownIntent RuntimeErrorCode = "UNKNOWN_INTENT"

	// ErrCodeUnknownOperation indicates an unrecognized operation name.
	ErrCodeUnknownOperation RuntimeErrorCode = "UNKNOWN_OPERATION"

	// ErrCodeDuplicateIntent indicates the intent id is already hosted.
	ErrCodeDuplicateIntent RuntimeErrorCode = "DUPLICATE_INTENT"

	// ErrCodeJournalWrite indicates a transition record could not be stored.
	ErrCodeJournalWrite RuntimeErrorCode = "JOURNAL_WRITE_FAILED"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	if e.JourneyToken != "" && e.IntentID != "" {
		return fmt.Sprintf("%s: %s (journey=%s, intent=%s)", e.Code, e.Message, e.JourneyToken, e.IntentID)
	}
	if e.JourneyToken != "" {
		return fmt.Sprintf("%s: %s (journey=%s)", e.Code, e.Message, e.JourneyToken)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsUnknownIntent returns true for unknown-intent errors.
// Uses errors.As to handle wrapped errors.
func IsUnknownIntent(err error) bool {
	var re *RuntimeError
	return errors.As(err, &re) && re.Code == ErrCodeUnknownIntent
}

// IsUnknownOperation returns true for unknown-operation errors.
// Uses errors.As to handle wrapped errors.
func IsUnknownOperation(err error) bool {
	var re *RuntimeError
	return errors.As(err, &re) && re.Code == ErrCodeUnknownOperation
}

// IsJournalError returns true for journal-write errors.
// Uses errors.As to handle wrapped errors.
func IsJournalError(err error) bool {
	var re *RuntimeError
	return errors.As(err, &re) && re.Code == ErrCodeJournalWrite
}

func newUnknownIntentError(journeyToken, intentID string) *RuntimeError {
	return &RuntimeError{
		Code:         ErrCodeUnknownIntent,
		Message:      "intent not found in this journey",
		JourneyToken: journeyToken,
		IntentID:     intentID,
	}
}

func newUnknownOperationError(journeyToken, intentID, op string) *RuntimeError {
	return &RuntimeError{
		Code:         ErrCodeUnknownOperation,
		Message:      fmt.Sprintf("unrecognized operation %q", op),
		JourneyToken: journeyToken,
		IntentID:     intentID,
	}
}

func newDuplicateIntentError(journeyToken, intentID string) *RuntimeError {
	return &RuntimeError{
		Code:         ErrCodeDuplicateIntent,
		Message:      "intent id already hosted in this journey",
		JourneyToken: journeyToken,
		IntentID:     intentID,
	}
}

func newJournalError(journeyToken, intentID string, cause error) *RuntimeError {
	return &RuntimeError{
		Code:         ErrCodeJournalWrite,
		Message:      fmt.Sprintf("transition record not stored: %v", cause),
		JourneyToken: journeyToken,
		IntentID:     intentID,
	}
}
