package service

import (
	"errors"
	"fmt"

	"surveywizard/internal/model"
)

var (
	// ErrEndOfSurvey is returned by a question source when no question follows
	ErrEndOfSurvey = errors.New("end of survey")

	ErrInvalidTransition  = errors.New("invalid transition")
	ErrSubmissionInFlight = errors.New("a submission is already in flight")
	ErrSessionNotFound    = errors.New("session not found")
)

// ValidationError is an answer rejected before submission
type ValidationError struct {
	Kind   model.QuestionKind
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func validationFor(kind model.QuestionKind) *ValidationError {
	switch kind {
	case model.KindSingleChoice:
		return &ValidationError{Kind: kind, Reason: "please select an option"}
	case model.KindMultipleChoice:
		return &ValidationError{Kind: kind, Reason: "please select at least one option"}
	}
	return &ValidationError{Kind: kind, Reason: "please enter an answer"}
}

// TransitionError reports an operation attempted in a state that does not allow it
type TransitionError struct {
	Op    string
	State model.SessionState
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s not allowed while %s", e.Op, e.State)
}

func (e *TransitionError) Unwrap() []error {
	if e.State == model.StateSubmitting {
		return []error{ErrInvalidTransition, ErrSubmissionInFlight}
	}
	return []error{ErrInvalidTransition}
}

// SourceError is a question source failure other than end of survey
type SourceError struct {
	Kind model.FailureKind
	Err  error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

func transportError(format string, args ...any) error {
	return &SourceError{Kind: model.FailureTransport, Err: fmt.Errorf(format, args...)}
}

func protocolError(format string, args ...any) error {
	return &SourceError{Kind: model.FailureProtocol, Err: fmt.Errorf(format, args...)}
}

// classify maps any source error to a failure kind. Errors a source did not
// classify are treated as transport failures.
func classify(err error) model.FailureKind {
	var se *SourceError
	if errors.As(err, &se) {
		return se.Kind
	}
	return model.FailureTransport
}
