package model

import "time"

// SessionState is the wizard's position in its state machine
type SessionState string

const (
	StateIdle           SessionState = "idle"
	StateAwaitingAnswer SessionState = "awaiting_answer"
	StateSubmitting     SessionState = "submitting"
	StateTerminated     SessionState = "terminated"
)

// Identity carries the optional identifiers taken from the page query string.
// Both are forwarded verbatim to a remote question source.
type Identity struct {
	SessionID string `json:"sessionId,omitempty" bson:"sessionId,omitempty"`
	UserID    string `json:"userId,omitempty" bson:"userId,omitempty"`
}

// FailureKind classifies why the last source call did not produce a question
type FailureKind string

const (
	FailureTransport FailureKind = "transport" // network, status or timeout
	FailureProtocol  FailureKind = "protocol"  // malformed or invalid payload
)

// Failure is the recorded outcome of a failed source call. The session stays
// on its current question and the respondent can retry.
type Failure struct {
	Kind    FailureKind `json:"kind"`
	Message string      `json:"message"`
	At      time.Time   `json:"at"`
}

// Snapshot is a point-in-time copy of a wizard session
type Snapshot struct {
	ID         string       `json:"id"`
	SurveyID   string       `json:"surveyId,omitempty"`
	Identity   Identity     `json:"identity"`
	State      SessionState `json:"state"`
	Question   *Question    `json:"question,omitempty"`
	Transcript Transcript   `json:"transcript"`
	Failure    *Failure     `json:"failure,omitempty"`
	UpdatedAt  time.Time    `json:"updatedAt"`
}

// Retryable reports whether the last source call failed and may be repeated
func (s *Snapshot) Retryable() bool {
	return s.Failure != nil && s.State != StateTerminated
}
