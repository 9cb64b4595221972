package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"
	"strings"
	"sync"
	"time"

	"surveywizard/internal/model"
)

// SurveyController is the wizard state machine for one session. It owns the
// current question and the transcript; callers only ever see snapshots.
//
// The mutex is never held across a source call. While a call is outstanding
// the state is StateSubmitting, which rejects every other transition.
type SurveyController struct {
	id       string
	surveyID string
	identity model.Identity
	source   QuestionSource
	timeout  time.Duration
	observer func(model.Snapshot)
	notifyMu sync.Mutex // orders observer calls

	mu         sync.Mutex
	state      model.SessionState
	question   *model.Question
	transcript model.Transcript
	failure    *model.Failure
	updatedAt  time.Time
}

// NewSurveyController creates an idle controller
func NewSurveyController(id, surveyID string, identity model.Identity, source QuestionSource, timeout time.Duration) *SurveyController {
	return &SurveyController{
		id:         id,
		surveyID:   surveyID,
		identity:   identity,
		source:     source,
		timeout:    timeout,
		state:      model.StateIdle,
		transcript: model.Transcript{},
		updatedAt:  time.Now(),
	}
}

// SetObserver registers a callback run after every state change
func (c *SurveyController) SetObserver(fn func(model.Snapshot)) {
	c.mu.Lock()
	c.observer = fn
	c.mu.Unlock()
}

// Close detaches the observer. Once it returns no further changes are
// reported, including those of a submission still in flight.
func (c *SurveyController) Close() {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()
	c.mu.Lock()
	c.observer = nil
	c.mu.Unlock()
}

// WithSnapshot runs fn with the current snapshot, ordered with respect to
// observer callbacks
func (c *SurveyController) WithSnapshot(fn func(model.Snapshot)) {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()
	fn(c.Snapshot())
}

// Restore loads a previously saved snapshot. A snapshot saved mid-request is
// restored as if the request failed, since nothing is waiting for it anymore.
func (c *SurveyController) Restore(snap model.Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state = snap.State
	c.question = snap.Question.Clone()
	c.transcript = snap.Transcript.Clone()
	c.failure = snap.Failure
	c.updatedAt = snap.UpdatedAt

	if c.state == model.StateSubmitting {
		c.failure = &model.Failure{Kind: model.FailureTransport, Message: "request interrupted", At: time.Now()}
		if c.question == nil {
			c.state = model.StateIdle
		} else {
			if n := len(c.transcript); n > 0 && c.transcript[n-1].FromUser {
				c.transcript = c.transcript[:n-1]
			}
			c.state = model.StateAwaitingAnswer
		}
	}
}

// Snapshot returns a copy of the current session state
func (c *SurveyController) Snapshot() model.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *SurveyController) snapshotLocked() model.Snapshot {
	var failure *model.Failure
	if c.failure != nil {
		f := *c.failure
		failure = &f
	}
	return model.Snapshot{
		ID:         c.id,
		SurveyID:   c.surveyID,
		Identity:   c.identity,
		State:      c.state,
		Question:   c.question.Clone(),
		Transcript: c.transcript.Clone(),
		Failure:    failure,
		UpdatedAt:  c.updatedAt,
	}
}

// Start requests the first question. On a source failure the session stays
// idle with the failure recorded so Start can be called again.
func (c *SurveyController) Start(ctx context.Context) (model.Snapshot, error) {
	c.mu.Lock()
	if c.state != model.StateIdle {
		snap := c.snapshotLocked()
		c.mu.Unlock()
		return snap, &TransitionError{Op: "start", State: snap.State}
	}
	c.state = model.StateSubmitting
	c.failure = nil
	c.updatedAt = time.Now()
	c.mu.Unlock()
	c.notify()

	next, err := c.fetch(ctx, model.Transcript{})

	c.mu.Lock()
	switch {
	case errors.Is(err, ErrEndOfSurvey):
		c.terminateLocked()
		err = nil
	case err != nil:
		c.state = model.StateIdle
		c.failLocked(err)
	default:
		c.askLocked(next)
	}
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.notify()
	return snap, err
}

// Submit records an answer to the current question and requests the next one.
// Empty or mismatched answers are rejected with a *ValidationError and leave
// the state untouched.
func (c *SurveyController) Submit(ctx context.Context, answer model.Answer) (model.Snapshot, error) {
	return c.submit(ctx, answer, nil)
}

// submit answers the current question. When expect is set the answer was
// collected for that question and is refused if another one replaced it.
func (c *SurveyController) submit(ctx context.Context, answer model.Answer, expect *model.Question) (model.Snapshot, error) {
	c.mu.Lock()
	if c.state != model.StateAwaitingAnswer || (expect != nil && expect != c.question) {
		snap := c.snapshotLocked()
		c.mu.Unlock()
		return snap, &TransitionError{Op: "submit", State: snap.State}
	}
	answer = normalizeAnswer(answer)
	if err := checkAnswer(c.question, answer); err != nil {
		snap := c.snapshotLocked()
		c.mu.Unlock()
		return snap, err
	}

	c.transcript = append(c.transcript, model.Turn{Text: answer.Text(), FromUser: true})
	c.state = model.StateSubmitting
	c.failure = nil
	c.updatedAt = time.Now()
	sent := c.transcript.Clone()
	c.mu.Unlock()
	c.notify()

	next, err := c.fetch(ctx, sent)

	c.mu.Lock()
	switch {
	case errors.Is(err, ErrEndOfSurvey):
		c.terminateLocked()
		err = nil
	case err != nil:
		// keep the question; the answer can be sent again
		c.transcript = c.transcript[:len(c.transcript)-1]
		c.state = model.StateAwaitingAnswer
		c.failLocked(err)
	default:
		c.askLocked(next)
	}
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.notify()
	return snap, err
}

// SubmitControls collects the answer from a control snapshot and submits it
func (c *SurveyController) SubmitControls(ctx context.Context, controls model.ControlSnapshot) (model.Snapshot, error) {
	c.mu.Lock()
	if c.state != model.StateAwaitingAnswer {
		snap := c.snapshotLocked()
		c.mu.Unlock()
		return snap, &TransitionError{Op: "submit", State: snap.State}
	}
	q := c.question
	c.mu.Unlock()

	answer, ok := Collect(q, controls)
	if !ok {
		return c.Snapshot(), validationFor(q.Kind)
	}
	return c.submit(ctx, answer, q)
}

// Reset clears a finished session so it can be started again
func (c *SurveyController) Reset() (model.Snapshot, error) {
	c.mu.Lock()
	if c.state != model.StateTerminated {
		snap := c.snapshotLocked()
		c.mu.Unlock()
		return snap, &TransitionError{Op: "reset", State: snap.State}
	}
	c.state = model.StateIdle
	c.question = nil
	c.transcript = model.Transcript{}
	c.failure = nil
	c.updatedAt = time.Now()
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.notify()
	return snap, nil
}

func (c *SurveyController) fetch(ctx context.Context, transcript model.Transcript) (*model.Question, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	q, err := c.source.NextQuestion(ctx, c.identity, transcript)
	if err != nil {
		if errors.Is(err, ErrEndOfSurvey) {
			return nil, err
		}
		if ctx.Err() != nil && !isSourceError(err) {
			return nil, transportError("question source: %w", ctx.Err())
		}
		return nil, err
	}
	if q == nil {
		return nil, protocolError("question source returned no question")
	}
	if err := q.Validate(); err != nil {
		return nil, protocolError("invalid question: %w", err)
	}
	return q, nil
}

func (c *SurveyController) askLocked(q *model.Question) {
	c.question = q
	c.transcript = append(c.transcript, model.Turn{Text: q.Prompt, FromUser: false})
	c.state = model.StateAwaitingAnswer
	c.failure = nil
	c.updatedAt = time.Now()
}

func (c *SurveyController) terminateLocked() {
	c.question = nil
	c.state = model.StateTerminated
	c.failure = nil
	c.updatedAt = time.Now()
	log.Printf("[Survey] Session %s completed with %d answers: %v", c.id, c.transcript.Answers(), c.transcript)
}

func (c *SurveyController) failLocked(err error) {
	kind := classify(err)
	c.failure = &model.Failure{Kind: kind, Message: err.Error(), At: time.Now()}
	c.updatedAt = c.failure.At
	log.Printf("[Survey] Session %s: %s failure from question source: %v", c.id, kind, err)
}

func (c *SurveyController) notify() {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()

	c.mu.Lock()
	fn := c.observer
	snap := c.snapshotLocked()
	c.mu.Unlock()
	if fn != nil {
		fn(snap)
	}
}

func isSourceError(err error) bool {
	var se *SourceError
	return errors.As(err, &se)
}

// normalizeAnswer trims free text so every submit path records the same turn
func normalizeAnswer(answer model.Answer) model.Answer {
	if a, ok := answer.(model.TextAnswer); ok {
		return model.TextAnswer(strings.TrimSpace(string(a)))
	}
	return answer
}

// checkAnswer enforces that the answer is present and fits the question
func checkAnswer(q *model.Question, answer model.Answer) error {
	if model.IsEmpty(answer) {
		return validationFor(q.Kind)
	}
	if answer.Kind() != q.Kind {
		return &ValidationError{Kind: q.Kind, Reason: fmt.Sprintf("expected a %s answer", q.Kind)}
	}
	switch a := answer.(type) {
	case model.ChoiceAnswer:
		if !slices.Contains(q.Options, string(a)) {
			return &ValidationError{Kind: q.Kind, Reason: fmt.Sprintf("%q is not an option", string(a))}
		}
	case model.MultiChoiceAnswer:
		for _, label := range a {
			if !slices.Contains(q.Options, label) {
				return &ValidationError{Kind: q.Kind, Reason: fmt.Sprintf("%q is not an option", label)}
			}
		}
	}
	return nil
}
