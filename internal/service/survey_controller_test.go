package service

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"surveywizard/internal/model"
)

func twoTextSurvey() *model.Survey {
	return &model.Survey{
		ID:    "t",
		Title: "Two",
		Questions: []model.Question{
			{Prompt: "What's your favorite color?", Kind: model.KindText},
			{Prompt: "Which country do you live in?", Kind: model.KindText},
		},
	}
}

func newStaticController(t *testing.T, survey *model.Survey) *SurveyController {
	t.Helper()
	src, err := NewStaticSource(survey)
	if err != nil {
		t.Fatalf("NewStaticSource failed: %v", err)
	}
	return NewSurveyController("s1", survey.ID, model.Identity{}, src, time.Second)
}

// funcSource adapts a function to QuestionSource
type funcSource func(ctx context.Context, tr model.Transcript) (*model.Question, error)

func (f funcSource) NextQuestion(ctx context.Context, _ model.Identity, tr model.Transcript) (*model.Question, error) {
	return f(ctx, tr)
}

func TestControllerTwoTextQuestions(t *testing.T) {
	ctrl := newStaticController(t, twoTextSurvey())
	ctx := context.Background()

	snap, err := ctrl.Start(ctx)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if snap.State != model.StateAwaitingAnswer || snap.Question.Prompt != "What's your favorite color?" {
		t.Fatalf("unexpected snapshot after start: %+v", snap)
	}

	if _, err := ctrl.Submit(ctx, model.TextAnswer("blue")); err != nil {
		t.Fatalf("first Submit failed: %v", err)
	}
	snap, err = ctrl.Submit(ctx, model.TextAnswer("France"))
	if err != nil {
		t.Fatalf("second Submit failed: %v", err)
	}

	want := model.Transcript{
		{Text: "What's your favorite color?", FromUser: false},
		{Text: "blue", FromUser: true},
		{Text: "Which country do you live in?", FromUser: false},
		{Text: "France", FromUser: true},
	}
	if !reflect.DeepEqual(snap.Transcript, want) {
		t.Fatalf("transcript = %+v, want %+v", snap.Transcript, want)
	}
	if snap.State != model.StateTerminated {
		t.Fatalf("expected terminated, got %s", snap.State)
	}
	if snap.Question != nil {
		t.Fatal("terminated session should have no question")
	}
}

func TestControllerTranscriptLengthMatchesSurvey(t *testing.T) {
	survey := model.DefaultSurvey()
	ctrl := newStaticController(t, survey)
	ctx := context.Background()

	snap, err := ctrl.Start(ctx)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	shown := 0
	for snap.State == model.StateAwaitingAnswer {
		shown++
		controls := model.ControlSnapshot{Text: "answer"}
		if snap.Question.Kind.IsChoice() {
			controls = model.ControlSnapshot{Checked: []bool{true}}
		}
		snap, err = ctrl.SubmitControls(ctx, controls)
		if err != nil {
			t.Fatalf("SubmitControls failed on question %d: %v", shown, err)
		}
	}

	if shown != len(survey.Questions) {
		t.Fatalf("shown %d questions, want %d", shown, len(survey.Questions))
	}
	if len(snap.Transcript) != 2*len(survey.Questions) {
		t.Fatalf("transcript has %d turns, want %d", len(snap.Transcript), 2*len(survey.Questions))
	}
}

func TestControllerRejectsEmptyAnswers(t *testing.T) {
	survey := &model.Survey{
		ID:    "v",
		Title: "Validation",
		Questions: []model.Question{
			{Prompt: "Name?", Kind: model.KindText},
			{Prompt: "One", Kind: model.KindSingleChoice, Options: []string{"A", "B"}},
			{Prompt: "Many", Kind: model.KindMultipleChoice, Options: []string{"A", "B"}},
		},
	}
	ctrl := newStaticController(t, survey)
	ctx := context.Background()
	if _, err := ctrl.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	rejected := []struct {
		controls model.ControlSnapshot
		next     model.ControlSnapshot
	}{
		{model.ControlSnapshot{Text: "   "}, model.ControlSnapshot{Text: "Ann"}},
		{model.ControlSnapshot{Checked: []bool{false, false}}, model.ControlSnapshot{Checked: []bool{true, false}}},
		{model.ControlSnapshot{}, model.ControlSnapshot{Checked: []bool{false, true}}},
	}

	for i, tc := range rejected {
		before := ctrl.Snapshot()
		snap, err := ctrl.SubmitControls(ctx, tc.controls)
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("question %d: expected ValidationError, got %v", i+1, err)
		}
		if snap.State != model.StateAwaitingAnswer || !reflect.DeepEqual(snap.Transcript, before.Transcript) {
			t.Fatalf("question %d: rejected answer changed state: %+v", i+1, snap)
		}
		if _, err := ctrl.SubmitControls(ctx, tc.next); err != nil {
			t.Fatalf("question %d: valid answer failed: %v", i+1, err)
		}
	}

	if got := ctrl.Snapshot().State; got != model.StateTerminated {
		t.Fatalf("expected terminated, got %s", got)
	}
}

func TestControllerRejectsMismatchedAnswers(t *testing.T) {
	survey := &model.Survey{
		ID:        "m",
		Title:     "Mismatch",
		Questions: []model.Question{{Prompt: "One", Kind: model.KindSingleChoice, Options: []string{"A", "B"}}},
	}
	ctrl := newStaticController(t, survey)
	ctx := context.Background()
	if _, err := ctrl.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	var verr *ValidationError
	if _, err := ctrl.Submit(ctx, model.TextAnswer("A")); !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError for wrong kind, got %v", err)
	}
	if _, err := ctrl.Submit(ctx, model.ChoiceAnswer("C")); !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError for unknown option, got %v", err)
	}
	if _, err := ctrl.Submit(ctx, nil); !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError for nil answer, got %v", err)
	}
}

func TestControllerInvalidTransitionsAreReported(t *testing.T) {
	ctrl := newStaticController(t, twoTextSurvey())
	ctx := context.Background()

	var terr *TransitionError
	if _, err := ctrl.Submit(ctx, model.TextAnswer("x")); !errors.As(err, &terr) || terr.State != model.StateIdle {
		t.Fatalf("expected transition error from idle, got %v", err)
	}
	if _, err := ctrl.Reset(); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected invalid reset from idle, got %v", err)
	}

	ctrl.Start(ctx)
	if _, err := ctrl.Start(ctx); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected invalid second start, got %v", err)
	}

	ctrl.Submit(ctx, model.TextAnswer("blue"))
	ctrl.Submit(ctx, model.TextAnswer("France"))
	if _, err := ctrl.Submit(ctx, model.TextAnswer("again")); !errors.As(err, &terr) || terr.State != model.StateTerminated {
		t.Fatalf("expected transition error from terminated, got %v", err)
	}
}

func TestControllerNoConcurrentSubmissions(t *testing.T) {
	var calls int32
	started := make(chan struct{}, 1)
	release := make(chan struct{})
	src := funcSource(func(ctx context.Context, tr model.Transcript) (*model.Question, error) {
		atomic.AddInt32(&calls, 1)
		if tr.Answers() > 0 {
			started <- struct{}{}
			<-release
			return nil, ErrEndOfSurvey
		}
		return &model.Question{Prompt: "Q1", Kind: model.KindText}, nil
	})
	ctrl := NewSurveyController("s1", "", model.Identity{}, src, 0)
	ctx := context.Background()

	if _, err := ctrl.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := ctrl.Submit(ctx, model.TextAnswer("first"))
		done <- err
	}()
	<-started

	if got := ctrl.Snapshot().State; got != model.StateSubmitting {
		t.Fatalf("expected submitting, got %s", got)
	}
	snap, err := ctrl.Submit(ctx, model.TextAnswer("second"))
	if !errors.Is(err, ErrSubmissionInFlight) {
		t.Fatalf("expected ErrSubmissionInFlight, got %v", err)
	}
	if snap.Transcript.Answers() != 1 {
		t.Fatalf("second submit changed the transcript: %+v", snap.Transcript)
	}
	if _, err := ctrl.Reset(); !errors.Is(err, ErrSubmissionInFlight) {
		t.Fatalf("expected reset to be refused while in flight, got %v", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first submit failed: %v", err)
	}
	if n := atomic.LoadInt32(&calls); n != 2 {
		t.Fatalf("expected 2 source calls, got %d", n)
	}
}

func TestControllerTransportFailureIsRetryable(t *testing.T) {
	var fail atomic.Bool
	fail.Store(true)
	src := funcSource(func(ctx context.Context, tr model.Transcript) (*model.Question, error) {
		if tr.Answers() == 0 {
			return &model.Question{ID: "1", Prompt: "Q1", Kind: model.KindText}, nil
		}
		if fail.Load() {
			return nil, transportError("connection refused")
		}
		return nil, ErrEndOfSurvey
	})
	ctrl := NewSurveyController("s1", "", model.Identity{}, src, time.Second)
	ctx := context.Background()
	ctrl.Start(ctx)

	snap, err := ctrl.Submit(ctx, model.TextAnswer("blue"))
	var serr *SourceError
	if !errors.As(err, &serr) || serr.Kind != model.FailureTransport {
		t.Fatalf("expected transport SourceError, got %v", err)
	}
	if snap.State != model.StateAwaitingAnswer || snap.Question == nil || snap.Question.ID != "1" {
		t.Fatalf("expected the same pending question, got %+v", snap)
	}
	if !snap.Retryable() || snap.Failure.Kind != model.FailureTransport {
		t.Fatalf("expected retryable transport failure, got %+v", snap.Failure)
	}
	if snap.Transcript.Answers() != 0 {
		t.Fatalf("failed answer should be rolled back, got %+v", snap.Transcript)
	}

	fail.Store(false)
	snap, err = ctrl.Submit(ctx, model.TextAnswer("blue"))
	if err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if snap.State != model.StateTerminated || snap.Failure != nil {
		t.Fatalf("expected clean termination, got %+v", snap)
	}
	if len(snap.Transcript) != 2 {
		t.Fatalf("expected one question and one answer, got %+v", snap.Transcript)
	}
}

func TestControllerProtocolFailure(t *testing.T) {
	src := funcSource(func(ctx context.Context, tr model.Transcript) (*model.Question, error) {
		return &model.Question{Prompt: "Pick", Kind: model.KindSingleChoice}, nil
	})
	ctrl := NewSurveyController("s1", "", model.Identity{}, src, time.Second)

	snap, err := ctrl.Start(context.Background())
	var serr *SourceError
	if !errors.As(err, &serr) || serr.Kind != model.FailureProtocol {
		t.Fatalf("expected protocol SourceError, got %v", err)
	}
	if snap.State != model.StateIdle || snap.Failure == nil || snap.Failure.Kind != model.FailureProtocol {
		t.Fatalf("expected idle with protocol failure, got %+v", snap)
	}
}

func TestControllerStartFailureCanBeRetried(t *testing.T) {
	var calls int32
	src := funcSource(func(ctx context.Context, tr model.Transcript) (*model.Question, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			return nil, errors.New("dial tcp: connection refused")
		}
		return &model.Question{Prompt: "Q1", Kind: model.KindText}, nil
	})
	ctrl := NewSurveyController("s1", "", model.Identity{}, src, time.Second)
	ctx := context.Background()

	snap, err := ctrl.Start(ctx)
	if err == nil || snap.State != model.StateIdle {
		t.Fatalf("expected idle after failed start, got %s %v", snap.State, err)
	}
	if snap.Failure.Kind != model.FailureTransport || len(snap.Transcript) != 0 {
		t.Fatalf("unexpected failure snapshot: %+v", snap)
	}

	snap, err = ctrl.Start(ctx)
	if err != nil || snap.State != model.StateAwaitingAnswer || snap.Failure != nil {
		t.Fatalf("expected retry to succeed, got %+v %v", snap, err)
	}
}

func TestControllerTimeoutIsTransportFailure(t *testing.T) {
	src := funcSource(func(ctx context.Context, tr model.Transcript) (*model.Question, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	ctrl := NewSurveyController("s1", "", model.Identity{}, src, 20*time.Millisecond)

	snap, err := ctrl.Start(context.Background())
	var serr *SourceError
	if !errors.As(err, &serr) || serr.Kind != model.FailureTransport {
		t.Fatalf("expected transport SourceError, got %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded in chain, got %v", err)
	}
	if snap.State != model.StateIdle {
		t.Fatalf("expected idle, got %s", snap.State)
	}
}

func TestControllerEmptySurveyTerminatesOnStart(t *testing.T) {
	src := funcSource(func(ctx context.Context, tr model.Transcript) (*model.Question, error) {
		return nil, ErrEndOfSurvey
	})
	ctrl := NewSurveyController("s1", "", model.Identity{}, src, time.Second)

	snap, err := ctrl.Start(context.Background())
	if err != nil || snap.State != model.StateTerminated || len(snap.Transcript) != 0 {
		t.Fatalf("expected empty terminated session, got %+v %v", snap, err)
	}
}

func TestControllerResetAllowsNewSession(t *testing.T) {
	ctrl := newStaticController(t, twoTextSurvey())
	ctx := context.Background()

	ctrl.Start(ctx)
	ctrl.Submit(ctx, model.TextAnswer("blue"))
	ctrl.Submit(ctx, model.TextAnswer("France"))

	snap, err := ctrl.Reset()
	if err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if snap.State != model.StateIdle || len(snap.Transcript) != 0 {
		t.Fatalf("expected idle with empty transcript, got %+v", snap)
	}

	snap, err = ctrl.Start(ctx)
	if err != nil || snap.State != model.StateAwaitingAnswer || len(snap.Transcript) != 1 {
		t.Fatalf("expected new session to start, got %+v %v", snap, err)
	}
}

func TestControllerObserverSeesEveryChange(t *testing.T) {
	ctrl := newStaticController(t, twoTextSurvey())

	var mu sync.Mutex
	var states []model.SessionState
	ctrl.SetObserver(func(s model.Snapshot) {
		mu.Lock()
		states = append(states, s.State)
		mu.Unlock()
	})

	ctx := context.Background()
	ctrl.Start(ctx)
	ctrl.Submit(ctx, model.TextAnswer("   ")) // rejected, no change
	ctrl.Submit(ctx, model.TextAnswer("blue"))

	want := []model.SessionState{
		model.StateSubmitting, model.StateAwaitingAnswer,
		model.StateSubmitting, model.StateAwaitingAnswer,
	}
	mu.Lock()
	defer mu.Unlock()
	if !reflect.DeepEqual(states, want) {
		t.Fatalf("observed %v, want %v", states, want)
	}
}

func TestControllerRestoreInterruptedSubmission(t *testing.T) {
	ctrl := newStaticController(t, twoTextSurvey())
	q := &model.Question{ID: "1", Prompt: "What's your favorite color?", Kind: model.KindText}

	ctrl.Restore(model.Snapshot{
		ID:       "s1",
		State:    model.StateSubmitting,
		Question: q,
		Transcript: model.Transcript{
			{Text: q.Prompt},
			{Text: "blue", FromUser: true},
		},
	})

	snap := ctrl.Snapshot()
	if snap.State != model.StateAwaitingAnswer || len(snap.Transcript) != 1 || !snap.Retryable() {
		t.Fatalf("expected retryable pending question, got %+v", snap)
	}

	snap, err := ctrl.Submit(context.Background(), model.TextAnswer("blue"))
	if err != nil || snap.Question == nil || snap.Question.Prompt != "Which country do you live in?" {
		t.Fatalf("expected second question after resubmit, got %+v %v", snap, err)
	}
}

func TestControllerTrimsSubmittedText(t *testing.T) {
	ctrl := newStaticController(t, twoTextSurvey())
	ctx := context.Background()
	ctrl.Start(ctx)

	snap, err := ctrl.Submit(ctx, model.TextAnswer("  blue  "))
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if got := snap.Transcript[1].Text; got != "blue" {
		t.Fatalf("user turn = %q, want %q", got, "blue")
	}
}

func TestControllerCloseStopsNotifications(t *testing.T) {
	ctrl := newStaticController(t, twoTextSurvey())
	var calls int32
	ctrl.SetObserver(func(model.Snapshot) { atomic.AddInt32(&calls, 1) })

	ctx := context.Background()
	ctrl.Start(ctx)
	before := atomic.LoadInt32(&calls)

	ctrl.Close()
	ctrl.Submit(ctx, model.TextAnswer("blue"))
	if got := atomic.LoadInt32(&calls); got != before {
		t.Fatalf("observer called %d times after Close", got-before)
	}
}
