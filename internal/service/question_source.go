package service

import (
	"context"

	"surveywizard/internal/model"
)

// QuestionSource decides the next question given the transcript so far.
// It returns ErrEndOfSurvey when the survey is complete.
type QuestionSource interface {
	NextQuestion(ctx context.Context, identity model.Identity, transcript model.Transcript) (*model.Question, error)
}

// StaticSource serves a fixed question list in order
type StaticSource struct {
	survey *model.Survey
}

// NewStaticSource creates a source over a validated survey
func NewStaticSource(survey *model.Survey) (*StaticSource, error) {
	if err := survey.Validate(); err != nil {
		return nil, err
	}
	return &StaticSource{survey: survey}, nil
}

// Survey returns the survey being served
func (s *StaticSource) Survey() *model.Survey {
	return s.survey
}

// NextQuestion returns the question at the position of the number of answers given
func (s *StaticSource) NextQuestion(_ context.Context, _ model.Identity, transcript model.Transcript) (*model.Question, error) {
	idx := transcript.Answers()
	if idx >= len(s.survey.Questions) {
		return nil, ErrEndOfSurvey
	}
	return s.survey.Questions[idx].Clone(), nil
}
