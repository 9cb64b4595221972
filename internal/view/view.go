// Package view turns a wizard session snapshot into what the respondent sees.
// It holds no logic beyond presentation.
package view

import (
	"fmt"

	"surveywizard/internal/model"
)

// Screen is one of the three top-level screens
type Screen string

const (
	ScreenWelcome  Screen = "welcome"
	ScreenSurvey   Screen = "survey"
	ScreenFinished Screen = "finished"
)

// ControlType is the kind of input element
type ControlType string

const (
	ControlText     ControlType = "text"
	ControlCheckbox ControlType = "checkbox"
	ControlRadio    ControlType = "radio"
)

const (
	SubmitLabel     = "Submit"
	SubmittingLabel = "Submitting..."
	StartLabel      = "Start Survey"
	RestartLabel    = "Take Again"
)

// Meta is the static copy shown around the questions
type Meta struct {
	Title    string `json:"title"`
	Welcome  string `json:"welcome,omitempty"`
	ThankYou string `json:"thankYou,omitempty"`
}

// MetaFromSurvey takes the copy from a survey definition
func MetaFromSurvey(s *model.Survey) Meta {
	return Meta{Title: s.Title, Welcome: s.Welcome, ThankYou: s.ThankYou}
}

// Control is one input element
type Control struct {
	ID    string      `json:"id"`
	Type  ControlType `json:"type"`
	Name  string      `json:"name,omitempty"`
	Label string      `json:"label,omitempty"`
	Value string      `json:"value,omitempty"`
}

// Button is the primary action on the visible screen
type Button struct {
	Label   string `json:"label"`
	Enabled bool   `json:"enabled"`
}

// View is everything needed to draw the page
type View struct {
	Meta     Meta               `json:"meta"`
	Screen   Screen             `json:"screen"`
	State    model.SessionState `json:"state"`
	Prompt   string             `json:"prompt,omitempty"`
	Controls []Control          `json:"controls,omitempty"`
	Button   Button             `json:"button"`
	Loading  bool               `json:"loading"`
	Error    string             `json:"error,omitempty"`
	Answered int                `json:"answered"`
}

// Render draws a snapshot. A recorded source failure is shown inline;
// otherwise err, the error of the last operation, is.
func Render(meta Meta, snap model.Snapshot, err error) View {
	v := View{
		Meta:     meta,
		State:    snap.State,
		Answered: snap.Transcript.Answers(),
	}

	switch snap.State {
	case model.StateIdle:
		v.Screen = ScreenWelcome
		v.Button = Button{Label: StartLabel, Enabled: true}
	case model.StateAwaitingAnswer:
		v.Screen = ScreenSurvey
		v.Button = Button{Label: SubmitLabel, Enabled: true}
	case model.StateSubmitting:
		v.Screen = ScreenSurvey
		if snap.Question == nil {
			v.Screen = ScreenWelcome
		}
		v.Button = Button{Label: SubmittingLabel, Enabled: false}
		v.Loading = true
	case model.StateTerminated:
		v.Screen = ScreenFinished
		v.Button = Button{Label: RestartLabel, Enabled: true}
	}

	if snap.Question != nil && v.Screen == ScreenSurvey {
		v.Prompt = snap.Question.Prompt
		v.Controls = Controls(snap.Question)
	}

	switch {
	case snap.Failure != nil:
		v.Error = failureMessage(snap.Failure)
	case err != nil:
		v.Error = err.Error()
	}
	return v
}

// Controls returns the input elements for a question
func Controls(q *model.Question) []Control {
	switch q.Kind {
	case model.KindText:
		return []Control{{ID: "answer-input", Type: ControlText}}
	case model.KindMultipleChoice:
		return optionControls(q.Options, ControlCheckbox, "checkboxOptions")
	case model.KindSingleChoice:
		return optionControls(q.Options, ControlRadio, "radioOptions")
	}
	return nil
}

func optionControls(options []string, typ ControlType, name string) []Control {
	controls := make([]Control, len(options))
	for i, opt := range options {
		controls[i] = Control{
			ID:    fmt.Sprintf("%s_%d", typ, i),
			Type:  typ,
			Name:  name,
			Label: opt,
			Value: opt,
		}
	}
	return controls
}

func failureMessage(f *model.Failure) string {
	if f.Kind == model.FailureProtocol {
		return "The survey service sent something we couldn't display. Please try again."
	}
	return "We couldn't reach the survey service. Please try again."
}
