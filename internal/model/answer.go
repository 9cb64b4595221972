package model

import "strings"

// Answer is the respondent's reply to one question. Exactly one of
// TextAnswer, ChoiceAnswer or MultiChoiceAnswer.
type Answer interface {
	// Text is the transcript form of the answer
	Text() string
	// Kind is the question kind this answer belongs to
	Kind() QuestionKind
	isAnswer()
}

// TextAnswer is a trimmed free-text reply
type TextAnswer string

// ChoiceAnswer is the single selected option label
type ChoiceAnswer string

// MultiChoiceAnswer holds the selected labels in option order
type MultiChoiceAnswer []string

func (a TextAnswer) Text() string         { return string(a) }
func (a TextAnswer) Kind() QuestionKind   { return KindText }
func (TextAnswer) isAnswer()              {}
func (a ChoiceAnswer) Text() string       { return string(a) }
func (a ChoiceAnswer) Kind() QuestionKind { return KindSingleChoice }
func (ChoiceAnswer) isAnswer()            {}

func (a MultiChoiceAnswer) Text() string       { return strings.Join(a, ", ") }
func (a MultiChoiceAnswer) Kind() QuestionKind { return KindMultipleChoice }
func (MultiChoiceAnswer) isAnswer()            {}

// IsEmpty reports whether an answer carries nothing to submit
func IsEmpty(a Answer) bool {
	switch v := a.(type) {
	case nil:
		return true
	case TextAnswer:
		return strings.TrimSpace(string(v)) == ""
	case ChoiceAnswer:
		return strings.TrimSpace(string(v)) == ""
	case MultiChoiceAnswer:
		return len(v) == 0
	}
	return true
}

// ControlSnapshot is the state of a question's form controls at submit time.
// Checked is indexed by option position.
type ControlSnapshot struct {
	Text    string `json:"text,omitempty"`
	Checked []bool `json:"checked,omitempty"`
}
