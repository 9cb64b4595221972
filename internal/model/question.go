package model

import (
	"errors"
	"fmt"
	"strings"
)

// QuestionKind defines the type of question. The values are the wire tags of
// the remote question contract.
type QuestionKind string

const (
	KindText           QuestionKind = "text"            // Single free-text input
	KindSingleChoice   QuestionKind = "single_choice"   // Mutually exclusive options
	KindMultipleChoice QuestionKind = "multiple_choice" // Independent options
)

// ErrUnknownQuestionKind is returned for type tags outside the known set
var ErrUnknownQuestionKind = errors.New("unknown question type")

// ParseQuestionKind maps a type tag to a kind. The "radio" and "checkbox"
// tags of older survey files are accepted as aliases.
func ParseQuestionKind(tag string) (QuestionKind, error) {
	switch strings.ToLower(strings.TrimSpace(tag)) {
	case "text":
		return KindText, nil
	case "single_choice", "radio":
		return KindSingleChoice, nil
	case "multiple_choice", "checkbox":
		return KindMultipleChoice, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownQuestionKind, tag)
}

// IsChoice reports whether the kind renders one control per option
func (k QuestionKind) IsChoice() bool {
	return k == KindSingleChoice || k == KindMultipleChoice
}

// Question is one prompt issued to the respondent. It is not modified after
// a source hands it to a controller.
type Question struct {
	ID      string       `json:"id,omitempty" bson:"id,omitempty" yaml:"id,omitempty"` // Opaque token
	Prompt  string       `json:"prompt" bson:"prompt" yaml:"prompt"`
	Kind    QuestionKind `json:"type" bson:"type" yaml:"type"`
	Options []string     `json:"options,omitempty" bson:"options,omitempty" yaml:"options,omitempty"` // Choice kinds only
}

// Validate checks the question is renderable
func (q *Question) Validate() error {
	if strings.TrimSpace(q.Prompt) == "" {
		return errors.New("question has no prompt")
	}
	switch q.Kind {
	case KindText:
		if len(q.Options) > 0 {
			return errors.New("text question must not have options")
		}
	case KindSingleChoice, KindMultipleChoice:
		if len(q.Options) == 0 {
			return fmt.Errorf("%s question has no options", q.Kind)
		}
		seen := make(map[string]struct{}, len(q.Options))
		for _, opt := range q.Options {
			if strings.TrimSpace(opt) == "" {
				return errors.New("question has a blank option")
			}
			if _, dup := seen[opt]; dup {
				return fmt.Errorf("duplicate option %q", opt)
			}
			seen[opt] = struct{}{}
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownQuestionKind, string(q.Kind))
	}
	return nil
}

// Normalize rewrites alias type tags to their canonical kind
func (q *Question) Normalize() error {
	kind, err := ParseQuestionKind(string(q.Kind))
	if err != nil {
		return err
	}
	q.Kind = kind
	return nil
}

// Clone returns a copy that does not share the options slice
func (q *Question) Clone() *Question {
	if q == nil {
		return nil
	}
	c := *q
	if q.Options != nil {
		c.Options = append([]string(nil), q.Options...)
	}
	return &c
}
