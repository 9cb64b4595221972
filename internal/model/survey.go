package model

import (
	"fmt"
	"time"
)

// Survey is a fixed, ordered question list served by the static source
type Survey struct {
	ID        string     `json:"id" bson:"_id,omitempty" yaml:"id"`
	Title     string     `json:"title" bson:"title" yaml:"title"`
	Welcome   string     `json:"welcome,omitempty" bson:"welcome,omitempty" yaml:"welcome,omitempty"`
	ThankYou  string     `json:"thankYou,omitempty" bson:"thankYou,omitempty" yaml:"thankYou,omitempty"`
	Questions []Question `json:"questions" bson:"questions" yaml:"questions"`
	CreatedAt time.Time  `json:"createdAt" bson:"createdAt" yaml:"-"`
	UpdatedAt time.Time  `json:"updatedAt" bson:"updatedAt" yaml:"-"`
}

// Validate normalizes question kinds and checks every question
func (s *Survey) Validate() error {
	if len(s.Questions) == 0 {
		return fmt.Errorf("survey %q has no questions", s.Title)
	}
	for i := range s.Questions {
		q := &s.Questions[i]
		if err := q.Normalize(); err != nil {
			return fmt.Errorf("question %d: %w", i+1, err)
		}
		if err := q.Validate(); err != nil {
			return fmt.Errorf("question %d: %w", i+1, err)
		}
		if q.ID == "" {
			q.ID = fmt.Sprintf("%d", i+1)
		}
	}
	return nil
}

// DefaultSurvey returns the built-in four question survey
func DefaultSurvey() *Survey {
	return &Survey{
		ID:       "default",
		Title:    "Quick Survey",
		Welcome:  "Thanks for taking a minute to answer a few questions.",
		ThankYou: "Thank you! Your responses have been recorded.",
		Questions: []Question{
			{ID: "1", Prompt: "What's your favorite color?", Kind: KindText},
			{ID: "2", Prompt: "Which country do you live in?", Kind: KindText},
			{
				ID:      "3",
				Prompt:  "Select your favorite fruits:",
				Kind:    KindMultipleChoice,
				Options: []string{"Apple", "Banana", "Cherry", "Date"},
			},
			{
				ID:     "4",
				Prompt: "How satisfied are you with our service?",
				Kind:   KindSingleChoice,
				Options: []string{
					"Very Satisfied",
					"Satisfied",
					"Neutral",
					"Unsatisfied",
					"Very Unsatisfied",
				},
			},
		},
	}
}
