package repository

import (
	"os"
	"path/filepath"
	"testing"

	"surveywizard/internal/model"
)

const sampleSurvey = `
title: Sample
welcome: Hello
questions:
  - prompt: What's your favorite color?
    type: text
  - prompt: Which fruits do you like?
    type: checkbox
    options: [Apple, Banana]
  - prompt: How satisfied are you?
    type: radio
    options: [Happy, Unhappy]
`

func TestParseSurvey(t *testing.T) {
	survey, err := ParseSurvey([]byte(sampleSurvey))
	if err != nil {
		t.Fatalf("ParseSurvey failed: %v", err)
	}
	if survey.ID != "file" || survey.Title != "Sample" || len(survey.Questions) != 3 {
		t.Fatalf("unexpected survey: %+v", survey)
	}

	kinds := []model.QuestionKind{model.KindText, model.KindMultipleChoice, model.KindSingleChoice}
	for i, q := range survey.Questions {
		if q.Kind != kinds[i] {
			t.Errorf("question %d kind = %s, want %s", i, q.Kind, kinds[i])
		}
		if q.ID == "" {
			t.Errorf("question %d has no id", i)
		}
	}
}

func TestParseSurveyRejectsInvalid(t *testing.T) {
	tests := map[string]string{
		"not yaml":       "questions: [",
		"unknown kind":   "title: X\nquestions:\n  - prompt: Q\n    type: slider\n",
		"choice no opts": "title: X\nquestions:\n  - prompt: Q\n    type: radio\n",
		"blank prompt":   "title: X\nquestions:\n  - prompt: ''\n    type: text\n",
	}
	for name, data := range tests {
		if _, err := ParseSurvey([]byte(data)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestLoadSurveyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "survey.yaml")
	if err := os.WriteFile(path, []byte("id: onboarding\n"+sampleSurvey), 0o644); err != nil {
		t.Fatal(err)
	}

	survey, err := LoadSurveyFile(path)
	if err != nil {
		t.Fatalf("LoadSurveyFile failed: %v", err)
	}
	if survey.ID != "onboarding" {
		t.Fatalf("expected id from file, got %q", survey.ID)
	}

	if _, err := LoadSurveyFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestExampleSurveyFile(t *testing.T) {
	survey, err := LoadSurveyFile(filepath.Join("..", "..", "surveys", "example.yaml"))
	if err != nil {
		t.Fatalf("example survey does not load: %v", err)
	}
	if len(survey.Questions) != len(model.DefaultSurvey().Questions) {
		t.Fatalf("example survey has %d questions", len(survey.Questions))
	}
}
