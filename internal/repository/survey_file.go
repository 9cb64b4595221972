package repository

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"surveywizard/internal/model"
)

// LoadSurveyFile reads a survey definition from a YAML file
func LoadSurveyFile(path string) (*model.Survey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read survey file: %w", err)
	}
	return ParseSurvey(data)
}

// ParseSurvey decodes and validates a YAML survey definition
func ParseSurvey(data []byte) (*model.Survey, error) {
	var survey model.Survey
	if err := yaml.Unmarshal(data, &survey); err != nil {
		return nil, fmt.Errorf("parse survey: %w", err)
	}
	if survey.ID == "" {
		survey.ID = "file"
	}
	if err := survey.Validate(); err != nil {
		return nil, fmt.Errorf("invalid survey: %w", err)
	}
	return &survey, nil
}
