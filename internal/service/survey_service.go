package service

import (
	"context"
	"fmt"
	"log"

	"surveywizard/internal/config"
	"surveywizard/internal/model"
	"surveywizard/internal/repository"
)

// SurveyService handles survey definition lookups
type SurveyService struct {
	surveyRepo repository.SurveyRepo
}

// NewSurveyService creates a new survey service. surveyRepo may be nil when
// no database is configured.
func NewSurveyService(surveyRepo repository.SurveyRepo) *SurveyService {
	return &SurveyService{
		surveyRepo: surveyRepo,
	}
}

// Resolve picks the survey a static source serves: the configured file, then
// the configured stored survey, then the built-in default
func (s *SurveyService) Resolve(ctx context.Context, cfg *config.SourceConfig) (*model.Survey, error) {
	if cfg.SurveyFile != "" {
		survey, err := repository.LoadSurveyFile(cfg.SurveyFile)
		if err != nil {
			return nil, err
		}
		log.Printf("[Survey] Loaded %q from %s (%d questions)", survey.Title, cfg.SurveyFile, len(survey.Questions))
		return survey, nil
	}

	if cfg.SurveyID != "" {
		survey, err := s.GetByID(ctx, cfg.SurveyID)
		if err != nil {
			return nil, err
		}
		if err := survey.Validate(); err != nil {
			return nil, fmt.Errorf("survey %s: %w", cfg.SurveyID, err)
		}
		log.Printf("[Survey] Loaded %q from database (%d questions)", survey.Title, len(survey.Questions))
		return survey, nil
	}

	log.Println("[Survey] No SURVEY_FILE or SURVEY_ID set, using built-in survey")
	return model.DefaultSurvey(), nil
}

// GetByID retrieves a stored survey
func (s *SurveyService) GetByID(ctx context.Context, id string) (*model.Survey, error) {
	if s.surveyRepo == nil {
		return nil, fmt.Errorf("survey %s: no survey database configured", id)
	}
	survey, err := s.surveyRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get survey: %w", err)
	}
	if survey == nil {
		return nil, fmt.Errorf("survey %s not found", id)
	}
	return survey, nil
}

// List returns every stored survey
func (s *SurveyService) List(ctx context.Context) ([]*model.Survey, error) {
	if s.surveyRepo == nil {
		return nil, nil
	}
	return s.surveyRepo.List(ctx)
}

// Save validates and stores a survey definition
func (s *SurveyService) Save(ctx context.Context, survey *model.Survey) (string, error) {
	if s.surveyRepo == nil {
		return "", fmt.Errorf("no survey database configured")
	}
	if err := survey.Validate(); err != nil {
		return "", &ValidationError{Reason: err.Error()}
	}
	if survey.ID == "" {
		return s.surveyRepo.Create(ctx, survey)
	}
	return survey.ID, s.surveyRepo.Upsert(ctx, survey)
}
