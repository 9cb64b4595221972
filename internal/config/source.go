package config

import (
	"os"
	"strconv"
	"time"
)

// SourceKind selects where questions come from
type SourceKind string

const (
	SourceStatic SourceKind = "static"
	SourceRemote SourceKind = "remote"
)

// SourceConfig holds question source configuration
type SourceConfig struct {
	Kind      SourceKind `json:"kind"`
	URL       string     `json:"url"`
	Token     string     `json:"-"` // Never serialize
	TimeoutMS int        `json:"timeoutMs"`

	// Static source: a YAML file wins over a Mongo survey id
	SurveyFile string `json:"surveyFile,omitempty"`
	SurveyID   string `json:"surveyId,omitempty"`
}

// DefaultSourceConfig returns the question source configuration from env
func DefaultSourceConfig() *SourceConfig {
	return &SourceConfig{
		Kind:       SourceKind(getEnvOrDefault("QUESTION_SOURCE", string(SourceStatic))),
		URL:        getEnvOrDefault("QUESTION_SOURCE_URL", "http://localhost:8080/v1/questions/next"),
		Token:      os.Getenv("QUESTION_SOURCE_TOKEN"),
		TimeoutMS:  getEnvInt("QUESTION_SOURCE_TIMEOUT_MS", 10000), // 10 second default timeout
		SurveyFile: os.Getenv("SURVEY_FILE"),
		SurveyID:   os.Getenv("SURVEY_ID"),
	}
}

// IsRemote returns true if questions are fetched from a remote endpoint
func (c *SourceConfig) IsRemote() bool {
	return c.Kind == SourceRemote
}

// Timeout returns the per-request deadline for source calls
func (c *SourceConfig) Timeout() time.Duration {
	if c.TimeoutMS <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return defaultValue
	}
	return n
}
