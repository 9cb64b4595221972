package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"surveywizard/internal/config"
	"surveywizard/internal/model"
)

// maxResponseBytes bounds how much of a remote reply is read
const maxResponseBytes = 1 << 20

// RemoteSource asks a remote endpoint for the next question
type RemoteSource struct {
	url        string
	token      string
	httpClient *http.Client
}

// NewRemoteSource creates a remote question source from config
func NewRemoteSource(cfg *config.SourceConfig) *RemoteSource {
	if cfg.Token == "" {
		log.Println("[Remote Source] No QUESTION_SOURCE_TOKEN set, sending unauthenticated requests")
	}
	return &RemoteSource{
		url:   cfg.URL,
		token: cfg.Token,
		httpClient: &http.Client{
			Timeout: cfg.Timeout(),
		},
	}
}

// NextQuestion POSTs the transcript and parses the reply
func (s *RemoteSource) NextQuestion(ctx context.Context, identity model.Identity, transcript model.Transcript) (*model.Question, error) {
	payload, err := json.Marshal(model.NextQuestionRequest{
		SessionID:  identity.SessionID,
		UserID:     identity.UserID,
		Transcript: transcript.Clone(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	respBody, err := s.doRequest(ctx, payload)
	if err != nil {
		return nil, err
	}

	var resp model.NextQuestionResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		log.Printf("[Remote Source] ERROR: Failed to parse response: %v", err)
		return nil, protocolError("failed to parse response: %w", err)
	}
	return questionFromResponse(&resp, transcript.Answers())
}

func (s *RemoteSource) doRequest(ctx context.Context, payload []byte) ([]byte, error) {
	start := time.Now()
	log.Printf("[Remote Source] POST %s (%d bytes)", s.url, len(payload))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			log.Printf("[Remote Source] ERROR: Request timed out after %v", time.Since(start))
			return nil, transportError("request timed out: %w", err)
		}
		log.Printf("[Remote Source] ERROR: HTTP request failed: %v", err)
		return nil, transportError("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		log.Printf("[Remote Source] ERROR: Failed to read response body: %v", err)
		return nil, transportError("failed to read response: %w", err)
	}

	log.Printf("[Remote Source] Response status: %d, body length: %d bytes, took %v", resp.StatusCode, len(respBody), time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, transportError("endpoint returned %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}
	if len(bytes.TrimSpace(respBody)) == 0 {
		return nil, protocolError("empty response body")
	}
	return respBody, nil
}

// questionFromResponse validates a reply into a question. Position is used to
// give remote questions a stable opaque id.
func questionFromResponse(resp *model.NextQuestionResponse, position int) (*model.Question, error) {
	if resp.IsLastQuestion {
		return nil, ErrEndOfSurvey
	}
	if strings.TrimSpace(resp.Question) == "" {
		return nil, protocolError("response has no question")
	}
	kind, err := model.ParseQuestionKind(resp.QuestionType)
	if err != nil {
		return nil, protocolError("%w", err)
	}

	q := &model.Question{
		ID:     fmt.Sprintf("r%d", position+1),
		Prompt: resp.Question,
		Kind:   kind,
	}
	if kind.IsChoice() {
		q.Options = append([]string(nil), resp.PossibleChoices...)
	}
	if err := q.Validate(); err != nil {
		return nil, protocolError("invalid question: %w", err)
	}
	return q, nil
}
