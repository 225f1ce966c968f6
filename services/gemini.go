package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"marketbrief/config"
	"marketbrief/observability"
)

// ErrThrottled signals that the LLM provider is rate limiting. Callers
// should back off and retry instead of treating it as a hard failure.
var ErrThrottled = errors.New("llm throttled")

// GeminiService handles completions via the Gemini API
type GeminiService struct {
	client      *genai.Client
	model       string
	maxTokens   int32
	temperature float32
}

// NewGeminiService creates a new GeminiService instance
func NewGeminiService(ctx context.Context, cfg *config.GeminiConfig) (*GeminiService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required for live insight generation")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize genai client: %w", err)
	}

	return &GeminiService{
		client:      client,
		model:       cfg.Model,
		maxTokens:   int32(cfg.MaxOutputTokens),
		temperature: float32(cfg.Temperature),
	}, nil
}

// Complete sends a prompt and returns the response text. A provider rate
// limit (HTTP 429 / RESOURCE_EXHAUSTED) comes back wrapping ErrThrottled.
func (s *GeminiService) Complete(ctx context.Context, prompt string) (string, error) {
	metrics := observability.GetMetrics()
	metrics.RecordExternalAPIRequest("gemini", "complete")
	timer := metrics.NewTimer()
	defer timer.ObserveExternalAPI("gemini", "complete")

	contents := []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}
	genCfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(s.temperature),
		MaxOutputTokens: s.maxTokens,
	}

	resp, err := s.client.Models.GenerateContent(ctx, s.model, contents, genCfg)
	if err != nil {
		metrics.RecordExternalAPIError("gemini", "complete")

		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			if apiErr.Code == http.StatusTooManyRequests || apiErr.Status == "RESOURCE_EXHAUSTED" {
				return "", fmt.Errorf("%w: %s", ErrThrottled, apiErr.Message)
			}
		}
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	var text strings.Builder
	if resp != nil {
		for _, candidate := range resp.Candidates {
			if candidate.Content == nil {
				continue
			}
			for _, part := range candidate.Content.Parts {
				if part.Text != "" {
					text.WriteString(part.Text)
				}
			}
			if text.Len() > 0 {
				break
			}
		}
	}

	if text.Len() == 0 {
		return "", fmt.Errorf("empty response from model")
	}

	return text.String(), nil
}
