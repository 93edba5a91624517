package judge

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	apperrors "ghostjob-workers/internal/common/errors"
)

const defaultModel = "gemini-2.5-flash"

// GeminiGenerator is a Generator backed by the Gemini API.
type GeminiGenerator struct {
	client      *genai.Client
	model       string
	temperature float32
}

func NewGeminiGenerator(ctx context.Context, apiKey, model string, temperature float32) (*GeminiGenerator, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}

	return &GeminiGenerator{client: client, model: model, temperature: temperature}, nil
}

// GenerateContent returns the concatenated text parts of the first answer.
func (g *GeminiGenerator) GenerateContent(ctx context.Context, prompt string) (string, error) {
	if g == nil || g.client == nil {
		return "", errors.New("gemini generator is not initialized")
	}

	temperature := g.temperature
	cfg := &genai.GenerateContentConfig{
		Temperature:      &temperature,
		ResponseMIMEType: "application/json",
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	return responseText(resp)
}

func (g *GeminiGenerator) Model() string {
	if g == nil {
		return ""
	}
	return g.model
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", errors.New("gemini api returned no response")
	}
	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}

	output := strings.TrimSpace(builder.String())
	if output == "" {
		details := "gemini api returned empty response"
		if fb := resp.PromptFeedback; fb != nil && fb.BlockReason != "" {
			details += fmt.Sprintf(" (blocked: %s)", fb.BlockReason)
		}
		return "", apperrors.NewJudgeResponseInvalidError(details)
	}
	return output, nil
}
