// pkg/classifier/gemini.go
package classifier

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// DefaultGeminiModel is the Gemini model used when none is configured
const DefaultGeminiModel = "gemini-2.0-flash"

// GeminiBackend answers through the Gemini API
type GeminiBackend struct {
	client *genai.Client
	model  string
	logger *zap.Logger
}

// NewGeminiBackend creates a Gemini client for the API key
func NewGeminiBackend(ctx context.Context, apiKey, model string, logger *zap.Logger) (*GeminiBackend, error) {
	if apiKey == "" {
		return nil, errors.New("Gemini API key is required")
	}
	if model == "" {
		model = DefaultGeminiModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GeminiBackend{
		client: client,
		model:  model,
		logger: logger.Named("gemini"),
	}, nil
}

// Complete sends the instruction as the system prompt and returns the text answer
func (b *GeminiBackend) Complete(ctx context.Context, system, user string) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(user, genai.RoleUser),
	}

	resp, err := b.client.Models.GenerateContent(ctx, b.model, contents, &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
	})
	if err != nil {
		return "", fmt.Errorf("GenAI generate failed: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return "", errors.New("no candidates returned")
	}

	return resp.Text(), nil
}
