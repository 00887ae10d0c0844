// pkg/classifier/factory.go
package classifier

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/David-Botos/trial-ingress/pkg/config"
)

// NewBackend creates the backend selected by the configuration
func NewBackend(ctx context.Context, cfg config.ClassifierConfig, logger *zap.Logger) (Backend, error) {
	logger.Info("Creating classifier backend",
		zap.String("provider", cfg.Provider),
		zap.String("model", cfg.Model))

	switch cfg.Provider {
	case "openai":
		backend, err := NewOpenAIBackend(OpenAIConfig{
			APIKey:  cfg.OpenAIAPIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.Model,
			Timeout: cfg.Timeout,
		}, logger)
		if err != nil {
			return nil, err
		}
		return backend, nil
	case "gemini":
		backend, err := NewGeminiBackend(ctx, cfg.GeminiAPIKey, cfg.Model, logger)
		if err != nil {
			return nil, err
		}
		return backend, nil
	default:
		return nil, fmt.Errorf("unknown classifier provider: %q", cfg.Provider)
	}
}
