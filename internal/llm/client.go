package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"script-server/internal/config"

	"go.uber.org/zap"
)

// ErrAIGenerationFailed wraps every failure of the remote completion call.
var ErrAIGenerationFailed = errors.New("AI text generation failed")

// GenerationParams are the sampling settings sent with a request.
// Pointers distinguish "unset" from an explicit zero.
type GenerationParams struct {
	Temperature *float64
	MaxTokens   *int
}

// UsageInfo holds token usage reported by the provider.
type UsageInfo struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Completion is a single non-streaming answer.
type Completion struct {
	Text string
	// Reasoning is the chain-of-thought trace, empty when the model returned none.
	Reasoning string
	Usage     UsageInfo
}

// AIClient sends a system prompt and one user message to a chat model.
type AIClient interface {
	GenerateText(ctx context.Context, systemPrompt string, userInput string, params GenerationParams) (Completion, error)
}

// NewAIClient builds the client selected by cfg.AIClientType.
func NewAIClient(cfg *config.Config, logger *zap.Logger) (AIClient, error) {
	switch strings.ToLower(cfg.AIClientType) {
	case config.AIClientOpenAI:
		logger.Info("Using AI client implementation", zap.String("type", config.AIClientOpenAI))
		return newOpenAIClient(cfg, logger), nil
	case config.AIClientOllama:
		logger.Info("Using AI client implementation", zap.String("type", config.AIClientOllama))
		return newOllamaClient(cfg, logger)
	default:
		return nil, fmt.Errorf("unknown AI client type: '%s'", cfg.AIClientType)
	}
}

func validateInput(systemPrompt, userInput string) error {
	if strings.TrimSpace(systemPrompt) == "" {
		return fmt.Errorf("%w: system prompt is empty", ErrAIGenerationFailed)
	}
	if strings.TrimSpace(userInput) == "" {
		return fmt.Errorf("%w: user input is empty", ErrAIGenerationFailed)
	}
	return nil
}

func float32Val(f64 *float64) float32 {
	if f64 == nil {
		return 0
	}
	return float32(*f64)
}

func intVal(i *int) int {
	if i == nil {
		return 0
	}
	return *i
}
