package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"script-server/internal/config"

	"github.com/ollama/ollama/api"
	"go.uber.org/zap"
)

const (
	thinkOpen  = "<think>"
	thinkClose = "</think>"
)

// ollamaClient uses the native Ollama chat API.
type ollamaClient struct {
	client *api.Client
	model  string
	logger *zap.Logger
}

func newOllamaClient(cfg *config.Config, logger *zap.Logger) (*ollamaClient, error) {
	// api.NewClient wants the server root, without the OpenAI-style /v1 suffix.
	baseURL := strings.TrimSuffix(cfg.AIBaseURL, "/")
	baseURL = strings.TrimSuffix(baseURL, "/v1")

	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Ollama base URL '%s': %w", baseURL, err)
	}

	client := api.NewClient(parsedURL, &http.Client{Timeout: cfg.AITimeout})
	logger.Info("Ollama client created",
		zap.String("base_url", baseURL),
		zap.String("model", cfg.AIModel),
		zap.Duration("timeout", cfg.AITimeout))

	return &ollamaClient{
		client: client,
		model:  cfg.AIModel,
		logger: logger.Named("OllamaClient"),
	}, nil
}

// GenerateText sends a non-streaming chat request. Reasoning models served by
// Ollama inline their trace as a leading <think> block, which is split off.
func (c *ollamaClient) GenerateText(ctx context.Context, systemPrompt string, userInput string, params GenerationParams) (Completion, error) {
	if err := validateInput(systemPrompt, userInput); err != nil {
		recordRequest(c.model, "error", 0)
		return Completion{}, err
	}

	options := map[string]interface{}{}
	if params.Temperature != nil {
		options["temperature"] = *params.Temperature
	}
	if params.MaxTokens != nil {
		options["num_predict"] = *params.MaxTokens
	}

	stream := false
	req := &api.ChatRequest{
		Model: c.model,
		Messages: []api.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userInput},
		},
		Stream:  &stream,
		Options: options,
	}

	c.logger.Info("Sending request to Ollama",
		zap.String("model", c.model),
		zap.Int("system_prompt_bytes", len(systemPrompt)),
		zap.Int("user_input_bytes", len(userInput)))

	startTime := time.Now()
	var resp api.ChatResponse
	err := c.client.Chat(ctx, req, func(r api.ChatResponse) error {
		resp = r
		return nil
	})
	duration := time.Since(startTime)

	if err != nil {
		c.logger.Error("Ollama API returned an error", zap.Duration("duration", duration), zap.Error(err))
		recordRequest(c.model, "error", duration)
		return Completion{}, fmt.Errorf("%w: %v", ErrAIGenerationFailed, err)
	}

	text, reasoning := splitThinking(resp.Message.Content)
	if text == "" {
		c.logger.Error("Ollama API returned an empty response", zap.Duration("duration", duration))
		recordRequest(c.model, "error_empty_response", duration)
		return Completion{}, fmt.Errorf("%w: empty response", ErrAIGenerationFailed)
	}

	completion := Completion{
		Text:      text,
		Reasoning: reasoning,
		Usage: UsageInfo{
			PromptTokens:     resp.PromptEvalCount,
			CompletionTokens: resp.EvalCount,
			TotalTokens:      resp.PromptEvalCount + resp.EvalCount,
		},
	}

	recordRequest(c.model, "success", duration)
	recordUsage(c.model, completion.Usage)

	c.logger.Info("Ollama response received",
		zap.Duration("duration", duration),
		zap.Int("text_bytes", len(completion.Text)),
		zap.Int("reasoning_bytes", len(completion.Reasoning)),
		zap.String("done_reason", resp.DoneReason))

	return completion, nil
}

// splitThinking separates a leading <think>...</think> block from the answer.
// Content without such a block is returned unchanged.
func splitThinking(content string) (text, reasoning string) {
	trimmed := strings.TrimLeft(content, " \t\r\n")
	if !strings.HasPrefix(trimmed, thinkOpen) {
		return content, ""
	}
	end := strings.Index(trimmed, thinkClose)
	if end < 0 {
		return content, ""
	}
	reasoning = strings.TrimSpace(trimmed[len(thinkOpen):end])
	text = strings.TrimLeft(trimmed[end+len(thinkClose):], " \t\r\n")
	return text, reasoning
}
