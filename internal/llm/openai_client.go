package llm

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"script-server/internal/config"

	openaigo "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// openAIClient talks to any OpenAI-compatible chat completion API (DeepSeek by default).
type openAIClient struct {
	client *openaigo.Client
	model  string
	logger *zap.Logger
}

func newOpenAIClient(cfg *config.Config, logger *zap.Logger) *openAIClient {
	openaiConfig := openaigo.DefaultConfig(cfg.AIAPIKey)
	openaiConfig.BaseURL = cfg.AIBaseURL
	openaiConfig.HTTPClient = &http.Client{
		Timeout: cfg.AITimeout,
	}
	logger.Info("OpenAI client created",
		zap.String("base_url", cfg.AIBaseURL),
		zap.String("model", cfg.AIModel),
		zap.Duration("timeout", cfg.AITimeout))

	return &openAIClient{
		client: openaigo.NewClientWithConfig(openaiConfig),
		model:  cfg.AIModel,
		logger: logger.Named("OpenAIClient"),
	}
}

// GenerateText sends a system + user message pair and returns the first choice.
func (c *openAIClient) GenerateText(ctx context.Context, systemPrompt string, userInput string, params GenerationParams) (Completion, error) {
	if err := validateInput(systemPrompt, userInput); err != nil {
		recordRequest(c.model, "error", 0)
		return Completion{}, err
	}

	messages := []openaigo.ChatCompletionMessage{
		{Role: openaigo.ChatMessageRoleSystem, Content: systemPrompt},
		{Role: openaigo.ChatMessageRoleUser, Content: userInput},
	}

	c.logger.Info("Sending request to AI",
		zap.String("model", c.model),
		zap.Int("system_prompt_bytes", len(systemPrompt)),
		zap.Int("user_input_bytes", len(userInput)))

	startTime := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, openaigo.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: float32Val(params.Temperature),
		MaxTokens:   intVal(params.MaxTokens),
		Stream:      false,
	})
	duration := time.Since(startTime)

	if err != nil {
		c.logger.Error("AI API returned an error", zap.Duration("duration", duration), zap.Error(err))
		recordRequest(c.model, "error", duration)
		return Completion{}, fmt.Errorf("%w: %v", ErrAIGenerationFailed, err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		c.logger.Error("AI API returned an empty response", zap.Duration("duration", duration))
		recordRequest(c.model, "error_empty_response", duration)
		return Completion{}, fmt.Errorf("%w: empty response", ErrAIGenerationFailed)
	}

	message := resp.Choices[0].Message
	completion := Completion{
		Text:      message.Content,
		Reasoning: message.ReasoningContent,
		Usage: UsageInfo{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}

	recordRequest(c.model, "success", duration)
	recordUsage(c.model, completion.Usage)

	c.logger.Info("AI response received",
		zap.Duration("duration", duration),
		zap.Int("text_bytes", len(completion.Text)),
		zap.Int("reasoning_bytes", len(completion.Reasoning)),
		zap.String("finish_reason", string(resp.Choices[0].FinishReason)),
		zap.Int("prompt_tokens", completion.Usage.PromptTokens),
		zap.Int("completion_tokens", completion.Usage.CompletionTokens))

	return completion, nil
}
