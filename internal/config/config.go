package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"script-server/pkg/utils"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap"
)

const (
	AIClientOpenAI = "openai"
	AIClientOllama = "ollama"

	apiKeySecretName = "deepseek_api_key"
)

// Config holds the application configuration. It is built once at startup
// and treated as read-only afterwards.
type Config struct {
	Env         string `envconfig:"ENV" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	LogEncoding string `envconfig:"LOG_ENCODING" default:"json"`
	Port        string `envconfig:"PORT" default:"8000"`

	// CORS
	FrontEndURL string `envconfig:"FRONT_END_URL" default:"http://localhost:3000"`

	// Remote model
	AIClientType string        `envconfig:"AI_CLIENT_TYPE" default:"openai"`
	AIBaseURL    string        `envconfig:"AI_BASE_URL" default:"https://api.deepseek.com"`
	AIModel      string        `envconfig:"MODEL_NAME" default:"deepseek-chat"`
	Temperature  float64       `envconfig:"TEMPERATURE" default:"0.7"`
	AIMaxTokens  int           `envconfig:"AI_MAX_TOKENS" default:"32000"`
	AITimeout    time.Duration `envconfig:"AI_TIMEOUT" default:"10m"`
	// Falls back to the deepseek_api_key secret file when unset.
	AIAPIKey string `envconfig:"DEEPSEEK_API_KEY"`

	// Prompt pre-flight
	MaxInputTokens int    `envconfig:"MAX_INPUT_TOKENS" default:"64000"`
	TokenEncoding  string `envconfig:"TOKEN_ENCODING" default:"cl100k_base"`

	// Files
	PromptPath     string `envconfig:"PROMPT_PATH" default:"prompts/script_prompt.txt"`
	UploadsDir     string `envconfig:"UPLOADS_DIR" default:"uploads"`
	MaxUploadBytes int64  `envconfig:"MAX_UPLOAD_BYTES" default:"10485760"`

	// Session expiry; zero keeps sessions forever.
	SessionTTL           time.Duration `envconfig:"SESSION_TTL" default:"0"`
	SessionSweepSchedule string        `envconfig:"SESSION_SWEEP_SCHEDULE" default:"@hourly"`
}

// GetAllowedOrigins splits FrontEndURL into a list of origins.
func (c *Config) GetAllowedOrigins() []string {
	if c.FrontEndURL == "" {
		return nil
	}
	return strings.Split(strings.ReplaceAll(c.FrontEndURL, " ", ""), ",")
}

// Validate checks values envconfig cannot check on its own.
func (c *Config) Validate() error {
	switch strings.ToLower(c.AIClientType) {
	case AIClientOpenAI:
		if c.AIAPIKey == "" {
			return errors.New("DEEPSEEK_API_KEY is not set and secret 'deepseek_api_key' is missing")
		}
	case AIClientOllama:
	default:
		return fmt.Errorf("unknown AI client type: '%s'", c.AIClientType)
	}
	if c.AIModel == "" {
		return errors.New("MODEL_NAME must not be empty")
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("TEMPERATURE must be within [0, 2], got %v", c.Temperature)
	}
	if c.MaxInputTokens <= 0 {
		return fmt.Errorf("MAX_INPUT_TOKENS must be positive, got %d", c.MaxInputTokens)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive, got %d", c.MaxUploadBytes)
	}
	if c.SessionTTL < 0 {
		return fmt.Errorf("SESSION_TTL must not be negative, got %v", c.SessionTTL)
	}
	return nil
}

// LoadConfig reads an optional .env file, then the environment, then secrets.
func LoadConfig(envFilePath string) (*Config, error) {
	if envFilePath != "" {
		if _, err := os.Stat(envFilePath); err == nil {
			if err := godotenv.Load(envFilePath); err != nil {
				zap.L().Warn("Could not load env file", zap.String("path", envFilePath), zap.Error(err))
			} else {
				zap.L().Info("Loaded configuration from env file", zap.String("path", envFilePath))
			}
		} else if !os.IsNotExist(err) {
			zap.L().Warn("Error checking env file", zap.String("path", envFilePath), zap.Error(err))
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("error processing env vars: %w", err)
	}

	if cfg.AIAPIKey == "" {
		if key, err := utils.ReadSecret(apiKeySecretName); err == nil {
			cfg.AIAPIKey = key
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LogFields returns the loaded configuration as zap fields, without secrets.
func (c *Config) LogFields() []zap.Field {
	return []zap.Field{
		zap.String("env", c.Env),
		zap.String("port", c.Port),
		zap.Strings("allowed_origins", c.GetAllowedOrigins()),
		zap.String("ai_client_type", c.AIClientType),
		zap.String("ai_base_url", c.AIBaseURL),
		zap.String("ai_model", c.AIModel),
		zap.Float64("temperature", c.Temperature),
		zap.Int("ai_max_tokens", c.AIMaxTokens),
		zap.Duration("ai_timeout", c.AITimeout),
		zap.Bool("ai_api_key_loaded", c.AIAPIKey != ""),
		zap.Int("max_input_tokens", c.MaxInputTokens),
		zap.String("token_encoding", c.TokenEncoding),
		zap.String("prompt_path", c.PromptPath),
		zap.String("uploads_dir", c.UploadsDir),
		zap.Int64("max_upload_bytes", c.MaxUploadBytes),
		zap.Duration("session_ttl", c.SessionTTL),
		zap.String("session_sweep_schedule", c.SessionSweepSchedule),
	}
}
