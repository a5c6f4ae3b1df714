package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"script-server/internal/llm"
	"script-server/internal/models"
	"script-server/internal/session"

	"go.uber.org/zap"
)

const userMessageTemplate = "Character Profile:\n%s\n\nStory Outline:\n%s\n\n" +
	"Please create a complete film script based on the above character profile and story outline."

// TokenCounter estimates how many tokens a text occupies in the model's context.
type TokenCounter interface {
	Count(text string) int
}

// Settings carries the generation and upload limits.
type Settings struct {
	SystemPrompt   string
	Temperature    float64
	MaxTokens      int
	MaxInputTokens int
	MaxUploadBytes int64
}

// UploadFile is one multipart part handed over by the HTTP layer.
type UploadFile struct {
	FileName string
	Size     int64
	Content  io.Reader
}

// UploadResult describes a freshly created session. File names are the
// stored artifact names, which are the names /download accepts.
type UploadResult struct {
	SessionID string
	Character models.StoredFile
	Story     models.StoredFile
}

// GenerateResult describes the artifacts written by one generation.
type GenerateResult struct {
	SessionID            string
	ScriptLength         int
	ReasoningLength      int
	EstimatedInputTokens int
	FilesGenerated       []string
}

// HasReasoning reports whether a reasoning trace was persisted.
func (r *GenerateResult) HasReasoning() bool {
	return r.ReasoningLength > 0
}

// PromptTooLongError is returned when the pre-flight estimate exceeds the input budget.
type PromptTooLongError struct {
	Estimated int
	Limit     int
}

func (e *PromptTooLongError) Error() string {
	return fmt.Sprintf("Input content too long, estimated %d tokens, exceeds %dK context limit. "+
		"Please reduce the content of character profile or story outline.", e.Estimated, e.Limit/1000)
}

func (e *PromptTooLongError) Unwrap() error {
	return models.ErrPromptTooLong
}

// ScriptService orchestrates uploads, script generation and artifact lookup.
type ScriptService struct {
	store    *session.Store
	aiClient llm.AIClient
	tokens   TokenCounter
	settings Settings
	logger   *zap.Logger
}

// NewScriptService creates the service.
func NewScriptService(store *session.Store, aiClient llm.AIClient, tokens TokenCounter, settings Settings, logger *zap.Logger) *ScriptService {
	return &ScriptService{
		store:    store,
		aiClient: aiClient,
		tokens:   tokens,
		settings: settings,
		logger:   logger.Named("ScriptService"),
	}
}

// Upload validates both files, creates a session and stores them.
// Nothing touches the disk until validation has passed.
func (s *ScriptService) Upload(ctx context.Context, character, story UploadFile) (*UploadResult, error) {
	if err := s.validateUpload(character, "Character profile"); err != nil {
		return nil, err
	}
	if err := s.validateUpload(story, "Story outline"); err != nil {
		return nil, err
	}

	sessionID, err := s.store.Create()
	if err != nil {
		return nil, err
	}
	log := s.logger.With(zap.String("session_id", sessionID))

	charSize, err := s.save(sessionID, session.CharacterFile, character)
	if err == nil {
		var storySize int64
		storySize, err = s.save(sessionID, session.StoryFile, story)
		if err == nil {
			log.Info("Files uploaded", zap.Int64("character_bytes", charSize), zap.Int64("story_bytes", storySize))
			return &UploadResult{
				SessionID: sessionID,
				Character: models.StoredFile{FileName: session.CharacterFile, Size: charSize},
				Story:     models.StoredFile{FileName: session.StoryFile, Size: storySize},
			}, nil
		}
	}

	log.Error("Failed to save uploaded files", zap.Error(err))
	if rmErr := s.store.Remove(sessionID); rmErr != nil {
		log.Warn("Failed to clean up session after upload error", zap.Error(rmErr))
	}
	return nil, err
}

func (s *ScriptService) validateUpload(f UploadFile, label string) error {
	if !strings.HasSuffix(f.FileName, ".txt") {
		return models.NewDetailedError(models.ErrInvalidFileFormat, label+" file must be in .txt format")
	}
	if f.Size > s.settings.MaxUploadBytes {
		return models.NewDetailedError(models.ErrFileTooLarge,
			fmt.Sprintf("%s file size cannot exceed %s", label, formatByteLimit(s.settings.MaxUploadBytes)))
	}
	return nil
}

// save streams the part to disk, refusing to write more than the upload limit
// even when the declared size was wrong.
func (s *ScriptService) save(sessionID, name string, f UploadFile) (int64, error) {
	n, err := s.store.Save(sessionID, name, io.LimitReader(f.Content, s.settings.MaxUploadBytes+1))
	if err != nil {
		return n, err
	}
	if n > s.settings.MaxUploadBytes {
		return n, models.NewDetailedError(models.ErrFileTooLarge,
			fmt.Sprintf("File size cannot exceed %s", formatByteLimit(s.settings.MaxUploadBytes)))
	}
	return n, nil
}

func formatByteLimit(limit int64) string {
	const mib = 1 << 20
	if limit >= mib && limit%mib == 0 {
		return fmt.Sprintf("%dMB", limit/mib)
	}
	return fmt.Sprintf("%d bytes", limit)
}

// Generate turns the session's uploads into a screenplay.
func (s *ScriptService) Generate(ctx context.Context, sessionID string) (*GenerateResult, error) {
	if !s.store.Exists(sessionID) {
		return nil, models.NewDetailedError(models.ErrSessionNotFound, "Session ID does not exist")
	}
	if !s.store.FileExists(sessionID, session.CharacterFile) || !s.store.FileExists(sessionID, session.StoryFile) {
		return nil, models.NewDetailedError(models.ErrInputFilesIncomplete, "Uploaded files are incomplete")
	}

	unlock, err := s.store.TryLock(sessionID)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrGenerationInProgress):
			return nil, models.NewDetailedError(err, "Generation is already in progress for this session")
		case errors.Is(err, models.ErrSessionNotFound):
			return nil, models.NewDetailedError(err, "Session ID does not exist")
		}
		return nil, err
	}
	defer unlock()

	log := s.logger.With(zap.String("session_id", sessionID))

	character, err := s.store.ReadText(sessionID, session.CharacterFile)
	if err != nil {
		// a file vanishing here is a server-side failure, not a client error
		return nil, fmt.Errorf("failed to read character profile: %v", err)
	}
	story, err := s.store.ReadText(sessionID, session.StoryFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read story outline: %v", err)
	}

	userMessage := ComposeUserMessage(character, story)
	estimated := s.tokens.Count(s.settings.SystemPrompt) + s.tokens.Count(userMessage)
	if estimated > s.settings.MaxInputTokens {
		log.Warn("Input rejected before remote call",
			zap.Int("estimated_tokens", estimated),
			zap.Int("limit", s.settings.MaxInputTokens))
		return nil, &PromptTooLongError{Estimated: estimated, Limit: s.settings.MaxInputTokens}
	}

	temperature := s.settings.Temperature
	maxTokens := s.settings.MaxTokens
	log.Info("Generating script", zap.Int("estimated_tokens", estimated))

	completion, err := s.aiClient.GenerateText(ctx, s.settings.SystemPrompt, userMessage, llm.GenerationParams{
		Temperature: &temperature,
		MaxTokens:   &maxTokens,
	})
	if err != nil {
		return nil, err
	}

	if err := s.store.WriteText(sessionID, session.GeneratedFile, completion.Text); err != nil {
		return nil, err
	}
	files := []string{session.GeneratedFile}

	if completion.Reasoning != "" {
		if err := s.store.WriteText(sessionID, session.ReasoningFile, completion.Reasoning); err != nil {
			return nil, err
		}
		files = append(files, session.ReasoningFile)
	} else if err := s.store.RemoveFile(sessionID, session.ReasoningFile); err != nil {
		// a trace left by an earlier run would no longer match generated.txt
		log.Warn("Failed to remove stale reasoning", zap.Error(err))
	}

	result := &GenerateResult{
		SessionID:            sessionID,
		ScriptLength:         utf8.RuneCountInString(completion.Text),
		ReasoningLength:      utf8.RuneCountInString(completion.Reasoning),
		EstimatedInputTokens: estimated,
		FilesGenerated:       files,
	}
	log.Info("Script generated",
		zap.Int("script_length", result.ScriptLength),
		zap.Int("reasoning_length", result.ReasoningLength),
		zap.Int("completion_tokens", completion.Usage.CompletionTokens))
	return result, nil
}

// ComposeUserMessage builds the user turn from the two uploads.
func ComposeUserMessage(character, story string) string {
	return fmt.Sprintf(userMessageTemplate, strings.TrimSpace(character), strings.TrimSpace(story))
}

// ResolveArtifact returns the on-disk path of a downloadable artifact.
func (s *ScriptService) ResolveArtifact(sessionID, fileName string) (string, error) {
	if !s.store.Exists(sessionID) {
		return "", models.NewDetailedError(models.ErrSessionNotFound, "Session ID does not exist")
	}
	if !session.IsDownloadable(fileName) {
		return "", models.NewDetailedError(models.ErrFileTypeNotAllowed, "File type not allowed for download")
	}
	if !s.store.FileExists(sessionID, fileName) {
		return "", models.NewDetailedError(models.ErrFileNotFound, "File does not exist")
	}
	return s.store.FilePath(sessionID, fileName), nil
}

// DownloadURL is the relative link clients use to fetch an artifact.
func DownloadURL(sessionID, fileName string) string {
	return "/download/" + sessionID + "/" + fileName
}
