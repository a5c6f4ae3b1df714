package handler

import (
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"time"

	"script-server/internal/models"
	"script-server/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ScriptService is what the HTTP layer needs from the service package.
type ScriptService interface {
	Upload(ctx context.Context, character, story service.UploadFile) (*service.UploadResult, error)
	Generate(ctx context.Context, sessionID string) (*service.GenerateResult, error)
	ResolveArtifact(sessionID, fileName string) (string, error)
}

type ScriptHandler struct {
	scripts ScriptService
	logger  *zap.Logger
}

func NewScriptHandler(scripts ScriptService, logger *zap.Logger) *ScriptHandler {
	return &ScriptHandler{
		scripts: scripts,
		logger:  logger.Named("ScriptHandler"),
	}
}

func (h *ScriptHandler) RegisterRoutes(router *gin.Engine) {
	router.GET("/", h.root)
	router.GET("/health", h.health)
	router.HEAD("/health", h.health)

	router.POST("/upload", h.upload)
	router.POST("/generate", h.generate)
	router.GET("/download/:session_id/:file_name", h.download)
}

func (h *ScriptHandler) root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "AI Script Generator API"})
}

func (h *ScriptHandler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *ScriptHandler) upload(c *gin.Context) {
	characterHeader, err := c.FormFile(formFieldCharacter)
	if err != nil {
		h.badRequest(c, fmt.Sprintf("Missing form field %q", formFieldCharacter))
		return
	}
	storyHeader, err := c.FormFile(formFieldStory)
	if err != nil {
		h.badRequest(c, fmt.Sprintf("Missing form field %q", formFieldStory))
		return
	}

	character, closeCharacter, err := openPart(characterHeader)
	if err != nil {
		uploadsTotal.WithLabelValues(outcome(handleServiceError(c, err, "Failed to save files"))).Inc()
		return
	}
	defer closeCharacter()
	story, closeStory, err := openPart(storyHeader)
	if err != nil {
		uploadsTotal.WithLabelValues(outcome(handleServiceError(c, err, "Failed to save files"))).Inc()
		return
	}
	defer closeStory()

	result, err := h.scripts.Upload(c.Request.Context(), character, story)
	if err != nil {
		uploadsTotal.WithLabelValues(outcome(handleServiceError(c, err, "Failed to save files"))).Inc()
		return
	}
	uploadsTotal.WithLabelValues(outcome(http.StatusOK)).Inc()

	c.JSON(http.StatusOK, models.UploadResponse{
		Success:   true,
		SessionID: result.SessionID,
		Message:   "Files uploaded successfully",
		Files: map[string]models.StoredFile{
			"character": result.Character,
			"story":     result.Story,
		},
	})
}

func openPart(fh *multipart.FileHeader) (service.UploadFile, func(), error) {
	f, err := fh.Open()
	if err != nil {
		return service.UploadFile{}, nil, fmt.Errorf("failed to open %s: %w", fh.Filename, err)
	}
	return service.UploadFile{FileName: fh.Filename, Size: fh.Size, Content: f}, func() { f.Close() }, nil
}

func (h *ScriptHandler) generate(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		generationsTotal.WithLabelValues(outcome(http.StatusBadRequest)).Inc()
		h.badRequest(c, "Invalid request body: "+err.Error())
		return
	}

	start := time.Now()
	result, err := h.scripts.Generate(c.Request.Context(), req.SessionID)
	if err != nil {
		generationsTotal.WithLabelValues(outcome(handleServiceError(c, err, "Failed to generate script"))).Inc()
		return
	}
	generationsTotal.WithLabelValues(outcome(http.StatusOK)).Inc()
	generationDuration.Observe(time.Since(start).Seconds())

	urls := models.DownloadURLs{Script: service.DownloadURL(result.SessionID, result.FilesGenerated[0])}
	if result.HasReasoning() {
		reasoning := service.DownloadURL(result.SessionID, result.FilesGenerated[1])
		urls.Reasoning = &reasoning
	}

	c.JSON(http.StatusOK, models.GenerateResponse{
		Success:              true,
		SessionID:            result.SessionID,
		Message:              "Script generated successfully",
		ScriptLength:         result.ScriptLength,
		ReasoningLength:      result.ReasoningLength,
		EstimatedInputTokens: result.EstimatedInputTokens,
		HasReasoning:         result.HasReasoning(),
		FilesGenerated:       result.FilesGenerated,
		DownloadURLs:         urls,
	})
}

func (h *ScriptHandler) download(c *gin.Context) {
	fileName := c.Param("file_name")
	path, err := h.scripts.ResolveArtifact(c.Param("session_id"), fileName)
	if err != nil {
		handleServiceError(c, err, "Failed to download file")
		return
	}
	downloadsTotal.WithLabelValues(fileName).Inc()
	c.FileAttachment(path, fileName)
}

func (h *ScriptHandler) badRequest(c *gin.Context, detail string) {
	h.logger.Debug("Bad request", zap.String("path", c.Request.URL.Path), zap.String("detail", detail))
	c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Detail: detail})
}
