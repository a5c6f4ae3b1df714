package handler

import (
	"errors"
	"net/http"

	"script-server/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// statusFor maps a service error onto an HTTP status code.
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrBadRequest),
		errors.Is(err, models.ErrInvalidFileFormat),
		errors.Is(err, models.ErrFileTypeNotAllowed):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrSessionNotFound),
		errors.Is(err, models.ErrInputFilesIncomplete),
		errors.Is(err, models.ErrFileNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrGenerationInProgress):
		return http.StatusConflict
	case errors.Is(err, models.ErrFileTooLarge),
		errors.Is(err, models.ErrPromptTooLong):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

// handleServiceError writes the error reply. Client errors carry their own
// message; anything else becomes a 500 prefixed with the failed operation.
func handleServiceError(c *gin.Context, err error, operation string) int {
	statusCode := statusFor(err)

	detail := err.Error()
	var detailed *models.DetailedError
	if errors.As(err, &detailed) {
		detail = detailed.Detail
	}

	if statusCode == http.StatusInternalServerError {
		zap.L().Error("Unhandled internal error in handleServiceError",
			zap.String("operation", operation), zap.Error(err))
		detail = operation + ": " + err.Error()
	}

	c.AbortWithStatusJSON(statusCode, models.ErrorResponse{Detail: detail})
	return statusCode
}
