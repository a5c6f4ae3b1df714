package models

import "errors"

// Application-wide standard errors
var (
	// Session & file errors
	ErrSessionNotFound      = errors.New("session ID does not exist")
	ErrInputFilesIncomplete = errors.New("uploaded files are incomplete")
	ErrFileNotFound         = errors.New("file does not exist")
	ErrFileTypeNotAllowed   = errors.New("file type not allowed for download")

	// Upload validation errors
	ErrInvalidFileFormat = errors.New("invalid file format")
	ErrFileTooLarge      = errors.New("file is too large")

	// Generation errors
	ErrGenerationInProgress = errors.New("generation is already in progress for this session")
	ErrPromptTooLong        = errors.New("input content too long")

	// General request errors
	ErrBadRequest = errors.New("bad request")
)

// DetailedError pairs a sentinel error with the message shown to API clients.
// errors.Is matches the sentinel.
type DetailedError struct {
	Err    error
	Detail string
}

// NewDetailedError wraps err with a client-facing detail message.
func NewDetailedError(err error, detail string) *DetailedError {
	return &DetailedError{Err: err, Detail: detail}
}

func (e *DetailedError) Error() string {
	return e.Detail
}

func (e *DetailedError) Unwrap() error {
	return e.Err
}
