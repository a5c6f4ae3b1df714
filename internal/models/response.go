package models

// ErrorResponse is the JSON body of every error reply.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// StoredFile describes a file persisted into a session directory.
type StoredFile struct {
	FileName string `json:"file_name"`
	Size     int64  `json:"size"`
}

// UploadResponse is returned by POST /upload.
type UploadResponse struct {
	Success   bool                  `json:"success"`
	SessionID string                `json:"session_id"`
	Message   string                `json:"message"`
	Files     map[string]StoredFile `json:"files"`
}

// DownloadURLs are relative links to the generated artifacts.
type DownloadURLs struct {
	Script    string  `json:"script"`
	Reasoning *string `json:"reasoning"`
}

// GenerateResponse is returned by POST /generate.
type GenerateResponse struct {
	Success              bool         `json:"success"`
	SessionID            string       `json:"session_id"`
	Message              string       `json:"message"`
	ScriptLength         int          `json:"script_length"`
	ReasoningLength      int          `json:"reasoning_length"`
	EstimatedInputTokens int          `json:"estimated_input_tokens"`
	HasReasoning         bool         `json:"has_reasoning"`
	FilesGenerated       []string     `json:"files_generated"`
	DownloadURLs         DownloadURLs `json:"download_urls"`
}
