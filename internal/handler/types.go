package handler

// generateRequest is the JSON body of POST /generate.
type generateRequest struct {
	SessionID string `json:"session_id" binding:"required"`
}

const (
	formFieldCharacter = "character_file"
	formFieldStory     = "story_file"
)
