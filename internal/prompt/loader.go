package prompt

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrPromptNotFound is returned when the template file does not exist.
var ErrPromptNotFound = errors.New("prompt file not found")

// Load reads the system prompt template at path and trims surrounding whitespace.
// A missing or blank file is an error; callers treat it as fatal at startup.
func Load(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrPromptNotFound, path)
		}
		return "", fmt.Errorf("failed to read prompt file %s: %w", path, err)
	}

	text := strings.TrimSpace(string(content))
	if text == "" {
		return "", fmt.Errorf("prompt file %s is empty", path)
	}
	return text, nil
}
