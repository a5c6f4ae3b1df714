package prompt

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "script_prompt.txt")
	require.NoError(t, os.WriteFile(path, []byte("\n  You are a screenwriter.  \n\n"), 0o644))

	text, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "You are a screenwriter.", text)
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.txt"))
	assert.ErrorIs(t, err, ErrPromptNotFound)
}

func TestLoad_Blank(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blank.txt")
	require.NoError(t, os.WriteFile(path, []byte(" \n\t"), 0o644))

	_, err := Load(path)
	assert.ErrorContains(t, err, "is empty")
}

func TestLoad_ShippedTemplate(t *testing.T) {
	text, err := Load("../../prompts/script_prompt.txt")
	require.NoError(t, err)
	assert.NotEmpty(t, text)
}
