package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func useSecretsDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	prev := SecretsDir
	SecretsDir = dir
	t.Cleanup(func() { SecretsDir = prev })
	return dir
}

func TestReadSecret(t *testing.T) {
	dir := useSecretsDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "api_key"), []byte("  sk-123\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "blank"), []byte("\n"), 0o600))

	got, err := ReadSecret("api_key")
	require.NoError(t, err)
	assert.Equal(t, "sk-123", got)

	_, err = ReadSecret("blank")
	assert.ErrorContains(t, err, "is empty")

	_, err = ReadSecret("absent")
	assert.Error(t, err)
}
