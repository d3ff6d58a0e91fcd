package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withSecretsDir(t *testing.T) string {
	dir := t.TempDir()
	old := SecretsDir
	SecretsDir = dir
	t.Cleanup(func() { SecretsDir = old })
	return dir
}

func TestReadSecret(t *testing.T) {
	t.Run("Reads and trims file", func(t *testing.T) {
		dir := withSecretsDir(t)
		require.NoError(t, os.WriteFile(filepath.Join(dir, "session_secret"), []byte("  s3cret\n"), 0o600))

		secret, err := ReadSecret("session_secret")
		require.NoError(t, err)
		assert.Equal(t, "s3cret", secret)
	})

	t.Run("Empty file is an error", func(t *testing.T) {
		dir := withSecretsDir(t)
		require.NoError(t, os.WriteFile(filepath.Join(dir, "session_secret"), []byte("\n"), 0o600))

		_, err := ReadSecret("session_secret")
		assert.Error(t, err)
	})

	t.Run("Falls back to env", func(t *testing.T) {
		withSecretsDir(t)
		t.Setenv("AI_API_KEY", "from-env")

		secret, err := ReadSecret("ai_api_key")
		require.NoError(t, err)
		assert.Equal(t, "from-env", secret)
	})

	t.Run("Missing everywhere", func(t *testing.T) {
		withSecretsDir(t)
		_, err := ReadSecret("definitely_missing_secret")
		assert.Error(t, err)
		assert.Equal(t, "", ReadOptionalSecret("definitely_missing_secret"))
	})
}
