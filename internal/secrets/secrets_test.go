// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package secrets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T) string
		want  map[string]string
	}{
		{
			name: "reads key files and trims whitespace",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, "openai-api-key", "  sk_abc123  \n")
				writeFile(t, dir, "semantic-scholar-api-key", "s2_xyz789")
				writeFile(t, dir, "smtp-password", "hunter2\n")
				return dir
			},
			want: map[string]string{
				"openai-api-key":           "sk_abc123",
				"semantic-scholar-api-key": "s2_xyz789",
				"smtp-password":            "hunter2",
			},
		},
		{
			name: "returns empty map for nonexistent directory",
			setup: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "does-not-exist")
			},
			want: map[string]string{},
		},
		{
			name: "skips empty files",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, "openai-api-key", "valid-key")
				writeFile(t, dir, "empty-key", "")
				writeFile(t, dir, "whitespace-only", "   \n\t  ")
				return dir
			},
			want: map[string]string{
				"openai-api-key": "valid-key",
			},
		},
		{
			name: "skips dotfiles and subdirectories",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, ".gitkeep", "")
				writeFile(t, dir, ".hidden-key", "secret")
				writeFile(t, dir, "smtp-password", "real")
				require.NoError(t, os.Mkdir(filepath.Join(dir, "subdir"), 0o755))
				return dir
			},
			want: map[string]string{
				"smtp-password": "real",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearSecretEnv(t)
			dir := tt.setup(t)
			got, err := Load(dir)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadEnvFallback(t *testing.T) {
	clearSecretEnv(t)
	t.Setenv("S2_API_KEY", "from-env")

	got, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "from-env", got["semantic-scholar-api-key"])
	_, hasOpenAI := got["openai-api-key"]
	assert.False(t, hasOpenAI, "empty env var should not produce a secret")
}

func TestLoadFilePrecedesEnv(t *testing.T) {
	clearSecretEnv(t)
	t.Setenv("SMTP_PASSWORD", "from-env")

	dir := t.TempDir()
	writeFile(t, dir, "smtp-password", "from-file")

	got, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "from-file", got["smtp-password"])
}

// clearSecretEnv blanks the fallback variables so the ambient environment
// cannot leak into table expectations.
func clearSecretEnv(t *testing.T) {
	t.Helper()
	for _, env := range envNames {
		t.Setenv(env, "")
	}
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}
