package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".quickstar"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".quickstar", "config.yaml"), []byte(content), 0644))
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("MODEL_MAX_TOKENS", "")
	t.Setenv("COMPRESS_THRESHOLD", "")
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 200, cfg.ModelMaxTokensK)
	assert.Equal(t, 200*1024, cfg.MaxTokens())
	assert.Equal(t, 0.8, cfg.CompressThreshold)
	// The agent's own state directory is always hidden.
	assert.Contains(t, cfg.FilesystemAccess.Hidden, ".quickstar")
}

func TestLoadConfigProjectOverridesUser(t *testing.T) {
	home := t.TempDir()
	project := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("MODEL_MAX_TOKENS", "")
	t.Setenv("COMPRESS_THRESHOLD", "")
	t.Chdir(project)

	writeConfig(t, home, "llm: openai\nmodel: gpt-large\nmodel_max_tokens: 128\n")
	writeConfig(t, project, "model: gpt-small\n")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	// Project config wins where it speaks, user config fills the rest.
	assert.Equal(t, "openai", cfg.LLMClient)
	assert.Equal(t, "gpt-small", cfg.Model)
	assert.Equal(t, 128, cfg.ModelMaxTokensK)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())
	t.Setenv("MODEL_MAX_TOKENS", "64")
	t.Setenv("COMPRESS_THRESHOLD", "0.5")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 64, cfg.ModelMaxTokensK)
	assert.Equal(t, 0.5, cfg.CompressThreshold)
}

func TestLoadConfigInvalidEnvIgnored(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())
	t.Setenv("MODEL_MAX_TOKENS", "not-a-number")
	t.Setenv("COMPRESS_THRESHOLD", "7.5")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 200, cfg.ModelMaxTokensK)
	assert.Equal(t, 0.8, cfg.CompressThreshold)
}

func TestLoadConfigFullFile(t *testing.T) {
	project := t.TempDir()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("MODEL_MAX_TOKENS", "")
	t.Setenv("COMPRESS_THRESHOLD", "")
	t.Chdir(project)

	writeConfig(t, project, `llm: anthropic
model: claude-sonnet-4-0
model_max_tokens: 200
compress_threshold: 0.75
allowed_commands:
  - "^git .*"
  - "^ls"
mcp_servers:
  - name: files
    command: mcp-files
    args: ["--root", "/tmp"]
filesystem_access:
  hidden:
    - "secrets/**"
  read_only:
    - "vendor/**"
`)

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "anthropic", cfg.LLMClient)
	assert.Equal(t, 0.75, cfg.CompressThreshold)
	assert.Equal(t, []string{"^git .*", "^ls"}, cfg.AllowedCommands)
	require.Len(t, cfg.MCPServers, 1)
	assert.Equal(t, "files", cfg.MCPServers[0].Name)
	assert.Equal(t, []string{"--root", "/tmp"}, cfg.MCPServers[0].Args)
	assert.Equal(t, []string{"secrets/**"}, cfg.FilesystemAccess.Hidden)
	assert.Equal(t, []string{"vendor/**"}, cfg.FilesystemAccess.ReadOnly)
}
