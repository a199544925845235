package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, "deepseek-r1", cfg.LLM.Model)
	assert.Equal(t, 60*time.Second, cfg.LLM.Timeout)
	assert.True(t, cfg.LLM.ThinkingCapable)
	assert.Equal(t, 5, cfg.Chat.HistoryWindow)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadYAMLWithEnvOverride(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	path := filepath.Join(dir, "config.yaml")
	yaml := `
http:
  port: 9090
llm:
  model: qwen-plus
  thinking_capable: false
chat:
  history_window: 8
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))
	t.Setenv("CHAT_HISTORY_WINDOW", "3")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, "qwen-plus", cfg.LLM.Model)
	assert.False(t, cfg.LLM.ThinkingCapable)
	assert.Equal(t, 3, cfg.Chat.HistoryWindow)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("LLM_MODEL=from-dotenv\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("LLM_MODEL") })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.LLM.Model)
}

func TestLoadRejectsNegativeWindow(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CHAT_HISTORY_WINDOW", "-1")

	_, err := Load("")
	assert.Error(t, err)
}
