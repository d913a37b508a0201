package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalYAML = `
telegram:
  token: "123:abc"
database:
  host: localhost
  name: coachbot
trainer:
  chat_id: 500
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, int64(500), cfg.Trainer.ChatID)
	assert.Equal(t, "5432", cfg.Database.Port)
	assert.Equal(t, "disable", cfg.Database.SSLMode)
	assert.Equal(t, 5, cfg.Database.MaxConnections)

	assert.Equal(t, "https://api.proxyapi.ru/openai/v1", cfg.Generation.BaseURL)
	assert.Equal(t, "gpt-5-nano", cfg.Generation.Model)
	assert.InDelta(t, 0.7, cfg.Generation.Temperature, 1e-9)
	assert.Equal(t, 3000, cfg.Generation.MaxTokens)
	assert.Equal(t, 60, cfg.Generation.TimeoutSeconds)
	assert.Empty(t, cfg.Generation.APIKey, "missing api key is not fatal at load time")

	require.NotNil(t, cfg.CoreConfig())
	assert.Equal(t, "123:abc", cfg.CoreConfig().Telegram.Token)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("GENERATION_API_KEY", "env-key")
	t.Setenv("TRAINER_CHAT_ID", "600")

	cfg, err := Load(writeConfig(t, minimalYAML))
	require.NoError(t, err)
	assert.Equal(t, "env-key", cfg.Generation.APIKey)
	assert.Equal(t, int64(600), cfg.Trainer.ChatID)
}

func TestLoadOAuthScopeDefault(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalYAML+`
generation:
  auth_url: https://auth.example/oauth
`))
	require.NoError(t, err)
	assert.Equal(t, "GIGACHAT_API_PERS", cfg.Generation.Scope)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "missing trainer chat",
			yaml: "telegram:\n  token: \"t\"\ndatabase:\n  host: h\n  name: n\n",
			want: "trainer.chat_id",
		},
		{
			name: "missing db host",
			yaml: "telegram:\n  token: \"t\"\ndatabase:\n  name: n\ntrainer:\n  chat_id: 1\n",
			want: "database.host",
		},
		{
			name: "missing telegram token",
			yaml: "database:\n  host: h\n  name: n\ntrainer:\n  chat_id: 1\n",
			want: "token",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
