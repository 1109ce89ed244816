package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", cfg.Model)
	assert.Equal(t, "openai", cfg.LLM.Provider)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
model = "gpt-4o"
api_key = "secret"

[llm]
provider = "gemini"
max_retries = 5
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", cfg.Model)
	assert.Equal(t, "secret", cfg.APIKey)
	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.Equal(t, 5, cfg.LLM.MaxRetries)
}

func TestLoadFromString_ExpandsTildeInPaths(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	cfg, err := LoadFromString(`project_root = "~/projects/doge"`)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "projects/doge"), cfg.ProjectRoot)
}

func TestStringSlice_UnmarshalsSingleStringOrArray(t *testing.T) {
	cfg, err := LoadFromString(`allowed_commands = "go test"`)
	require.NoError(t, err)
	assert.Equal(t, StringSlice{"go test"}, cfg.AllowedCommands)

	cfg, err = LoadFromString(`allowed_commands = ["go test", "go build"]`)
	require.NoError(t, err)
	assert.Equal(t, StringSlice{"go test", "go build"}, cfg.AllowedCommands)
}

func TestConfig_PathHelpers(t *testing.T) {
	cfg := &Config{ProjectRoot: "/project"}
	assert.Equal(t, "/project/.doge", cfg.DogeDir())
	assert.Equal(t, "/project/.doge/repomap.db", cfg.RepomapDBPath())
	assert.Equal(t, "/project/.doge/sessions/sess-1", cfg.SessionDir("sess-1"))
	assert.Equal(t, "/project/.doge/todos/sess-1.json", cfg.TodoPath("sess-1"))
}

func TestValidate_RejectsMissingRequiredFields(t *testing.T) {
	cfg := &Config{}
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	assert.NoError(t, cfg.Validate())
}

func TestValidate_RejectsNegativeMaxRetries(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LLM.MaxRetries = -1
	assert.Error(t, cfg.Validate())
}

func TestClone_ProducesIndependentCopy(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AllowedCommands = StringSlice{"go test"}

	clone := cfg.Clone()
	clone.AllowedCommands[0] = "mutated"

	assert.Equal(t, "go test", cfg.AllowedCommands[0])
}

func TestSave_ThenLoad_RoundTrips(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Model = "custom-model"
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "custom-model", loaded.Model)
}
