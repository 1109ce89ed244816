// Package config provides configuration management for the doge agent core.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config is the recognized configuration surface (spec.md §6).
type Config struct {
	BaseURL                      string      `toml:"base_url"`
	Model                        string      `toml:"model"`
	APIKey                       string      `toml:"api_key"`
	ProjectRoot                  string      `toml:"project_root"`
	AllowedCommands               StringSlice `toml:"allowed_commands"`
	AllowedPaths                  StringSlice `toml:"allowed_paths"`
	NoRepomap                     bool        `toml:"no_repomap"`
	ShowDiff                      bool        `toml:"show_diff"`
	AutoCompactPromptTokenThreshold int       `toml:"auto_compact_prompt_token_threshold"`
	ProjectInstructionsFile       string      `toml:"project_instructions_file"`
	LLM                           LLMConfig   `toml:"llm"`
}

// LLMConfig contains transport-level tuning for the agent loop's LLM client.
type LLMConfig struct {
	ConnectTimeoutMs  int    `toml:"connect_timeout_ms"`
	RequestTimeoutMs  int    `toml:"request_timeout_ms"`
	TimeoutMs         int    `toml:"timeout_ms"`
	MaxRetries        int    `toml:"max_retries"`
	RetryBaseMs       int    `toml:"retry_base_ms"`
	RetryJitterMs     int    `toml:"retry_jitter_ms"`
	RespectRetryAfter bool   `toml:"respect_retry_after"`
	Provider          string `toml:"provider"` // "openai" (default) or "gemini"
}

// StringSlice unmarshals from either a single TOML string or an array of strings.
type StringSlice []string

// UnmarshalTOML implements toml.Unmarshaler for flexible config parsing.
func (s *StringSlice) UnmarshalTOML(data interface{}) error {
	switch v := data.(type) {
	case string:
		*s = []string{v}
	case []interface{}:
		result := make([]string, len(v))
		for i, item := range v {
			str, ok := item.(string)
			if !ok {
				return fmt.Errorf("expected string in array, got %T", item)
			}
			result[i] = str
		}
		*s = result
	default:
		return fmt.Errorf("expected string or array, got %T", data)
	}
	return nil
}

// DefaultConfig returns the default configuration. DOGE_BASE_URL and
// DOGE_MODEL environment variables override the LLM endpoint and model.
func DefaultConfig() *Config {
	root, err := os.Getwd()
	if err != nil {
		root = "."
	}

	baseURL := "https://api.openai.com/v1"
	if v := os.Getenv("DOGE_BASE_URL"); v != "" {
		baseURL = v
	}

	model := "gpt-4o-mini"
	if v := os.Getenv("DOGE_MODEL"); v != "" {
		model = v
	}

	return &Config{
		BaseURL:     baseURL,
		Model:       model,
		APIKey:      os.Getenv("DOGE_API_KEY"),
		ProjectRoot: root,
		// Empty allow-list means "allow all" (spec.md §4.G).
		AllowedCommands:               nil,
		AllowedPaths:                  nil,
		NoRepomap:                     false,
		ShowDiff:                      false,
		AutoCompactPromptTokenThreshold: 80000,
		LLM: LLMConfig{
			ConnectTimeoutMs:  10_000,
			RequestTimeoutMs:  300_000,
			TimeoutMs:         300_000,
			MaxRetries:        3,
			RetryBaseMs:       500,
			RetryJitterMs:     250,
			RespectRetryAfter: true,
			Provider:          "openai",
		},
	}
}

// Load loads configuration from a TOML file, merging with defaults. A
// missing file is not an error — the defaults are returned as-is.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))
	if _, err := toml.Decode(expanded, cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	cfg.expandPaths()
	return cfg, nil
}

// LoadFromString loads configuration from a TOML string, merging with defaults.
func LoadFromString(tomlStr string) (*Config, error) {
	cfg := DefaultConfig()

	expanded := os.ExpandEnv(tomlStr)
	if _, err := toml.Decode(expanded, cfg); err != nil {
		return nil, fmt.Errorf("parse config string: %w", err)
	}

	cfg.expandPaths()
	return cfg, nil
}

func (c *Config) expandPaths() {
	home, _ := os.UserHomeDir()

	expandTilde := func(path string) string {
		if strings.HasPrefix(path, "~/") {
			return filepath.Join(home, path[2:])
		}
		return path
	}

	c.ProjectRoot = expandTilde(c.ProjectRoot)
	c.ProjectInstructionsFile = expandTilde(c.ProjectInstructionsFile)
	for i, p := range c.AllowedPaths {
		c.AllowedPaths[i] = expandTilde(p)
	}
}

// Save writes the configuration to path in TOML format.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create config file: %w", err)
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	return nil
}

// DogeDir returns the project's `.doge` data directory (spec.md §6).
func (c *Config) DogeDir() string {
	return filepath.Join(c.ProjectRoot, ".doge")
}

// RepomapDBPath returns the path of the persisted repomap cache.
func (c *Config) RepomapDBPath() string {
	return filepath.Join(c.DogeDir(), "repomap.db")
}

// SessionDir returns the directory holding a session's meta/history files.
func (c *Config) SessionDir(sessionID string) string {
	return filepath.Join(c.DogeDir(), "sessions", sessionID)
}

// TodoPath returns the path of a session's persisted todo list.
func (c *Config) TodoPath(sessionID string) string {
	return filepath.Join(c.DogeDir(), "todos", sessionID+".json")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base_url must not be empty")
	}
	if c.Model == "" {
		return fmt.Errorf("model must not be empty")
	}
	if c.ProjectRoot == "" {
		return fmt.Errorf("project_root must not be empty")
	}
	if c.LLM.MaxRetries < 0 {
		return fmt.Errorf("llm.max_retries cannot be negative")
	}
	return nil
}

// Clone creates a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c

	clone.AllowedCommands = make(StringSlice, len(c.AllowedCommands))
	copy(clone.AllowedCommands, c.AllowedCommands)

	clone.AllowedPaths = make(StringSlice, len(c.AllowedPaths))
	copy(clone.AllowedPaths, c.AllowedPaths)

	return &clone
}
