// Package config loads and saves Supertag's configuration document: the
// workspace registry, the default alias, embedding provider settings, and
// sink tokens/targets. Precedence is env var > config file > built-in
// default, mirroring codenerd's internal/config.Load.
package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	superr "github.com/nbbaier/supertag/internal/errors"
)

// Workspace is one entry in the workspace registry.
type Workspace struct {
	Alias            string `yaml:"alias"`
	RootID           string `yaml:"root_id"`
	NodeID           string `yaml:"nodeid,omitempty"`
	ExportDir        string `yaml:"export_dir"`
	DBPath           string `yaml:"db_path"`
	VectorDir        string `yaml:"vector_dir"`
	SchemaCachePath  string `yaml:"schema_cache_path"`
	Enabled          bool   `yaml:"enabled"`
	Default          bool   `yaml:"default,omitempty"`
	Token            string `yaml:"token,omitempty"`
	Target           string `yaml:"target,omitempty"`
}

// EmbeddingConfig selects and configures the embedding provider.
type EmbeddingConfig struct {
	Provider       string `yaml:"provider"` // "ollama" or "genai"
	OllamaEndpoint string `yaml:"ollama_endpoint"`
	OllamaModel    string `yaml:"ollama_model"`
	GenAIAPIKey    string `yaml:"genai_api_key,omitempty"`
	GenAIModel     string `yaml:"genai_model"`
	BatchSize      int    `yaml:"batch_size"`
	MinNameLength  int    `yaml:"min_name_length"`
}

// LoggingConfig controls the file-backed category logger.
type LoggingConfig struct {
	DebugMode bool   `yaml:"debug_mode"`
	Level     string `yaml:"level"`
}

// Config is Supertag's single top-level configuration document.
type Config struct {
	DefaultWorkspace string               `yaml:"default_workspace,omitempty"`
	Workspaces       []Workspace          `yaml:"workspaces"`
	Embedding        EmbeddingConfig      `yaml:"embedding"`
	Logging          LoggingConfig        `yaml:"logging"`
	DebounceMS       int                  `yaml:"debounce_ms"`
	LegacyDBPath     string               `yaml:"legacy_db_path,omitempty"`
}

// DefaultConfig returns the built-in defaults (lowest precedence tier).
func DefaultConfig() *Config {
	return &Config{
		Embedding: EmbeddingConfig{
			Provider:       "ollama",
			OllamaEndpoint: "http://localhost:11434",
			OllamaModel:    "embeddinggemma",
			GenAIModel:     "gemini-embedding-001",
			BatchSize:      32,
			MinNameLength:  3,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		DebounceMS: 1000,
	}
}

// Load reads path, falling back to DefaultConfig if it does not exist, then
// applies environment overrides. This is the env > file > default chain.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, superr.Wrap(superr.ConfigNotFound, err, "reading config file "+path)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, superr.Wrap(superr.ConfigInvalid, err, "parsing config file "+path)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the config atomically via write-then-rename, matching the
// schema-cache-document durability requirement.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return superr.Wrap(superr.InternalError, err, "creating config directory")
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return superr.Wrap(superr.InternalError, err, "marshaling config")
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return superr.Wrap(superr.InternalError, err, "writing config temp file")
	}
	if err := os.Rename(tmp, path); err != nil {
		return superr.Wrap(superr.InternalError, err, "renaming config temp file")
	}
	return nil
}

// applyEnvOverrides applies the environment-variable tier, the highest
// precedence level. Names are Supertag's own; existence and precedence
// order (env > file > default) must be preserved.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("SUPERTAG_WORKSPACE"); v != "" {
		c.DefaultWorkspace = v
	}
	if v := os.Getenv("SUPERTAG_GENAI_API_KEY"); v != "" {
		c.Embedding.GenAIAPIKey = v
		if c.Embedding.Provider == "" || c.Embedding.Provider == "ollama" {
			c.Embedding.Provider = "genai"
		}
	}
	if v := os.Getenv("SUPERTAG_OLLAMA_ENDPOINT"); v != "" {
		c.Embedding.OllamaEndpoint = v
	}
	if v := os.Getenv("SUPERTAG_OLLAMA_MODEL"); v != "" {
		c.Embedding.OllamaModel = v
	}
	if v := os.Getenv("SUPERTAG_SINK_TOKEN"); v != "" {
		c.setDefaultWorkspaceToken(v)
	}
	if v := os.Getenv("SUPERTAG_SINK_TARGET"); v != "" {
		c.setDefaultWorkspaceTarget(v)
	}
	if v := os.Getenv("SUPERTAG_DEBUG"); v == "1" || v == "true" {
		c.Logging.DebugMode = true
	}
}

func (c *Config) setDefaultWorkspaceToken(token string) {
	for i := range c.Workspaces {
		if c.Workspaces[i].Default {
			c.Workspaces[i].Token = token
			return
		}
	}
}

func (c *Config) setDefaultWorkspaceTarget(target string) {
	for i := range c.Workspaces {
		if c.Workspaces[i].Default {
			c.Workspaces[i].Target = target
			return
		}
	}
}

// DebounceDuration returns DebounceMS as a time.Duration, defaulting to 1s.
func (c *Config) DebounceDuration() time.Duration {
	if c.DebounceMS <= 0 {
		return time.Second
	}
	return time.Duration(c.DebounceMS) * time.Millisecond
}

// FindWorkspace returns the workspace with the given alias.
func (c *Config) FindWorkspace(alias string) (*Workspace, error) {
	for i := range c.Workspaces {
		if c.Workspaces[i].Alias == alias {
			return &c.Workspaces[i], nil
		}
	}
	return nil, superr.Newf(superr.WorkspaceNotFound, "no workspace named %q", alias)
}

// Default returns the workspace marked default, or the single workspace if
// exactly one is configured, else an error.
func (c *Config) Default() (*Workspace, error) {
	if c.DefaultWorkspace != "" {
		return c.FindWorkspace(c.DefaultWorkspace)
	}
	for i := range c.Workspaces {
		if c.Workspaces[i].Default {
			return &c.Workspaces[i], nil
		}
	}
	if len(c.Workspaces) == 1 {
		return &c.Workspaces[0], nil
	}
	return nil, superr.New(superr.WorkspaceNotFound, "no default workspace configured")
}

// SetDefault marks alias as the sole default workspace, unsetting others.
// Returns an error if alias is not a known workspace (invariant: exactly
// zero or one default).
func (c *Config) SetDefault(alias string) error {
	found := false
	for i := range c.Workspaces {
		if c.Workspaces[i].Alias == alias {
			c.Workspaces[i].Default = true
			found = true
		} else {
			c.Workspaces[i].Default = false
		}
	}
	if !found {
		return superr.Newf(superr.WorkspaceNotFound, "no workspace named %q", alias)
	}
	c.DefaultWorkspace = alias
	return nil
}

// Paths returns the canonical data-directory layout for a workspace alias
// rooted at dataDir (usually ~/.supertag or a --workspace override).
func Paths(dataDir, alias string) (dbPath, vectorDir, schemaCachePath string) {
	root := filepath.Join(dataDir, alias)
	return filepath.Join(root, "store.db"),
		filepath.Join(root, "vectors"),
		filepath.Join(root, "schema.json")
}

// DefaultDataDir returns ~/.supertag, or .supertag under cwd as a fallback.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".supertag"
	}
	return filepath.Join(home, ".supertag")
}

// ConfigPath returns the default path to the config document.
func ConfigPath() string {
	return filepath.Join(DefaultDataDir(), "config.yaml")
}

// PIDFilePath returns the default path to the webhook daemon's PID file.
func PIDFilePath() string {
	return filepath.Join(DefaultDataDir(), "webhook.pid")
}

// Validate checks basic config invariants: unique aliases, at most one
// default. Returns *errors.Error(ConfigInvalid) describing the first
// violation found.
func (c *Config) Validate() error {
	seen := map[string]bool{}
	defaults := 0
	for _, w := range c.Workspaces {
		if w.Alias == "" {
			return superr.New(superr.ConfigInvalid, "workspace with empty alias")
		}
		if seen[w.Alias] {
			return superr.Newf(superr.ConfigInvalid, "duplicate workspace alias %q", w.Alias)
		}
		seen[w.Alias] = true
		if w.Default {
			defaults++
		}
	}
	if defaults > 1 {
		return superr.New(superr.ConfigInvalid, "more than one default workspace")
	}
	return nil
}
