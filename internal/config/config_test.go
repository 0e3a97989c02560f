package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.Equal(t, "ollama", cfg.Embedding.Provider)
	require.Equal(t, 1000, cfg.DebounceMS)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := DefaultConfig()
	cfg.Workspaces = append(cfg.Workspaces, Workspace{Alias: "work", Enabled: true, Default: true})
	cfg.DefaultWorkspace = "work"
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Len(t, loaded.Workspaces, 1)
	require.Equal(t, "work", loaded.Workspaces[0].Alias)

	ws, err := loaded.Default()
	require.NoError(t, err)
	require.Equal(t, "work", ws.Alias)
}

func TestEnvOverridesTakePrecedence(t *testing.T) {
	os.Setenv("SUPERTAG_OLLAMA_ENDPOINT", "http://example:1234")
	defer os.Unsetenv("SUPERTAG_OLLAMA_ENDPOINT")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.Equal(t, "http://example:1234", cfg.Embedding.OllamaEndpoint)
}

func TestValidateRejectsDuplicateAlias(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Workspaces = []Workspace{{Alias: "a"}, {Alias: "a"}}
	err := cfg.Validate()
	require.Error(t, err)
}

func TestValidateRejectsMultipleDefaults(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Workspaces = []Workspace{{Alias: "a", Default: true}, {Alias: "b", Default: true}}
	err := cfg.Validate()
	require.Error(t, err)
}

func TestSetDefaultUnknownAlias(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Workspaces = []Workspace{{Alias: "a"}}
	err := cfg.SetDefault("missing")
	require.Error(t, err)
}
