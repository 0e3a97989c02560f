package workspace

import (
	"testing"

	"github.com/nbbaier/supertag/internal/config"
	superr "github.com/nbbaier/supertag/internal/errors"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		DefaultWorkspace: "home",
		Workspaces: []config.Workspace{
			{Alias: "home", DBPath: "/data/home/store.db", Enabled: true, Default: true},
			{Alias: "work", DBPath: "/data/work/store.db", Enabled: true},
			{Alias: "archived", DBPath: "/data/archived/store.db", Enabled: false},
		},
	}
}

func TestResolveExplicitPathWinsOverEverything(t *testing.T) {
	cfg := testConfig()
	ws, err := Resolve(cfg, ResolveOptions{ExplicitPath: "/tmp/one-off.db", Alias: "work"})
	require.NoError(t, err)
	require.Equal(t, "/tmp/one-off.db", ws.DBPath)
}

func TestResolveAliasWinsOverDefault(t *testing.T) {
	cfg := testConfig()
	ws, err := Resolve(cfg, ResolveOptions{Alias: "work"})
	require.NoError(t, err)
	require.Equal(t, "work", ws.Alias)
}

func TestResolveFallsBackToConfiguredDefault(t *testing.T) {
	cfg := testConfig()
	ws, err := Resolve(cfg, ResolveOptions{})
	require.NoError(t, err)
	require.Equal(t, "home", ws.Alias)
}

func TestResolveFallsBackToLegacyPath(t *testing.T) {
	cfg := &config.Config{LegacyDBPath: "/data/legacy/store.db"}
	ws, err := Resolve(cfg, ResolveOptions{})
	require.NoError(t, err)
	require.Equal(t, "/data/legacy/store.db", ws.DBPath)
}

func TestResolveWithNothingConfiguredFails(t *testing.T) {
	cfg := &config.Config{}
	_, err := Resolve(cfg, ResolveOptions{})
	require.Error(t, err)
	e, ok := superr.As(err)
	require.True(t, ok)
	require.Equal(t, superr.WorkspaceNotFound, e.Kind)
}

func TestEnabledSkipsDisabledWorkspaces(t *testing.T) {
	cfg := testConfig()
	enabled := Enabled(cfg)
	require.Len(t, enabled, 2)
	for _, ws := range enabled {
		require.NotEqual(t, "archived", ws.Alias)
	}
}
