package snapshot

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLatestPicksLexicographicallyGreatest(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"export@2025-01-01.json",
		"export@2025-03-15.json",
		"export@2025-02-20.json",
		"ignore-me.txt",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("{}"), 0o644))
	}

	got, err := Latest(dir)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "export@2025-03-15.json"), got)
}

func TestLatestErrorsWhenEmpty(t *testing.T) {
	_, err := Latest(t.TempDir())
	require.Error(t, err)
}

func TestMatchesPattern(t *testing.T) {
	require.True(t, Matches("workspace@2025-01-01.json"))
	require.False(t, Matches("workspace.json"))
	require.False(t, Matches("workspace@2025-01-01.json.bak"))
}
