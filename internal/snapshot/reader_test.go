package snapshot

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleSnapshot = `{
  "formatVersion": 1,
  "docs": [
    {"id": "N1", "props": {"name": "Team sync Zurich", "_docType": "node"}, "children": ["C1"]},
    {"id": "N2", "props": {"name": "Client call Berlin"}, "children": []},
    {"id": "N3", "props": {"name": "Workshop Zurich"}, "children": null}
  ],
  "editors": [],
  "workspaces": {}
}`

func writeSnapshot(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "export@2025-01-01.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReaderStreamsAllRecords(t *testing.T) {
	path := writeSnapshot(t, sampleSnapshot)
	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	var ids []string
	for {
		rec, err := r.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		ids = append(ids, rec.ID)
	}
	require.Equal(t, []string{"N1", "N2", "N3"}, ids)
}

func TestReaderPreservesProps(t *testing.T) {
	path := writeSnapshot(t, sampleSnapshot)
	var names []string
	require.NoError(t, Each(path, func(rec Record) error {
		if n, ok := rec.Props["name"].(string); ok {
			names = append(names, n)
		}
		return nil
	}))
	require.Equal(t, []string{"Team sync Zurich", "Client call Berlin", "Workshop Zurich"}, names)
}

func TestOpenRejectsMalformedTopLevel(t *testing.T) {
	path := writeSnapshot(t, `["not", "an", "object"]`)
	_, err := Open(path)
	require.Error(t, err)
}

func TestOpenRejectsMissingDocs(t *testing.T) {
	path := writeSnapshot(t, `{"formatVersion": 1}`)
	_, err := Open(path)
	require.Error(t, err)
}

func TestOpenRejectsMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
}

func TestEachStopsOnCallbackError(t *testing.T) {
	path := writeSnapshot(t, sampleSnapshot)
	stop := errors.New("stop")
	count := 0
	err := Each(path, func(rec Record) error {
		count++
		if rec.ID == "N2" {
			return stop
		}
		return nil
	})
	require.ErrorIs(t, err, stop)
	require.Equal(t, 2, count)
}
