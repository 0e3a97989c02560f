package httpapi

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nbbaier/supertag/internal/config"
	"github.com/nbbaier/supertag/internal/indexer"
	"github.com/stretchr/testify/require"
)

const testSnapshot = `{
  "formatVersion": 1,
  "docs": [
    {"id":"tagdef-meeting","props":{"_docType":"tagDef","name":"meeting"},"children":["attrdef-location"]},
    {"id":"attrdef-location","props":{"_docType":"attrDef","name":"Location"}},
    {"id":"N1","props":{"name":"Team sync Zurich"}},
    {"id":"tuple-tag-n1","props":{"_docType":"tuple","parent_id":"N1","tag_id":"tagdef-meeting","tag_name":"meeting"}}
  ],
  "editors": [],
  "workspaces": {}
}`

func testServer(t *testing.T) *httptest.Server {
	t.Helper()
	dir := t.TempDir()
	dbPath, vectorDir, schemaCachePath := config.Paths(dir, "default")

	cfg := &config.Config{
		DefaultWorkspace: "default",
		Workspaces: []config.Workspace{
			{Alias: "default", DBPath: dbPath, VectorDir: vectorDir, SchemaCachePath: schemaCachePath, Enabled: true, Default: true},
		},
	}

	pool := NewWorkspacePool(cfg)
	s, _, err := pool.Get("default")
	require.NoError(t, err)

	snapPath := filepath.Join(dir, "export@2025-01-01.json")
	require.NoError(t, os.WriteFile(snapPath, []byte(testSnapshot), 0o644))
	_, err = indexer.IndexSnapshot(s, snapPath)
	require.NoError(t, err)

	srv := NewServer("127.0.0.1:0", &Deps{Config: cfg, Pool: pool}, "")
	t.Cleanup(pool.CloseAll)
	return httptest.NewServer(srv.Handler())
}

func TestHealthReturnsOK(t *testing.T) {
	ts := testServer(t)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSearchDefaultsToTextFormat(t *testing.T) {
	ts := testServer(t)
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/search", "application/json", strings.NewReader(`{"q":"Zurich"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "text/plain; charset=utf-8", resp.Header.Get("Content-Type"))
}

func TestSearchJSONFormatSwitch(t *testing.T) {
	ts := testServer(t)
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/search?format=json", "application/json", strings.NewReader(`{"q":"Zurich"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, "application/json", resp.Header.Get("Content-Type"))
}

func TestSearchMissingQueryIsBadRequest(t *testing.T) {
	ts := testServer(t)
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/search", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestTagsListsIndexedSupertags(t *testing.T) {
	ts := testServer(t)
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/tags?format=json", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestUnknownWorkspaceReturnsNotFound(t *testing.T) {
	ts := testServer(t)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/stats?workspace=nope")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}
