package mcp

import (
	"bytes"
	"context"
	"encoding/json"
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
    {"id":"tuple-tag-n1","props":{"_docType":"tuple","parent_id":"N1","tag_id":"tagdef-meeting","tag_name":"meeting"}},
    {"id":"N2","props":{"name":"Standup","parent_id":"N1"}}
  ],
  "editors": [],
  "workspaces": {}
}`

func testDeps(t *testing.T) *Deps {
	t.Helper()
	dir := t.TempDir()
	dbPath, vectorDir, schemaCachePath := config.Paths(dir, "default")

	cfg := &config.Config{
		DefaultWorkspace: "default",
		Workspaces: []config.Workspace{
			{Alias: "default", ExportDir: dir, DBPath: dbPath, VectorDir: vectorDir, SchemaCachePath: schemaCachePath, Enabled: true, Default: true},
		},
	}

	pool := NewPool(cfg)
	st, _, _, err := pool.Get("default")
	require.NoError(t, err)

	snapPath := filepath.Join(dir, "export@2025-01-01.json")
	require.NoError(t, os.WriteFile(snapPath, []byte(testSnapshot), 0o644))
	_, err = indexer.IndexSnapshot(st, snapPath)
	require.NoError(t, err)

	t.Cleanup(pool.CloseAll)
	return &Deps{Config: cfg, Pool: pool}
}

func callTool(t *testing.T, d *Deps, method, params string) Response {
	t.Helper()
	req := `{"jsonrpc":"2.0","id":1,"method":"` + method + `","params":` + params + "}\n"
	var out bytes.Buffer
	srv := New(d, strings.NewReader(req), &out)
	require.NoError(t, srv.Serve(context.Background()))

	var resp Response
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(out.Bytes()), &resp))
	return resp
}

func TestToolTaggedReturnsMatchingNodes(t *testing.T) {
	d := testDeps(t)
	resp := callTool(t, d, "tagged", `{"tag":"meeting"}`)
	require.Nil(t, resp.Error)
	require.NotNil(t, resp.Result)
}

func TestToolStatsReturnsCounts(t *testing.T) {
	d := testDeps(t)
	resp := callTool(t, d, "stats", `{}`)
	require.Nil(t, resp.Error)
}

func TestToolNodeWithDepthWalksChildren(t *testing.T) {
	d := testDeps(t)
	resp := callTool(t, d, "node", `{"id":"N1","depth":1}`)
	require.Nil(t, resp.Error)

	data, err := json.Marshal(resp.Result)
	require.NoError(t, err)
	var got nodeResult
	require.NoError(t, json.Unmarshal(data, &got))
	require.Equal(t, "N1", got.ID)
	require.Len(t, got.Children, 1)
	require.Equal(t, "N2", got.Children[0].ID)
}

func TestToolNodeMissingIDIsMissingRequired(t *testing.T) {
	d := testDeps(t)
	resp := callTool(t, d, "node", `{}`)
	require.NotNil(t, resp.Error)
	require.Equal(t, "MissingRequired", resp.Error.Data.(map[string]interface{})["kind"])
}

func TestToolCreateDryRunDoesNotRequireSink(t *testing.T) {
	d := testDeps(t)
	resp := callTool(t, d, "create", `{"tag":"meeting","name":"New sync","dry_run":true}`)
	require.Nil(t, resp.Error)
}

func TestUnknownMethodReturnsMethodNotFound(t *testing.T) {
	d := testDeps(t)
	resp := callTool(t, d, "bogus", `{}`)
	require.NotNil(t, resp.Error)
	require.Equal(t, codeMethodNotFound, resp.Error.Code)
}

func TestSyncStatusReportsStoreStats(t *testing.T) {
	d := testDeps(t)
	resp := callTool(t, d, "sync", `{"action":"status"}`)
	require.Nil(t, resp.Error)
}

func TestSyncUnknownActionIsInvalidParameter(t *testing.T) {
	d := testDeps(t)
	resp := callTool(t, d, "sync", `{"action":"bogus"}`)
	require.NotNil(t, resp.Error)
	require.Equal(t, "InvalidParameter", resp.Error.Data.(map[string]interface{})["kind"])
}
