package query

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/nbbaier/supertag/internal/indexer"
	"github.com/nbbaier/supertag/internal/schema"
	"github.com/nbbaier/supertag/internal/store"
	"github.com/stretchr/testify/require"
)

const meetingSnapshot = `{
  "formatVersion": 1,
  "docs": [
    {"id":"tagdef-meeting","props":{"_docType":"tagDef","name":"meeting"},"children":["attrdef-location"]},
    {"id":"attrdef-location","props":{"_docType":"attrDef","name":"Location"}},
    {"id":"N1","props":{"name":"Team sync Zurich"}},
    {"id":"tuple-tag-n1","props":{"_docType":"tuple","parent_id":"N1","tag_id":"tagdef-meeting","tag_name":"meeting"}},
    {"id":"tuple-field-n1","props":{"_docType":"tuple","parent_id":"N1","field_def_id":"attrdef-location","field_name":"Location","value_text":"Zurich"}},
    {"id":"N2","props":{"name":"Client call Berlin"}},
    {"id":"tuple-tag-n2","props":{"_docType":"tuple","parent_id":"N2","tag_id":"tagdef-meeting","tag_name":"meeting"}},
    {"id":"tuple-field-n2","props":{"_docType":"tuple","parent_id":"N2","field_def_id":"attrdef-location","field_name":"Location","value_text":"Berlin"}},
    {"id":"N3","props":{"name":"Workshop Zurich"}},
    {"id":"tuple-tag-n3","props":{"_docType":"tuple","parent_id":"N3","tag_id":"tagdef-meeting","tag_name":"meeting"}},
    {"id":"tuple-field-n3","props":{"_docType":"tuple","parent_id":"N3","field_def_id":"attrdef-location","field_name":"Location","value_text":"Zurich"}}
  ],
  "editors": [],
  "workspaces": {}
}`

func seededStore(t *testing.T) (*store.Store, *schema.Service) {
	t.Helper()
	dir := t.TempDir()
	s, err := store.Open(filepath.Join(dir, "ws.db"), filepath.Join(dir, "vectors"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	path := filepath.Join(dir, "export@2025-01-01.json")
	require.NoError(t, os.WriteFile(path, []byte(meetingSnapshot), 0o644))

	_, err = indexer.IndexSnapshot(s, path)
	require.NoError(t, err)

	return s, schema.New(s.DB())
}

// TestExecuteScenarioA matches the literal index+query scenario: after
// indexing, `find meeting where Location = Zurich` returns exactly N1
// and N3.
func TestExecuteScenarioA(t *testing.T) {
	s, svc := seededStore(t)

	q, err := Parse(`find meeting where Location = Zurich`)
	require.NoError(t, err)

	result, err := Execute(context.Background(), s.DB(), svc, nil, q)
	require.NoError(t, err)

	ids := idsOf(result)
	require.ElementsMatch(t, []string{"N1", "N3"}, ids)
}

// TestExecuteScenarioB matches the literal substring scenario:
// `find meeting where Location ~ Zur` returns {N1, N3}.
func TestExecuteScenarioB(t *testing.T) {
	s, svc := seededStore(t)

	q, err := Parse(`find meeting where Location ~ Zur`)
	require.NoError(t, err)

	result, err := Execute(context.Background(), s.DB(), svc, nil, q)
	require.NoError(t, err)

	ids := idsOf(result)
	require.ElementsMatch(t, []string{"N1", "N3"}, ids)
}

func TestExecuteFindStarReturnsEveryNode(t *testing.T) {
	s, svc := seededStore(t)

	q, err := Parse(`find *`)
	require.NoError(t, err)

	result, err := Execute(context.Background(), s.DB(), svc, nil, q)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(result.Nodes), 3)
}

func TestExecuteUnknownSupertagYieldsEmptyResult(t *testing.T) {
	s, svc := seededStore(t)

	q, err := Parse(`find doesnotexist`)
	require.NoError(t, err)

	result, err := Execute(context.Background(), s.DB(), svc, nil, q)
	require.NoError(t, err)
	require.Empty(t, result.Nodes)
}

func TestExecuteOrderByDescendingWithPaging(t *testing.T) {
	s, svc := seededStore(t)

	q, err := Parse(`find meeting order by -Location limit 2`)
	require.NoError(t, err)

	result, err := Execute(context.Background(), s.DB(), svc, nil, q)
	require.NoError(t, err)
	require.Len(t, result.Nodes, 2)
	require.Equal(t, 3, result.MatchCount)
}

func idsOf(r *Result) []string {
	ids := make([]string, len(r.Nodes))
	for i, n := range r.Nodes {
		ids[i] = n.ID
	}
	return ids
}
