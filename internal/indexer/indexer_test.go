package indexer

import (
	"os"
	"path/filepath"
	"testing"

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

func writeSnapshotFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "export@2025-01-01.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	dir := t.TempDir()
	s, err := store.Open(filepath.Join(dir, "ws.db"), filepath.Join(dir, "vectors"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestIndexSnapshotScenarioA(t *testing.T) {
	s := openTestStore(t)
	path := writeSnapshotFile(t, meetingSnapshot)

	report, err := IndexSnapshot(s, path)
	require.NoError(t, err)
	require.Equal(t, 0, report.Deleted)
	require.Equal(t, 1, report.SupertagsTotal)
	require.Equal(t, 3, report.TagAppsTotal)
	require.Equal(t, 3, report.FieldsTotal)

	apps, err := store.TagApplicationsFor(s.DB(), "N1")
	require.NoError(t, err)
	require.Len(t, apps, 1)
	require.Equal(t, "tagdef-meeting", apps[0].TagID)

	meta, err := store.GetSupertagMeta(s.DB(), "tagdef-meeting")
	require.NoError(t, err)
	require.Equal(t, "meeting", meta.NormalizedName)
}

func TestIndexSnapshotIsIdempotent(t *testing.T) {
	s := openTestStore(t)
	path := writeSnapshotFile(t, meetingSnapshot)

	first, err := IndexSnapshot(s, path)
	require.NoError(t, err)
	require.True(t, first.Added > 0)

	second, err := IndexSnapshot(s, path)
	require.NoError(t, err)
	require.Equal(t, 0, second.Added)
	require.Equal(t, 0, second.Modified)
	require.Equal(t, 0, second.Deleted)
}

func TestIndexSnapshotScenarioFDelta(t *testing.T) {
	s := openTestStore(t)
	path := writeSnapshotFile(t, meetingSnapshot)

	_, err := IndexSnapshot(s, path)
	require.NoError(t, err)

	modified := `{"id":"N2","props":{"name":"Client call Berlin HQ"}}`
	// Splice the modified N2 record into a fresh snapshot body, keeping
	// everything else byte-identical to meetingSnapshot.
	full := `{
  "formatVersion": 1,
  "docs": [
    {"id":"tagdef-meeting","props":{"_docType":"tagDef","name":"meeting"},"children":["attrdef-location"]},
    {"id":"attrdef-location","props":{"_docType":"attrDef","name":"Location"}},
    {"id":"N1","props":{"name":"Team sync Zurich"}},
    {"id":"tuple-tag-n1","props":{"_docType":"tuple","parent_id":"N1","tag_id":"tagdef-meeting","tag_name":"meeting"}},
    {"id":"tuple-field-n1","props":{"_docType":"tuple","parent_id":"N1","field_def_id":"attrdef-location","field_name":"Location","value_text":"Zurich"}},
    ` + modified + `,
    {"id":"tuple-tag-n2","props":{"_docType":"tuple","parent_id":"N2","tag_id":"tagdef-meeting","tag_name":"meeting"}},
    {"id":"tuple-field-n2","props":{"_docType":"tuple","parent_id":"N2","field_def_id":"attrdef-location","field_name":"Location","value_text":"Berlin"}},
    {"id":"N3","props":{"name":"Workshop Zurich"}},
    {"id":"tuple-tag-n3","props":{"_docType":"tuple","parent_id":"N3","tag_id":"tagdef-meeting","tag_name":"meeting"}},
    {"id":"tuple-field-n3","props":{"_docType":"tuple","parent_id":"N3","field_def_id":"attrdef-location","field_name":"Location","value_text":"Zurich"}}
  ],
  "editors": [],
  "workspaces": {}
}`
	path2 := filepath.Join(filepath.Dir(path), "export@2025-01-02.json")
	require.NoError(t, os.WriteFile(path2, []byte(full), 0o644))

	report, err := IndexSnapshot(s, path2)
	require.NoError(t, err)
	require.Equal(t, 0, report.Added)
	require.Equal(t, 1, report.Modified)
	require.Equal(t, 0, report.Deleted)

	got, err := store.GetNode(s.DB(), "N2")
	require.NoError(t, err)
	require.Equal(t, "Client call Berlin HQ", got.Name.String)
}

func TestIndexSnapshotDeletesMissingNodes(t *testing.T) {
	s := openTestStore(t)
	path := writeSnapshotFile(t, meetingSnapshot)
	_, err := IndexSnapshot(s, path)
	require.NoError(t, err)

	smaller := `{"formatVersion":1,"docs":[{"id":"N1","props":{"name":"Team sync Zurich"}}],"editors":[],"workspaces":{}}`
	path2 := filepath.Join(filepath.Dir(path), "export@2025-01-02.json")
	require.NoError(t, os.WriteFile(path2, []byte(smaller), 0o644))

	report, err := IndexSnapshot(s, path2)
	require.NoError(t, err)
	require.True(t, report.Deleted > 0)

	_, err = store.GetNode(s.DB(), "N2")
	require.Error(t, err)
}

func TestWouldCycleDetectsIndirectCycle(t *testing.T) {
	edges := map[string][]string{
		"b": {"a"},
		"c": {"b"},
	}
	require.True(t, wouldCycle(edges, "a", "c"))
	require.False(t, wouldCycle(edges, "a", "d"))
}

func TestIsSystemDocType(t *testing.T) {
	require.True(t, IsSystemDocType("tagDef"))
	require.False(t, IsSystemDocType("page"))
}
