package schema

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/nbbaier/supertag/internal/store"
	"github.com/stretchr/testify/require"
)

func seedPayloadTags(t *testing.T, s *store.Store) {
	t.Helper()
	err := s.Tx(func(tx *sql.Tx) error {
		for _, tag := range []string{"todo", "urgent"} {
			if err := store.UpsertSupertagMeta(tx, store.SupertagMetaRow{TagID: tag + "-id", TagName: tag, NormalizedName: tag}); err != nil {
				return err
			}
		}
		fields := []store.SupertagFieldRow{
			{TagID: "todo-id", FieldName: "Status", FieldLabelID: "status-attr", NormalizedName: "status", InferredDataType: string(DataTypeReference)},
			{TagID: "todo-id", FieldName: "DueDate", FieldLabelID: "duedate-attr", NormalizedName: "duedate", InferredDataType: string(DataTypeDate)},
			{TagID: "urgent-id", FieldName: "Link", FieldLabelID: "link-attr", NormalizedName: "link", InferredDataType: string(DataTypeURL)},
		}
		for _, f := range fields {
			if err := store.UpsertSupertagField(tx, f); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)
}

func TestBuildPayloadScenarioE(t *testing.T) {
	dir := t.TempDir()
	s, err := store.Open(filepath.Join(dir, "ws.db"), filepath.Join(dir, "vectors"))
	require.NoError(t, err)
	defer s.Close()
	seedPayloadTags(t, s)

	svc := New(s.DB())
	payload, err := svc.BuildPayload([]string{"todo", "urgent"}, "Review PR", map[string]interface{}{
		"status":  "active",
		"duedate": "2025-12-31",
		"link":    "https://x",
	})
	require.NoError(t, err)

	require.Equal(t, "Review PR", payload.Name)
	require.ElementsMatch(t, []PayloadTagID{{ID: "todo-id"}, {ID: "urgent-id"}}, payload.Supertags)
	require.Len(t, payload.Children, 3)

	byAttr := make(map[string]PayloadChild)
	for _, c := range payload.Children {
		byAttr[c.Name] = c
	}
	require.Equal(t, "date", byAttr["duedate-attr"].Children[0].DataType)
	require.Equal(t, "2025-12-31", byAttr["duedate-attr"].Children[0].Name)
	require.Equal(t, "url", byAttr["link-attr"].Children[0].DataType)
}

func TestBuildPayloadDropsUnknownField(t *testing.T) {
	dir := t.TempDir()
	s, err := store.Open(filepath.Join(dir, "ws.db"), filepath.Join(dir, "vectors"))
	require.NoError(t, err)
	defer s.Close()
	seedPayloadTags(t, s)

	svc := New(s.DB())
	payload, err := svc.BuildPayload([]string{"todo"}, "Untyped", map[string]interface{}{"doesnotexist": "x"})
	require.NoError(t, err)
	require.Empty(t, payload.Children)
}
