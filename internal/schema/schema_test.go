package schema

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/nbbaier/supertag/internal/store"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	dir := t.TempDir()
	s, err := store.Open(filepath.Join(dir, "ws.db"), filepath.Join(dir, "vectors"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func seedTaskHierarchy(t *testing.T, s *store.Store) {
	t.Helper()
	err := s.Tx(func(tx *sql.Tx) error {
		if err := store.UpsertSupertagMeta(tx, store.SupertagMetaRow{TagID: "task", TagName: "task", NormalizedName: "task"}); err != nil {
			return err
		}
		if err := store.UpsertSupertagMeta(tx, store.SupertagMetaRow{TagID: "urgent", TagName: "urgent", NormalizedName: "urgent"}); err != nil {
			return err
		}
		if err := store.UpsertSupertagField(tx, store.SupertagFieldRow{TagID: "task", FieldName: "Due", FieldLabelID: "due-id", FieldOrder: 0, NormalizedName: "due", InferredDataType: string(DataTypeDate)}); err != nil {
			return err
		}
		if err := store.UpsertSupertagField(tx, store.SupertagFieldRow{TagID: "task", FieldName: "Status", FieldLabelID: "status-id", FieldOrder: 1, NormalizedName: "status", InferredDataType: string(DataTypeReference)}); err != nil {
			return err
		}
		if err := store.UpsertSupertagField(tx, store.SupertagFieldRow{TagID: "urgent", FieldName: "Priority", FieldLabelID: "priority-id", FieldOrder: 0, NormalizedName: "priority", InferredDataType: string(DataTypeNumber)}); err != nil {
			return err
		}
		return store.InsertSupertagParent(tx, "urgent", "task")
	})
	require.NoError(t, err)
}

func TestGetSupertagByExactAndNormalizedName(t *testing.T) {
	s := openTestStore(t)
	seedTaskHierarchy(t, s)
	svc := New(s.DB())

	got, err := svc.GetSupertag("task")
	require.NoError(t, err)
	require.Equal(t, "task", got.ID)

	_, err = svc.GetSupertag("TASK")
	require.Error(t, err)
}

func TestAllFieldsIncludesInheritedAndDedupes(t *testing.T) {
	s := openTestStore(t)
	seedTaskHierarchy(t, s)
	svc := New(s.DB())

	fields, err := svc.AllFields("urgent")
	require.NoError(t, err)

	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.NormalizedName
	}
	require.ElementsMatch(t, []string{"priority", "due", "status"}, names)
}

func TestAllFieldsChildWinsOnConflict(t *testing.T) {
	s := openTestStore(t)
	err := s.Tx(func(tx *sql.Tx) error {
		if err := store.UpsertSupertagMeta(tx, store.SupertagMetaRow{TagID: "task", TagName: "task", NormalizedName: "task"}); err != nil {
			return err
		}
		if err := store.UpsertSupertagMeta(tx, store.SupertagMetaRow{TagID: "urgent", TagName: "urgent", NormalizedName: "urgent"}); err != nil {
			return err
		}
		if err := store.UpsertSupertagField(tx, store.SupertagFieldRow{TagID: "task", FieldName: "Priority", FieldLabelID: "parent-priority", NormalizedName: "priority", InferredDataType: string(DataTypeText)}); err != nil {
			return err
		}
		if err := store.UpsertSupertagField(tx, store.SupertagFieldRow{TagID: "urgent", FieldName: "Priority", FieldLabelID: "child-priority", NormalizedName: "priority", InferredDataType: string(DataTypeNumber)}); err != nil {
			return err
		}
		return store.InsertSupertagParent(tx, "urgent", "task")
	})
	require.NoError(t, err)

	svc := New(s.DB())
	fields, err := svc.AllFields("urgent")
	require.NoError(t, err)
	require.Len(t, fields, 1)
	require.Equal(t, "child-priority", fields[0].AttributeID)
}

func TestFieldByNormalizedNameUnknown(t *testing.T) {
	s := openTestStore(t)
	seedTaskHierarchy(t, s)
	svc := New(s.DB())

	_, err := svc.FieldByNormalizedName("task", "nonexistent")
	require.Error(t, err)
}

func TestSearchSupertagsSubstring(t *testing.T) {
	s := openTestStore(t)
	seedTaskHierarchy(t, s)
	svc := New(s.DB())

	found, err := svc.SearchSupertags("urg")
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Equal(t, "urgent", found[0].ID)
}
