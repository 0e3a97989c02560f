package store

import (
	"database/sql"
	"testing"

	superr "github.com/nbbaier/supertag/internal/errors"
	"github.com/stretchr/testify/require"
)

func TestUpsertAndGetSupertagMeta(t *testing.T) {
	s := openTestStore(t)

	meta := SupertagMetaRow{TagID: "tag1", TagName: "#task", NormalizedName: "task"}
	require.NoError(t, s.Tx(func(tx *sql.Tx) error { return UpsertSupertagMeta(tx, meta) }))

	got, err := GetSupertagMeta(s.DB(), "tag1")
	require.NoError(t, err)
	require.Equal(t, "task", got.NormalizedName)

	meta.Description = sql.NullString{String: "work item", Valid: true}
	require.NoError(t, s.Tx(func(tx *sql.Tx) error { return UpsertSupertagMeta(tx, meta) }))

	got, err = GetSupertagMeta(s.DB(), "tag1")
	require.NoError(t, err)
	require.Equal(t, "work item", got.Description.String)
}

func TestGetSupertagMetaNotFound(t *testing.T) {
	s := openTestStore(t)

	_, err := GetSupertagMeta(s.DB(), "missing")
	require.Error(t, err)
	se, ok := superr.As(err)
	require.True(t, ok)
	require.Equal(t, superr.TagNotFound, se.Kind)
}

func TestSupertagFieldUpsertIsKeyedByLabel(t *testing.T) {
	s := openTestStore(t)

	field := SupertagFieldRow{TagID: "tag1", FieldName: "Due", FieldLabelID: "lbl1", InferredDataType: "date"}
	require.NoError(t, s.Tx(func(tx *sql.Tx) error { return UpsertSupertagField(tx, field) }))

	field.InferredDataType = "datetime"
	require.NoError(t, s.Tx(func(tx *sql.Tx) error { return UpsertSupertagField(tx, field) }))

	fields, err := SupertagFieldsFor(s.DB(), "tag1")
	require.NoError(t, err)
	require.Len(t, fields, 1)
	require.Equal(t, "datetime", fields[0].InferredDataType)
}

func TestParentEdgesRoundTrip(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.Tx(func(tx *sql.Tx) error {
		return InsertSupertagParent(tx, "child", "parent1")
	}))
	require.NoError(t, s.Tx(func(tx *sql.Tx) error {
		return InsertSupertagParent(tx, "child", "parent2")
	}))

	parents, err := ParentsOf(s.DB(), "child")
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"parent1", "parent2"}, parents)

	edges, err := AllParentEdges(s.DB())
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"parent1", "parent2"}, edges["child"])
}

func TestClearSupertagFieldsAndParents(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.Tx(func(tx *sql.Tx) error {
		if err := UpsertSupertagField(tx, SupertagFieldRow{TagID: "tag1", FieldName: "Due", FieldLabelID: "lbl1", InferredDataType: "date"}); err != nil {
			return err
		}
		return InsertSupertagParent(tx, "tag1", "parent1")
	}))

	require.NoError(t, s.Tx(func(tx *sql.Tx) error {
		if err := ClearSupertagFields(tx, "tag1"); err != nil {
			return err
		}
		return ClearSupertagParents(tx, "tag1")
	}))

	fields, err := SupertagFieldsFor(s.DB(), "tag1")
	require.NoError(t, err)
	require.Empty(t, fields)

	parents, err := ParentsOf(s.DB(), "tag1")
	require.NoError(t, err)
	require.Empty(t, parents)
}
