package store

import (
	"database/sql"
	"testing"

	superr "github.com/nbbaier/supertag/internal/errors"
	"github.com/stretchr/testify/require"
)

func TestUpsertAndGetNode(t *testing.T) {
	s := openTestStore(t)

	n := Node{
		ID:      "n1",
		Name:    sql.NullString{String: "Zurich", Valid: true},
		DocType: sql.NullString{String: "page", Valid: true},
		Raw:     []byte(`{"id":"n1"}`),
	}
	require.NoError(t, s.Tx(func(tx *sql.Tx) error { return UpsertNode(tx, n) }))

	got, err := GetNode(s.DB(), "n1")
	require.NoError(t, err)
	require.Equal(t, "Zurich", got.Name.String)
	require.Equal(t, "page", got.DocType.String)

	n.Name = sql.NullString{String: "Zurich Office", Valid: true}
	require.NoError(t, s.Tx(func(tx *sql.Tx) error { return UpsertNode(tx, n) }))

	got, err = GetNode(s.DB(), "n1")
	require.NoError(t, err)
	require.Equal(t, "Zurich Office", got.Name.String)
}

func TestGetNodeNotFound(t *testing.T) {
	s := openTestStore(t)

	_, err := GetNode(s.DB(), "missing")
	require.Error(t, err)
	se, ok := superr.As(err)
	require.True(t, ok)
	require.Equal(t, superr.NodeNotFound, se.Kind)
}

func TestDeleteNodeCascade(t *testing.T) {
	s := openTestStore(t)

	err := s.Tx(func(tx *sql.Tx) error {
		if err := UpsertNode(tx, Node{ID: "n1"}); err != nil {
			return err
		}
		if err := UpsertNode(tx, Node{ID: "n2"}); err != nil {
			return err
		}
		if err := ReplaceReferences(tx, "n1", []Reference{{FromNode: "n1", ToNode: "n2", RefType: "link"}}); err != nil {
			return err
		}
		if err := ReplaceTagApplications(tx, "n1", []TagApplication{{TupleNodeID: "t1", DataNodeID: "n1", TagID: "tag1", TagName: "task"}}); err != nil {
			return err
		}
		return ReplaceFieldValues(tx, "n1", []FieldValue{{ParentID: "n1", ValueText: sql.NullString{String: "v", Valid: true}}})
	})
	require.NoError(t, err)

	require.NoError(t, s.Tx(func(tx *sql.Tx) error { return DeleteNodeCascade(tx, "n1") }))

	_, err = GetNode(s.DB(), "n1")
	require.Error(t, err)

	refs, err := References(s.DB(), "n1")
	require.NoError(t, err)
	require.Empty(t, refs)

	apps, err := TagApplicationsFor(s.DB(), "n1")
	require.NoError(t, err)
	require.Empty(t, apps)

	vals, err := FieldValuesFor(s.DB(), "n1")
	require.NoError(t, err)
	require.Empty(t, vals)
}

func TestReplaceReferencesClearsStale(t *testing.T) {
	s := openTestStore(t)

	apply := func(refs []Reference) {
		require.NoError(t, s.Tx(func(tx *sql.Tx) error { return ReplaceReferences(tx, "n1", refs) }))
	}
	apply([]Reference{{FromNode: "n1", ToNode: "n2", RefType: "link"}, {FromNode: "n1", ToNode: "n3", RefType: "link"}})
	apply([]Reference{{FromNode: "n1", ToNode: "n2", RefType: "link"}})

	refs, err := References(s.DB(), "n1")
	require.NoError(t, err)
	require.Len(t, refs, 1)
	require.Equal(t, "n2", refs[0].ToNode)
}

func TestAllNodeIDs(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.Tx(func(tx *sql.Tx) error {
		if err := UpsertNode(tx, Node{ID: "n1"}); err != nil {
			return err
		}
		return UpsertNode(tx, Node{ID: "n2"})
	}))

	ids, err := AllNodeIDs(s.DB())
	require.NoError(t, err)
	require.Len(t, ids, 2)
	require.True(t, ids["n1"])
	require.True(t, ids["n2"])
}
