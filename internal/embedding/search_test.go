package embedding

import (
	"context"
	"testing"

	"github.com/nbbaier/supertag/internal/query"
	"github.com/stretchr/testify/require"
)

func TestSearchReturnsNearestNeighborsJoinedToNodes(t *testing.T) {
	s := testWorkspaceStore(t)
	seedNode(t, s, "n1", "Team sync Zurich")
	seedNode(t, s, "n2", "Client call Berlin")

	engine := &fakeEngine{dim: 4}
	_, err := Generate(context.Background(), s, engine, GenerateOptions{Filter: DefaultFilterOptions()})
	require.NoError(t, err)

	matches, err := Search(context.Background(), s, engine, "Team sync Zurich", SearchOptions{K: 2})
	require.NoError(t, err)
	require.NotEmpty(t, matches)
	for _, m := range matches {
		require.NotEmpty(t, m.NodeID)
	}
}

func TestSearchRestrictToFilterDropsExcludedNodes(t *testing.T) {
	s := testWorkspaceStore(t)
	seedNode(t, s, "n1", "Team sync Zurich")

	engine := &fakeEngine{dim: 4}
	_, err := Generate(context.Background(), s, engine, GenerateOptions{Filter: DefaultFilterOptions()})
	require.NoError(t, err)

	matches, err := Search(context.Background(), s, engine, "Team sync Zurich", SearchOptions{
		K: 5, RestrictToFilter: true, Filter: FilterOptions{MinLength: 1000},
	})
	require.NoError(t, err)
	require.Empty(t, matches)
}

func TestSearchAncestorModeRawPassesThrough(t *testing.T) {
	s := testWorkspaceStore(t)
	seedNode(t, s, "n1", "Team sync Zurich")

	engine := &fakeEngine{dim: 4}
	_, err := Generate(context.Background(), s, engine, GenerateOptions{Filter: DefaultFilterOptions()})
	require.NoError(t, err)

	matches, err := Search(context.Background(), s, engine, "Team sync Zurich", SearchOptions{
		K: 5, AncestorMode: query.AncestorRaw,
	})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	require.Equal(t, "n1", matches[0].NodeID)
	require.Equal(t, 1, matches[0].MatchCount)
}
