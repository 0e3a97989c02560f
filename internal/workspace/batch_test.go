package workspace

import (
	"context"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/nbbaier/supertag/internal/config"
	"github.com/stretchr/testify/require"
)

func batchTestConfig() *config.Config {
	return &config.Config{
		Workspaces: []config.Workspace{
			{Alias: "a", Enabled: true},
			{Alias: "b", Enabled: true},
			{Alias: "c", Enabled: false},
		},
	}
}

func TestRunBatchAllCoversEveryEnabledWorkspace(t *testing.T) {
	cfg := batchTestConfig()
	report, err := RunBatch(context.Background(), cfg, Selector{All: true}, func(ctx context.Context, ws config.Workspace) (interface{}, error) {
		return ws.Alias + "-ok", nil
	})
	require.NoError(t, err)
	require.Len(t, report.Results, 2)
	require.Len(t, report.Succeeded(), 2)
	require.Empty(t, report.Failed())
}

func TestRunBatchContinuesPastOneWorkspaceFailure(t *testing.T) {
	cfg := batchTestConfig()
	report, err := RunBatch(context.Background(), cfg, Selector{All: true}, func(ctx context.Context, ws config.Workspace) (interface{}, error) {
		if ws.Alias == "a" {
			return nil, context.DeadlineExceeded
		}
		return "ok", nil
	})
	require.NoError(t, err)
	require.Len(t, report.Succeeded(), 1)
	require.Len(t, report.Failed(), 1)
	require.Equal(t, "a", report.Failed()[0].Alias)
}

func TestRunBatchSubsetRejectsUnknownAlias(t *testing.T) {
	cfg := batchTestConfig()
	_, err := RunBatch(context.Background(), cfg, Selector{Subset: []string{"nope"}}, func(ctx context.Context, ws config.Workspace) (interface{}, error) {
		return nil, nil
	})
	require.Error(t, err)
}

func TestRunBatchReportCarriesAParsableRunID(t *testing.T) {
	cfg := batchTestConfig()
	report, err := RunBatch(context.Background(), cfg, Selector{All: true}, func(ctx context.Context, ws config.Workspace) (interface{}, error) {
		return ws.Alias, nil
	})
	require.NoError(t, err)
	_, err = uuid.Parse(report.RunID)
	require.NoError(t, err)

	aliases := make([]string, 0, len(report.Results))
	for _, r := range report.Results {
		aliases = append(aliases, r.Alias)
	}
	sort.Strings(aliases)
	if diff := cmp.Diff([]string{"a", "b"}, aliases); diff != "" {
		t.Errorf("unexpected set of batched aliases (-want +got):\n%s", diff)
	}
}

func TestRunBatchSubsetRunsOnlyNamedWorkspaces(t *testing.T) {
	cfg := batchTestConfig()
	report, err := RunBatch(context.Background(), cfg, Selector{Subset: []string{"b"}}, func(ctx context.Context, ws config.Workspace) (interface{}, error) {
		return nil, nil
	})
	require.NoError(t, err)
	require.Len(t, report.Results, 1)
	require.Equal(t, "b", report.Results[0].Alias)
}
