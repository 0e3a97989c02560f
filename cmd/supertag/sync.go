package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nbbaier/supertag/internal/config"
	superr "github.com/nbbaier/supertag/internal/errors"
	"github.com/nbbaier/supertag/internal/indexer"
	"github.com/nbbaier/supertag/internal/schema"
	"github.com/nbbaier/supertag/internal/watch"
	"github.com/nbbaier/supertag/internal/workspace"
)

var (
	syncAll   bool
	syncKeepN int
	syncDry   bool
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Ingest snapshots, watch for new ones, and report ingestion status",
}

var syncIndexCmd = &cobra.Command{
	Use:   "index",
	Short: "Index the latest snapshot for one or all workspaces",
	RunE: func(cmd *cobra.Command, args []string) error {
		if syncAll {
			report, err := workspace.RunBatch(cmd.Context(), app.Config, workspace.Selector{All: true}, indexOneWorkspace)
			if err != nil {
				return err
			}
			printBatchReport(report)
			return nil
		}
		_, _, ws, err := app.Open()
		if err != nil {
			return err
		}
		result, err := indexOneWorkspace(cmd.Context(), *ws)
		if err != nil {
			return err
		}
		printIndexReport(ws.Alias, result.(*indexer.IndexReport))
		return nil
	},
}

var syncMonitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Watch a workspace's export directory and index new snapshots as they land",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, _, ws, err := app.Open()
		if err != nil {
			return err
		}
		w, err := watch.New(watch.Config{
			SnapshotDir:     ws.ExportDir,
			SchemaCachePath: ws.SchemaCachePath,
			DebounceMS:      int(app.Config.DebounceDuration().Milliseconds()),
			Store:           st,
		})
		if err != nil {
			return err
		}
		if err := w.Start(cmd.Context()); err != nil {
			return err
		}
		defer w.Stop()

		printMuted("watching %s (workspace %s); ctrl-c to stop", ws.ExportDir, ws.Alias)
		for {
			select {
			case report := <-w.Indexed:
				printIndexReport(ws.Alias, report)
			case err := <-w.Errors:
				printWarn("index error: %v", err)
			case <-cmd.Context().Done():
				return nil
			}
		}
	},
}

var syncStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show per-workspace row counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		if syncAll {
			report, err := workspace.RunBatch(cmd.Context(), app.Config, workspace.Selector{All: true}, func(ctx context.Context, ws config.Workspace) (interface{}, error) {
				s, err := workspace.Open(&ws)
				if err != nil {
					return nil, err
				}
				defer s.Close()
				return s.Stats()
			})
			if err != nil {
				return err
			}
			printBatchReport(report)
			return nil
		}
		st, _, ws, err := app.Open()
		if err != nil {
			return err
		}
		stats, err := st.Stats()
		if err != nil {
			return err
		}
		printResult(stats, func() string { return renderStats(ws.Alias, stats) })
		return nil
	},
}

var syncCleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove all but the N most recent snapshot files for a workspace",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, _, ws, err := app.Open()
		if err != nil {
			return err
		}
		entries, err := os.ReadDir(ws.ExportDir)
		if err != nil {
			return superr.Wrap(superr.InternalError, err, "reading export directory "+ws.ExportDir)
		}
		var names []string
		for _, e := range entries {
			if !e.IsDir() {
				names = append(names, e.Name())
			}
		}
		sort.Strings(names)
		if syncKeepN <= 0 || syncKeepN >= len(names) {
			printMuted("nothing to clean up: %d snapshot(s), keeping %d", len(names), syncKeepN)
			return nil
		}
		toRemove := names[:len(names)-syncKeepN]
		for _, name := range toRemove {
			path := filepath.Join(ws.ExportDir, name)
			if syncDry {
				fmt.Println("would remove " + path)
				continue
			}
			if err := os.Remove(path); err != nil {
				return superr.Wrap(superr.InternalError, err, "removing "+path)
			}
			printMuted("removed %s", path)
		}
		return nil
	},
}

func indexOneWorkspace(ctx context.Context, ws config.Workspace) (interface{}, error) {
	s, err := workspace.Open(&ws)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	path, err := watch.LatestSnapshot(ws.ExportDir)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return nil, superr.Newf(superr.DatabaseNotFound, "no snapshot file found in %s", ws.ExportDir)
	}
	report, err := indexer.IndexSnapshot(s, path)
	if err != nil {
		return nil, err
	}
	if ws.SchemaCachePath != "" {
		svc := schema.New(s.DB())
		tags, err := svc.ListSupertags()
		if err == nil {
			_ = schema.WriteCatalogDocument(ws.SchemaCachePath, schema.ToCatalogDocument(tags))
		}
	}
	return report, nil
}

func printIndexReport(alias string, r *indexer.IndexReport) {
	printSuccess("%s: indexed %s", alias, r.ExportFile)
	printMuted("nodes=%d added=%d modified=%d deleted=%d skipped=%d supertags=%d fields=%d refs=%d tagApps=%d (%dms)",
		r.NodesTotal, r.Added, r.Modified, r.Deleted, r.SkippedRecords,
		r.SupertagsTotal, r.FieldsTotal, r.RefsTotal, r.TagAppsTotal, r.DurationMS)
}

func renderStats(alias string, stats map[string]int64) string {
	var b strings.Builder
	b.WriteString(alias + ":\n")
	for k, v := range stats {
		fmt.Fprintf(&b, "  %s: %d\n", k, v)
	}
	return strings.TrimRight(b.String(), "\n")
}

func printBatchReport(report *workspace.Report) {
	printMuted("batch run %s", report.RunID)
	for _, r := range report.Succeeded() {
		printSuccess("%s: ok", r.Alias)
	}
	for _, r := range report.Failed() {
		printWarn("%s: %v", r.Alias, r.Err)
	}
}

func init() {
	syncIndexCmd.Flags().BoolVar(&syncAll, "all", false, "Index every enabled workspace")
	syncIndexCmd.Flags().Bool("delta", true, "Delta ingestion (IndexSnapshot is always incremental against current state)")
	syncStatusCmd.Flags().BoolVar(&syncAll, "all", false, "Report on every enabled workspace")
	syncCleanupCmd.Flags().IntVar(&syncKeepN, "keep", 5, "Number of most recent snapshot files to keep")
	syncCleanupCmd.Flags().BoolVar(&syncDry, "dry-run", false, "Report what would be removed without removing it")

	syncCmd.AddCommand(syncIndexCmd, syncMonitorCmd, syncStatusCmd, syncCleanupCmd)
}
