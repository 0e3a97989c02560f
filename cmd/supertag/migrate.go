package main

import (
	"github.com/spf13/cobra"

	"github.com/nbbaier/supertag/internal/store"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Open the workspace's store, running any pending schema migrations, and report its version",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, _, ws, err := app.Open()
		if err != nil {
			return err
		}
		version, err := s.SchemaVersion()
		if err != nil {
			return err
		}
		out := map[string]interface{}{
			"workspace":      ws.Alias,
			"schema_version": version,
			"current":        store.CurrentSchemaVersion,
		}
		printResult(out, func() string {
			status := "up to date"
			if version < store.CurrentSchemaVersion {
				status = "behind"
			}
			return ws.Alias + ": schema version " + itoa(version) + "/" + itoa(store.CurrentSchemaVersion) + " (" + status + ")"
		})
		return nil
	},
}
