package main

import (
	"github.com/spf13/cobra"

	"github.com/nbbaier/supertag/internal/config"
)

var pathsCmd = &cobra.Command{
	Use:   "paths",
	Short: "Print where supertag keeps its config, data, and PID files",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := map[string]interface{}{
			"config_path": app.ConfigPath,
			"data_dir":    config.DefaultDataDir(),
			"pid_file":    config.PIDFilePath(),
			"workspaces":  pathsPerWorkspace(),
		}
		printResult(out, func() string { return renderPaths(out) })
		return nil
	},
}

func pathsPerWorkspace() []map[string]string {
	out := make([]map[string]string, 0, len(app.Config.Workspaces))
	for _, ws := range app.Config.Workspaces {
		out = append(out, map[string]string{
			"alias":             ws.Alias,
			"db_path":           ws.DBPath,
			"vector_dir":        ws.VectorDir,
			"schema_cache_path": ws.SchemaCachePath,
		})
	}
	return out
}

func renderPaths(out map[string]interface{}) string {
	s := "config: " + out["config_path"].(string) + "\n"
	s += "data dir: " + out["data_dir"].(string) + "\n"
	s += "pid file: " + out["pid_file"].(string)
	for _, ws := range out["workspaces"].([]map[string]string) {
		s += "\n" + ws["alias"] + ":\n"
		s += "  db: " + ws["db_path"] + "\n"
		s += "  vectors: " + ws["vector_dir"] + "\n"
		s += "  schema cache: " + ws["schema_cache_path"]
	}
	return s
}
