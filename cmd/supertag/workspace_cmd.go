package main

import (
	"github.com/spf13/cobra"

	"github.com/nbbaier/supertag/internal/config"
	superr "github.com/nbbaier/supertag/internal/errors"
)

var (
	wsAddRootID    string
	wsAddExportDir string
	wsAddDefault   bool
	wsUpdateTarget string
	wsUpdateToken  string
)

var workspaceCmd = &cobra.Command{
	Use:   "workspace",
	Short: "Manage the workspace registry",
}

var workspaceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every registered workspace",
	RunE: func(cmd *cobra.Command, args []string) error {
		printResult(app.Config.Workspaces, func() string { return renderWorkspaceTable(app.Config.Workspaces) })
		return nil
	},
}

var workspaceShowCmd = &cobra.Command{
	Use:   "show <alias>",
	Short: "Show one workspace's full configuration",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := app.Config.FindWorkspace(args[0])
		if err != nil {
			return err
		}
		printResult(ws, func() string { return renderWorkspaceDetail(ws) })
		return nil
	},
}

var workspaceAddCmd = &cobra.Command{
	Use:   "add <alias>",
	Short: "Register a new workspace",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		alias := args[0]
		if wsAddRootID == "" || wsAddExportDir == "" {
			return superr.New(superr.MissingRequired, "workspace add requires --root-id and --export-dir")
		}
		dbPath, vectorDir, schemaCachePath := config.Paths(mustHomeConfigDir(), alias)
		ws := config.Workspace{
			Alias:           alias,
			RootID:          wsAddRootID,
			ExportDir:       wsAddExportDir,
			DBPath:          dbPath,
			VectorDir:       vectorDir,
			SchemaCachePath: schemaCachePath,
			Enabled:         true,
			Default:         wsAddDefault,
		}
		app.Config.Workspaces = append(app.Config.Workspaces, ws)
		if wsAddDefault {
			if err := app.Config.SetDefault(alias); err != nil {
				return err
			}
		}
		if err := app.Config.Validate(); err != nil {
			return err
		}
		if err := app.Config.Save(app.ConfigPath); err != nil {
			return err
		}
		printSuccess("added workspace %s", alias)
		return nil
	},
}

var workspaceUpdateCmd = &cobra.Command{
	Use:   "update <alias>",
	Short: "Update a workspace's write-sink target or auth token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := findMutableWorkspace(args[0])
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("target") {
			ws.Target = wsUpdateTarget
		}
		if cmd.Flags().Changed("token") {
			ws.Token = wsUpdateToken
		}
		if err := app.Config.Save(app.ConfigPath); err != nil {
			return err
		}
		printSuccess("updated workspace %s", ws.Alias)
		return nil
	},
}

var workspaceRemoveCmd = &cobra.Command{
	Use:   "remove <alias>",
	Short: "Remove a workspace from the registry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		alias := args[0]
		out := app.Config.Workspaces[:0]
		found := false
		for _, ws := range app.Config.Workspaces {
			if ws.Alias == alias {
				found = true
				continue
			}
			out = append(out, ws)
		}
		if !found {
			return superr.Newf(superr.WorkspaceNotFound, "no workspace named %q", alias)
		}
		app.Config.Workspaces = out
		if err := app.Config.Save(app.ConfigPath); err != nil {
			return err
		}
		printSuccess("removed workspace %s", alias)
		return nil
	},
}

var workspaceSetDefaultCmd = &cobra.Command{
	Use:   "set-default <alias>",
	Short: "Set the default workspace",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := app.Config.SetDefault(args[0]); err != nil {
			return err
		}
		if err := app.Config.Save(app.ConfigPath); err != nil {
			return err
		}
		printSuccess("default workspace set to %s", args[0])
		return nil
	},
}

var workspaceEnableCmd = &cobra.Command{
	Use:   "enable <alias>",
	Short: "Enable a workspace",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error { return setWorkspaceEnabled(args[0], true) },
}

var workspaceDisableCmd = &cobra.Command{
	Use:   "disable <alias>",
	Short: "Disable a workspace (excluded from --all batch operations)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error { return setWorkspaceEnabled(args[0], false) },
}

func findMutableWorkspace(alias string) (*config.Workspace, error) {
	for i := range app.Config.Workspaces {
		if app.Config.Workspaces[i].Alias == alias {
			return &app.Config.Workspaces[i], nil
		}
	}
	return nil, superr.Newf(superr.WorkspaceNotFound, "no workspace named %q", alias)
}

func setWorkspaceEnabled(alias string, enabled bool) error {
	ws, err := findMutableWorkspace(alias)
	if err != nil {
		return err
	}
	ws.Enabled = enabled
	if err := app.Config.Save(app.ConfigPath); err != nil {
		return err
	}
	if enabled {
		printSuccess("enabled workspace %s", alias)
	} else {
		printWarn("disabled workspace %s", alias)
	}
	return nil
}

func renderWorkspaceTable(workspaces []config.Workspace) string {
	rows := make([][]string, 0, len(workspaces))
	for _, ws := range workspaces {
		status := "enabled"
		if !ws.Enabled {
			status = "disabled"
		}
		if ws.Default {
			status += ", default"
		}
		rows = append(rows, []string{ws.Alias, ws.ExportDir, status})
	}
	if len(rows) == 0 {
		return "no workspaces configured"
	}
	return table([]string{"ALIAS", "EXPORT DIR", "STATUS"}, rows)
}

func renderWorkspaceDetail(ws *config.Workspace) string {
	out := ws.Alias + "\n"
	out += "  root_id: " + ws.RootID + "\n"
	out += "  export_dir: " + ws.ExportDir + "\n"
	out += "  db_path: " + ws.DBPath + "\n"
	out += "  vector_dir: " + ws.VectorDir + "\n"
	out += "  schema_cache_path: " + ws.SchemaCachePath + "\n"
	out += "  target: " + ws.Target
	return out
}

func init() {
	workspaceAddCmd.Flags().StringVar(&wsAddRootID, "root-id", "", "Root node id the export was taken from")
	workspaceAddCmd.Flags().StringVar(&wsAddExportDir, "export-dir", "", "Directory snapshots are exported into")
	workspaceAddCmd.Flags().BoolVar(&wsAddDefault, "default", false, "Make this the default workspace")

	workspaceUpdateCmd.Flags().StringVar(&wsUpdateTarget, "target", "", "Write-sink target URL")
	workspaceUpdateCmd.Flags().StringVar(&wsUpdateToken, "token", "", "Write-sink bearer token")

	workspaceCmd.AddCommand(
		workspaceListCmd, workspaceShowCmd, workspaceAddCmd, workspaceUpdateCmd,
		workspaceRemoveCmd, workspaceSetDefaultCmd, workspaceEnableCmd, workspaceDisableCmd,
	)
}
