// Package main implements the supertag CLI: verb/noun commands over
// the query engine, schema service, embedding subsystem, and write
// sink. Entry point and global flags live here; each command group is
// split into its own file for maintainability, the way codenerd splits
// cmd/nerd across cmd_*.go files.
//
// # File Index
//
//   - main.go      - entry point, rootCmd, global flags, exit codes
//   - app.go       - shared config/workspace-resolution plumbing
//   - render.go    - lipgloss styles, text/json output helpers
//   - sync.go      - sync index|monitor|status|cleanup
//   - search.go    - search
//   - nodes.go     - nodes show|refs|recent
//   - tags.go      - tags list|top|show
//   - fields.go    - fields list|values|search
//   - query.go     - query "<expr>"
//   - aggregate.go - aggregate
//   - stats.go     - stats
//   - workspace_cmd.go - workspace list|add|update|remove|set-default|enable|disable|show
//   - embed.go     - embed config|generate|search|stats|maintain
//   - schema_cmd.go - schema sync|list|show|search
//   - create.go    - create
//   - paths.go     - paths
//   - migrate.go   - migrate
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/nbbaier/supertag/internal/config"
	superr "github.com/nbbaier/supertag/internal/errors"
	"github.com/nbbaier/supertag/internal/logging"
)

var (
	flagConfigPath string
	flagWorkspace  string
	flagJSON       bool
	flagVerbose    bool

	logger *zap.Logger
	app    *App
)

var rootCmd = &cobra.Command{
	Use:           "supertag",
	Short:         "Query and maintain a tagged node graph exported from a workspace notebook",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zcfg := zap.NewProductionConfig()
		zcfg.Encoding = "console"
		zcfg.EncoderConfig.TimeKey = ""
		if flagVerbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		} else {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		a, err := newApp(flagConfigPath, flagWorkspace, flagJSON)
		if err != nil {
			return err
		}
		app = a

		level := "info"
		if flagVerbose {
			level = "debug"
		}
		if err := logging.Initialize(config.DefaultDataDir(), flagVerbose || a.Config.Logging.DebugMode, level); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to initialize file logging: %v\n", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
		logging.CloseAll()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigPath, "config", "", "Path to config file (default: ~/.supertag/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&flagWorkspace, "workspace", "w", "", "Workspace alias (default: configured default)")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Render output as JSON instead of paste text")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable verbose logging")

	rootCmd.AddCommand(
		syncCmd,
		searchCmd,
		nodesCmd,
		tagsCmd,
		fieldsCmd,
		queryCmd,
		aggregateCmd,
		statsCmd,
		workspaceCmd,
		embedCmd,
		schemaCmd,
		createCmd,
		pathsCmd,
		migrateCmd,
	)
}

func main() {
	os.Exit(run())
}

// run executes the CLI and returns the process exit code: 0 on
// success, 1 for a user-visible failure carrying one of the defined
// error kinds, 2 for a usage error (bad flags/arguments, something
// cobra itself rejected before a command's RunE ever got to classify
// it).
func run() int {
	cmd, err := rootCmd.ExecuteC()
	if err == nil {
		return 0
	}

	if e, ok := superr.As(err); ok {
		fmt.Fprintln(os.Stderr, e.Message)
		if e.Suggestion != "" {
			fmt.Fprintln(os.Stderr, e.Suggestion)
		}
		return 1
	}

	fmt.Fprintf(os.Stderr, "%s: %v\n", cmd.Name(), err)
	return 2
}
