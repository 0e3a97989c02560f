package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var statsEmbed bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Report row counts for the current workspace's store and, with --embed, its vector index",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, _, ws, err := app.Open()
		if err != nil {
			return err
		}
		dbStats, err := s.Stats()
		if err != nil {
			return err
		}
		out := map[string]interface{}{"workspace": ws.Alias, "store": dbStats}

		if statsEmbed {
			count, dimensions, err := s.Vector().Stats()
			if err != nil {
				return err
			}
			out["embedding"] = map[string]int{"count": count, "dimensions": dimensions}
		}

		printResult(out, func() string { return renderStatsOutput(out) })
		return nil
	},
}

func renderStatsOutput(out map[string]interface{}) string {
	var b strings.Builder
	fmt.Fprintf(&b, "workspace: %v\n", out["workspace"])
	if store, ok := out["store"].(map[string]int64); ok {
		for k, v := range store {
			fmt.Fprintf(&b, "  %s: %d\n", k, v)
		}
	}
	if embed, ok := out["embedding"].(map[string]int); ok {
		fmt.Fprintf(&b, "embedding: count=%d dimensions=%d\n", embed["count"], embed["dimensions"])
	}
	return strings.TrimRight(b.String(), "\n")
}

func init() {
	statsCmd.Flags().BoolVar(&statsEmbed, "embed", false, "Include embedding/vector index stats")
}
