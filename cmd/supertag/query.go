package main

import (
	"github.com/spf13/cobra"

	"github.com/nbbaier/supertag/internal/query"
)

var queryCmd = &cobra.Command{
	Use:   "query \"<expr>\"",
	Short: "Run a unified find-expression query against the node graph",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, svc, _, err := app.Open()
		if err != nil {
			return err
		}
		q, err := query.Parse(args[0])
		if err != nil {
			return err
		}
		res, err := query.Execute(cmd.Context(), s.DB(), svc, query.SystemClock{}, q)
		if err != nil {
			return err
		}
		printResult(res, func() string { return renderQueryResult(res) })
		return nil
	},
}

func renderQueryResult(res *query.Result) string {
	rows := make([][]string, 0, len(res.Nodes))
	for _, n := range res.Nodes {
		rows = append(rows, []string{n.ID, n.Name})
	}
	out := table([]string{"ID", "NAME"}, rows)
	return out + "\n" + itoa(res.MatchCount) + " total match(es)"
}
