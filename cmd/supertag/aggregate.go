package main

import (
	"fmt"

	"github.com/spf13/cobra"

	superr "github.com/nbbaier/supertag/internal/errors"
	"github.com/nbbaier/supertag/internal/query"
)

var (
	aggTag         string
	aggGroupBy     string
	aggPeriod      string
	aggDateField   string
	aggTop         int
	aggShowPercent bool
)

var aggregateCmd = &cobra.Command{
	Use:   "aggregate",
	Short: "Group and aggregate a supertag's nodes by a field or time bucket",
	RunE: func(cmd *cobra.Command, args []string) error {
		if aggTag == "" {
			return superr.New(superr.MissingRequired, "aggregate requires --tag")
		}
		s, svc, _, err := app.Open()
		if err != nil {
			return err
		}

		gb := query.GroupBy{Field: aggGroupBy}
		if aggPeriod != "" {
			gb = query.GroupBy{Time: &query.TimeBucket{Period: aggPeriod, DateField: aggDateField}}
		}

		req := &query.AggregateRequest{
			Query:       &query.Query{Find: aggTag},
			GroupBy:     gb,
			Aggregates:  []query.AggregateSpec{{Fn: "count", Alias: "count"}},
			ShowPercent: aggShowPercent,
			Top:         aggTop,
		}
		res, err := query.Aggregate(cmd.Context(), s.DB(), svc, query.SystemClock{}, req)
		if err != nil {
			return err
		}
		printResult(res, func() string { return renderAggregateResult(res) })
		return nil
	},
}

func renderAggregateResult(res *query.AggregateResult) string {
	rows := make([][]string, 0, len(res.Groups))
	for _, g := range res.Groups {
		row := []string{g.Key, itoa(g.Count)}
		if aggShowPercent {
			row = append(row, fmt.Sprintf("%.1f%%", g.Percent))
		}
		rows = append(rows, row)
	}
	header := []string{"GROUP", "COUNT"}
	if aggShowPercent {
		header = append(header, "PERCENT")
	}
	out := table(header, rows)
	if res.Truncated {
		out += "\n(truncated to top " + itoa(aggTop) + ")"
	}
	return out
}

func init() {
	aggregateCmd.Flags().StringVar(&aggTag, "tag", "", "Supertag to aggregate over (required)")
	aggregateCmd.Flags().StringVar(&aggGroupBy, "group-by", "", "Field name to group by")
	aggregateCmd.Flags().StringVar(&aggPeriod, "period", "", "Time bucket period: day|week|month|quarter|year")
	aggregateCmd.Flags().StringVar(&aggDateField, "date-field", "created", "Which date field to bucket on: created|updated")
	aggregateCmd.Flags().IntVar(&aggTop, "top", 0, "Keep only the N largest groups")
	aggregateCmd.Flags().BoolVar(&aggShowPercent, "show-percent", false, "Include each group's share of the filtered total")
}
