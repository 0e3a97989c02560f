package main

import (
	"github.com/spf13/cobra"

	superr "github.com/nbbaier/supertag/internal/errors"
	"github.com/nbbaier/supertag/internal/query"
	"github.com/nbbaier/supertag/internal/schema"
)

func init() {
	tagsTopCmd.Flags().IntVar(&tagsTop, "n", 10, "Number of supertags to show")
	tagsCmd.AddCommand(tagsListCmd, tagsShowCmd, tagsTopCmd)
}

var tagsTop int

var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "List and inspect supertags",
}

var tagsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every supertag in the schema catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, svc, _, err := app.Open()
		if err != nil {
			return err
		}
		tags, err := svc.ListSupertags()
		if err != nil {
			return err
		}
		printResult(tags, func() string { return renderSupertagTable(tags) })
		return nil
	},
}

var tagsShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show a supertag's own and inherited fields",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, svc, _, err := app.Open()
		if err != nil {
			return err
		}
		tag, err := svc.GetSupertag(args[0])
		if err != nil {
			return err
		}
		if tag == nil {
			return superr.Newf(superr.TagNotFound, "no supertag named %q", args[0])
		}
		printResult(tag, func() string { return renderSupertagDetail(tag) })
		return nil
	},
}

var tagsTopCmd = &cobra.Command{
	Use:   "top",
	Short: "Rank supertags by how many nodes carry them",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, svc, _, err := app.Open()
		if err != nil {
			return err
		}
		tags, err := svc.ListSupertags()
		if err != nil {
			return err
		}
		n := tagsTop
		if n <= 0 {
			n = 10
		}
		counts := make([]tagCount, 0, len(tags))
		for _, tag := range tags {
			res, err := query.Execute(cmd.Context(), s.DB(), svc, query.SystemClock{}, &query.Query{Find: tag.Name})
			if err != nil {
				continue
			}
			counts = append(counts, tagCount{Name: tag.Name, Count: res.MatchCount})
		}
		sortCountsDesc(counts)
		if len(counts) > n {
			counts = counts[:n]
		}
		printResult(counts, func() string {
			rows := make([][]string, 0, len(counts))
			for _, c := range counts {
				rows = append(rows, []string{c.Name, itoa(c.Count)})
			}
			return table([]string{"TAG", "COUNT"}, rows)
		})
		return nil
	},
}

type tagCount struct {
	Name  string
	Count int
}

func sortCountsDesc(cs []tagCount) {
	for i := 1; i < len(cs); i++ {
		for j := i; j > 0 && cs[j].Count > cs[j-1].Count; j-- {
			cs[j], cs[j-1] = cs[j-1], cs[j]
		}
	}
}

func renderSupertagTable(tags []*schema.Supertag) string {
	rows := make([][]string, 0, len(tags))
	for _, t := range tags {
		rows = append(rows, []string{t.Name, itoa(len(t.Fields)), itoa(len(t.Parents))})
	}
	if len(rows) == 0 {
		return "no supertags indexed"
	}
	return table([]string{"NAME", "FIELDS", "PARENTS"}, rows)
}

func renderSupertagDetail(t *schema.Supertag) string {
	out := t.Name
	if t.Description != "" {
		out += " - " + t.Description
	}
	for _, f := range t.Fields {
		out += "\n  " + f.Name + " (" + string(f.DataType) + ")"
	}
	return out
}
