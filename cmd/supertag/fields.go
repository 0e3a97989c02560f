package main

import (
	"github.com/spf13/cobra"

	superr "github.com/nbbaier/supertag/internal/errors"
)

var fieldsCmd = &cobra.Command{
	Use:   "fields",
	Short: "Inspect supertag field definitions and the values recorded against them",
}

var fieldsLimit int

var fieldsListCmd = &cobra.Command{
	Use:   "list <tag>",
	Short: "List a supertag's own and inherited fields",
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
		fields, err := svc.AllFields(tag.ID)
		if err != nil {
			return err
		}
		printResult(fields, func() string {
			rows := make([][]string, 0, len(fields))
			for _, f := range fields {
				rows = append(rows, []string{f.Name, string(f.DataType), itoa(f.Depth)})
			}
			if len(rows) == 0 {
				return "no fields"
			}
			return table([]string{"NAME", "TYPE", "DEPTH"}, rows)
		})
		return nil
	},
}

var fieldsValuesCmd = &cobra.Command{
	Use:   "values <field>",
	Short: "List distinct text values recorded for a field name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, _, _, err := app.Open()
		if err != nil {
			return err
		}
		limit := fieldsLimit
		if limit <= 0 {
			limit = 50
		}
		rows, err := s.DB().Query(
			`SELECT value_text, COUNT(*) FROM field_values
			 WHERE field_name = ? AND value_text IS NOT NULL
			 GROUP BY value_text ORDER BY COUNT(*) DESC LIMIT ?`, args[0], limit)
		if err != nil {
			return superr.Wrap(superr.InternalError, err, "listing values for field "+args[0])
		}
		defer rows.Close()
		var out [][]string
		for rows.Next() {
			var value string
			var count int
			if err := rows.Scan(&value, &count); err != nil {
				return superr.Wrap(superr.InternalError, err, "scanning field value row")
			}
			out = append(out, []string{value, itoa(count)})
		}
		printResult(out, func() string {
			if len(out) == 0 {
				return "no values recorded"
			}
			return table([]string{"VALUE", "COUNT"}, out)
		})
		return nil
	},
}

var fieldsSearchCmd = &cobra.Command{
	Use:   "search <field> <substring>",
	Short: "Find nodes whose field value contains a substring",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, _, _, err := app.Open()
		if err != nil {
			return err
		}
		limit := fieldsLimit
		if limit <= 0 {
			limit = 50
		}
		rows, err := s.DB().Query(
			`SELECT n.id, n.name FROM field_values fv
			 JOIN nodes n ON n.id = fv.parent_id
			 WHERE fv.field_name = ? AND fv.value_text LIKE '%' || ? || '%'
			 LIMIT ?`, args[0], args[1], limit)
		if err != nil {
			return superr.Wrap(superr.InternalError, err, "searching field "+args[0])
		}
		defer rows.Close()
		var out [][]string
		for rows.Next() {
			var id, name string
			if err := rows.Scan(&id, &name); err != nil {
				return superr.Wrap(superr.InternalError, err, "scanning field search row")
			}
			out = append(out, []string{id, name})
		}
		printResult(out, func() string {
			if len(out) == 0 {
				return "no matches"
			}
			return table([]string{"NODE", "NAME"}, out)
		})
		return nil
	},
}

func init() {
	fieldsValuesCmd.Flags().IntVar(&fieldsLimit, "limit", 50, "Maximum number of distinct values to list")
	fieldsSearchCmd.Flags().IntVar(&fieldsLimit, "limit", 50, "Maximum number of matches")

	fieldsCmd.AddCommand(fieldsListCmd, fieldsValuesCmd, fieldsSearchCmd)
}
