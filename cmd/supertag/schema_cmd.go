package main

import (
	"github.com/spf13/cobra"

	superr "github.com/nbbaier/supertag/internal/errors"
	"github.com/nbbaier/supertag/internal/schema"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Inspect and regenerate the schema catalog document",
}

var schemaSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Regenerate the schema catalog document from the current store",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, svc, ws, err := app.Open()
		if err != nil {
			return err
		}
		tags, err := svc.ListSupertags()
		if err != nil {
			return err
		}
		if ws.SchemaCachePath == "" {
			return superr.New(superr.ConfigInvalid, "workspace has no schema_cache_path configured")
		}
		if err := schema.WriteCatalogDocument(ws.SchemaCachePath, schema.ToCatalogDocument(tags)); err != nil {
			return err
		}
		printSuccess("wrote %d supertag(s) to %s", len(tags), ws.SchemaCachePath)
		return nil
	},
}

var schemaListCmd = &cobra.Command{
	Use:   "list",
	Short: "List supertags from the cached catalog document",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, _, ws, err := app.Open()
		if err != nil {
			return err
		}
		doc, err := schema.ReadCatalogDocument(ws.SchemaCachePath)
		if err != nil {
			return err
		}
		tags := schema.FromCatalogDocument(doc)
		printResult(tags, func() string { return renderSupertagTable(tags) })
		return nil
	},
}

var schemaShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show a supertag's fields",
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

var schemaSearchCmd = &cobra.Command{
	Use:   "search <substring>",
	Short: "Search supertag names by substring",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, svc, _, err := app.Open()
		if err != nil {
			return err
		}
		tags, err := svc.SearchSupertags(args[0])
		if err != nil {
			return err
		}
		printResult(tags, func() string { return renderSupertagTable(tags) })
		return nil
	},
}

func init() {
	schemaCmd.AddCommand(schemaSyncCmd, schemaListCmd, schemaShowCmd, schemaSearchCmd)
}
