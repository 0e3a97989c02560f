package main

import (
	"github.com/spf13/cobra"

	"github.com/nbbaier/supertag/internal/config"
	"github.com/nbbaier/supertag/internal/embedding"
)

var (
	embedProvider     string
	embedEntitiesOnly bool
	embedMinLength    int
	embedLimit        int
)

var embedCmd = &cobra.Command{
	Use:   "embed",
	Short: "Configure, generate, search, and maintain the workspace's vector index",
}

var embedConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or set the embedding provider configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("provider") {
			app.Config.Embedding.Provider = embedProvider
			if err := app.Config.Save(app.ConfigPath); err != nil {
				return err
			}
			printSuccess("embedding provider set to %s", embedProvider)
			return nil
		}
		printResult(app.Config.Embedding, func() string { return renderEmbedConfig(app.Config.Embedding) })
		return nil
	},
}

var embedGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate embeddings for nodes that qualify under the content filter",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, _, _, err := app.Open()
		if err != nil {
			return err
		}
		engine, err := app.embeddingEngine()
		if err != nil {
			return err
		}
		filter := embedding.DefaultFilterOptions()
		if embedEntitiesOnly {
			filter.EntitiesOnly = true
		}
		if embedMinLength > 0 {
			filter.MinLength = embedMinLength
		}
		report, err := embedding.Generate(cmd.Context(), s, engine, embedding.GenerateOptions{
			Filter:    filter,
			BatchSize: app.Config.Embedding.BatchSize,
		})
		if err != nil {
			return err
		}
		printResult(report, func() string { return renderGenerateReport(report) })
		return nil
	},
}

var embedSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Semantic search over the workspace's vector index",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, _, _, err := app.Open()
		if err != nil {
			return err
		}
		engine, err := app.embeddingEngine()
		if err != nil {
			return err
		}
		limit := embedLimit
		if limit <= 0 {
			limit = 10
		}
		matches, err := embedding.Search(cmd.Context(), s, engine, args[0], embedding.SearchOptions{K: limit})
		if err != nil {
			return err
		}
		printResult(matches, func() string { return renderSemanticMatches(matches) })
		return nil
	},
}

var embedStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Report the vector index's row count and dimensionality",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, _, _, err := app.Open()
		if err != nil {
			return err
		}
		count, dimensions, err := s.Vector().Stats()
		if err != nil {
			return err
		}
		out := map[string]int{"count": count, "dimensions": dimensions}
		printResult(out, func() string {
			return "count: " + itoa(count) + "\ndimensions: " + itoa(dimensions)
		})
		return nil
	},
}

var embedMaintainCmd = &cobra.Command{
	Use:   "maintain",
	Short: "Re-run generate to backfill missing or stale embeddings",
	RunE: func(cmd *cobra.Command, args []string) error {
		return embedGenerateCmd.RunE(cmd, args)
	},
}

func renderEmbedConfig(cfg config.EmbeddingConfig) string {
	out := "provider: " + cfg.Provider + "\n"
	out += "ollama_endpoint: " + cfg.OllamaEndpoint + "\n"
	out += "ollama_model: " + cfg.OllamaModel + "\n"
	out += "genai_model: " + cfg.GenAIModel
	return out
}

func renderGenerateReport(r *embedding.GenerateReport) string {
	return "considered: " + itoa(r.Considered) + "\n" +
		"skipped: " + itoa(r.Skipped) + "\n" +
		"embedded: " + itoa(r.Embedded) + "\n" +
		"failed: " + itoa(r.Failed)
}

func init() {
	embedConfigCmd.Flags().StringVar(&embedProvider, "provider", "", "Embedding provider: ollama or genai")
	embedGenerateCmd.Flags().BoolVar(&embedEntitiesOnly, "entities-only", false, "Restrict to nodes passing the entity heuristic")
	embedGenerateCmd.Flags().IntVar(&embedMinLength, "min-length", 0, "Minimum node name length to qualify")
	embedSearchCmd.Flags().IntVar(&embedLimit, "limit", 10, "Maximum number of matches")

	embedCmd.AddCommand(embedConfigCmd, embedGenerateCmd, embedSearchCmd, embedStatsCmd, embedMaintainCmd)
}
