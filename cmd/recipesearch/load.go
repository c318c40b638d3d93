package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dshills/recipesearch/internal/loader"
)

func newLoadCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load FILE",
		Short: "Import recipes from a JSON file and embed them",
		Long: `Load reads a JSON array of recipes, upserts each one and generates the
embedding of its combined text (name, description, ingredients, steps, tips)
with the configured provider. Recipes whose text has not changed since the
last load keep their embedding.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), v, false)
			if err != nil {
				return err
			}
			defer a.Close()

			opts := []loader.Option{
				loader.WithLogger(a.logger.Named("loader")),
				loader.WithWorkers(a.cfg.Loader.Workers),
				loader.WithBatchSize(a.cfg.Loader.BatchSize),
			}
			if n, _ := cmd.Flags().GetInt("workers"); n > 0 {
				opts = append(opts, loader.WithWorkers(n))
			}

			stats, err := loader.New(a.store, a.embedder, opts...).LoadFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Recipes loaded:      %s\n", humanize.Comma(int64(stats.RecipesLoaded)))
			fmt.Fprintf(w, "Embeddings created:  %s\n", humanize.Comma(int64(stats.EmbeddingsCreated)))
			fmt.Fprintf(w, "Embeddings skipped:  %s\n", humanize.Comma(int64(stats.EmbeddingsSkipped)))
			fmt.Fprintf(w, "Failed:              %s\n", humanize.Comma(int64(stats.Failed)))
			fmt.Fprintf(w, "Duration:            %s\n", stats.Duration.Round(time.Millisecond))
			for _, msg := range stats.ErrorMessages {
				fmt.Fprintf(w, "  error: %s\n", msg)
			}
			return nil
		},
	}
	cmd.Flags().Int("workers", 0, "embedding workers (overrides config)")
	return cmd
}
