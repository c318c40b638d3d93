package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dshills/recipesearch/internal/config"
)

func newStatusCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show store contents and configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), v, true)
			if err != nil {
				return err
			}
			defer a.Close()

			status, err := a.store.GetStatus(cmd.Context())
			if err != nil {
				return err
			}

			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				return writeJSON(cmd.OutOrStdout(), status)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Backend:         %s (%s)\n", status.Backend, status.BuildMode)
			fmt.Fprintf(w, "Schema version:  %s\n", status.SchemaVersion)
			if a.cfg.Storage.Driver != config.DriverPostgres {
				fmt.Fprintf(w, "Database:        %s\n", a.cfg.Storage.DatabasePath)
			}
			fmt.Fprintf(w, "Size:            %s\n", humanize.Bytes(uint64(max(status.DatabaseSize, 0))))
			fmt.Fprintf(w, "Recipes:         %s\n", humanize.Comma(int64(status.RecipeCount)))
			fmt.Fprintf(w, "Embeddings:      %s\n", humanize.Comma(int64(status.EmbeddingCount)))
			fmt.Fprintf(w, "Search log:      %s entries\n", humanize.Comma(int64(status.SearchLogCount)))
			fmt.Fprintf(w, "Embedder:        %s / %s (%d dims)\n",
				a.embedder.Provider(), a.embedder.Model(), a.embedder.Dimension())
			if status.RecipeCount > status.EmbeddingCount {
				fmt.Fprintf(w, "\n%d recipes have no embedding; run `recipesearch load` to embed them.\n",
					status.RecipeCount-status.EmbeddingCount)
			}
			return nil
		},
	}
	cmd.Flags().Bool("json", false, "output as JSON")
	return cmd
}
