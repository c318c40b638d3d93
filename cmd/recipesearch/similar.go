package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newSimilarCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "similar RECIPE_ID",
		Short: "List the recipes closest in meaning to a stored recipe",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid recipe id %q", args[0])
			}
			limit, _ := cmd.Flags().GetInt("limit")

			a, err := newApp(cmd.Context(), v, true)
			if err != nil {
				return err
			}
			defer a.Close()

			recipe, err := a.store.GetRecipe(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("recipe %d: %w", id, err)
			}
			results, err := a.searcher.FindSimilar(cmd.Context(), id, limit)
			if err != nil {
				return err
			}

			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				return writeJSON(cmd.OutOrStdout(), results)
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Recipes similar to %q (#%d)\n\n", recipe.Name, recipe.ID)
			tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "RANK\tID\tNAME\tSIMILARITY")
			for _, r := range results {
				fmt.Fprintf(tw, "%d\t%d\t%s\t%.3f\n", r.Rank, r.ItemID, r.Name, r.VectorScore)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().Int("limit", 10, "maximum number of recipes")
	cmd.Flags().Bool("json", false, "output as JSON")
	return cmd
}
