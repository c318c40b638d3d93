package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dshills/recipesearch/pkg/types"
)

func newCompareCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Run a condition in every mode and recommend one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), v, true)
			if err != nil {
				return err
			}
			defer a.Close()

			cond, err := conditionFromFlags(cmd, a.cfg.Search.ConditionParams())
			if err != nil {
				return err
			}

			var prefer types.SearchMode
			if raw, _ := cmd.Flags().GetString("prefer-mode"); raw != "" {
				if prefer, err = types.ParseMode(raw); err != nil {
					return err
				}
			}

			cmp, err := a.searcher.CompareModes(cmd.Context(), cond, prefer)
			if err != nil {
				return err
			}

			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				return writeJSON(cmd.OutOrStdout(), cmp)
			}
			printComparison(cmd.OutOrStdout(), cmp)
			return nil
		},
	}
	addConditionFlags(cmd)
	cmd.Flags().String("prefer-mode", "", "override the recommended mode")
	return cmd
}

func printComparison(w io.Writer, cmp *types.ModeComparison) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "MODE\tRESULTS\tCANDIDATES\tELAPSED\tTOP RESULT")
	for _, mode := range types.AllModes() {
		resp, ok := cmp.PerMode[mode]
		if !ok {
			continue
		}
		top := "-"
		if len(resp.Results) > 0 {
			top = resp.Results[0].Name
		}
		marker := ""
		if mode == cmp.RecommendedMode {
			marker = " *"
		}
		fmt.Fprintf(tw, "%s%s\t%d\t%d\t%s\t%s\n",
			mode, marker, len(resp.Results), resp.TotalCandidateCount, resp.Elapsed.Round(10*time.Microsecond), top)
	}
	_ = tw.Flush()
	fmt.Fprintf(w, "\nRecommended: %s (%s)\n", cmp.RecommendedMode, cmp.Reason)
}
