package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dshills/recipesearch/pkg/types"
)

func newSearchCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search recipes by keywords and meaning",
		Long: `Search runs one search condition in one mode and prints the ranked results
with their keyword, semantic and combined scores.

  recipesearch search --require egg --exclude meat --query "colorful egg dish" \
      --mode cascade --max-results 15`,
		Args: cobra.NoArgs,
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
			resp, err := a.searcher.Search(cmd.Context(), cond)
			if err != nil {
				return err
			}

			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				return writeJSON(cmd.OutOrStdout(), resp)
			}
			printResponse(cmd.OutOrStdout(), resp)
			return nil
		},
	}
	addConditionFlags(cmd)
	cmd.Flags().String("mode", string(types.ModeCascade), "search mode: cascade, parallel, fulltext, vector")
	return cmd
}

func printResponse(w io.Writer, resp *types.SearchResponse) {
	cond := resp.Condition
	fmt.Fprintf(w, "Mode: %s  Results: %d of %d candidates  Elapsed: %s\n",
		cond.Mode(), len(resp.Results), resp.TotalCandidateCount, resp.Elapsed.Round(10*time.Microsecond))
	if kw := cond.RequiredKeywords(); len(kw) > 0 {
		fmt.Fprintf(w, "Required: %s\n", strings.Join(kw, ", "))
	}
	if kw := cond.ExcludedKeywords(); len(kw) > 0 {
		fmt.Fprintf(w, "Excluded: %s\n", strings.Join(kw, ", "))
	}
	if cond.HasSemanticQuery() {
		fmt.Fprintf(w, "Query: %q\n", cond.SemanticQuery())
	}
	fmt.Fprintln(w)

	if len(resp.Results) == 0 {
		fmt.Fprintln(w, "No recipes matched.")
	} else {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "RANK\tID\tNAME\tKEYWORD\tSEMANTIC\tCOMBINED")
		for _, r := range resp.Results {
			fmt.Fprintf(tw, "%d\t%d\t%s\t%.3f\t%.3f\t%.3f\n",
				r.Rank, r.ItemID, r.Name, r.FulltextScore, r.VectorScore, r.CombinedScore)
		}
		_ = tw.Flush()
	}

	fmt.Fprintln(w)
	for _, st := range resp.Stages {
		in := "?"
		if st.CandidatesIn >= 0 {
			in = fmt.Sprint(st.CandidatesIn)
		}
		fmt.Fprintf(w, "  stage %-16s %s -> %d  (%s)\n", st.Name, in, st.CandidatesOut, st.Elapsed.Round(10*time.Microsecond))
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
