package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newHistoryCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recently executed vector queries from the audit log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")

			a, err := newApp(cmd.Context(), v, true)
			if err != nil {
				return err
			}
			defer a.Close()

			entries, err := a.store.ListVectorSearches(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				return writeJSON(cmd.OutOrStdout(), entries)
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No vector searches recorded.")
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "WHEN\tMODE\tRESULTS\tMAX\tAVG\tELAPSED\tQUERY")
			for _, e := range entries {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%.3f\t%.3f\t%s\t%s\n",
					humanize.Time(e.CreatedAt), e.Mode, e.ResultCount,
					e.MaxSimilarity, e.AvgSimilarity, e.ExecutionTime.Round(time.Microsecond), e.QueryText)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().Int("limit", 20, "number of entries")
	cmd.Flags().Bool("json", false, "output as JSON")
	return cmd
}
