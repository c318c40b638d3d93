package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/dshills/recipesearch/internal/loader"
	"github.com/dshills/recipesearch/internal/mcp"
)

func newMCPCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the search tools over MCP on stdio",
		Long: `mcp starts a Model Context Protocol server on stdin/stdout exposing
search_recipes, compare_search_modes, analyze_query, suggest_keywords,
find_similar_recipes, load_recipes and get_status. Logs go to stderr.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), v, false)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			ld := loader.New(a.store, a.embedder,
				loader.WithLogger(a.logger.Named("loader")),
				loader.WithWorkers(a.cfg.Loader.Workers),
				loader.WithBatchSize(a.cfg.Loader.BatchSize))

			srv := mcp.NewServer(a.store, a.searcher,
				mcp.WithLoader(ld),
				mcp.WithDefaults(a.cfg.Search.ConditionParams()),
				mcp.WithLogger(a.logger.Named("mcp")))

			a.logger.Info("MCP server listening on stdio", zap.String("version", version))
			return srv.Serve(ctx)
		},
	}
}
