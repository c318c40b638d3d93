// Package main is the entry point for the recipesearch CLI.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

// newRootCmd builds the command tree. Each call gets its own viper
// instance so commands can be constructed repeatedly in tests.
func newRootCmd() *cobra.Command {
	v := viper.New()

	root := &cobra.Command{
		Use:   "recipesearch",
		Short: "Hybrid keyword and semantic recipe search",
		Long: `recipesearch combines a keyword channel (trigram word similarity over recipe
names and descriptions) with a semantic channel (embedding cosine similarity)
and fuses their scores.

Four execution modes are available: cascade filters by keyword and then ranks
by meaning, parallel computes both channels in one query, fulltext and vector
use a single channel. The same engine is exposed on the command line, over
MCP (stdio) and as an HTTP JSON API.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(cmd, v)
		},
	}

	root.PersistentFlags().String("config", "", "config file (default: ./config.yaml or ~/.recipesearch/config.yaml)")
	root.PersistentFlags().Bool("debug", false, "enable debug logging")
	root.PersistentFlags().String("db", "", "SQLite database path (overrides config)")
	_ = v.BindPFlag("debug", root.PersistentFlags().Lookup("debug"))
	_ = v.BindPFlag("db", root.PersistentFlags().Lookup("db"))

	root.AddCommand(
		newSearchCmd(v),
		newCompareCmd(v),
		newAnalyzeCmd(),
		newSuggestCmd(),
		newSimilarCmd(v),
		newLoadCmd(v),
		newStatusCmd(v),
		newHistoryCmd(v),
		newMCPCmd(v),
		newServeCmd(v),
		newConfigCmd(v),
		newVersionCmd(),
	)
	return root
}

func initConfig(cmd *cobra.Command, v *viper.Viper) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".recipesearch"))
		}
	}

	v.SetEnvPrefix("RECIPESEARCH")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}
	return nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
