package main

import (
	"os"

	"github.com/pg-sharding/shardplan/pkg/shlog"
	"github.com/spf13/cobra"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "shardplan [route|merge] --config `path-to-config`",
	Short: "shardplan",
	Long:  "shardplan routes statements over sharded PostgreSQL data sources and merges ordered shard results",
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "/etc/shardplan/config.yaml", "path to config file")
	rootCmd.AddCommand(routeCmd)
	rootCmd.AddCommand(mergeCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		shlog.Zero.Error().Err(err).Msg("")
		os.Exit(1)
	}
}
