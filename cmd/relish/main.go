// relish - an in-memory SQL engine with an interactive shell.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/relishdb/relish/internal/cli"
	"github.com/relishdb/relish/internal/config"
	"github.com/relishdb/relish/internal/logger"
)

var (
	version   = "0.1.0"
	buildDate = "dev"

	cfgFile  string
	showLogs bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "relish",
		Short: "relish - an in-memory SQL shell",
		Long: `relish is an in-memory relational engine with a SQL shell.
Nothing is persisted; every session starts from an empty catalog.

Start the interactive shell:
  relish

Start with a specific config file:
  relish --config /path/to/relish.yaml`,
		Run: runShell,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVar(&showLogs, "show-logs", false, "raise log verbosity to debug")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("relish %s (built %s)\n", version, buildDate)
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "init [path]",
		Short: "Write a default config file",
		Args:  cobra.MaximumNArgs(1),
		Run:   initConfig,
	})

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runShell(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if showLogs {
		cfg.Log.Level = "debug"
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format, cfg.Log.Output)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting relish",
		"version", version,
		"btree_order", cfg.Engine.BTreeOrder,
		"hash_buckets", cfg.Engine.HashBuckets,
	)

	shell := cli.NewShell(cfg, log)
	if err := shell.Run(); err != nil {
		log.Error("shell error", "error", err)
		os.Exit(1)
	}
}

func initConfig(cmd *cobra.Command, args []string) {
	path := "relish.yaml"
	if len(args) > 0 {
		path = args[0]
	}
	if err := config.WriteDefault(path); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Created config file: %s\n", path)
}
