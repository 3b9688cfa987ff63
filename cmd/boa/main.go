package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

var (
	root = &cobra.Command{
		Use:           "boa",
		Short:         "Bayesian optimization algorithm with decision-graph models",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	cfgPath  = root.PersistentFlags().String("config", "", "Path to YAML config (defaults apply when empty)")
	logLevel = root.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn or error")

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Show boa version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "boa", version)
		},
	}
)

func init() {
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		var level slog.Level
		if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
			return fmt.Errorf("invalid log level %q", *logLevel)
		}
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
		slog.SetDefault(logger)
		return nil
	}
	root.AddCommand(versionCmd, runCmd, serveCmd, dumpCmd)
}

func main() {
	if err := root.Execute(); err != nil {
		slog.Error("boa failed", "err", err)
		os.Exit(1)
	}
}
