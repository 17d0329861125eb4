package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mercator-hq/thinout/pkg/cli"
)

var (
	// Global flags
	cfgFile  string
	verbose  bool
	logLevel string
	format   string
)

var rootCmd = &cobra.Command{
	Use:   "thinout",
	Short: "Thinout - time-bucketed retention for dated files",
	Long: `Thinout thins a growing series of dated files (backups, snapshots,
exports) so that recent days stay densely covered and older days sparsely.

A policy is a list of span:capacity entries, newest first. "4:4,15:5,40:4"
keeps at most four files in the four days before the anchor, five in the
fifteen days before those and four in the forty days before those. Files
older than the policy, and files dated on or after the anchor, are kept.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_, err := cli.ParseOutputFormat(format)
		return err
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, cli.RenderDrop(cli.IconDrop+" "+err.Error()))
		os.Exit(cli.ExitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "thinout.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logging)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVarP(&format, "format", "o", "text", "output format: text, json, csv")
}
