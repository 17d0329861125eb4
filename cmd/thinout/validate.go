package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"mercator-hq/thinout/pkg/cli"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration file",
	Long: `Load and validate the configuration file, including environment overrides,
and print a summary of the configured targets.

All problems are reported at once.

Examples:
  thinout validate --config /etc/thinout/thinout.yaml`,
	RunE: validateConfig,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func validateConfig(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s Configuration valid (%d targets)\n", cli.RenderKeep(cli.IconKeep), len(cfg.Targets))
	for _, t := range cfg.Targets {
		policy := t.ThinoutPolicy()
		fmt.Fprintf(&b, "  %-16s %s  policy %s (%d days)", t.Name, t.Dir, policy, policy.Days())
		if t.Schedule != "" {
			fmt.Fprintf(&b, "  schedule %q", t.Schedule)
		}
		if t.DryRun {
			b.WriteString(cli.RenderMuted("  dry run"))
		}
		b.WriteString("\n")
	}
	if cfg.Journal.Enabled {
		fmt.Fprintf(&b, "  journal: %s (%s)\n", cfg.Journal.Path, cfg.Journal.Driver)
	}

	_, err = fmt.Fprint(cmd.OutOrStdout(), b.String())
	return err
}
