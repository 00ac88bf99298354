// Package cli implements the triage command line.
package cli

import (
	"fmt"
	"strings"

	"github.com/couchcryptid/incident-triage/internal/config"
	"github.com/spf13/cobra"
)

// version is overridden at build time with -ldflags "-X".
var version = "dev"

// rootOptions holds flags shared by every subcommand.
type rootOptions struct {
	logLevel  string
	logFormat string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "triage",
		Short: "Incident triage - dispatch resolution for classified disaster reports",
		Long: `Triage turns classified citizen disaster reports into dispatch records.

Each classification is refined against the hazard taxonomy, the resource
registry, vulnerability keywords, and the regional hazard index. The result
carries a final severity, a response checklist, and a resource status.

Settings come from environment variables (LOG_LEVEL, LOG_FORMAT, HTTP_ADDR,
BATCH_SIZE, SHUTDOWN_TIMEOUT, REFERENCE_DATA_PATH, REGIONAL_HAZARD_PATH);
flags override them.`,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error (overrides LOG_LEVEL)")
	root.PersistentFlags().StringVar(&opts.logFormat, "log-format", "", "log format: json or text (overrides LOG_FORMAT)")

	root.AddCommand(newVersionCmd(), newResolveCmd(opts), newCheckCmd(opts))
	return root
}

// Execute runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "triage %s\n", version)
		},
	}
}

// referenceFlags selects the reference data sources for a command.
type referenceFlags struct {
	reference string
	hazards   string
}

func (f *referenceFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.reference, "reference", "", "reference data YAML (overrides REFERENCE_DATA_PATH; empty uses embedded defaults)")
	cmd.Flags().StringVar(&f.hazards, "hazards", "", `regional hazard index JSON (overrides REGIONAL_HAZARD_PATH; "off" disables)`)
}

// loadConfig reads the environment and applies any flags the user set.
// The caller applies command-specific overrides and then validates.
func loadConfig(cmd *cobra.Command, root *rootOptions, ref *referenceFlags) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = strings.ToLower(root.logLevel)
	}
	if flags.Changed("log-format") {
		cfg.LogFormat = strings.ToLower(root.logFormat)
	}
	if ref != nil {
		if flags.Changed("reference") {
			cfg.ReferenceDataPath = ref.reference
		}
		if flags.Changed("hazards") {
			cfg.RegionalHazardPath = config.OptionalPath(ref.hazards)
		}
	}
	return cfg, nil
}
