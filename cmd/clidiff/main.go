// Package main implements the clidiff command metadata diff tool.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/CliForge/clidiff/pkg/config"
)

var (
	// Version is set at build time
	version = "0.3.0"
	// BuildDate is set at build time
	buildDate = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app carries what every subcommand needs once flags are parsed.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{logger: slog.New(slog.DiscardHandler)}
	var (
		verbose    bool
		debug      bool
		configPath string
	)

	cmd := &cobra.Command{
		Use:   "clidiff",
		Short: "Diff CLI command metadata and flag breaking changes",
		Long: `clidiff compares two command metadata snapshots of a CLI and reports
every added, removed or changed command, group and parameter.

Changes that break existing invocations, such as removed commands,
renamed options or newly required parameters, are tagged with the
rule that matched.`,
		Version:       fmt.Sprintf("%s (built %s)", version, buildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a.logger = newLogger(cmd.ErrOrStderr(), verbose, debug)
			cfg, err := config.NewLoader("clidiff", configPath).Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			a.cfg = cfg
			a.logger.Debug("config loaded", "backend", cfg.Storage.Backend, "workers", cfg.Workers)
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	cmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "Enable debug mode")
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file")

	cmd.AddCommand(newMetaDiffCmd(a))
	cmd.AddCommand(newVersionDiffCmd(a))
	cmd.AddCommand(newExampleDiffCmd(a))
	cmd.AddCommand(newLintCmd(a))
	cmd.AddCommand(newExportMetaCmd(a))

	return cmd
}
