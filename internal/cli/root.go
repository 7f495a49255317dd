// Package cli implements the Cobra command hierarchy for the respack CLI.
// The root command runs a package build; subcommands cover index dumping
// and version reporting.
package cli

import (
	"errors"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/respack/respack/internal/config"
	"github.com/respack/respack/internal/diag"
	"github.com/respack/respack/internal/pack"
)

// flagValues holds the parsed global flag values, populated by
// config.BindFlags during command initialization.
var flagValues *config.FlagValues

var rootCmd = &cobra.Command{
	Use:   "respack",
	Short: "Package application resources into a binary index.",
	Long: `respack compiles trees of qualified resource files into a single binary
resources.index, assigns every named resource a stable 32-bit identifier,
resolves $type:name references, and emits generated header artifacts
alongside the post-processed assets.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := config.ResolveLogLevel(flagValues.Verbose, flagValues.Quiet)
		config.SetupLogging(level, config.ResolveLogFormat())
		slog.Debug("logging initialized", "level", level)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPackage()
	},
}

func init() {
	flagValues = config.BindFlags(rootCmd)
}

func runPackage() error {
	cfg, err := flagValues.Resolve()
	if err != nil {
		return err
	}
	packer, err := pack.New(cfg)
	if err != nil {
		return err
	}
	defer packer.Close()
	if err := packer.Package(); err != nil {
		return err
	}
	slog.Info("packaging complete", "output", cfg.Output)
	return nil
}

// Execute runs the root command and returns the process exit code.
// Diagnostics render their full block; anything else prints plainly.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		var d *diag.Error
		if errors.As(err, &d) {
			diag.Fprint(os.Stderr, d)
		} else {
			diag.Fprint(os.Stderr, err)
		}
		return 1
	}
	return 0
}

// RootCmd returns the root cobra.Command for use in testing and subcommand
// registration.
func RootCmd() *cobra.Command {
	return rootCmd
}
