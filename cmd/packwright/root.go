// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for packwright.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/emberdeck/packwright/internal/config"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"

	// verbose enables debug output
	verbose bool
	// cfgFile allows specifying a custom config file
	cfgFile string

	// cfg is the loaded configuration, available to every subcommand.
	cfg *config.Config

	// rootCmd represents the base command when called without any subcommands
	rootCmd = &cobra.Command{
		Use:   "packwright",
		Short: "Content pack compiler and loader for emberdeck",
		Long: TitleStyle.Render("packwright") + SubtitleStyle.Render(" - content pack compiler and loader for emberdeck") + `

packwright manages emberdeck content packs: it compiles JSON-authored
pack sources into checksummed binary artifacts, resolves dependency
and version constraints across a pack set, and merges the resolved
packs into a single validated content registry.

` + SubtitleStyle.Render("Typical workflow:") + `
  1. Author pack content as JSON files next to a manifest.json
  2. Compile the pack:  packwright compile ./my-pack
  3. Load a pack set:   packwright load

` + SubtitleStyle.Render("Examples:") + `
  packwright compile ./packs/base       Compile one pack
  packwright verify ./packs/base/pack.epak   Verify artifact checksums
  packwright resolve                    Show the computed load order
  packwright load                       Load and validate the full pack set
  packwright inspect ./packs/base/pack.epak  Show artifact sections`,
	}
)

// ExitError carries a specific process exit code through Execute.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit code %d", e.Code)
}

func (e *ExitError) Unwrap() error { return e.Err }

func init() {
	cobra.OnInitialize(initRootConfig)

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/packwright/config.cue)")

	rootCmd.AddCommand(compileCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(loadCmd)
	rootCmd.AddCommand(inspectCmd)
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}

// initRootConfig loads the config file and environment overrides.
func initRootConfig() {
	c, _, err := config.Load(config.LoadOptions{ConfigFilePath: cfgFile})
	if err != nil {
		fmt.Fprintln(os.Stderr, WarningStyle.Render("Warning: ")+err.Error())
		c = config.DefaultConfig()
	}
	cfg = c
	if !verbose {
		verbose = cfg.Verbose
	}
}

// newLogger builds the session logger honoring the verbose flag.
func newLogger(prefix string) *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		Prefix: prefix,
	})
	if verbose {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}
