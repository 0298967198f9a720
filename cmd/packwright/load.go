// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/emberdeck/packwright/internal/content"
	"github.com/emberdeck/packwright/internal/discovery"
	"github.com/emberdeck/packwright/internal/loader"
)

var loadCmd = &cobra.Command{
	Use:   "load [artifact]...",
	Short: "Load and validate a full pack set",
	Long: `Run the complete load pipeline over the given artifacts (or every
compiled artifact found under the configured search paths): resolve the
load order, decode all artifacts on a bounded worker pool, merge them in
order into a fresh registry, and run the referential integrity pass.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		artifacts := args
		if len(artifacts) == 0 {
			res := discovery.Discover(cfg.SearchPaths)
			for _, d := range res.Diagnostics {
				fmt.Fprintln(os.Stderr, WarningStyle.Render(string(d.Severity)+": ")+d.Message+" ("+d.Path+")")
			}
			if res.HasErrors() {
				return fmt.Errorf("discovery failed")
			}
			artifacts = res.ArtifactPaths()
		}
		if len(artifacts) == 0 {
			fmt.Println(SubtitleStyle.Render("no compiled artifacts found"))
			return nil
		}

		host, err := cfg.Host()
		if err != nil {
			return err
		}

		l := loader.New(loader.Options{
			Host:    host,
			Workers: cfg.DecodeWorkers,
			Logger:  newLogger("loader"),
		})
		report, err := l.Load(cmd.Context(), artifacts)

		if rendered := report.Render(); rendered != "" {
			fmt.Fprintln(os.Stderr, rendered)
		}
		if err != nil {
			return fmt.Errorf("load session failed: %w", err)
		}

		fmt.Printf("%s %d packs, %d records %s\n",
			SuccessStyle.Render("loaded"),
			len(report.Packs),
			report.Registry.Len(),
			SubtitleStyle.Render("in "+report.Duration.String()))
		for _, domain := range content.Domains {
			ids, err := report.Registry.DomainIDs(domain)
			if err != nil {
				return err
			}
			if len(ids) > 0 {
				fmt.Printf("  %-14s %d\n", domain, len(ids))
			}
		}
		return nil
	},
}
