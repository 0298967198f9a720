// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/emberdeck/packwright/internal/discovery"
	"github.com/emberdeck/packwright/internal/resolver"
	"github.com/emberdeck/packwright/pkg/manifest"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve [search-path]...",
	Short: "Show the computed pack load order",
	Long: `Discover packs under the given search paths (or the configured ones),
then resolve dependency, version, and capability constraints into the
deterministic load order without decoding any content.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		packs, err := discoverManifests(args)
		if err != nil {
			return err
		}
		if len(packs) == 0 {
			fmt.Println(SubtitleStyle.Render("no packs found"))
			return nil
		}

		host, err := cfg.Host()
		if err != nil {
			return err
		}

		ordered, err := resolver.Resolve(packs, host)
		if err != nil {
			return err
		}

		fmt.Println(TitleStyle.Render("Load order"))
		for i, m := range ordered {
			deps := ""
			if len(m.Dependencies) > 0 {
				deps = " <- "
				for j, d := range m.Dependencies {
					if j > 0 {
						deps += ", "
					}
					deps += fmt.Sprintf("%s %s", d.PackID, d.Range)
				}
			}
			fmt.Printf("  %2d. %s %s%s\n",
				i+1,
				PackStyle.Render(m.ID),
				SubtitleStyle.Render("v"+m.Version.String()),
				SubtitleStyle.Render(deps))
		}
		return nil
	},
}

// discoverManifests finds packs under the given roots (falling back to the
// configured search paths) and returns every parseable manifest. Discovery
// diagnostics go to stderr; error diagnostics abort.
func discoverManifests(roots []string) ([]*manifest.PackManifest, error) {
	if len(roots) == 0 {
		roots = cfg.SearchPaths
	}

	res := discovery.Discover(roots)
	for _, d := range res.Diagnostics {
		switch d.Severity {
		case discovery.SeverityError:
			fmt.Fprintln(os.Stderr, ErrorStyle.Render("error: ")+d.Message+" ("+d.Path+")")
		default:
			fmt.Fprintln(os.Stderr, WarningStyle.Render("warning: ")+d.Message+" ("+d.Path+")")
		}
	}
	if res.HasErrors() {
		return nil, fmt.Errorf("discovery failed")
	}

	var manifests []*manifest.PackManifest
	for _, p := range res.Packs {
		if p.Manifest != nil {
			manifests = append(manifests, p.Manifest)
		}
	}
	return manifests, nil
}
