// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/emberdeck/packwright/internal/compiler"
	"github.com/emberdeck/packwright/pkg/manifest"
)

var compileOutput string

var compileCmd = &cobra.Command{
	Use:   "compile <pack-dir>...",
	Short: "Compile pack sources into binary artifacts",
	Long: `Compile one or more packs: parse and validate each manifest, decode and
structurally check every declared domain source, and write a checksummed
binary artifact next to the manifest (or at --output for a single pack).`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if compileOutput != "" && len(args) > 1 {
			return fmt.Errorf("--output cannot be used with multiple packs")
		}

		for _, dir := range args {
			res, err := compiler.Compile(dir, compileOutput)
			if err != nil {
				return fmt.Errorf("compiling %s: %w", dir, err)
			}

			fmt.Printf("%s %s %s\n",
				SuccessStyle.Render("compiled"),
				PackStyle.Render(res.Manifest.ID),
				SubtitleStyle.Render(fmt.Sprintf("v%s -> %s", res.Manifest.Version, res.ArtifactPath)))
			for _, s := range res.Sections {
				fmt.Printf("  %-14s %4d records  %s\n",
					s.Domain, s.Records, SubtitleStyle.Render(s.Checksum[:12]))
			}
			for _, issue := range res.Issues {
				if issue.Severity == manifest.SeverityWarning {
					fmt.Println(WarningStyle.Render("  warning: ") + issue.String())
				}
			}
		}
		return nil
	},
}

func init() {
	compileCmd.Flags().StringVarP(&compileOutput, "output", "o", "", "artifact output path (single pack only)")
}
