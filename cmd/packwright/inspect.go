// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/emberdeck/packwright/internal/packfile"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <artifact>",
	Short: "Show artifact sections and manifest summary",
	Long: `Print a compiled artifact's framing: format version, section table with
offsets, lengths, and checksums, and the embedded manifest's identity.
Sections are verified as they are read.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := packfile.Open(args[0])
		if err != nil {
			return err
		}
		defer r.Close()

		m, err := r.Manifest()
		if err != nil {
			return err
		}

		fmt.Printf("%s %s %s\n",
			TitleStyle.Render(m.ID),
			SubtitleStyle.Render("v"+m.Version.String()),
			SubtitleStyle.Render("("+string(m.Type)+")"))
		fmt.Printf("  core: %s\n", m.CoreRange())
		if len(m.Dependencies) > 0 {
			fmt.Println("  dependencies:")
			for _, d := range m.Dependencies {
				fmt.Printf("    %s %s\n", PackStyle.Render(d.PackID), d.Range)
			}
		}

		fmt.Printf("\nformat v%d, %d sections:\n", r.FormatVersion(), len(r.Sections()))
		for _, s := range r.Sections() {
			fmt.Printf("  %-14s off=%-8d len=%-8d %s\n",
				s.Name, s.Offset, s.Length, SubtitleStyle.Render(s.Checksum[:12]))
		}
		return nil
	},
}
