// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/emberdeck/packwright/internal/packfile"
)

var verifyCmd = &cobra.Command{
	Use:   "verify <artifact>...",
	Short: "Verify artifact framing and checksums",
	Long: `Verify one or more compiled artifacts: validate the section framing and
recompute every section's sha256 digest against the embedded checksum
table. No content is decoded.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, path := range args {
			r, err := packfile.Open(path)
			if err != nil {
				return err
			}
			err = r.VerifyAll()
			count := len(r.Sections())
			_ = r.Close()
			if err != nil {
				return fmt.Errorf("verifying %s: %w", path, err)
			}

			fmt.Printf("%s %s %s\n",
				SuccessStyle.Render("ok"),
				PackStyle.Render(path),
				SubtitleStyle.Render(fmt.Sprintf("(%d sections)", count)))
		}
		return nil
	},
}
