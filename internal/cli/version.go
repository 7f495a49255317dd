package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/respack/respack/internal/buildinfo"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information.",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("respack %s (commit %s, built %s, %s/%s)\n",
			buildinfo.Version, buildinfo.Commit, buildinfo.Date,
			buildinfo.OS(), buildinfo.Arch())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
