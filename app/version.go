package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gitforge-admin/gitforge-admin/internal/version"
)

func init() { //nolint: gochecknoinits
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), version.String())

		return err
	},
}
