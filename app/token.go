package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gitforge-admin/gitforge-admin/internal/cache"
	"github.com/gitforge-admin/gitforge-admin/internal/db"
	"github.com/gitforge-admin/gitforge-admin/internal/db/controller/appsetting"
)

func init() { //nolint: gochecknoinits
	tokenCmd.AddCommand(tokenResetCmd)
	rootCmd.AddCommand(tokenCmd)
}

var (
	tokenCmd = &cobra.Command{
		Use:   "token",
		Short: "Manage the runner registration token",
	}

	tokenResetCmd = &cobra.Command{
		Use:   "reset",
		Short: "Replace the runner registration token and print the new one",
		PreRunE: func(_ *cobra.Command, _ []string) error {
			return loadConfig()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			gdb, err := db.Open(&cfg)
			if err != nil {
				return err
			}

			// other instances only see the change through a shared cache
			store, err := cache.New(cfg.Cache)
			if err != nil {
				return err
			}

			tok, err := appsetting.New(gdb, store).ResetRunnersRegistrationToken(cmd.Context())
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), tok)

			return err
		},
	}
)
