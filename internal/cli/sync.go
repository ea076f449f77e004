package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSyncCmd() *cobra.Command {
	var accountID int64

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run one sync pass for a stored account",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime()
			if err != nil {
				return err
			}
			defer rt.close()

			result, err := rt.syncer.SyncAccount(cmd.Context(), accountID)
			if err != nil {
				return err
			}
			fmt.Printf("fetched %d, skipped %d\n", result.Fetched, result.Skipped)
			return nil
		},
	}
	cmd.Flags().Int64Var(&accountID, "account", 0, "account id to sync")
	cmd.MarkFlagRequired("account")
	return cmd
}
