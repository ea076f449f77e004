package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mailroom-dev/mailroom/internal/app"
)

func newSeedCmd() *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Fill the database with demo messages",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime()
			if err != nil {
				return err
			}
			defer rt.close()

			accountID, err := app.Seed(cmd.Context(), rt.store, count)
			if err != nil {
				return err
			}
			fmt.Printf("seeded %d messages into account %d\n", count, accountID)
			return nil
		},
	}
	cmd.Flags().IntVar(&count, "count", 25, "number of demo messages")
	return cmd
}
