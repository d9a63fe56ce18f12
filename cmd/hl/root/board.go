package root

import (
	"context"

	"github.com/spf13/cobra"

	"habitline/internal/tui"
)

func newBoardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "board",
		Short: "Open the TUI dashboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			a, err := openApp(ctx, cmd, appOptions{logToFile: true})
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.svc.RolloverPlans(ctx); err != nil {
				return err
			}
			if err := a.svc.GenerateDailyRoutines(ctx); err != nil {
				return err
			}

			var syncer tui.Syncer
			if a.sync != nil {
				syncer = a.sync
			}
			return tui.RunBoard(ctx, a.svc, syncer, cmd.OutOrStdout(), func(r tui.Renderer) {
				if a.sync != nil {
					a.sync.SetRenderer(r)
				}
			})
		},
	}

	return cmd
}
