package root

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"habitline/internal/ui"
)

var errSyncDisabled = errors.New("cloud sync is not configured (set cloud.enabled, cloud.dsn and cloud.access_token)")

func newSyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Reconcile local state with the cloud copy",
	}
	cmd.AddCommand(newSyncNowCmd(), newSyncStatusCmd(), newSyncLogCmd())
	return cmd
}

func newSyncNowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "now",
		Short: "Run a reconcile immediately",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				if a.sync == nil {
					return errSyncDisabled
				}
				outcome, err := a.sync.Reconnect(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", ui.IconCloud, ui.Good.Render(string(outcome)))
				return nil
			})
		},
	}
}

func newSyncStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show session and last sync",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				out := cmd.OutOrStdout()
				if a.sync == nil {
					fmt.Fprintln(out, ui.LabelValue("Sync", ui.SyncStatusText("local-only")))
					return nil
				}
				fmt.Fprintln(out, ui.LabelValue("Sync", ui.SyncStatusText(string(a.sync.Status()))))
				if s := a.sync.Session(); s != nil {
					fmt.Fprintln(out, ui.LabelValue("Account", s.Email))
					if !s.ExpiresAt.IsZero() {
						fmt.Fprintln(out, ui.LabelValue("Expires", s.ExpiresAt.Local().Format(time.DateTime)))
					}
				}
				if t := a.sync.LastSync(); !t.IsZero() {
					fmt.Fprintln(out, ui.LabelValue("Last sync", t.Local().Format(time.DateTime)))
				}
				if err := a.sync.LastError(); err != nil {
					fmt.Fprintln(out, ui.LabelValue("Last error", ui.Bad.Render(err.Error())))
				}
				return nil
			})
		},
	}
}

func newSyncLogCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show recent sync decisions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				entries, err := a.journal.Recent(ctx, limit)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(entries) == 0 {
					fmt.Fprintln(out, ui.Muted.Render("No sync activity yet."))
					return nil
				}
				for _, e := range entries {
					fmt.Fprintf(out, "%s  %-8s %s\n", ui.Muted.Render(e.At.Local().Format(time.DateTime)), e.Action, e.Detail)
				}
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of entries")
	return cmd
}
