package root

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"habitline/internal/engine"
	"habitline/internal/ui"
)

func newGoalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "goal",
		Short: "Manage goals that habits can be linked to",
	}
	cmd.AddCommand(newGoalAddCmd(), newGoalEditCmd(), newGoalDeleteCmd())
	return cmd
}

func newGoalAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <category> <text>",
		Short: "Add a goal",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := engine.ParseCategory(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				g, err := a.svc.AddGoal(ctx, cat, args[1])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s Goal added: %s %s\n", ui.Good.Render(ui.IconTarget), g.Text, ui.Muted.Render("["+shortID(g.ID)+"]"))
				return nil
			})
		},
	}
}

func newGoalEditCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "edit <category> <goal> <text>",
		Short: "Rename a goal",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := engine.ParseCategory(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				st, err := a.svc.State()
				if err != nil {
					return err
				}
				g, err := resolveGoal(st, cat, args[1])
				if err != nil {
					return err
				}
				if err := a.svc.EditGoal(ctx, cat, g.ID, args[2]); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), ui.Good.Render(ui.IconDone+" Updated"))
				return nil
			})
		},
	}
}

func newGoalDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <category> <goal>",
		Short: "Delete a goal and unlink its habits",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := engine.ParseCategory(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				st, err := a.svc.State()
				if err != nil {
					return err
				}
				g, err := resolveGoal(st, cat, args[1])
				if err != nil {
					return err
				}
				if err := a.svc.DeleteGoal(ctx, cat, g.ID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted goal %s\n", g.Text)
				return nil
			})
		},
	}
}
