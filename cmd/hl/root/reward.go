package root

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"habitline/internal/engine"
	"habitline/internal/ui"
)

func newRewardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reward",
		Short: "List, manage and redeem rewards",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				st, err := a.svc.State()
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, ui.Heading(ui.IconGift, "Rewards"))
				fmt.Fprintln(out, ui.LabelValue("Balance", ui.Coins(st.Coins)))
				for i, r := range st.Rewards {
					line := fmt.Sprintf("%2d. %s %s", i+1, r.Name, ui.Gold.Render(ui.Coins(r.Cost)))
					if r.Cost > st.Coins {
						line = ui.Muted.Render(fmt.Sprintf("%2d. %s %s", i+1, r.Name, ui.Coins(r.Cost)))
					}
					fmt.Fprintln(out, line)
				}
				return nil
			})
		},
	}
	cmd.AddCommand(newRewardAddCmd(), newRewardEditCmd(), newRewardDeleteCmd(), newRewardRedeemCmd())
	return cmd
}

func parseCost(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, engine.ValidationError{Field: "cost", Reason: "must be a number"}
	}
	return n, nil
}

func newRewardAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <name> <cost>",
		Short: "Add a reward",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cost, err := parseCost(args[1])
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				r, err := a.svc.AddReward(ctx, args[0], cost)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s Reward added: %s %s\n", ui.Good.Render(ui.IconGift), r.Name, ui.Coins(r.Cost))
				return nil
			})
		},
	}
}

func newRewardEditCmd() *cobra.Command {
	var name string
	var cost int

	cmd := &cobra.Command{
		Use:   "edit <reward>",
		Short: "Change a reward's name or cost",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				st, err := a.svc.State()
				if err != nil {
					return err
				}
				r, err := resolveReward(st, args[0])
				if err != nil {
					return err
				}
				if err := a.svc.EditReward(ctx, r.ID, name, cost); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), ui.Good.Render(ui.IconDone+" Updated"))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "New name (empty keeps the current one)")
	cmd.Flags().IntVarP(&cost, "cost", "c", 0, "New cost (0 keeps the current one)")
	return cmd
}

func newRewardDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <reward>",
		Short: "Delete a reward",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				st, err := a.svc.State()
				if err != nil {
					return err
				}
				r, err := resolveReward(st, args[0])
				if err != nil {
					return err
				}
				if err := a.svc.DeleteReward(ctx, r.ID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted reward %s\n", r.Name)
				return nil
			})
		},
	}
}

func newRewardRedeemCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "redeem <reward>",
		Short: "Spend coins on a reward",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				st, err := a.svc.State()
				if err != nil {
					return err
				}
				r, err := resolveReward(st, args[0])
				if err != nil {
					return err
				}
				redeemed, err := a.svc.RedeemReward(ctx, r.ID)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s Enjoy %s %s\n", ui.Gold.Render(ui.IconGift), redeemed.Name, ui.Muted.Render("-"+ui.Coins(redeemed.Cost)))
				return nil
			})
		},
	}
}
