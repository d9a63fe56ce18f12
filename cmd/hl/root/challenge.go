package root

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"habitline/internal/engine"
	"habitline/internal/storage"
	"habitline/internal/ui"
)

func newChallengeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "challenge",
		Short: "Social and savings challenges",
		RunE:  showChallenges,
	}
	cmd.AddCommand(
		&cobra.Command{Use: "show", Short: "Show active challenges and catalogues", Args: cobra.NoArgs, RunE: showChallenges},
		newChallengeAddCmd(),
		newChallengeSetCmd(),
		newChallengeCompleteCmd(),
	)
	return cmd
}

func showChallenges(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		st, err := a.svc.State()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, kind := range []storage.ChallengeKind{storage.ChallengeSocial, storage.ChallengeSavings} {
			c := st.Challenges[kind]
			if c == nil {
				continue
			}
			fmt.Fprintln(out, ui.H2.Render(fmt.Sprintf("%s %s", ui.IconTarget, kind)))
			fmt.Fprintf(out, "  Current: %s %s\n", c.Current, doneStr(c.Completed))
			for i, opt := range c.Options {
				fmt.Fprintf(out, "  %2d. %s\n", i+1, ui.Muted.Render(opt))
			}
		}
		return nil
	})
}

func newChallengeAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <social|savings> <text>",
		Short: "Add an option to the catalogue",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := engine.ParseChallengeKind(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				if err := a.svc.AddChallengeOption(ctx, kind, args[1]); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), ui.Good.Render(ui.IconPlus+" Added"))
				return nil
			})
		},
	}
}

func newChallengeSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <social|savings> <text|number>",
		Short: "Make a challenge the active one",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := engine.ParseChallengeKind(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				text := args[1]
				st, err := a.svc.State()
				if err != nil {
					return err
				}
				if c := st.Challenges[kind]; c != nil {
					if i, err := parseIndex(text, "option"); err == nil && i < len(c.Options) {
						text = c.Options[i]
					}
				}
				if err := a.svc.SetActiveChallenge(ctx, kind, text); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s Active %s challenge: %s\n", ui.IconTarget, kind, text)
				return nil
			})
		},
	}
}

func newChallengeCompleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "complete <social|savings>",
		Short: "Mark the active challenge done",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := engine.ParseChallengeKind(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				granted, err := a.svc.CompleteChallenge(ctx, kind)
				if err != nil {
					return err
				}
				if !granted {
					fmt.Fprintln(cmd.OutOrStdout(), ui.Muted.Render("Already completed."))
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s +%d XP to every category\n", ui.Gold.Render(ui.IconTrophy), engine.ChallengeXP)
				return nil
			})
		},
	}
}
