package root

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"habitline/internal/engine"
	"habitline/internal/ui"
)

func newPlanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Daily checklists for the language and spiritual plans",
	}
	cmd.AddCommand(newPlanShowCmd(), newPlanCheckCmd(), newPlanMonthCmd(), newPlanEditCmd())
	return cmd
}

func newPlanShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <language|spiritual>",
		Short: "Show today's checklist and the month's topic",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := engine.ParsePlanKind(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				p, topic, err := a.svc.CurrentTopic(ctx, kind)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, ui.Heading(ui.IconCalendar, fmt.Sprintf("%s plan, month %d/%d", kind, p.CurrentMonth+1, len(p.Plan))))
				fmt.Fprintln(out, ui.LabelValue("Topic", topic.Title))
				if topic.Desc != "" {
					fmt.Fprintln(out, ui.Muted.Render(topic.Desc))
				}
				fmt.Fprintln(out, ui.LabelValue("Streak", fmt.Sprintf("%d/%d", p.WeeklyStreak, engine.PlanWeekLength)))
				fmt.Fprintln(out, ui.LabelValue("Savings", p.Savings))
				for i, f := range kind.Flags() {
					fmt.Fprintf(out, "  %d. %s %s\n", i+1, ui.Flag(p.Daily[f]), f)
				}
				return nil
			})
		},
	}
}

func newPlanCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <language|spiritual> <flag>",
		Short: "Toggle one of today's plan flags (name or number)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := engine.ParsePlanKind(args[0])
			if err != nil {
				return err
			}
			flag := args[1]
			if n, err := strconv.Atoi(flag); err == nil && n >= 1 && n <= len(kind.Flags()) {
				flag = kind.Flags()[n-1]
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				res, err := a.svc.TogglePlanFlag(ctx, kind, flag)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%s %s\n", ui.Flag(res.Checked), flag)
				if res.DayCompleted {
					fmt.Fprintf(out, "%s Day complete: +%d XP, %s (streak %d/%d)\n", ui.Good.Render(ui.IconDone),
						engine.PlanDayXP, ui.Coins(engine.PlanDayCoins+engine.PlanDayXP), res.Streak, engine.PlanWeekLength)
				}
				if res.WeekCompleted {
					fmt.Fprintf(out, "%s Week complete: +%d XP, savings %d\n", ui.Gold.Render(ui.IconTrophy), engine.PlanWeekXP, res.Savings)
				}
				return nil
			})
		},
	}
}

func newPlanMonthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "month <language|spiritual> <next|prev>",
		Short: "Move the plan to the next or previous month",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := engine.ParsePlanKind(args[0])
			if err != nil {
				return err
			}
			var delta int
			switch args[1] {
			case "next", "+1":
				delta = 1
			case "prev", "-1":
				delta = -1
			default:
				return engine.ValidationError{Field: "direction", Reason: "use next or prev"}
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				month, err := a.svc.ChangePlanMonth(ctx, kind, delta)
				if err != nil {
					return err
				}
				_, topic, err := a.svc.CurrentTopic(ctx, kind)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Month %d: %s\n", month+1, topic.Title)
				return nil
			})
		},
	}
}

func newPlanEditCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "edit <language|spiritual> <description>",
		Short: "Replace the description of the current month's topic",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := engine.ParsePlanKind(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				if err := a.svc.EditPlanTopic(ctx, kind, args[1]); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), ui.Good.Render(ui.IconDone+" Updated"))
				return nil
			})
		},
	}
}
