package root

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"habitline/internal/engine"
	"habitline/internal/storage"
	"habitline/internal/ui"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show level, XP, coins, plans and achievements",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				if err := a.svc.RolloverPlans(ctx); err != nil {
					return err
				}
				st, err := a.svc.State()
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()

				total := engine.TotalXP(st)
				inLevel, pct := engine.LevelProgress(total)
				fmt.Fprintln(out, ui.Heading(ui.IconBolt, "Status"))
				fmt.Fprintln(out, ui.LabelValue("Level", engine.Level(total)))
				fmt.Fprintln(out, ui.LabelValue("Total XP", fmt.Sprintf("%d (%d/%d in level, %.0f%%)", total, inLevel, engine.LevelSize, pct)))
				fmt.Fprintln(out, ui.LabelValue("Coins", ui.Coins(st.Coins)))
				fmt.Fprintln(out, "")

				fmt.Fprintln(out, ui.H2.Render("📊 Categories"))
				for _, cat := range storage.Categories {
					fmt.Fprintf(out, "- %s %s: %d XP %s\n", ui.CategoryIcon(string(cat)), engine.CategoryLabel(cat), st.XP[cat],
						ui.Muted.Render(fmt.Sprintf("(goals %.0f%%)", engine.GoalProgress(st, cat))))
				}
				fmt.Fprintln(out, "")

				fmt.Fprintln(out, ui.H2.Render(ui.IconCalendar+" Plans"))
				printPlanSummary(out, "Language", st.English, engine.PlanLanguage)
				printPlanSummary(out, "Spiritual", st.Spiritual, engine.PlanSpiritual)
				fmt.Fprintln(out, "")

				fmt.Fprintln(out, ui.H2.Render(ui.IconTarget+" Challenges"))
				for _, kind := range []storage.ChallengeKind{storage.ChallengeSocial, storage.ChallengeSavings} {
					if c := st.Challenges[kind]; c != nil {
						fmt.Fprintf(out, "- %s: %s %s\n", kind, c.Current, doneStr(c.Completed))
					}
				}
				fmt.Fprintln(out, "")

				checker := engine.NewAchievementChecker(st)
				fmt.Fprintln(out, ui.H2.Render(fmt.Sprintf("%s Achievements (%d/%d)", ui.IconTrophy, checker.CountEarned(), checker.CountTotal())))
				for _, ach := range checker.GetAchievements() {
					if ach.Earned {
						fmt.Fprintf(out, "- %s %s %s\n", ach.Icon, ach.Name, ui.Muted.Render(ach.Description))
					}
				}

				if a.sync != nil {
					fmt.Fprintln(out, "")
					fmt.Fprintln(out, ui.LabelValue("Sync", ui.SyncStatusText(string(a.sync.Status()))))
				}
				return nil
			})
		},
	}
	return cmd
}

func printPlanSummary(out io.Writer, title string, p storage.PlanState, kind engine.PlanKind) {
	topic := ""
	if p.CurrentMonth >= 0 && p.CurrentMonth < len(p.Plan) {
		topic = p.Plan[p.CurrentMonth].Title
	}
	flags := ""
	for _, f := range kind.Flags() {
		flags += ui.Flag(p.Daily[f]) + " " + f + "  "
	}
	fmt.Fprintf(out, "- %s: streak %d/%d, savings %d %s\n", title, p.WeeklyStreak, engine.PlanWeekLength, p.Savings, ui.Muted.Render(topic))
	fmt.Fprintf(out, "  %s\n", flags)
}

func doneStr(done bool) string {
	if done {
		return ui.Good.Render("done")
	}
	return ui.Warn.Render("open")
}
