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

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list [category]",
		Short: "List habits with their progress grids",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cats := storage.Categories
			if len(args) == 1 {
				cat, err := engine.ParseCategory(args[0])
				if err != nil {
					return err
				}
				cats = []storage.Category{cat}
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				st, err := a.svc.State()
				if err != nil {
					return err
				}
				for i, cat := range cats {
					if i > 0 {
						fmt.Fprintln(cmd.OutOrStdout(), "")
					}
					printCategory(cmd.OutOrStdout(), st, cat)
				}
				return nil
			})
		},
	}
	return cmd
}

func printCategory(out io.Writer, st *storage.State, cat storage.Category) {
	fmt.Fprintln(out, ui.H2.Render(fmt.Sprintf("%s %s (%d XP)", ui.CategoryIcon(string(cat)), engine.CategoryLabel(cat), st.XP[cat])))
	tasks := st.Tasks[cat]
	if len(tasks) == 0 {
		fmt.Fprintln(out, ui.Muted.Render("  (no habits)"))
	}
	for i, t := range tasks {
		line := fmt.Sprintf("%2d. %s %s %s", i+1, ui.Grid(t.Progress), t.Text, ui.Muted.Render(fmt.Sprintf("+%d %s [%s]", t.XP, t.Frequency, shortID(t.ID))))
		if t.CyclesCompleted > 0 {
			line += " " + ui.Gold.Render(fmt.Sprintf("%s%d", ui.IconLoop, t.CyclesCompleted))
		}
		if t.GoalID != nil {
			for _, g := range st.Goals[cat] {
				if g.ID == *t.GoalID {
					line += " " + ui.Muted.Render(ui.IconTarget+" "+g.Text)
				}
			}
		}
		fmt.Fprintln(out, line)
		for j, s := range t.Subtasks {
			fmt.Fprintf(out, "      %s %d. %s\n", ui.Flag(s.Done), j+1, s.Text)
		}
	}
	if goals := st.Goals[cat]; len(goals) > 0 {
		fmt.Fprintln(out, ui.Muted.Render(fmt.Sprintf("  Goals (%.0f%%):", engine.GoalProgress(st, cat))))
		for i, g := range goals {
			fmt.Fprintf(out, "  %s %d. %s %s\n", ui.IconTarget, i+1, g.Text, ui.Muted.Render("["+shortID(g.ID)+"]"))
		}
	}
}
