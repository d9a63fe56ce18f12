package root

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"habitline/internal/engine"
	"habitline/internal/storage"
	"habitline/internal/ui"
)

func newRoutineCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "routine",
		Short: "Weekly routine templates that become daily checklist habits",
	}
	cmd.AddCommand(
		newRoutineShowCmd(),
		newRoutineSetCmd(),
		newRoutineGenerateCmd(),
		newRoutineRestoreCmd(),
		newRoutineExportCmd(),
		newRoutineImportCmd(),
	)
	return cmd
}

func parseWeekday(s string) (int, error) {
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 || n > 6 {
			return 0, engine.ValidationError{Field: "weekday", Reason: "must be 0 (Sunday) to 6"}
		}
		return n, nil
	}
	for i := 0; i < 7; i++ {
		name := strings.ToLower(engine.WeekdayName(i))
		if strings.HasPrefix(name, strings.ToLower(s)) && len(s) >= 2 {
			return i, nil
		}
	}
	return 0, engine.ValidationError{Field: "weekday", Reason: "unknown day " + strconv.Quote(s)}
}

func newRoutineShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [category]",
		Short: "Show the weekly templates",
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
				out := cmd.OutOrStdout()
				for _, cat := range cats {
					fmt.Fprintln(out, ui.H2.Render(ui.CategoryIcon(string(cat))+" "+engine.CategoryLabel(cat)))
					for wd := 0; wd < 7; wd++ {
						r, ok := st.Routines[cat][wd]
						if !ok {
							continue
						}
						name := r.Name
						if engine.IsRestDay(r.Name) {
							name = ui.Muted.Render(name)
						}
						fmt.Fprintf(out, "  %-9s %s\n", engine.WeekdayName(wd), name)
						for _, sub := range r.Subs {
							fmt.Fprintf(out, "            - %s\n", sub)
						}
					}
				}
				return nil
			})
		},
	}
}

func newRoutineSetCmd() *cobra.Command {
	var subs []string

	cmd := &cobra.Command{
		Use:   "set <category> <weekday> <name>",
		Short: "Replace the template for one weekday",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := engine.ParseCategory(args[0])
			if err != nil {
				return err
			}
			wd, err := parseWeekday(args[1])
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				if err := a.svc.SetRoutine(ctx, cat, wd, args[2], subs); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s routine for %s saved\n", ui.Good.Render(ui.IconDone), engine.CategoryLabel(cat), engine.WeekdayName(wd))
				return nil
			})
		},
	}

	cmd.Flags().StringArrayVarP(&subs, "sub", "s", nil, "Checklist item (repeatable)")
	return cmd
}

func newRoutineGenerateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "generate",
		Short: "Create or refresh today's routine habits",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				if err := a.svc.GenerateDailyRoutines(ctx); err != nil {
					return err
				}
				st, err := a.svc.State()
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for _, cat := range storage.Categories {
					for _, t := range st.Tasks[cat] {
						if t.ID == engine.RoutineTaskID(cat) {
							fmt.Fprintf(out, "%s %s (%d items)\n", ui.IconLoop, t.Text, len(t.Subtasks))
						}
					}
				}
				return nil
			})
		},
	}
}

func newRoutineRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore",
		Short: "Reset every template to the defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				if err := a.svc.RestoreDefaultRoutines(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), ui.Good.Render(ui.IconDone+" Default routines restored"))
				return nil
			})
		},
	}
}

func newRoutineExportCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the templates as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				if file == "" || file == "-" {
					return a.svc.ExportRoutines(cmd.OutOrStdout())
				}
				f, err := os.Create(file)
				if err != nil {
					return err
				}
				if err := a.svc.ExportRoutines(f); err != nil {
					_ = f.Close()
					return err
				}
				return f.Close()
			})
		},
	}

	cmd.Flags().StringVarP(&file, "file", "o", "", "Output file (default stdout)")
	return cmd
}

func newRoutineImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Merge templates from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				in := cmd.InOrStdin()
				if args[0] != "-" {
					f, err := os.Open(args[0])
					if err != nil {
						return err
					}
					defer f.Close()
					in = f
				}
				n, err := a.svc.ImportRoutines(ctx, in)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s Imported %d day templates\n", ui.Good.Render(ui.IconDone), n)
				return nil
			})
		},
	}
}
