package root

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"habitline/internal/engine"
	"habitline/internal/storage"
	"habitline/internal/ui"
)

func newTaskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Create, toggle, edit and delete habits",
	}
	cmd.AddCommand(
		newTaskAddCmd(),
		newTaskToggleCmd(),
		newTaskSubtaskCmd(),
		newTaskEditCmd(),
		newTaskDeleteCmd(),
		newTaskArchiveCmd(),
	)
	return cmd
}

func newTaskAddCmd() *cobra.Command {
	var freq string
	var goal string

	cmd := &cobra.Command{
		Use:   "add <category> <text>",
		Short: "Add a habit to a category",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 2 {
				return errors.New("category and text are required")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := engine.ParseCategory(args[0])
			if err != nil {
				return err
			}
			f, err := engine.ParseFrequency(freq)
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				in := engine.CreateTaskInput{Category: cat, Text: args[1], Frequency: f}
				if goal != "" {
					st, err := a.svc.State()
					if err != nil {
						return err
					}
					g, err := resolveGoal(st, cat, goal)
					if err != nil {
						return err
					}
					in.GoalID = g.ID
				}
				task, err := a.svc.CreateTask(ctx, in)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s Added %s %s %s\n", ui.Good.Render(ui.IconPlus), ui.CategoryIcon(string(cat)), task.Text,
					ui.Muted.Render(fmt.Sprintf("(%s, +%d XP per slot, id %s)", task.Frequency, task.XP, shortID(task.ID))))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&freq, "freq", "f", "daily", "Frequency (daily|weekly|monthly)")
	cmd.Flags().StringVarP(&goal, "goal", "g", "", "Link to a goal (id, prefix or number)")
	return cmd
}

func newTaskToggleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "toggle <category> <task> [slot]",
		Short: "Toggle a progress slot (defaults to the next empty one)",
		Args:  cobra.RangeArgs(2, 3),
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
				task, err := resolveTask(st, cat, args[1])
				if err != nil {
					return err
				}
				slot := nextEmptySlot(task)
				if len(args) == 3 {
					if slot, err = parseIndex(args[2], "slot"); err != nil {
						return err
					}
				}
				if slot < 0 {
					return engine.ValidationError{Field: "slot", Reason: "no empty slot left"}
				}
				res, err := a.svc.ToggleProgressSlot(ctx, cat, task.ID, slot)
				if err != nil {
					return err
				}
				printToggle(cmd.OutOrStdout(), task.Text, res)
				return nil
			})
		},
	}
	return cmd
}

func newTaskSubtaskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "subtask <category> <task> <n>",
		Short: "Tick or untick a routine subtask",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := engine.ParseCategory(args[0])
			if err != nil {
				return err
			}
			idx, err := parseIndex(args[2], "subtask")
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				st, err := a.svc.State()
				if err != nil {
					return err
				}
				task, err := resolveTask(st, cat, args[1])
				if err != nil {
					return err
				}
				res, err := a.svc.ToggleSubtask(ctx, cat, task.ID, idx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if idx < len(task.Subtasks) {
					fmt.Fprintf(out, "%s %s\n", ui.Flag(!task.Subtasks[idx].Done), task.Subtasks[idx].Text)
				}
				if res != nil {
					printToggle(out, task.Text, res)
				}
				return nil
			})
		},
	}
	return cmd
}

func newTaskEditCmd() *cobra.Command {
	var text string
	var goal string
	var unlink bool

	cmd := &cobra.Command{
		Use:   "edit <category> <task>",
		Short: "Rename a habit or change its goal",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := engine.ParseCategory(args[0])
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("text") && goal == "" && !unlink {
				return errors.New("nothing to change: pass --text, --goal or --unlink")
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				st, err := a.svc.State()
				if err != nil {
					return err
				}
				task, err := resolveTask(st, cat, args[1])
				if err != nil {
					return err
				}
				var in engine.EditTaskInput
				if cmd.Flags().Changed("text") {
					in.Text = &text
				}
				switch {
				case unlink:
					empty := ""
					in.GoalID = &empty
				case goal != "":
					g, err := resolveGoal(st, cat, goal)
					if err != nil {
						return err
					}
					in.GoalID = &g.ID
				}
				if err := a.svc.EditTask(ctx, cat, task.ID, in); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), ui.Good.Render(ui.IconDone+" Updated"))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&text, "text", "t", "", "New text")
	cmd.Flags().StringVarP(&goal, "goal", "g", "", "Link to a goal (id, prefix or number)")
	cmd.Flags().BoolVar(&unlink, "unlink", false, "Remove the goal link")
	return cmd
}

func newTaskDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <category> <task>",
		Short: "Delete a habit",
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
				task, err := resolveTask(st, cat, args[1])
				if err != nil {
					return err
				}
				if err := a.svc.DeleteTask(ctx, cat, task.ID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", task.Text)
				return nil
			})
		},
	}
	return cmd
}

func newTaskArchiveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "archive <category> <task>",
		Short: "Archive a completed grid left over from older data",
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
				task, err := resolveTask(st, cat, args[1])
				if err != nil {
					return err
				}
				bonus, err := a.svc.ArchiveCycle(ctx, cat, task.ID)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s +%d XP\n", ui.BadgeArchived, task.Text, bonus)
				return nil
			})
		},
	}
	return cmd
}

func nextEmptySlot(task *storage.Task) int {
	for i, done := range task.Progress {
		if !done {
			return i
		}
	}
	return -1
}

func printToggle(out io.Writer, text string, res *engine.ToggleResult) {
	if res.Checked {
		fmt.Fprintf(out, "%s %s %s\n", ui.Good.Render(ui.IconDone), text, ui.Gold.Render(fmt.Sprintf("+%d XP  %s", res.XPDelta, ui.Coins(res.XPDelta))))
	} else {
		fmt.Fprintf(out, "%s %s %s\n", ui.Muted.Render("○"), text, ui.Warn.Render(fmt.Sprintf("%d XP", res.XPDelta)))
	}
	if res.Archived {
		fmt.Fprintf(out, "%s cycle %d, +%d XP bonus\n", ui.BadgeArchived, res.Cycles, res.Bonus)
	}
}
