package engine

import (
	"context"
	"fmt"
	"strings"

	"habitline/internal/storage"
)

var routineGoals = map[storage.Category]string{
	storage.CategoryPhysical:  "Reduce visceral fat",
	storage.CategoryMental:    "Reach B2 level",
	storage.CategorySpiritual: "The Mystic Geometer",
}

var routineIcons = map[storage.Category]string{
	storage.CategoryMental:    "🧠",
	storage.CategoryPhysical:  "🏋️",
	storage.CategorySpiritual: "✨",
}

func RoutineTaskID(cat storage.Category) string { return "daily-" + string(cat) + "-routine" }
func RoutineGoalID(cat storage.Category) string { return string(cat) + "-routine-goal" }

// IsRestDay reports whether a routine name marks a rest day.
func IsRestDay(name string) bool {
	lower := strings.ToLower(strings.TrimSpace(name))
	if strings.HasPrefix(lower, "descanso") {
		return true
	}
	for _, w := range strings.Fields(lower) {
		if w == "rest" {
			return true
		}
	}
	return false
}

// SetRoutine stores the template for one weekday (0 = Sunday). Editing
// today's template refreshes today's routine task.
func (s *Service) SetRoutine(ctx context.Context, cat storage.Category, weekday int, name string, subs []string) error {
	if !cat.IsValid() {
		return ValidationError{Field: "category", Reason: "unknown category " + quote(string(cat))}
	}
	if weekday < 0 || weekday > 6 {
		return ValidationError{Field: "weekday", Reason: "must be 0 (Sunday) to 6"}
	}
	n, err := normalizeText("routine name", name)
	if err != nil {
		return err
	}
	cleaned := cleanSubs(subs)

	today, wd := s.Today(), s.weekday()
	return s.mutate(ctx, "set routine", func(st *storage.State) error {
		if st.Routines[cat] == nil {
			st.Routines[cat] = map[int]storage.Routine{}
		}
		st.Routines[cat][weekday] = storage.Routine{Name: n, Subs: cleaned}
		if weekday == wd {
			generateRoutines(st, wd, today)
		}
		return nil
	})
}

// GenerateDailyRoutines creates or refreshes the routine task of each
// category from today's template. Rest days create nothing.
func (s *Service) GenerateDailyRoutines(ctx context.Context) error {
	today, wd := s.Today(), s.weekday()
	return s.mutate(ctx, "generate routines", func(st *storage.State) error {
		if !generateRoutines(st, wd, today) {
			return errNoChange
		}
		return nil
	})
}

// RestoreDefaultRoutines drops every customised template.
func (s *Service) RestoreDefaultRoutines(ctx context.Context) error {
	if err := s.confirm(ctx, "Restore the default routines? Custom routines will be lost."); err != nil {
		return err
	}
	today, wd := s.Today(), s.weekday()
	return s.mutate(ctx, "restore routines", func(st *storage.State) error {
		st.Routines = storage.DefaultRoutines()
		generateRoutines(st, wd, today)
		return nil
	})
}

func generateRoutines(st *storage.State, weekday int, today string) bool {
	changed := false
	for _, cat := range storage.Categories {
		routine, ok := st.Routines[cat][weekday]
		if !ok || IsRestDay(routine.Name) {
			continue
		}

		text := routineIcons[cat] + " " + routine.Name
		subtasks := make([]storage.Subtask, 0, len(routine.Subs))
		for _, sub := range routine.Subs {
			subtasks = append(subtasks, storage.Subtask{Text: sub})
		}

		goalID := RoutineGoalID(cat)
		task, err := findTask(st, cat, RoutineTaskID(cat))
		if err != nil {
			st.Tasks[cat] = append([]storage.Task{{
				ID:         RoutineTaskID(cat),
				Text:       text,
				XP:         RoutineTaskXP,
				Frequency:  storage.FrequencyDaily,
				GoalID:     &goalID,
				Progress:   make([]bool, storage.FrequencyDaily.GridSize()),
				Subtasks:   subtasks,
				LastUpdate: today,
			}}, st.Tasks[cat]...)
			changed = true
		} else if task.LastUpdate != today || task.Text != text {
			task.Text = text
			task.Subtasks = subtasks
			task.LastUpdate = today
			changed = true
		}

		if _, err := findGoal(st, cat, goalID); err != nil {
			st.Goals[cat] = append([]storage.Goal{{ID: goalID, Text: routineGoals[cat]}}, st.Goals[cat]...)
			changed = true
		}
	}
	return changed
}

func cleanSubs(subs []string) []string {
	out := make([]string, 0, len(subs))
	for _, sub := range subs {
		if t := strings.TrimSpace(sub); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// WeekdayName is the English name of a routine weekday index.
func WeekdayName(weekday int) string {
	names := []string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}
	if weekday < 0 || weekday >= len(names) {
		return fmt.Sprintf("day %d", weekday)
	}
	return names[weekday]
}
