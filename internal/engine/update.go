package engine

import (
	"context"
	"fmt"

	"habitline/internal/storage"
)

// EditTaskInput carries optional changes; nil fields are left alone.
// An empty GoalID unlinks the task.
type EditTaskInput struct {
	Text   *string
	GoalID *string
}

func (s *Service) EditTask(ctx context.Context, cat storage.Category, taskID string, in EditTaskInput) error {
	var text string
	if in.Text != nil {
		t, err := normalizeText("text", *in.Text)
		if err != nil {
			return err
		}
		text = t
	}

	return s.mutate(ctx, "edit task", func(st *storage.State) error {
		task, err := findTask(st, cat, taskID)
		if err != nil {
			return err
		}
		if in.Text != nil {
			task.Text = text
		}
		if in.GoalID != nil {
			if *in.GoalID == "" {
				task.GoalID = nil
			} else {
				if _, err := findGoal(st, cat, *in.GoalID); err != nil {
					return err
				}
				goalID := *in.GoalID
				task.GoalID = &goalID
			}
		}
		return nil
	})
}

func (s *Service) DeleteTask(ctx context.Context, cat storage.Category, taskID string) error {
	s.mu.Lock()
	task, err := findTask(s.state, cat, taskID)
	var text string
	if err == nil {
		text = task.Text
	}
	s.mu.Unlock()
	if err != nil {
		return err
	}

	if err := s.confirm(ctx, fmt.Sprintf("Delete task %q?", text)); err != nil {
		return err
	}
	return s.mutate(ctx, "delete task", func(st *storage.State) error {
		tasks := st.Tasks[cat]
		for i := range tasks {
			if tasks[i].ID == taskID {
				st.Tasks[cat] = append(tasks[:i:i], tasks[i+1:]...)
				return nil
			}
		}
		return NotFoundError{Kind: "task", ID: taskID}
	})
}
