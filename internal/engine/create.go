package engine

import (
	"context"

	"github.com/google/uuid"

	"habitline/internal/storage"
)

type CreateTaskInput struct {
	Category  storage.Category
	Text      string
	Frequency storage.Frequency
	GoalID    string
}

// CreateTask appends a habit with a fresh grid sized by its frequency.
func (s *Service) CreateTask(ctx context.Context, in CreateTaskInput) (*storage.Task, error) {
	text, err := normalizeText("text", in.Text)
	if err != nil {
		return nil, err
	}
	if !in.Category.IsValid() {
		return nil, ValidationError{Field: "category", Reason: "unknown category " + quote(string(in.Category))}
	}
	freq := in.Frequency
	if freq == "" {
		freq = storage.FrequencyDaily
	}
	if !freq.IsValid() {
		return nil, ValidationError{Field: "frequency", Reason: "unknown frequency " + quote(string(freq))}
	}

	task := storage.Task{
		ID:        uuid.NewString(),
		Text:      text,
		XP:        freq.SlotXP(),
		Frequency: freq,
		Progress:  make([]bool, freq.GridSize()),
	}

	err = s.mutate(ctx, "create task", func(st *storage.State) error {
		if in.GoalID != "" {
			if _, err := findGoal(st, in.Category, in.GoalID); err != nil {
				return err
			}
			goalID := in.GoalID
			task.GoalID = &goalID
		}
		st.Tasks[in.Category] = append(st.Tasks[in.Category], task)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func findTask(st *storage.State, cat storage.Category, id string) (*storage.Task, error) {
	tasks := st.Tasks[cat]
	for i := range tasks {
		if tasks[i].ID == id {
			return &tasks[i], nil
		}
	}
	return nil, NotFoundError{Kind: "task", ID: id}
}
