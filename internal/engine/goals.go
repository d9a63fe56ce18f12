package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"habitline/internal/storage"
)

func (s *Service) AddGoal(ctx context.Context, cat storage.Category, text string) (*storage.Goal, error) {
	t, err := normalizeText("goal", text)
	if err != nil {
		return nil, err
	}
	if !cat.IsValid() {
		return nil, ValidationError{Field: "category", Reason: "unknown category " + quote(string(cat))}
	}
	goal := storage.Goal{ID: uuid.NewString(), Text: t}
	err = s.mutate(ctx, "add goal", func(st *storage.State) error {
		st.Goals[cat] = append(st.Goals[cat], goal)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &goal, nil
}

func (s *Service) EditGoal(ctx context.Context, cat storage.Category, goalID, text string) error {
	t, err := normalizeText("goal", text)
	if err != nil {
		return err
	}
	return s.mutate(ctx, "edit goal", func(st *storage.State) error {
		g, err := findGoal(st, cat, goalID)
		if err != nil {
			return err
		}
		g.Text = t
		return nil
	})
}

// DeleteGoal removes the goal and unlinks every task of the category that
// pointed at it.
func (s *Service) DeleteGoal(ctx context.Context, cat storage.Category, goalID string) error {
	s.mu.Lock()
	g, err := findGoal(s.state, cat, goalID)
	var text string
	if err == nil {
		text = g.Text
	}
	s.mu.Unlock()
	if err != nil {
		return err
	}

	if err := s.confirm(ctx, fmt.Sprintf("Delete goal %q?", text)); err != nil {
		return err
	}
	return s.mutate(ctx, "delete goal", func(st *storage.State) error {
		kept := st.Goals[cat][:0:0]
		for _, g := range st.Goals[cat] {
			if g.ID != goalID {
				kept = append(kept, g)
			}
		}
		st.Goals[cat] = kept
		for i := range st.Tasks[cat] {
			t := &st.Tasks[cat][i]
			if t.GoalID != nil && *t.GoalID == goalID {
				t.GoalID = nil
			}
		}
		return nil
	})
}

// GoalProgress is the share (0-100) of goal-linked tasks in a category that
// have completed at least one cycle. No linked tasks means 0.
func GoalProgress(st *storage.State, cat storage.Category) float64 {
	linked, done := 0, 0
	for _, t := range st.Tasks[cat] {
		if t.GoalID == nil {
			continue
		}
		linked++
		if t.Completed || t.CyclesCompleted > 0 {
			done++
		}
	}
	if linked == 0 {
		return 0
	}
	return float64(done) / float64(linked) * 100
}

func findGoal(st *storage.State, cat storage.Category, id string) (*storage.Goal, error) {
	goals := st.Goals[cat]
	for i := range goals {
		if goals[i].ID == id {
			return &goals[i], nil
		}
	}
	return nil, NotFoundError{Kind: "goal", ID: id}
}
