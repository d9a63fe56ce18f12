package engine

import (
	"context"
	"fmt"

	"habitline/internal/storage"
)

// ToggleResult describes what a slot toggle did.
type ToggleResult struct {
	Checked  bool
	XPDelta  int
	Archived bool
	Bonus    int
	Cycles   int
}

// ToggleProgressSlot flips one slot. Checking grants the task XP (and as
// many coins); unchecking takes it back. A full grid is archived at once.
func (s *Service) ToggleProgressSlot(ctx context.Context, cat storage.Category, taskID string, index int) (*ToggleResult, error) {
	var res *ToggleResult
	err := s.mutate(ctx, "toggle slot", func(st *storage.State) error {
		task, err := findTask(st, cat, taskID)
		if err != nil {
			return err
		}
		res, err = s.toggleSlot(st, cat, task, index)
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s *Service) toggleSlot(st *storage.State, cat storage.Category, task *storage.Task, index int) (*ToggleResult, error) {
	repairGrid(task)
	if index < 0 || index >= len(task.Progress) {
		return nil, SlotRangeError{Index: index, Size: len(task.Progress)}
	}

	res := &ToggleResult{}
	task.Progress[index] = !task.Progress[index]
	if task.Progress[index] {
		addXP(st, cat, task.XP)
		res.Checked = true
		res.XPDelta = task.XP
	} else {
		subtractXP(st, cat, task.XP)
		res.XPDelta = -task.XP
	}

	if gridFull(task.Progress) {
		res.Bonus = s.archive(st, cat, task)
		res.Archived = true
	}
	res.Cycles = task.CyclesCompleted
	return res, nil
}

// ArchiveCycle closes a completed grid. Toggling the last slot already does
// this, so it only succeeds for a full grid left behind by older data.
func (s *Service) ArchiveCycle(ctx context.Context, cat storage.Category, taskID string) (int, error) {
	var bonus int
	err := s.mutate(ctx, "archive cycle", func(st *storage.State) error {
		task, err := findTask(st, cat, taskID)
		if err != nil {
			return err
		}
		repairGrid(task)
		if !gridFull(task.Progress) {
			return ValidationError{Field: "cycle", Reason: "grid is not complete"}
		}
		bonus = s.archive(st, cat, task)
		return nil
	})
	return bonus, err
}

func (s *Service) archive(st *storage.State, cat storage.Category, task *storage.Task) int {
	bonus := ArchiveBonusLong
	if task.Frequency == storage.FrequencyDaily || task.Frequency == "" {
		bonus = ArchiveBonusShort
	}
	task.CyclesCompleted++
	task.Progress = make([]bool, task.Frequency.GridSize())
	addXP(st, cat, bonus)
	s.announce("Cycle completed", fmt.Sprintf("%s: cycle %d archived, +%d XP", task.Text, task.CyclesCompleted, bonus))
	return bonus
}

// ToggleSubtask flips a subtask. Finishing the last one checks the next
// empty grid slot; unticking never unchecks the grid.
func (s *Service) ToggleSubtask(ctx context.Context, cat storage.Category, taskID string, index int) (*ToggleResult, error) {
	var res *ToggleResult
	err := s.mutate(ctx, "toggle subtask", func(st *storage.State) error {
		task, err := findTask(st, cat, taskID)
		if err != nil {
			return err
		}
		if index < 0 || index >= len(task.Subtasks) {
			return SlotRangeError{Index: index, Size: len(task.Subtasks)}
		}
		task.Subtasks[index].Done = !task.Subtasks[index].Done
		if !allSubtasksDone(task.Subtasks) {
			return nil
		}
		repairGrid(task)
		for i, done := range task.Progress {
			if !done {
				res, err = s.toggleSlot(st, cat, task, i)
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// repairGrid replaces a grid whose length disagrees with the frequency.
func repairGrid(task *storage.Task) {
	if !task.Frequency.IsValid() {
		task.Frequency = storage.FrequencyDaily
	}
	if size := task.Frequency.GridSize(); len(task.Progress) != size {
		task.Progress = make([]bool, size)
	}
}

func gridFull(progress []bool) bool {
	if len(progress) == 0 {
		return false
	}
	for _, p := range progress {
		if !p {
			return false
		}
	}
	return true
}

func allSubtasksDone(subs []storage.Subtask) bool {
	if len(subs) == 0 {
		return false
	}
	for _, sub := range subs {
		if !sub.Done {
			return false
		}
	}
	return true
}
