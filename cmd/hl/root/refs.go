package root

import (
	"fmt"
	"strconv"
	"strings"

	"habitline/internal/engine"
	"habitline/internal/storage"
)

// resolveTask accepts a full id, the exact text, a unique id prefix, or
// the 1-based position shown by `hl list`.
func resolveTask(st *storage.State, cat storage.Category, ref string) (*storage.Task, error) {
	tasks := st.Tasks[cat]
	i, err := resolveRef("task", ref, len(tasks), func(i int) (string, string) { return tasks[i].ID, tasks[i].Text })
	if err != nil {
		return nil, err
	}
	return &tasks[i], nil
}

func resolveGoal(st *storage.State, cat storage.Category, ref string) (*storage.Goal, error) {
	goals := st.Goals[cat]
	i, err := resolveRef("goal", ref, len(goals), func(i int) (string, string) { return goals[i].ID, goals[i].Text })
	if err != nil {
		return nil, err
	}
	return &goals[i], nil
}

func resolveReward(st *storage.State, ref string) (*storage.Reward, error) {
	rewards := st.Rewards
	i, err := resolveRef("reward", ref, len(rewards), func(i int) (string, string) { return rewards[i].ID, rewards[i].Name })
	if err != nil {
		return nil, err
	}
	return &rewards[i], nil
}

// resolveRef matches position, exact id or label, then a unique id prefix.
func resolveRef(kind, ref string, n int, entry func(i int) (id, label string)) (int, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return 0, engine.ValidationError{Field: kind, Reason: "reference is empty"}
	}
	if pos, err := strconv.Atoi(ref); err == nil && pos >= 1 && pos <= n {
		return pos - 1, nil
	}
	match := -1
	for i := 0; i < n; i++ {
		id, label := entry(i)
		if id == ref || strings.EqualFold(label, ref) {
			return i, nil
		}
		if strings.HasPrefix(id, ref) {
			if match >= 0 {
				return 0, fmt.Errorf("%s reference %q is ambiguous", kind, ref)
			}
			match = i
		}
	}
	if match < 0 {
		return 0, engine.NotFoundError{Kind: kind, ID: ref}
	}
	return match, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func parseIndex(s string, what string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%s must be a positive integer", what)
	}
	return n - 1, nil
}
