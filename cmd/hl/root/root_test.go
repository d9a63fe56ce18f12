package root

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"habitline/internal/engine"
	"habitline/internal/storage"
)

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "db_path: " + filepath.Join(dir, "hl.db") + "\ntimezone: UTC\nlog:\n  level: error\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func run(t *testing.T, cfgPath string, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--config", cfgPath}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestTaskAddToggleAndList(t *testing.T) {
	cfg := writeConfig(t)

	out, err := run(t, cfg, "", "task", "add", "body", "Swim", "--freq", "weekly")
	require.NoError(t, err)
	assert.Contains(t, out, "Swim")
	assert.Contains(t, out, "+50 XP per slot")

	out, err = run(t, cfg, "", "list", "body")
	require.NoError(t, err)
	assert.Contains(t, out, "Swim")

	_, err = run(t, cfg, "", "task", "toggle", "body", "swim")
	require.NoError(t, err)

	out, err = run(t, cfg, "", "list", "body")
	require.NoError(t, err)
	assert.Contains(t, out, "■□□□")

	out, err = run(t, cfg, "", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Level")
}

func TestRewardRedeemWithoutCoinsFails(t *testing.T) {
	cfg := writeConfig(t)

	_, err := run(t, cfg, "", "reward", "add", "Movie night", "5000")
	require.NoError(t, err)

	_, err = run(t, cfg, "", "reward", "redeem", "movie night")
	var short engine.InsufficientCoinsError
	require.ErrorAs(t, err, &short)
	assert.Equal(t, 5000, short.Cost)

	out, err := run(t, cfg, "", "reward")
	require.NoError(t, err)
	assert.Contains(t, out, "Movie night")
}

func TestDeleteGoalPromptDecline(t *testing.T) {
	cfg := writeConfig(t)

	_, err := run(t, cfg, "", "goal", "add", "mind", "Read 20 books")
	require.NoError(t, err)

	_, err = run(t, cfg, "n\n", "goal", "delete", "mind", "Read 20 books")
	require.ErrorIs(t, err, engine.ErrCancelled)

	out, err := run(t, cfg, "", "list", "mind")
	require.NoError(t, err)
	assert.Contains(t, out, "Read 20 books")

	_, err = run(t, cfg, "y\n", "goal", "delete", "mind", "Read 20 books")
	require.NoError(t, err)

	out, err = run(t, cfg, "", "list", "mind")
	require.NoError(t, err)
	assert.NotContains(t, out, "Read 20 books")
}

func TestResetNeedsConfirmationUnlessYes(t *testing.T) {
	cfg := writeConfig(t)

	_, err := run(t, cfg, "", "challenge", "complete", "social")
	require.NoError(t, err)

	_, err = run(t, cfg, "no\n", "reset")
	require.ErrorIs(t, err, engine.ErrCancelled)

	out, err := run(t, cfg, "", "--yes", "reset")
	require.NoError(t, err)
	assert.Contains(t, out, "Progress reset")
}

func TestSyncWithoutCloudIsLocalOnly(t *testing.T) {
	cfg := writeConfig(t)

	out, err := run(t, cfg, "", "sync", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "local")

	_, err = run(t, cfg, "", "sync", "now")
	require.ErrorIs(t, err, errSyncDisabled)
}

func TestUnreachableCloudStartsOffline(t *testing.T) {
	cfg := writeConfig(t)
	f, err := os.OpenFile(cfg, os.O_APPEND|os.O_WRONLY, 0)
	require.NoError(t, err)
	_, err = f.WriteString("cloud:\n  enabled: true\n  dsn: postgres://hl:hl@127.0.0.1:1/hl?sslmode=disable&connect_timeout=2\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	out, err := run(t, cfg, "", "sync", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "offline")

	_, err = run(t, cfg, "", "task", "add", "mind", "Journal")
	require.NoError(t, err)
	out, err = run(t, cfg, "", "list", "mind")
	require.NoError(t, err)
	assert.Contains(t, out, "Journal")
}

func TestResolveTask(t *testing.T) {
	st := storage.DefaultState()
	st.Tasks[storage.CategoryMental] = []storage.Task{
		{ID: "abc123", Text: "one"},
		{ID: "abd456", Text: "two"},
		{ID: "xyz789", Text: "three"},
	}

	task, err := resolveTask(st, storage.CategoryMental, "2")
	require.NoError(t, err)
	assert.Equal(t, "two", task.Text)

	task, err = resolveTask(st, storage.CategoryMental, "xy")
	require.NoError(t, err)
	assert.Equal(t, "three", task.Text)

	_, err = resolveTask(st, storage.CategoryMental, "ab")
	assert.ErrorContains(t, err, "ambiguous")

	_, err = resolveTask(st, storage.CategoryMental, "nope")
	var nf engine.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestResolveGoalAndReward(t *testing.T) {
	st := storage.DefaultState()
	st.Goals[storage.CategoryPhysical] = []storage.Goal{
		{ID: "g1aaa", Text: "Run a marathon"},
		{ID: "g1bbb", Text: "Climb"},
	}
	st.Rewards = []storage.Reward{
		{ID: "r9aaa", Name: "Movie"},
		{ID: "r9bbb", Name: "Book"},
	}

	_, err := resolveGoal(st, storage.CategoryPhysical, "g1")
	assert.ErrorContains(t, err, "ambiguous")
	g, err := resolveGoal(st, storage.CategoryPhysical, "g1b")
	require.NoError(t, err)
	assert.Equal(t, "Climb", g.Text)

	var verr engine.ValidationError
	_, err = resolveGoal(st, storage.CategoryPhysical, "")
	assert.ErrorAs(t, err, &verr)
	_, err = resolveReward(st, "  ")
	assert.ErrorAs(t, err, &verr)

	_, err = resolveReward(st, "r9")
	assert.ErrorContains(t, err, "ambiguous")
	r, err := resolveReward(st, "book")
	require.NoError(t, err)
	assert.Equal(t, "r9bbb", r.ID)
}

func TestPromptConfirmer(t *testing.T) {
	var out bytes.Buffer
	p := newPromptConfirmer(strings.NewReader("Yes\n"), &out)
	ok, err := p.Confirm(context.Background(), "Delete?")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Contains(t, out.String(), "Delete? [y/N]")

	p = newPromptConfirmer(strings.NewReader(""), &out)
	ok, err = p.Confirm(context.Background(), "Delete?")
	require.NoError(t, err)
	assert.False(t, ok)
}
