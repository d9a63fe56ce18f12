package storage

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestDecodeStateMigratesLegacyRoutines(t *testing.T) {
	blob := []byte(`{
		"xp": {"mental": 10, "fisico": 20, "espiritual": 30},
		"coins": 60,
		"routines": {
			"0": {"name": "Rest", "subs": ["Walk"]},
			"1": {"name": "Legs", "subs": ["Squat", "Lunge"]},
			"2": {"name": "Push", "subs": ["Bench"]},
			"3": {"name": "Cardio", "subs": ["Bike"]},
			"4": {"name": "Pull", "subs": ["Rows"]},
			"5": {"name": "Easy", "subs": []},
			"6": {"name": "Full", "subs": ["Deadlift"]}
		}
	}`)

	st, migrated, err := DecodeState(blob)
	require.NoError(t, err)
	assert.True(t, migrated)

	want := map[int]Routine{
		0: {Name: "Rest", Subs: []string{"Walk"}},
		1: {Name: "Legs", Subs: []string{"Squat", "Lunge"}},
		2: {Name: "Push", Subs: []string{"Bench"}},
		3: {Name: "Cardio", Subs: []string{"Bike"}},
		4: {Name: "Pull", Subs: []string{"Rows"}},
		5: {Name: "Easy", Subs: []string{}},
		6: {Name: "Full", Subs: []string{"Deadlift"}},
	}
	assert.Equal(t, want, st.Routines[CategoryPhysical])

	def := DefaultRoutines()
	assert.Equal(t, def[CategoryMental], st.Routines[CategoryMental])
	assert.Equal(t, def[CategorySpiritual], st.Routines[CategorySpiritual])

	assert.Equal(t, 20, st.XP[CategoryPhysical])
	assert.Equal(t, 60, st.Coins)
}

func TestDecodeStateKeepsCategoryRoutines(t *testing.T) {
	st := DefaultState()
	st.Routines[CategoryMental][3] = Routine{Name: "Custom", Subs: []string{"a"}}
	data, err := EncodeState(st)
	require.NoError(t, err)

	got, migrated, err := DecodeState(data)
	require.NoError(t, err)
	assert.False(t, migrated)
	assert.Equal(t, st.Routines, got.Routines)
}

func TestDecodeStateRepairsMissingFields(t *testing.T) {
	st, _, err := DecodeState([]byte(`{"coins": -5, "xp": {"mental": -3}, "tasks": {"mental": [{"id": "x", "text": "old", "xp": 50, "frequency": "weekly"}]}}`))
	require.NoError(t, err)

	assert.Equal(t, 0, st.Coins)
	for _, c := range Categories {
		assert.Equal(t, 0, st.XP[c], "xp %s", c)
		assert.NotNil(t, st.Tasks[c])
		assert.NotNil(t, st.Goals[c])
		assert.NotNil(t, st.Routines[c])
	}
	require.Len(t, st.Tasks[CategoryMental], 1)
	assert.Len(t, st.Tasks[CategoryMental][0].Progress, 4)
	assert.Equal(t, DefaultRewards(), st.Rewards)
	assert.Len(t, st.English.Plan, 12)
	assert.Len(t, st.Spiritual.Daily, 3)
	assert.NotNil(t, st.Challenges[ChallengeSocial])
}

func TestDecodeStateRejectsGarbage(t *testing.T) {
	_, _, err := DecodeState([]byte(`not json`))
	assert.Error(t, err)
}

func TestStateRepoSaveLoad(t *testing.T) {
	ctx := context.Background()
	repo := NewStateRepo(openTestDB(t))

	got, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)

	t1 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Save(ctx, []byte(`{"coins":1}`), t1))
	require.NoError(t, repo.Save(ctx, []byte(`{"coins":2}`), t1.Add(time.Minute)))

	got, err = repo.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.JSONEq(t, `{"coins":2}`, string(got.Data))
	assert.Equal(t, 2, got.Version)
	assert.True(t, got.LastModified.Equal(t1.Add(time.Minute)))
}

func TestSyncLogRecentNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := NewSyncLogRepo(openTestDB(t))

	require.NoError(t, repo.Append(ctx, "upload", "first"))
	require.NoError(t, repo.Append(ctx, "download", "second"))

	entries, err := repo.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "download", entries[0].Action)
	assert.Equal(t, "first", entries[1].Detail)
}

func TestSyncLogAppendPrunesOldRows(t *testing.T) {
	ctx := context.Background()
	repo := NewSyncLogRepo(openTestDB(t))
	repo.keep = 3

	for _, a := range []string{"a", "b", "c", "d", "e"} {
		require.NoError(t, repo.Append(ctx, a, ""))
	}

	entries, err := repo.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "e", entries[0].Action)
	assert.Equal(t, "c", entries[2].Action)
}

func TestSyncLogHasSyncedSurvivesPruning(t *testing.T) {
	ctx := context.Background()
	repo := NewSyncLogRepo(openTestDB(t))
	repo.keep = 2

	ok, err := repo.HasSynced(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.Append(ctx, "error", "fetch: refused"))
	ok, err = repo.HasSynced(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.Append(ctx, "download", "first load"))
	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Append(ctx, "error", "push: refused"))
	}

	ok, err = repo.HasSynced(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	entries, err := repo.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "download", entries[2].Action)
}

func TestInTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	err := inTx(ctx, db, "rollback check", func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO sync_log (at, action) VALUES (?, ?)`, time.Now().UTC(), "lost"); err != nil {
			return err
		}
		return errors.New("boom")
	})
	require.EqualError(t, err, "boom")

	var n int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sync_log`).Scan(&n))
	assert.Zero(t, n)
}

func TestStampTruncatesToMillis(t *testing.T) {
	in := time.Date(2026, 1, 2, 3, 4, 5, 123456789, time.FixedZone("x", 3600))
	out := Stamp(in)
	assert.Equal(t, time.UTC, out.Location())
	assert.Equal(t, 123000000, out.Nanosecond())
}
