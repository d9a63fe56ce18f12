package cloudsync

import (
	"context"
	"errors"
	"fmt"
	"net"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"habitline/internal/engine"
	"habitline/internal/logging"
	"habitline/internal/storage"
)

type fakeRemote struct {
	mu        sync.Mutex
	session   *Session
	rec       *RemoteRecord
	fetchErr  error
	upsertErr error
	upserts   int
	block     chan struct{}
	started   chan struct{}
}

func (f *fakeRemote) GetSession(context.Context) (*Session, error) {
	return f.session, nil
}

func (f *fakeRemote) FetchState(_ context.Context, userID string) (*RemoteRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	if f.rec == nil {
		return nil, nil
	}
	cp := *f.rec
	return &cp, nil
}

func (f *fakeRemote) UpsertState(_ context.Context, _ string, data []byte, updatedAt time.Time) error {
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.upserts++
	version := 1
	if f.rec != nil {
		version = f.rec.Version + 1
	}
	f.rec = &RemoteRecord{StateData: append([]byte(nil), data...), UpdatedAt: updatedAt, Version: version}
	return nil
}

func (f *fakeRemote) setErrs(fetch, upsert error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchErr, f.upsertErr = fetch, upsert
}

func (f *fakeRemote) snapshot() (*RemoteRecord, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rec, f.upserts
}

type fakeLocal struct {
	data     []byte
	at       time.Time
	has      bool
	replaced int
}

func (f *fakeLocal) LoadLocal(context.Context) error      { return nil }
func (f *fakeLocal) Snapshot() ([]byte, time.Time, error) { return f.data, f.at, nil }
func (f *fakeLocal) HasLocalData() bool                   { return f.has }
func (f *fakeLocal) Replace(_ context.Context, data []byte, at time.Time) error {
	f.data, f.at, f.has = data, storage.Stamp(at), true
	f.replaced++
	return nil
}

type countingRenderer struct{ n int }

func (c *countingRenderer) RenderAll() { c.n++ }

type memJournal struct {
	mu      sync.Mutex
	actions []string
}

func (m *memJournal) Append(_ context.Context, action, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.actions = append(m.actions, action)
	return nil
}

func (m *memJournal) HasSynced(context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.actions {
		switch a {
		case "download", "upload", "push", "noop":
			return true, nil
		}
	}
	return false, nil
}

func (m *memJournal) last() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.actions) == 0 {
		return ""
	}
	return m.actions[len(m.actions)-1]
}

var (
	t1      = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	t2      = t1.Add(time.Minute)
	session = &Session{UserID: "user-1", Email: "a@example.com"}
)

func newReconciler(remote Remote, local Local, opts ...Option) (*Reconciler, *memJournal) {
	j := &memJournal{}
	base := []Option{WithJournal(j), WithLogger(logging.Discard())}
	return New(remote, local, append(base, opts...)...), j
}

func TestLoadInitialStateRemoteWinsUnconditionally(t *testing.T) {
	remote := &fakeRemote{session: session, rec: &RemoteRecord{StateData: []byte(`{"coins":1}`), UpdatedAt: t1}}
	local := &fakeLocal{data: []byte(`{"coins":9}`), at: t2, has: true}
	rd := &countingRenderer{}
	r, j := newReconciler(remote, local, WithRenderer(rd))

	require.NoError(t, r.LoadInitialState(context.Background(), local))

	assert.Equal(t, 1, local.replaced)
	assert.Equal(t, 1, rd.n)
	assert.Equal(t, `{"coins":1}`, string(local.data))
	assert.True(t, local.at.Equal(t1))
	assert.Equal(t, StatusDownloaded, r.Status())
	assert.Equal(t, "download", j.last())
	_, upserts := remote.snapshot()
	assert.Zero(t, upserts)
}

func TestLoadInitialStateFirstUpload(t *testing.T) {
	remote := &fakeRemote{session: session}
	local := &fakeLocal{data: []byte(`{"coins":9}`), at: t2, has: true}
	r, _ := newReconciler(remote, local)

	require.NoError(t, r.LoadInitialState(context.Background(), local))

	rec, upserts := remote.snapshot()
	require.Equal(t, 1, upserts)
	assert.Equal(t, `{"coins":9}`, string(rec.StateData))
	assert.True(t, rec.UpdatedAt.Equal(t2))
	assert.Equal(t, StatusSynced, r.Status())
}

func TestLoadInitialStateWithoutSessionStaysLocal(t *testing.T) {
	remote := &fakeRemote{}
	local := &fakeLocal{has: true, at: t1}
	r, _ := newReconciler(remote, local)

	require.NoError(t, r.LoadInitialState(context.Background(), local))
	assert.Equal(t, StatusLocal, r.Status())
	_, upserts := remote.snapshot()
	assert.Zero(t, upserts)
}

func TestLoadInitialStateRemoteErrorKeepsLocal(t *testing.T) {
	remote := &fakeRemote{session: session, fetchErr: errors.New("connection refused")}
	local := &fakeLocal{data: []byte(`{}`), has: true, at: t1}
	r, j := newReconciler(remote, local)

	require.NoError(t, r.LoadInitialState(context.Background(), local))
	assert.Zero(t, local.replaced)
	assert.Equal(t, StatusError, r.Status())
	assert.ErrorContains(t, r.LastError(), "connection refused")
	assert.Equal(t, "error", j.last())
}

func TestLoadInitialStateAfterPriorSyncComparesTimestamps(t *testing.T) {
	remote := &fakeRemote{session: session, rec: &RemoteRecord{StateData: []byte(`{"coins":1}`), UpdatedAt: t1}}
	local := &fakeLocal{data: []byte(`{"coins":9}`), at: t2, has: true}
	r, j := newReconciler(remote, local)
	require.NoError(t, j.Append(context.Background(), "download", "earlier run"))

	require.NoError(t, r.LoadInitialState(context.Background(), local))

	assert.Zero(t, local.replaced)
	rec, upserts := remote.snapshot()
	require.Equal(t, 1, upserts)
	assert.Equal(t, `{"coins":9}`, string(rec.StateData))
	assert.Equal(t, "upload", j.last())
	assert.Equal(t, StatusSynced, r.Status())
}

func TestRestartKeepsLocalEditWhosePushFailed(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "shared.db")
	seed, err := storage.EncodeState(storage.DefaultState())
	require.NoError(t, err)
	remote := &fakeRemote{session: session, rec: &RemoteRecord{StateData: seed, UpdatedAt: t1, Version: 1}}

	start := func(now time.Time) (*engine.Service, *Reconciler, func()) {
		db, err := storage.Open(ctx, path)
		require.NoError(t, err)
		svc := engine.NewService(storage.NewStateRepo(db),
			engine.WithClock(func() time.Time { return now }),
			engine.WithLocation(time.UTC),
			engine.WithLogger(logging.Discard()))
		r := New(remote, svc, WithJournal(storage.NewSyncLogRepo(db)), WithLogger(logging.Discard()))
		svc.SetSyncer(r)
		require.NoError(t, r.LoadInitialState(ctx, svc))
		return svc, r, func() {
			r.Wait()
			_ = db.Close()
		}
	}

	svc1, r1, stop1 := start(t2)
	assert.Equal(t, StatusDownloaded, r1.Status())
	remote.setErrs(nil, errors.New("upsert rejected"))
	_, err = svc1.ToggleProgressSlot(ctx, storage.CategoryMental, "m1", 0)
	require.NoError(t, err)
	r1.Wait()
	assert.Equal(t, StatusError, r1.Status())
	stop1()

	remote.setErrs(nil, nil)
	svc2, r2, stop2 := start(t2.Add(time.Minute))
	defer stop2()

	st, err := svc2.State()
	require.NoError(t, err)
	assert.Equal(t, 15, st.XP[storage.CategoryMental])
	assert.True(t, st.Tasks[storage.CategoryMental][0].Progress[0])

	rec, upserts := remote.snapshot()
	require.Equal(t, 1, upserts)
	assert.True(t, rec.UpdatedAt.Equal(storage.Stamp(t2)))
	assert.Equal(t, StatusSynced, r2.Status())
}

func TestConnectionErrorGoesOfflineUntilReconnect(t *testing.T) {
	ctx := context.Background()
	refused := fmt.Errorf("fetch state: %w", &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")})
	remote := &fakeRemote{session: session, fetchErr: refused}
	local := &fakeLocal{data: []byte(`{"coins":3}`), at: t2, has: true}
	r, j := newReconciler(remote, local)

	require.NoError(t, r.LoadInitialState(ctx, local))
	assert.Equal(t, StatusOffline, r.Status())
	assert.Equal(t, "offline", j.last())
	assert.ErrorContains(t, r.LastError(), "connection refused")

	_, err := r.Reconcile(ctx)
	assert.ErrorIs(t, err, ErrOffline)
	r.NotifyMutation(ctx, []byte(`{"coins":4}`), t2)
	r.Wait()
	_, upserts := remote.snapshot()
	assert.Zero(t, upserts)

	remote.setErrs(nil, nil)
	out, err := r.Reconnect(ctx)
	require.NoError(t, err)
	assert.Equal(t, OutcomeUploaded, out)
	assert.Equal(t, StatusSynced, r.Status())
}

func TestPushConnectionErrorGoesOffline(t *testing.T) {
	ctx := context.Background()
	remote := &fakeRemote{session: session}
	local := &fakeLocal{}
	r, _ := newReconciler(remote, local)
	require.NoError(t, r.LoadInitialState(ctx, local))

	remote.setErrs(nil, &net.OpError{Op: "write", Net: "tcp", Err: errors.New("broken pipe")})
	r.NotifyMutation(ctx, []byte(`{}`), t2)
	r.Wait()
	assert.Equal(t, StatusOffline, r.Status())

	_, err := r.Reconcile(ctx)
	assert.ErrorIs(t, err, ErrOffline)
}

func TestOfflineAtStartupSkipsRemote(t *testing.T) {
	ctx := context.Background()
	remote := &fakeRemote{session: session, rec: &RemoteRecord{StateData: []byte(`{"coins":1}`), UpdatedAt: t2}}
	local := &fakeLocal{data: []byte(`{"coins":9}`), at: t1, has: true}
	r, j := newReconciler(remote, local)

	r.SetOnline(ctx, false)
	require.NoError(t, r.LoadInitialState(ctx, local))
	assert.Zero(t, local.replaced)
	assert.Equal(t, StatusOffline, r.Status())
	assert.Equal(t, "offline", j.last())
}

func TestIsConnError(t *testing.T) {
	assert.True(t, IsConnError(fmt.Errorf("wrapped: %w", &net.OpError{Op: "dial", Err: errors.New("refused")})))
	assert.False(t, IsConnError(errors.New("permission denied for table game_states")))
	assert.False(t, IsConnError(nil))
}

func TestReconcileDecisions(t *testing.T) {
	ctx := context.Background()

	t.Run("remote newer downloads and renders", func(t *testing.T) {
		remote := &fakeRemote{session: session, rec: &RemoteRecord{StateData: []byte(`{"coins":2}`), UpdatedAt: t2}}
		local := &fakeLocal{data: []byte(`{"coins":1}`), at: t1, has: true}
		rd := &countingRenderer{}
		r, _ := newReconciler(remote, local, WithRenderer(rd))

		out, err := r.Reconcile(ctx)
		require.NoError(t, err)
		assert.Equal(t, OutcomeDownloaded, out)
		assert.Equal(t, `{"coins":2}`, string(local.data))
		assert.Equal(t, 1, rd.n)
		assert.Equal(t, StatusDownloaded, r.Status())

		out, err = r.Reconcile(ctx)
		require.NoError(t, err)
		assert.Equal(t, OutcomeInSync, out)
	})

	t.Run("local newer uploads", func(t *testing.T) {
		remote := &fakeRemote{session: session, rec: &RemoteRecord{StateData: []byte(`{"coins":1}`), UpdatedAt: t1, Version: 4}}
		local := &fakeLocal{data: []byte(`{"coins":2}`), at: t2, has: true}
		r, j := newReconciler(remote, local)

		out, err := r.Reconcile(ctx)
		require.NoError(t, err)
		assert.Equal(t, OutcomeUploaded, out)
		rec, _ := remote.snapshot()
		assert.Equal(t, `{"coins":2}`, string(rec.StateData))
		assert.True(t, rec.UpdatedAt.Equal(t2))
		assert.Equal(t, 5, rec.Version)
		assert.Zero(t, local.replaced)
		assert.Equal(t, "upload", j.last())

		out, err = r.Reconcile(ctx)
		require.NoError(t, err)
		assert.Equal(t, OutcomeInSync, out)
	})

	t.Run("same millisecond is in sync", func(t *testing.T) {
		remote := &fakeRemote{session: session, rec: &RemoteRecord{StateData: []byte(`{}`), UpdatedAt: t1.Add(400 * time.Microsecond)}}
		local := &fakeLocal{data: []byte(`{}`), at: t1, has: true}
		r, j := newReconciler(remote, local)

		out, err := r.Reconcile(ctx)
		require.NoError(t, err)
		assert.Equal(t, OutcomeInSync, out)
		assert.Equal(t, "noop", j.last())
		_, upserts := remote.snapshot()
		assert.Zero(t, upserts)
	})

	t.Run("remote empty uploads", func(t *testing.T) {
		remote := &fakeRemote{session: session}
		local := &fakeLocal{data: []byte(`{}`), at: t1}
		r, _ := newReconciler(remote, local)

		out, err := r.Reconcile(ctx)
		require.NoError(t, err)
		assert.Equal(t, OutcomeUploaded, out)
	})

	t.Run("no session", func(t *testing.T) {
		r, _ := newReconciler(&fakeRemote{}, &fakeLocal{})
		_, err := r.Reconcile(ctx)
		assert.ErrorIs(t, err, ErrNoSession)
	})
}

func TestNotifyMutationDropsWhileInFlight(t *testing.T) {
	ctx := context.Background()
	remote := &fakeRemote{session: session, block: make(chan struct{}), started: make(chan struct{}, 1)}
	local := &fakeLocal{}
	r, _ := newReconciler(remote, local)
	require.NoError(t, r.LoadInitialState(ctx, local))

	r.NotifyMutation(ctx, []byte(`{"n":1}`), t2)
	<-remote.started
	assert.Equal(t, StatusUploading, r.Status())

	r.NotifyMutation(ctx, []byte(`{"n":2}`), t2.Add(time.Second))
	_, err := r.Reconcile(ctx)
	assert.ErrorIs(t, err, ErrBusy)

	close(remote.block)
	r.Wait()

	rec, upserts := remote.snapshot()
	assert.Equal(t, 1, upserts)
	assert.Equal(t, `{"n":1}`, string(rec.StateData))
	assert.Equal(t, StatusSynced, r.Status())
}

func TestNotifyMutationSkippedOfflineOrSignedOut(t *testing.T) {
	ctx := context.Background()

	signedOut, _ := newReconciler(&fakeRemote{}, &fakeLocal{})
	signedOut.NotifyMutation(ctx, []byte(`{}`), t1)
	signedOut.Wait()

	remote := &fakeRemote{session: session}
	local := &fakeLocal{}
	r, _ := newReconciler(remote, local)
	require.NoError(t, r.LoadInitialState(ctx, local))
	r.SetOnline(ctx, false)
	r.NotifyMutation(ctx, []byte(`{}`), t1)
	r.Wait()

	_, upserts := remote.snapshot()
	assert.Zero(t, upserts)
	assert.Equal(t, StatusOffline, r.Status())
	_, err := r.Reconcile(ctx)
	assert.ErrorIs(t, err, ErrOffline)
}

func TestReconnectTriggersReconcile(t *testing.T) {
	ctx := context.Background()
	remote := &fakeRemote{session: session}
	local := &fakeLocal{}
	r, _ := newReconciler(remote, local)
	require.NoError(t, r.LoadInitialState(ctx, local))

	r.SetOnline(ctx, false)
	local.data, local.at, local.has = []byte(`{"offline":true}`), t2, true
	r.SetOnline(ctx, true)
	r.Wait()

	rec, upserts := remote.snapshot()
	require.Equal(t, 1, upserts)
	assert.Equal(t, `{"offline":true}`, string(rec.StateData))
	assert.Equal(t, StatusSynced, r.Status())
}

func TestServiceMutationRoundTrip(t *testing.T) {
	ctx := context.Background()
	db, err := storage.Open(ctx, filepath.Join(t.TempDir(), "sync.db"))
	require.NoError(t, err)
	defer db.Close()

	now := t1
	svc := engine.NewService(storage.NewStateRepo(db),
		engine.WithClock(func() time.Time { return now }),
		engine.WithLocation(time.UTC),
		engine.WithLogger(logging.Discard()))

	remote := &fakeRemote{session: session}
	r, _ := newReconciler(remote, svc, WithJournal(storage.NewSyncLogRepo(db)))
	svc.SetSyncer(r)
	require.NoError(t, r.LoadInitialState(ctx, svc))

	now = t2.Add(123456 * time.Nanosecond)
	_, err = svc.ToggleProgressSlot(ctx, storage.CategoryMental, "m1", 0)
	require.NoError(t, err)
	r.Wait()

	rec, upserts := remote.snapshot()
	require.Equal(t, 1, upserts)
	assert.True(t, rec.UpdatedAt.Equal(storage.Stamp(now)))

	out, err := r.Reconcile(ctx)
	require.NoError(t, err)
	assert.Equal(t, OutcomeInSync, out)

	entries, err := storage.NewSyncLogRepo(db).Recent(ctx, 10)
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	assert.Equal(t, "noop", entries[0].Action)
}

func TestAccessToken(t *testing.T) {
	tok, err := SignAccessToken("s3cret", "user-9", "u@example.com", time.Hour)
	require.NoError(t, err)

	s, err := ParseAccessToken(tok, "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "user-9", s.UserID)
	assert.Equal(t, "u@example.com", s.Email)
	assert.False(t, s.Expired(time.Now()))

	_, err = ParseAccessToken(tok, "other")
	assert.Error(t, err)

	expired, err := SignAccessToken("s3cret", "user-9", "", -time.Minute)
	require.NoError(t, err)
	_, err = ParseAccessToken(expired, "s3cret")
	assert.Error(t, err)

	_, err = ParseAccessToken("", "s3cret")
	assert.Error(t, err)
}
