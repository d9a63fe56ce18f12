package cloudsync

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"habitline/internal/storage"
)

// RemoteRecord is the stored copy of one user's state.
type RemoteRecord struct {
	StateData []byte
	UpdatedAt time.Time
	Version   int
}

// Remote is the cloud store. FetchState returns (nil, nil) when the user has
// no record yet; GetSession returns (nil, nil) when nobody is signed in.
type Remote interface {
	GetSession(ctx context.Context) (*Session, error)
	FetchState(ctx context.Context, userID string) (*RemoteRecord, error)
	UpsertState(ctx context.Context, userID string, stateData []byte, updatedAt time.Time) error
}

// Local is the device-side owner of the state.
type Local interface {
	Snapshot() ([]byte, time.Time, error)
	Replace(ctx context.Context, data []byte, updatedAt time.Time) error
	HasLocalData() bool
}

// LocalLoader can additionally read its persisted blob.
type LocalLoader interface {
	Local
	LoadLocal(ctx context.Context) error
}

type Renderer interface {
	RenderAll()
}

// Journal records each sync decision. HasSynced reports whether any remote
// exchange has ever succeeded on this device.
type Journal interface {
	Append(ctx context.Context, action, detail string) error
	HasSynced(ctx context.Context) (bool, error)
}

type Status string

const (
	StatusLocal      Status = "local-only"
	StatusOffline    Status = "offline"
	StatusSyncing    Status = "syncing"
	StatusUploading  Status = "uploading"
	StatusSynced     Status = "synced"
	StatusDownloaded Status = "synced-downloaded"
	StatusError      Status = "error"
)

// Outcome is what a reconcile decided.
type Outcome string

const (
	OutcomeUploaded   Outcome = "uploaded"
	OutcomeDownloaded Outcome = "downloaded"
	OutcomeInSync     Outcome = "in-sync"
)

var (
	ErrOffline   = errors.New("offline")
	ErrNoSession = errors.New("not signed in")
	ErrBusy      = errors.New("another sync is in flight")
)

type noopRenderer struct{}

func (noopRenderer) RenderAll() {}

type noopJournal struct{}

func (noopJournal) Append(context.Context, string, string) error { return nil }
func (noopJournal) HasSynced(context.Context) (bool, error)      { return false, nil }

// Reconciler keeps the local state and the remote record in step using
// whole-state last-writer-wins on the modification timestamp. At most one
// remote operation runs at a time; requests arriving meanwhile are dropped.
type Reconciler struct {
	remote  Remote
	local   Local
	journal Journal
	log     *slog.Logger
	now     func() time.Time

	online   atomic.Bool
	inFlight atomic.Bool
	wg       sync.WaitGroup

	mu       sync.Mutex
	renderer Renderer
	session  *Session
	status   Status
	lastErr  error
	lastSync time.Time
}

type Option func(*Reconciler)

func WithRenderer(r Renderer) Option        { return func(c *Reconciler) { c.renderer = r } }
func WithJournal(j Journal) Option          { return func(c *Reconciler) { c.journal = j } }
func WithLogger(l *slog.Logger) Option      { return func(c *Reconciler) { c.log = l } }
func WithClock(now func() time.Time) Option { return func(c *Reconciler) { c.now = now } }

func New(remote Remote, local Local, opts ...Option) *Reconciler {
	r := &Reconciler{
		remote:   remote,
		local:    local,
		journal:  noopJournal{},
		renderer: noopRenderer{},
		log:      slog.Default(),
		now:      time.Now,
		status:   StatusLocal,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.online.Store(true)
	return r
}

func (r *Reconciler) SetRenderer(rd Renderer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.renderer = rd
}

// LoadInitialState loads the local blob, then reaches the remote. On a
// device that has never synced, the remote record wins without comparing
// timestamps and, with no remote record, existing local data is uploaded.
// Once the journal holds a successful exchange, startup runs the timestamp
// reconcile instead. Remote failures are logged and the local state is kept.
func (r *Reconciler) LoadInitialState(ctx context.Context, loader LocalLoader) error {
	if err := loader.LoadLocal(ctx); err != nil {
		return err
	}
	if !r.online.Load() {
		r.log.Info("offline at startup, using local state")
		return nil
	}
	if !r.inFlight.CompareAndSwap(false, true) {
		return ErrBusy
	}
	defer r.inFlight.Store(false)

	sess, err := r.remote.GetSession(ctx)
	if err != nil {
		r.fail(ctx, "session", err)
		return nil
	}
	if sess == nil {
		r.setStatus(StatusLocal, nil)
		return nil
	}
	r.setSession(sess)

	if r.hasSynced(ctx) {
		// Failures are already journaled.
		_, _ = r.reconcile(ctx, sess)
		return nil
	}

	r.setStatus(StatusSyncing, nil)
	rec, err := r.remote.FetchState(ctx, sess.UserID)
	if err != nil {
		r.fail(ctx, "fetch", err)
		return nil
	}
	if rec != nil {
		if err := r.local.Replace(ctx, rec.StateData, rec.UpdatedAt); err != nil {
			r.fail(ctx, "download", err)
			return nil
		}
		r.currentRenderer().RenderAll()
		r.record(ctx, StatusDownloaded, "download", fmt.Sprintf("first load: remote state adopted (updated_at %s)", rec.UpdatedAt.UTC().Format(time.RFC3339Nano)))
		return nil
	}

	if !r.local.HasLocalData() {
		r.record(ctx, StatusSynced, "noop", "first load: no local or remote state")
		return nil
	}
	if err := r.upload(ctx, sess); err != nil {
		r.fail(ctx, "upload", err)
		return nil
	}
	r.record(ctx, StatusSynced, "upload", "first load: local state uploaded")
	return nil
}

// Reconcile compares the remote and local timestamps and moves the newer
// copy across. Equal timestamps do nothing.
func (r *Reconciler) Reconcile(ctx context.Context) (Outcome, error) {
	if !r.online.Load() {
		return "", ErrOffline
	}
	if !r.inFlight.CompareAndSwap(false, true) {
		r.log.Debug("reconcile dropped, sync in flight")
		return "", ErrBusy
	}
	defer r.inFlight.Store(false)

	sess, err := r.currentSession(ctx)
	if err != nil {
		r.fail(ctx, "session", err)
		return "", err
	}
	if sess == nil {
		r.setStatus(StatusLocal, nil)
		return "", ErrNoSession
	}
	return r.reconcile(ctx, sess)
}

// Reconnect marks the remote reachable again and reconciles right away.
func (r *Reconciler) Reconnect(ctx context.Context) (Outcome, error) {
	if !r.online.Swap(true) {
		r.log.Info("reconnecting")
	}
	return r.Reconcile(ctx)
}

func (r *Reconciler) reconcile(ctx context.Context, sess *Session) (Outcome, error) {
	r.setStatus(StatusSyncing, nil)

	rec, err := r.remote.FetchState(ctx, sess.UserID)
	if err != nil {
		r.fail(ctx, "fetch", err)
		return "", err
	}

	_, localAt, err := r.local.Snapshot()
	if err != nil {
		r.fail(ctx, "snapshot", err)
		return "", err
	}

	if rec == nil {
		if err := r.upload(ctx, sess); err != nil {
			r.fail(ctx, "upload", err)
			return "", err
		}
		r.record(ctx, StatusSynced, "upload", "remote empty")
		return OutcomeUploaded, nil
	}

	remoteAt := storage.Stamp(rec.UpdatedAt)
	localAt = storage.Stamp(localAt)
	switch {
	case remoteAt.After(localAt):
		if err := r.local.Replace(ctx, rec.StateData, rec.UpdatedAt); err != nil {
			r.fail(ctx, "download", err)
			return "", err
		}
		r.currentRenderer().RenderAll()
		r.record(ctx, StatusDownloaded, "download", fmt.Sprintf("remote %s newer than local %s", fmtTime(remoteAt), fmtTime(localAt)))
		return OutcomeDownloaded, nil
	case localAt.After(remoteAt):
		if err := r.upload(ctx, sess); err != nil {
			r.fail(ctx, "upload", err)
			return "", err
		}
		r.record(ctx, StatusSynced, "upload", fmt.Sprintf("local %s newer than remote %s", fmtTime(localAt), fmtTime(remoteAt)))
		return OutcomeUploaded, nil
	default:
		r.record(ctx, StatusSynced, "noop", "timestamps equal "+fmtTime(localAt))
		return OutcomeInSync, nil
	}
}

// NotifyMutation pushes a freshly saved blob in the background. It is a
// no-op without a session or while offline, and drops the push when another
// remote operation is running.
func (r *Reconciler) NotifyMutation(ctx context.Context, data []byte, lastModified time.Time) {
	if !r.online.Load() {
		return
	}
	r.mu.Lock()
	sess := r.session
	r.mu.Unlock()
	if sess == nil || sess.Expired(r.now()) {
		return
	}
	if !r.inFlight.CompareAndSwap(false, true) {
		r.log.Debug("push dropped, sync in flight", "last_modified", lastModified)
		return
	}
	r.setStatus(StatusUploading, nil)

	ctx = context.WithoutCancel(ctx)
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer r.inFlight.Store(false)
		if err := r.remote.UpsertState(ctx, sess.UserID, data, lastModified); err != nil {
			r.fail(ctx, "push", err)
			return
		}
		r.record(ctx, StatusSynced, "push", "pushed "+fmtTime(storage.Stamp(lastModified)))
	}()
}

// SetOnline records connectivity. Coming back online starts a reconcile in
// the background.
func (r *Reconciler) SetOnline(ctx context.Context, online bool) {
	was := r.online.Swap(online)
	if !online {
		if was {
			r.record(ctx, StatusOffline, "offline", "connection lost")
		}
		return
	}
	if was {
		return
	}
	r.setStatus(StatusSyncing, nil)
	ctx = context.WithoutCancel(ctx)
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		if _, err := r.Reconcile(ctx); err != nil && !errors.Is(err, ErrBusy) {
			r.log.Warn("reconcile after reconnect failed", "err", err)
		}
	}()
}

// Wait blocks until background pushes and reconciles have finished.
func (r *Reconciler) Wait() {
	r.wg.Wait()
}

func (r *Reconciler) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.online.Load() {
		return StatusOffline
	}
	return r.status
}

// LastError is the error behind the most recent StatusError, if any.
func (r *Reconciler) LastError() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastErr
}

// LastSync is when a remote operation last succeeded.
func (r *Reconciler) LastSync() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastSync
}

func (r *Reconciler) Session() *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.session
}

func (r *Reconciler) upload(ctx context.Context, sess *Session) error {
	data, lastModified, err := r.local.Snapshot()
	if err != nil {
		return err
	}
	r.setStatus(StatusUploading, nil)
	return r.remote.UpsertState(ctx, sess.UserID, data, lastModified)
}

func (r *Reconciler) currentSession(ctx context.Context) (*Session, error) {
	r.mu.Lock()
	sess := r.session
	r.mu.Unlock()
	if sess != nil && !sess.Expired(r.now()) {
		return sess, nil
	}
	sess, err := r.remote.GetSession(ctx)
	if err != nil {
		return nil, err
	}
	r.setSession(sess)
	return sess, nil
}

// hasSynced counts an unreadable journal as synced.
func (r *Reconciler) hasSynced(ctx context.Context) bool {
	ok, err := r.journal.HasSynced(ctx)
	if err != nil {
		r.log.Warn("sync journal unreadable, comparing timestamps", "err", err)
		return true
	}
	return ok
}

func (r *Reconciler) currentRenderer() Renderer {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.renderer
}

func (r *Reconciler) setSession(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.session = s
}

func (r *Reconciler) setStatus(s Status, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = s
	r.lastErr = err
	if s == StatusSynced || s == StatusDownloaded {
		r.lastSync = r.now()
	}
}

func (r *Reconciler) record(ctx context.Context, s Status, action, detail string) {
	r.setStatus(s, nil)
	r.log.Info("sync", "action", action, "detail", detail, "status", s)
	if err := r.journal.Append(ctx, action, detail); err != nil {
		r.log.Warn("sync journal append failed", "err", err)
	}
}

// fail records an error. Connection failures take the reconciler offline
// until Reconnect or SetOnline brings it back.
func (r *Reconciler) fail(ctx context.Context, action string, err error) {
	if IsConnError(err) && r.online.Swap(false) {
		r.setStatus(StatusOffline, err)
		r.log.Warn("sync offline", "action", action, "err", err)
		if jerr := r.journal.Append(ctx, "offline", action+": "+err.Error()); jerr != nil {
			r.log.Warn("sync journal append failed", "err", jerr)
		}
		return
	}
	r.setStatus(StatusError, err)
	r.log.Warn("sync failed", "action", action, "err", err)
	if jerr := r.journal.Append(ctx, "error", action+": "+err.Error()); jerr != nil {
		r.log.Warn("sync journal append failed", "err", jerr)
	}
}

// IsConnError reports whether err means the remote could not be reached.
func IsConnError(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) || errors.Is(err, driver.ErrBadConn)
}

func fmtTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}
