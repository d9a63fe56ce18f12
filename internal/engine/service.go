package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"habitline/internal/storage"
)

// Service owns the single in-memory State. Every operation runs under one
// mutex and ends with a local save, a sync notification and a render.
type Service struct {
	store     StateStore
	log       *slog.Logger
	syncer    Syncer
	renderer  Renderer
	announcer Announcer
	confirmer Confirmer
	now       func() time.Time
	loc       *time.Location

	mu       sync.Mutex
	state    *storage.State
	baseline []byte
	hasLocal bool
	pending  []announcement
}

type announcement struct {
	title   string
	message string
}

type Option func(*Service)

func WithLogger(l *slog.Logger) Option      { return func(s *Service) { s.log = l } }
func WithSyncer(sy Syncer) Option           { return func(s *Service) { s.syncer = sy } }
func WithRenderer(r Renderer) Option        { return func(s *Service) { s.renderer = r } }
func WithAnnouncer(a Announcer) Option      { return func(s *Service) { s.announcer = a } }
func WithConfirmer(c Confirmer) Option      { return func(s *Service) { s.confirmer = c } }
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

// WithLocation sets the timezone that decides what "today" is.
func WithLocation(loc *time.Location) Option { return func(s *Service) { s.loc = loc } }

// errNoChange aborts a mutation without saving and without rolling back.
var errNoChange = errors.New("no change")

func NewService(store StateStore, opts ...Option) *Service {
	s := &Service{
		store:     store,
		log:       slog.Default(),
		syncer:    noopSyncer{},
		renderer:  noopRenderer{},
		announcer: noopAnnouncer{},
		confirmer: AutoConfirm{},
		now:       time.Now,
		loc:       time.Local,
		state:     storage.DefaultState(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.baseline, _ = storage.EncodeState(s.state)
	return s
}

// SetSyncer and SetRenderer exist because the reconciler and the board are
// built after the service they observe.
func (s *Service) SetSyncer(sy Syncer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.syncer = sy
}

func (s *Service) SetRenderer(r Renderer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.renderer = r
}

// LoadLocal reads the stored blob, migrating and repairing it. A missing or
// unreadable blob leaves the defaults in place.
func (s *Service) LoadLocal(ctx context.Context) error {
	stored, err := s.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load local state: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if stored == nil {
		s.state = storage.DefaultState()
		s.baseline, _ = storage.EncodeState(s.state)
		s.hasLocal = false
		return nil
	}

	st, migrated, err := storage.DecodeState(stored.Data)
	if err != nil {
		s.log.Warn("stored state unreadable, starting from defaults", "err", err)
		s.state = storage.DefaultState()
		s.baseline, _ = storage.EncodeState(s.state)
		s.hasLocal = false
		return nil
	}
	if st.LastModified.IsZero() {
		st.LastModified = storage.Stamp(stored.LastModified)
	}

	data, err := storage.EncodeState(st)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	if migrated {
		s.log.Info("migrated legacy routines", "version", stored.Version)
		if err := s.store.Save(ctx, data, st.LastModified); err != nil {
			return fmt.Errorf("save migrated state: %w", err)
		}
	}
	s.state = st
	s.baseline = data
	s.hasLocal = true
	return nil
}

// HasLocalData reports whether a state blob exists locally.
func (s *Service) HasLocalData() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasLocal
}

// Snapshot returns the last persisted blob and its timestamp.
func (s *Service) Snapshot() ([]byte, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.baseline == nil {
		data, err := storage.EncodeState(s.state)
		if err != nil {
			return nil, time.Time{}, fmt.Errorf("encode state: %w", err)
		}
		s.baseline = data
	}
	return s.baseline, s.state.LastModified, nil
}

// Replace adopts a downloaded blob wholesale and persists it locally,
// stamped with the remote timestamp. It neither pushes nor renders.
func (s *Service) Replace(ctx context.Context, data []byte, updatedAt time.Time) error {
	st, _, err := storage.DecodeState(data)
	if err != nil {
		return fmt.Errorf("decode remote state: %w", err)
	}
	st.LastModified = storage.Stamp(updatedAt)
	enc, err := storage.EncodeState(st)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.Save(ctx, enc, st.LastModified); err != nil {
		return fmt.Errorf("save downloaded state: %w", err)
	}
	s.state = st
	s.baseline = enc
	s.hasLocal = true
	return nil
}

// State returns a deep copy of the current state.
func (s *Service) State() (*storage.State, error) {
	s.mu.Lock()
	data, err := storage.EncodeState(s.state)
	s.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("encode state: %w", err)
	}
	st, _, err := storage.DecodeState(data)
	if err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	return st, nil
}

// Today is the current calendar date in the configured timezone.
func (s *Service) Today() string {
	return s.now().In(s.loc).Format("2006-01-02")
}

func (s *Service) weekday() int {
	return int(s.now().In(s.loc).Weekday())
}

// ResetProgress replaces everything with a fresh default state. The reset
// is saved and pushed like any other edit.
func (s *Service) ResetProgress(ctx context.Context) error {
	if err := s.confirm(ctx, "Reset ALL progress? This cannot be undone."); err != nil {
		return err
	}
	return s.mutate(ctx, "reset progress", func(st *storage.State) error {
		*st = *storage.DefaultState()
		return nil
	})
}

// mutate runs fn on the live state, then persists. On any failure the state
// is restored from the last persisted blob.
func (s *Service) mutate(ctx context.Context, op string, fn func(st *storage.State) error) error {
	res, err := s.apply(ctx, op, fn)
	if err != nil || res == nil {
		return err
	}

	s.log.Debug("state saved", "op", op, "last_modified", res.lastModified)
	res.syncer.NotifyMutation(ctx, res.data, res.lastModified)
	for _, n := range res.notes {
		res.announcer.Announce(n.title, n.message)
	}
	res.renderer.RenderAll()
	return nil
}

type applied struct {
	data         []byte
	lastModified time.Time
	notes        []announcement
	syncer       Syncer
	renderer     Renderer
	announcer    Announcer
}

// apply holds the lock for fn and the save. A panic in fn restores the
// baseline before it propagates, so the lock is never left held.
func (s *Service) apply(ctx context.Context, op string, fn func(st *storage.State) error) (res *applied, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() {
		if p := recover(); p != nil {
			s.rollbackLocked()
			s.log.Error("mutation panicked", "op", op, "panic", p)
			panic(p)
		}
	}()

	if err := fn(s.state); err != nil {
		if errors.Is(err, errNoChange) {
			return nil, nil
		}
		s.rollbackLocked()
		return nil, err
	}

	s.state.LastModified = storage.Stamp(s.now())
	data, err := storage.EncodeState(s.state)
	if err == nil {
		err = s.store.Save(ctx, data, s.state.LastModified)
	}
	if err != nil {
		s.rollbackLocked()
		s.log.Error("save failed", "op", op, "err", err)
		return nil, fmt.Errorf("%s: save state: %w", op, err)
	}
	s.baseline = data
	s.hasLocal = true
	notes := s.pending
	s.pending = nil
	return &applied{
		data:         data,
		lastModified: s.state.LastModified,
		notes:        notes,
		syncer:       s.syncer,
		renderer:     s.renderer,
		announcer:    s.announcer,
	}, nil
}

func (s *Service) rollbackLocked() {
	s.pending = nil
	if s.baseline == nil {
		return
	}
	st, _, err := storage.DecodeState(s.baseline)
	if err != nil {
		s.log.Error("rollback failed", "err", err)
		return
	}
	s.state = st
}

func (s *Service) announce(title, message string) {
	s.pending = append(s.pending, announcement{title: title, message: message})
}

func (s *Service) confirm(ctx context.Context, prompt string) error {
	ok, err := s.confirmer.Confirm(ctx, prompt)
	if err != nil {
		return fmt.Errorf("confirm: %w", err)
	}
	if !ok {
		return ErrCancelled
	}
	return nil
}
