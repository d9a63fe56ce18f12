package root

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"habitline/internal/cloudsync"
	"habitline/internal/config"
	"habitline/internal/engine"
	"habitline/internal/logging"
	"habitline/internal/notify"
	"habitline/internal/storage"
)

// app is everything a command needs, wired from config.
type app struct {
	cfg     config.Config
	log     *slog.Logger
	db      *sql.DB
	svc     *engine.Service
	sync    *cloudsync.Reconciler
	journal *storage.SyncLogRepo
	closers []func() error
}

type appOptions struct {
	// logToFile keeps stderr free for the terminal UI.
	logToFile bool
}

func openDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	path := cfg.DBPath
	if path == "" {
		p, err := storage.DefaultDBPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	return storage.Open(ctx, path)
}

func openApp(ctx context.Context, cmd *cobra.Command, opts appOptions) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg}

	if opts.logToFile {
		dir, err := storage.DataDir()
		if err != nil {
			return nil, err
		}
		l, closeLog, err := logging.NewFile(cfg.Log, dir)
		if err != nil {
			return nil, err
		}
		a.log = l
		a.closers = append(a.closers, closeLog)
	} else {
		a.log = logging.New(cfg.Log, cmd.ErrOrStderr())
	}

	db, err := openDB(ctx, cfg)
	if err != nil {
		a.close()
		return nil, err
	}
	a.db = db
	a.closers = append(a.closers, db.Close)
	a.journal = storage.NewSyncLogRepo(db)

	var confirmer engine.Confirmer = engine.AutoConfirm{}
	if !assumeYes {
		confirmer = newPromptConfirmer(cmd.InOrStdin(), cmd.OutOrStdout())
	}
	a.svc = engine.NewService(storage.NewStateRepo(db),
		engine.WithLogger(a.log),
		engine.WithLocation(cfg.Location()),
		engine.WithAnnouncer(notify.NewDesktop(cfg.Notifications.Enabled, a.log)),
		engine.WithConfirmer(confirmer),
	)

	if remote, reachable := a.openRemote(ctx); remote != nil {
		a.sync = cloudsync.New(remote, a.svc,
			cloudsync.WithJournal(a.journal),
			cloudsync.WithLogger(a.log.With("component", "sync")),
		)
		a.svc.SetSyncer(a.sync)
		if !reachable {
			a.sync.SetOnline(ctx, false)
		}
		if err := a.sync.LoadInitialState(ctx, a.svc); err != nil {
			a.close()
			return nil, err
		}
		return a, nil
	}

	if err := a.svc.LoadLocal(ctx); err != nil {
		a.close()
		return nil, err
	}
	return a, nil
}

// openRemote returns nil when cloud sync is off or the DSN is unusable; the
// app then runs local-only. A server that cannot be reached yields a remote
// reported as unreachable, which starts the reconciler offline.
func (a *app) openRemote(ctx context.Context) (cloudsync.Remote, bool) {
	if !a.cfg.CloudReady() {
		return nil, false
	}
	gdb, err := cloudsync.OpenPostgres(a.cfg.Cloud.DSN)
	if err != nil {
		a.log.Warn("cloud store unavailable, running local-only", "err", err)
		return nil, false
	}
	if sqlDB, err := gdb.DB(); err == nil {
		a.closers = append(a.closers, sqlDB.Close)
	}
	remote := cloudsync.NewPostgresRemote(gdb, a.cfg.Cloud.AccessToken, a.cfg.Cloud.JWTSecret)
	if err := remote.EnsureSchema(ctx); err != nil {
		if cloudsync.IsConnError(err) {
			a.log.Warn("cloud store unreachable, starting offline", "err", err)
			return remote, false
		}
		a.log.Warn("cloud schema check failed", "err", err)
	}
	return remote, true
}

// close waits for background pushes before releasing resources.
func (a *app) close() {
	if a.sync != nil {
		a.sync.Wait()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && a.log != nil {
			a.log.Warn("close failed", "err", err)
		}
	}
}

// withApp opens the app, runs fn and closes it.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := openApp(ctx, cmd, appOptions{})
	if err != nil {
		return err
	}
	defer a.close()
	return fn(ctx, a)
}

type promptConfirmer struct {
	in  *bufio.Reader
	out io.Writer
}

func newPromptConfirmer(in io.Reader, out io.Writer) *promptConfirmer {
	if in == nil {
		in = os.Stdin
	}
	return &promptConfirmer{in: bufio.NewReader(in), out: out}
}

func (p *promptConfirmer) Confirm(_ context.Context, prompt string) (bool, error) {
	fmt.Fprintf(p.out, "%s [y/N] ", prompt)
	line, err := p.in.ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
