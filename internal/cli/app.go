package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sadopc/taskonaut/internal/apperrors"
	"github.com/sadopc/taskonaut/internal/clock"
	"github.com/sadopc/taskonaut/internal/config"
	"github.com/sadopc/taskonaut/internal/engine"
	"github.com/sadopc/taskonaut/internal/logging"
	"github.com/sadopc/taskonaut/internal/store"
)

// app is the wiring one command runs against.
type app struct {
	dataDir string
	config  *config.File
	engine  *engine.Engine
	db      *store.Store
	log     *logrus.Entry
}

func (o *options) resolveDataDir() (string, error) {
	if o.dataDir != "" {
		return o.dataDir, nil
	}
	dir, err := store.DefaultDataDir()
	if err != nil {
		return "", fmt.Errorf("locate data directory: %w", err)
	}
	return dir, nil
}

// loadConfig sets up logging and reads config.json without opening a store.
func (o *options) loadConfig() (string, *config.File, error) {
	dir, err := o.resolveDataDir()
	if err != nil {
		return "", nil, err
	}
	logging.Configure(logging.Config{
		Dir:     filepath.Join(dir, "logs"),
		Verbose: o.verbose,
		JSON:    o.logJSON,
		Stderr:  o.logStderr,
	})
	cfg, err := config.Load(filepath.Join(dir, config.FileName))
	if err != nil {
		return "", nil, err
	}
	return dir, cfg, nil
}

func openApp(ctx context.Context, o *options) (*app, error) {
	dir, cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	a := &app{dataDir: dir, config: cfg, log: logging.NewLogger("cli")}

	var sessions engine.SessionStore
	switch strings.ToLower(o.backend) {
	case backendJSON, "":
		sessions = store.NewJSONStore(filepath.Join(dir, store.SessionsFile))
	case backendSQLite:
		db, err := store.New(filepath.Join(dir, store.DatabaseFile))
		if err != nil {
			return nil, err
		}
		a.db = db
		sessions = db
	default:
		return nil, apperrors.InvalidInput(fmt.Sprintf("unknown backend %q (want json or sqlite)", o.backend))
	}

	eng, err := engine.New(ctx, engine.Options{
		Clock:    o.clock,
		Sessions: sessions,
		Registry: cfg,
		Settings: cfg,
		Retry:    o.retry,
	})
	if err != nil {
		a.closeStore()
		return nil, err
	}
	a.engine = eng
	a.log.WithFields(logrus.Fields{"data_dir": dir, "backend": o.backend}).Debug("app opened")
	return a, nil
}

func (a *app) closeStore() {
	if a.db != nil {
		a.db.Close()
		a.db = nil
	}
}

// close flushes pending writes and releases the store.
func (a *app) close(ctx context.Context) error {
	defer logging.Close()
	defer a.closeStore()
	if a.engine == nil {
		return nil
	}
	return a.engine.Flush(ctx)
}

// withApp opens the app, reports startup warnings, runs fn and flushes.
func (o *options) withApp(cmd *cobra.Command, fn func(context.Context, *app) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := openApp(ctx, o)
	if err != nil {
		return err
	}
	for _, w := range a.engine.Warnings() {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", apperrors.Message(w))
	}
	runErr := fn(ctx, a)
	closeErr := a.close(ctx)
	if runErr != nil {
		return runErr
	}
	return closeErr
}

// resolveID accepts a full session ID or a unique prefix of one.
func (a *app) resolveID(ctx context.Context, arg string) (string, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return "", apperrors.InvalidInput("session id is required")
	}
	all, err := a.engine.Sessions(ctx, "")
	if err != nil {
		return "", err
	}
	var matches []string
	for _, s := range all {
		if s.ID == arg {
			return s.ID, nil
		}
		if strings.HasPrefix(s.ID, arg) {
			matches = append(matches, s.ID)
		}
	}
	switch len(matches) {
	case 0:
		return "", apperrors.SessionNotFound(arg)
	case 1:
		return matches[0], nil
	default:
		return "", apperrors.InvalidInput(fmt.Sprintf("session id %q is ambiguous (%d matches)", arg, len(matches)))
	}
}

// parseDate reads YYYY-MM-DD in the local zone; empty means today.
func (a *app) parseDate(value string) (time.Time, error) {
	now := a.engine.Now()
	if value == "" {
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()), nil
	}
	d, err := time.ParseInLocation(store.DateLayout, value, now.Location())
	if err != nil {
		return time.Time{}, apperrors.InvalidInput(fmt.Sprintf("invalid date %q (want YYYY-MM-DD)", value))
	}
	return d, nil
}

// atClock places an HH:MM or HH:MM:SS wall-clock reading on day.
func atClock(day time.Time, value string) (time.Time, error) {
	t, err := clock.OnDay(day, value)
	if err != nil {
		return time.Time{}, apperrors.InvalidInput(err.Error())
	}
	return t, nil
}

// formatSpan renders d as "1h 05m".
func formatSpan(d time.Duration) string {
	neg := d < 0
	if neg {
		d = -d
	}
	d = d.Truncate(time.Minute)
	s := fmt.Sprintf("%dh %02dm", int(d.Hours()), int(d.Minutes())%60)
	if neg {
		return "-" + s
	}
	return s
}

func seconds(n int64) time.Duration {
	return time.Duration(n) * time.Second
}

func pair(project, task string) string {
	return project + " / " + task
}
