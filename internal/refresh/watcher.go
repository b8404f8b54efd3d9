package refresh

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce groups bursts of writes (database plus WAL and journal
// files) into a single refresh.
const DefaultDebounce = 250 * time.Millisecond

// Watcher refreshes after the database file, or one of its -wal/-shm/-journal
// companions, is written by another process.
type Watcher struct {
	fs       *fsnotify.Watcher
	base     string
	target   Refresher
	debounce time.Duration
	logger   *slog.Logger
}

// NewWatcher starts watching the directory holding dbPath. Call Run to
// process events; Run closes the watcher.
func NewWatcher(dbPath string, target Refresher, debounce time.Duration, logger *slog.Logger) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	abs, err := filepath.Abs(dbPath)
	if err != nil {
		return nil, fmt.Errorf("refresh: resolve %s: %w", dbPath, err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("refresh: create watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("refresh: watch %s: %w", filepath.Dir(abs), err)
	}

	return &Watcher{
		fs:       fsw,
		base:     filepath.Base(abs),
		target:   target,
		debounce: debounce,
		logger:   defaultLogger(logger).With("component", "refresh.watcher", "path", abs),
	}, nil
}

// Run processes file events until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fs.Close()

	var (
		timer  *time.Timer
		timerC <-chan time.Time
	)
	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(w.debounce)
			timerC = timer.C
			return
		}
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(w.debounce)
	}

	w.logger.InfoContext(ctx, "watcher started")
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			w.logger.InfoContext(ctx, "watcher stopped")
			return nil

		case <-timerC:
			run(ctx, w.target, w.logger, "file")

		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if !w.relevant(ev) {
				continue
			}
			w.logger.DebugContext(ctx, "database file changed", "file", filepath.Base(ev.Name), "op", ev.Op.String())
			schedule()

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.logger.ErrorContext(ctx, "watcher error", "error", err)
		}
	}
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	name := filepath.Base(ev.Name)
	if name == w.base {
		return true
	}
	suffix, ok := strings.CutPrefix(name, w.base)
	if !ok {
		return false
	}
	switch suffix {
	case "-wal", "-shm", "-journal":
		return true
	}
	return false
}
