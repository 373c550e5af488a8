package ingest

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
)

type WatchConfig struct {
	Roots       []string // directories to watch
	Exts        []string // as in ScanOptions
	Recursive   bool
	InitialScan bool          // emit files already present before watching
	Debounce    time.Duration // coalesce rapid create/write bursts per path
	Logger      *slog.Logger
}

// StartWatcher emits paths of allowed files as they are created or written.
// Both channels close when ctx is done.
func StartWatcher(ctx context.Context, cfg WatchConfig) (<-chan string, <-chan error, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if len(cfg.Roots) == 0 {
		return nil, nil, errors.New("no roots provided")
	}
	exts := extSet(cfg.Exts)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Error("ingest.watcher.create_failed", "error", err)
		return nil, nil, err
	}

	var initial []string
	for _, root := range cfg.Roots {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if d.IsDir() {
				if path != root && !cfg.Recursive {
					return filepath.SkipDir
				}
				return w.Add(path)
			}
			if cfg.InitialScan && AllowedExt(filepath.Ext(path), exts) {
				initial = append(initial, path)
			}
			return nil
		})
		if err != nil {
			logger.Error("ingest.watcher.add_root_failed", "root", root, "error", err)
			_ = w.Close()
			return nil, nil, err
		}
	}
	sort.Strings(initial)

	evCh := make(chan string, 256)
	errCh := make(chan error, 1)

	go func() {
		defer close(evCh)
		defer close(errCh)
		defer func() {
			if err := w.Close(); err != nil {
				logger.Warn("ingest.watcher.close_failed", "error", err)
			}
		}()

		emit := func(p string) bool {
			select {
			case evCh <- p:
				return true
			case <-ctx.Done():
				return false
			}
		}
		for _, p := range initial {
			if !emit(p) {
				return
			}
		}

		pending := map[string]time.Time{}
		var tick <-chan time.Time
		var ticker *time.Ticker
		if cfg.Debounce > 0 {
			ticker = time.NewTicker(cfg.Debounce / 2)
			defer ticker.Stop()
			tick = ticker.C
		}

		for {
			select {
			case <-ctx.Done():
				return
			case e, ok := <-w.Events:
				if !ok {
					return
				}
				if e.Has(fsnotify.Create) && cfg.Recursive {
					// a new subdirectory; files inside arrive as their own events
					_ = w.Add(e.Name)
				}
				if !AllowedExt(filepath.Ext(e.Name), exts) || !(e.Has(fsnotify.Create) || e.Has(fsnotify.Write)) {
					continue
				}
				if cfg.Debounce <= 0 {
					if !emit(e.Name) {
						return
					}
					continue
				}
				pending[e.Name] = time.Now()
			case now := <-tick:
				var ready []string
				for p, at := range pending {
					if now.Sub(at) >= cfg.Debounce {
						ready = append(ready, p)
						delete(pending, p)
					}
				}
				sort.Strings(ready)
				for _, p := range ready {
					if !emit(p) {
						return
					}
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Error("ingest.watcher.error", "error", err)
				select {
				case errCh <- err:
				default:
				}
			}
		}
	}()

	return evCh, errCh, nil
}
