package storage

import (
	"context"
	"log/slog"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ChangeCallback is called with the key whose file changed on disk.
type ChangeCallback func(key string)

// debounceDelay coalesces the burst of events a single atomic write produces.
const debounceDelay = 150 * time.Millisecond

// Watch starts an fsnotify watcher on the FS root and reports external
// changes to key files until ctx is cancelled. Events are debounced, and each
// changed key is reported once per burst.
func Watch(ctx context.Context, root string, logger *slog.Logger, cb ChangeCallback) error {
	abs, err := filepath.Abs(root)
	if err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(abs); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", abs))

	pending := make(map[string]struct{})
	var timer *time.Timer
	var timerCh <-chan time.Time

	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(debounceDelay)
			timerCh = timer.C
		} else {
			timer.Reset(debounceDelay)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-timerCh:
			keys := make([]string, 0, len(pending))
			for k := range pending {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			clear(pending)
			for _, k := range keys {
				logger.Debug("watcher: key changed", slog.String("key", k))
				if cb != nil {
					cb(k)
				}
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			key, ok := keyFromPath(abs, ev.Name)
			if !ok {
				continue
			}
			pending[key] = struct{}{}
			schedule()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
