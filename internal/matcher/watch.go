package matcher

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchDebounce coalesces the burst of events a single save produces.
const watchDebounce = 50 * time.Millisecond

// Watch reloads the matcher whenever the lookup table is written or renamed
// into place. It watches the table's directory, since an atomic save replaces
// the file rather than writing to it. Watch blocks until ctx is cancelled.
func (m *Matcher) Watch(ctx context.Context) error {
	if m.cfg.LUTPath == "" {
		return errors.New("matcher: watch: no lookup table path configured")
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("matcher: watch: %w", err)
	}
	defer w.Close()

	dir := filepath.Dir(m.cfg.LUTPath)
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("matcher: watch %s: %w", dir, err)
	}
	m.log.WithField("path", m.cfg.LUTPath).Info("watching lookup table")

	target := filepath.Base(m.cfg.LUTPath)
	timer := time.NewTimer(watchDebounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			timer.Reset(watchDebounce)

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			m.log.WithError(err).Warn("watcher error")

		case <-timer.C:
			stats := m.Reload()
			m.log.WithField("method", stats.Mode).Info("reloaded after lookup table change")
		}
	}
}
