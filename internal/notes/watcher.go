package notes

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch starts a recursive watcher over the vault and reindexes once
// file activity settles. It is a no-op when already watching.
func (s *service) Watch(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.watcher != nil {
		s.mu.Unlock()
		return nil
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to start vault watcher: %w", err)
	}
	s.watcher = w
	s.mu.Unlock()

	if err := addRecursive(w, s.vault); err != nil {
		s.mu.Lock()
		s.watcher = nil
		s.mu.Unlock()
		_ = w.Close()
		return fmt.Errorf("failed to watch vault: %w", err)
	}

	s.wg.Add(1)
	go s.watchLoop(ctx, w)
	return nil
}

func (s *service) watchLoop(ctx context.Context, w *fsnotify.Watcher) {
	defer s.wg.Done()

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case <-fire:
			fire = nil
			if err := s.Reindex(ctx); err != nil && !errors.Is(err, ErrClosed) {
				slog.Error("Vault reindex failed", "error", err)
			}
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			relevant := isRelevant(ev)
			if ev.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() && !strings.HasPrefix(filepath.Base(ev.Name), ".") {
					if err := addRecursive(w, ev.Name); err != nil {
						slog.Warn("Failed to watch new directory", "path", ev.Name, "error", err)
					}
					relevant = true
				}
			}
			if !relevant {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(s.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(s.debounce)
			}
			fire = timer.C
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			slog.Warn("Vault watcher error", "error", err)
		}
	}
}

// addRecursive watches dir and every directory beneath it, skipping
// hidden directories.
func addRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
}

func isRelevant(ev fsnotify.Event) bool {
	if !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Write) &&
		!ev.Op.Has(fsnotify.Remove) && !ev.Op.Has(fsnotify.Rename) {
		return false
	}
	return strings.EqualFold(filepath.Ext(ev.Name), ".md")
}
