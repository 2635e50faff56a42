package memory

import (
	"log/slog"

	"github.com/fsnotify/fsnotify"
)

// Watch starts watching the memory directory for out-of-band filesystem
// changes (a memory edited directly on disk rather than through Write) and
// calls Sync whenever one is observed. It runs until stop is closed.
func (s *Store) Watch(stop <-chan struct{}) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(s.dir); err != nil {
		watcher.Close()
		return err
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-stop:
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
					continue
				}
				if _, err := s.Sync(); err != nil {
					slog.Warn("memory sync after filesystem change failed", "error", err)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				slog.Warn("memory directory watch error", "error", err)
			}
		}
	}()

	return nil
}
