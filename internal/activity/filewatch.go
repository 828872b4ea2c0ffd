package activity

import (
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"deployer/pkg/logging"
)

// watchFile reports writes to path on the returned channel. The parent
// directory is watched so that editors replacing the file are noticed too.
// An empty path yields a nil channel, which never fires.
func watchFile(path string) (<-chan struct{}, func(), error) {
	if path == "" {
		return nil, nil, nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	target := filepath.Clean(path)
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		watcher.Close()
		return nil, nil, fmt.Errorf("failed to watch %s: %w", target, err)
	}

	events := make(chan struct{}, 1)
	stop := make(chan struct{})
	go func() {
		for {
			select {
			case <-stop:
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				select {
				case events <- struct{}{}:
				default:
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logging.Error("Activity", err, "File watcher error for %s", target)
			}
		}
	}()

	closeWatch := func() {
		close(stop)
		watcher.Close()
	}
	return events, closeWatch, nil
}
