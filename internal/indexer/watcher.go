package indexer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/mgomes/newsfind/internal/debounce"
)

const DefaultDebounceDelay = 2 * time.Second

// fileState identifies one version of the dataset on disk. Consecutive
// identical states are reloaded once.
type fileState struct {
	modTime int64
	size    int64
}

type Watcher struct {
	indexer   *Indexer
	watcher   *fsnotify.Watcher
	delay     time.Duration
	onMessage func(string)
}

func NewWatcher(indexer *Indexer, delay time.Duration) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	return &Watcher{
		indexer: indexer,
		watcher: fsw,
		delay:   delay,
	}, nil
}

func (w *Watcher) SetMessageHandler(fn func(string)) {
	w.onMessage = fn
}

// Start watches the dataset's directory and reloads the dataset after writes
// settle. It blocks until ctx is done.
func (w *Watcher) Start(ctx context.Context) error {
	defer w.watcher.Close() //nolint:errcheck

	// Editors often replace files by rename, so watch the directory.
	if err := w.watcher.Add(filepath.Dir(w.indexer.path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.indexer.path, err)
	}

	reloads := debounce.New(w.delay, func(fileState) {
		w.reload(ctx)
	})
	defer reloads.Stop()

	w.message(fmt.Sprintf("Watching %s for changes...", w.indexer.path))

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if state, ok := w.handleEvent(event); ok {
				reloads.Push(state)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.message(fmt.Sprintf("Watch error: %v", err))
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) (fileState, bool) {
	if filepath.Clean(event.Name) != filepath.Clean(w.indexer.path) {
		return fileState{}, false
	}

	switch {
	case event.Op&fsnotify.Write == fsnotify.Write,
		event.Op&fsnotify.Create == fsnotify.Create,
		event.Op&fsnotify.Chmod == fsnotify.Chmod:
		info, err := os.Stat(w.indexer.path)
		if err != nil {
			return fileState{}, false
		}
		w.message(fmt.Sprintf("Detected change: %s", filepath.Base(w.indexer.path)))
		return fileState{modTime: info.ModTime().UnixNano(), size: info.Size()}, true

	case event.Op&fsnotify.Remove == fsnotify.Remove,
		event.Op&fsnotify.Rename == fsnotify.Rename:
		// Keep serving the last loaded entries until a new file appears.
		w.message(fmt.Sprintf("Dataset removed: %s", filepath.Base(w.indexer.path)))
	}

	return fileState{}, false
}

func (w *Watcher) reload(ctx context.Context) {
	w.message(fmt.Sprintf("Reloading: %s", filepath.Base(w.indexer.path)))
	if err := w.indexer.Index(ctx, false, nil); err != nil {
		w.message(fmt.Sprintf("Error reloading %s: %v", w.indexer.path, err))
		return
	}
	w.message(fmt.Sprintf("Reloaded: %s", filepath.Base(w.indexer.path)))
}

func (w *Watcher) message(msg string) {
	if w.onMessage != nil {
		w.onMessage(msg)
	} else {
		fmt.Println(msg)
	}
}
