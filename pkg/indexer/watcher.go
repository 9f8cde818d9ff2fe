package indexer

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// MappingWatcher watches the curated path-mapping file and fires a callback
// (debounced) when it changes, so edits take effect on the next rebuild.
type MappingWatcher struct {
	watcher  *fsnotify.Watcher
	logger   zerolog.Logger
	file     string
	onChange func()
	debounce time.Duration
	mu       sync.Mutex
	timer    *time.Timer
	stopped  bool
	stopCh   chan struct{}
}

// NewMappingWatcher starts watching the directory containing file.
func NewMappingWatcher(file string, logger zerolog.Logger, onChange func()) (*MappingWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &MappingWatcher{
		watcher:  watcher,
		logger:   logger,
		file:     filepath.Clean(file),
		onChange: onChange,
		debounce: 500 * time.Millisecond,
		stopCh:   make(chan struct{}),
	}

	// Watch the parent directory: editors replace files rather than
	// writing them in place.
	if err := watcher.Add(filepath.Dir(file)); err != nil {
		watcher.Close()
		return nil, err
	}

	go w.run()

	return w, nil
}

// Stop stops the watcher. A change still waiting out its debounce window is
// discarded so the callback cannot fire into torn-down components.
func (w *MappingWatcher) Stop() error {
	close(w.stopCh)

	w.mu.Lock()
	w.stopped = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()

	return w.watcher.Close()
}

func (w *MappingWatcher) run() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			if filepath.Clean(event.Name) != w.file {
				continue
			}

			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				w.logger.Debug().
					Str("file", filepath.Base(event.Name)).
					Str("op", event.Op.String()).
					Msg("Path mapping change detected")
				w.scheduleChange()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error().Err(err).Msg("Path mapping watcher error")

		case <-w.stopCh:
			return
		}
	}
}

func (w *MappingWatcher) scheduleChange() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.onChange)
}
