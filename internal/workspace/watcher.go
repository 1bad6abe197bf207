package workspace

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/tliron/commonlog"
)

// Watcher observes workspace folders for grammar file changes and
// reports them debounced, so a burst of saves triggers one re-analysis.
type Watcher struct {
	log      commonlog.Logger
	watcher  *fsnotify.Watcher
	debounce time.Duration
	onChange func(changedURIs []string)
	done     chan struct{}
}

// NewWatcher creates a watcher that calls onChange with the URIs of
// changed grammar files. Call Watch to add folders and Close to stop.
func NewWatcher(debounce time.Duration, onChange func(changedURIs []string)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = 250 * time.Millisecond
	}

	w := &Watcher{
		log:      commonlog.GetLogger("workspace.watcher"),
		watcher:  fw,
		debounce: debounce,
		onChange: onChange,
		done:     make(chan struct{}),
	}
	go w.run()
	return w, nil
}

// Watch adds a folder and its subdirectories to the watch set.
func (w *Watcher) Watch(root string) error {
	return filepath.WalkDir(filepath.Clean(root), func(path string, entry os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if !entry.IsDir() {
			return nil
		}
		if skipWatchDir(entry.Name()) && path != root {
			return filepath.SkipDir
		}
		return w.watcher.Add(path)
	})
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}

func (w *Watcher) run() {
	timer := time.NewTimer(time.Hour)
	if !timer.Stop() {
		<-timer.C
	}
	pending := false
	pendingURIs := map[string]bool{}

	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			path := filepath.Clean(event.Name)

			// New directories join the watch set so grammars created in
			// them are picked up too.
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(path); err == nil && info.IsDir() {
					if err := w.Watch(path); err != nil {
						w.log.Warningf("cannot watch %s: %v", path, err)
					}
					continue
				}
			}

			if !strings.HasSuffix(path, GrammarExtension) {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}

			pendingURIs[PathToURI(path)] = true
			if pending && !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(w.debounce)
			pending = true

		case <-timer.C:
			if !pending {
				continue
			}
			pending = false
			changed := make([]string, 0, len(pendingURIs))
			for uri := range pendingURIs {
				changed = append(changed, uri)
			}
			sort.Strings(changed)
			pendingURIs = map[string]bool{}
			w.onChange(changed)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warningf("watch error: %v", err)
		}
	}
}

func skipWatchDir(name string) bool {
	if strings.HasPrefix(name, ".") {
		return true
	}
	switch name {
	case "node_modules", "vendor", "__pycache__", "dist", "build":
		return true
	}
	return false
}
