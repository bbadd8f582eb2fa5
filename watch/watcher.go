// Package watch re-renders documents when project files change.
//
// Events are debounced: changes arriving within the debounce window are
// coalesced so the callback runs once with every changed path.
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	"github.com/meysamhadeli/buroca/utils"
)

// DefaultDebounce is the quiet period before the callback fires.
const DefaultDebounce = 300 * time.Millisecond

// DefaultDirs are the project directories watched when none are given.
var DefaultDirs = []string{"data", "templates"}

// ChangeFunc receives the changed paths relative to the project directory,
// sorted.
type ChangeFunc func(ctx context.Context, changed []string) error

// Options configures a Watcher.
type Options struct {
	// Dirs are watched recursively, relative to the project directory.
	Dirs     []string
	Debounce time.Duration
	OnChange ChangeFunc
	Logger   *log.Logger
}

// Watcher follows the source directories of a project.
type Watcher struct {
	base     string
	roots    []string
	fsw      *fsnotify.Watcher
	debounce time.Duration
	onChange ChangeFunc
	logger   *log.Logger
	started  atomic.Bool
}

// New watches the directories of opts under base. Missing directories are
// skipped, but at least one must exist.
func New(base string, opts Options) (*Watcher, error) {
	absBase, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("watch: resolve project directory: %w", err)
	}
	dirs := opts.Dirs
	if len(dirs) == 0 {
		dirs = DefaultDirs
	}
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		base:     absBase,
		fsw:      fsw,
		debounce: debounce,
		onChange: opts.OnChange,
		logger:   logger,
	}
	for _, dir := range dirs {
		root := filepath.Join(absBase, dir)
		if info, err := os.Stat(root); err != nil || !info.IsDir() {
			logger.Debug("not watching missing directory", "dir", root)
			continue
		}
		if err := w.addTree(root); err != nil {
			fsw.Close()
			return nil, err
		}
		w.roots = append(w.roots, root)
	}
	if len(w.roots) == 0 {
		fsw.Close()
		return nil, fmt.Errorf("watch: none of %s exists in %s", strings.Join(dirs, ", "), absBase)
	}
	return w, nil
}

// Roots returns the absolute directories being watched.
func (w *Watcher) Roots() []string {
	return append([]string(nil), w.roots...)
}

// Run processes events until ctx is done. It must be called once.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return errors.New("watch: Run called more than once")
	}
	defer w.fsw.Close()

	var (
		mutex   sync.Mutex
		pending = make(map[string]struct{})
		timer   *time.Timer
		running atomic.Bool
	)

	// fire skips when a previous callback is still running and retries after
	// another debounce period, so pending changes are never dropped.
	fire := func() {
		if ctx.Err() != nil {
			return
		}
		if !running.CompareAndSwap(false, true) {
			mutex.Lock()
			timer.Reset(w.debounce)
			mutex.Unlock()
			return
		}
		defer running.Store(false)

		mutex.Lock()
		changed := make([]string, 0, len(pending))
		for path := range pending {
			changed = append(changed, path)
		}
		clear(pending)
		mutex.Unlock()
		if len(changed) == 0 {
			return
		}
		sort.Strings(changed)

		if w.onChange != nil {
			if err := w.onChange(ctx, changed); err != nil {
				w.logger.Error("re-render failed", "error", err)
			}
		}
	}

	defer func() {
		mutex.Lock()
		if timer != nil {
			timer.Stop()
		}
		mutex.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-w.fsw.Events:
			if !ok {
				return errors.New("watch: event channel closed")
			}
			if evt.Has(fsnotify.Chmod) || w.ignored(evt.Name) {
				continue
			}
			if evt.Has(fsnotify.Create) {
				w.maybeAddDir(evt.Name)
			}

			rel, err := filepath.Rel(w.base, evt.Name)
			if err != nil {
				rel = evt.Name
			}
			w.logger.Debug("change", "path", rel, "op", evt.Op.String())

			mutex.Lock()
			pending[filepath.ToSlash(rel)] = struct{}{}
			if timer == nil {
				timer = time.AfterFunc(w.debounce, fire)
			} else {
				timer.Reset(w.debounce)
			}
			mutex.Unlock()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return errors.New("watch: error channel closed")
			}
			w.logger.Warn("watch error", "error", err)
		}
	}
}

func (w *Watcher) addTree(root string) error {
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			w.logger.Warn("skipping inaccessible path", "path", path, "error", err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && w.ignoredIn(root, path) {
			return filepath.SkipDir
		}
		return w.fsw.Add(path)
	})
	if err != nil {
		return fmt.Errorf("watch: add %s: %w", root, err)
	}
	return nil
}

func (w *Watcher) maybeAddDir(path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return
	}
	if err := w.addTree(path); err != nil {
		w.logger.Warn("cannot watch new directory", "dir", path, "error", err)
	}
}

// ignored applies the default ignore rules and the ignore file of the
// watched root containing path.
func (w *Watcher) ignored(path string) bool {
	for _, root := range w.roots {
		if path == root || strings.HasPrefix(path, root+string(filepath.Separator)) {
			return w.ignoredIn(root, path)
		}
	}
	// Roots are not set while New walks the first tree.
	return utils.IsDefaultIgnored(path)
}

func (w *Watcher) ignoredIn(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if utils.IsDefaultIgnored(part) {
			return true
		}
	}
	patterns, err := utils.GetIgnorePatterns(root)
	if err != nil {
		return false
	}
	return utils.IsIgnored(rel, patterns)
}
