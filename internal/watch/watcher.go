// Package watch re-runs the patcher whenever the editor regenerates project
// files or a response file changes.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/cespare/xxhash/v2"
	"github.com/fsnotify/fsnotify"

	"github.com/standardbeagle/rspfix/internal/config"
	"github.com/standardbeagle/rspfix/internal/debug"
	"github.com/standardbeagle/rspfix/internal/patch"
	"github.com/standardbeagle/rspfix/pkg/pathutil"
)

// Processor is the part of patch.Processor the watcher drives.
type Processor interface {
	Run() patch.Report
	ProcessFiles(paths []string) patch.Report
	Classify(path string) (patch.FileKind, bool)
}

// Watcher monitors the project root and patches files as they change.
type Watcher struct {
	watcher   *fsnotify.Watcher
	cfg       *config.Config
	proc      Processor
	debouncer *eventDebouncer
	rspFiles  map[string]bool
	recursive bool

	// Content hashes of the files we wrote, so our own writes do not
	// trigger another pass
	writtenMu sync.Mutex
	written   map[string]uint64

	onBatch func(patch.Report)

	statsMu sync.RWMutex
	stats   Stats
}

// Stats contains statistics about watch mode operations
type Stats struct {
	Batches       int64
	FilesPatched  int64
	SelfWrites    int64
	ErrorCount    int64
	LastBatchTime time.Time
}

// New creates a watcher for cfg's project root.
func New(cfg *config.Config, proc Processor) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		watcher:   fsw,
		cfg:       cfg,
		proc:      proc,
		debouncer: newEventDebouncer(time.Duration(cfg.Watch.DebounceMs) * time.Millisecond),
		rspFiles:  make(map[string]bool),
		written:   make(map[string]uint64),
	}
	for _, rel := range []string{cfg.ResponseFiles.Shared, cfg.ResponseFiles.Player, cfg.ResponseFiles.Editor} {
		if p := cfg.ResolvePath(rel); p != "" {
			w.rspFiles[filepath.Clean(p)] = true
		}
	}
	for _, pattern := range append(append([]string{}, cfg.Discovery.Projects...), cfg.Discovery.Solutions...) {
		if strings.Contains(pattern, "/") {
			w.recursive = true
		}
	}
	return w, nil
}

// OnBatch registers a callback invoked after every processed batch.
func (w *Watcher) OnBatch(fn func(patch.Report)) {
	w.onBatch = fn
}

// Remember records content written by a pass outside the watcher (the
// initial run) so the resulting events are ignored.
func (w *Watcher) Remember(report patch.Report) {
	w.writtenMu.Lock()
	defer w.writtenMu.Unlock()
	for _, f := range report.Files {
		if f.Written {
			w.written[filepath.Clean(f.Path)] = f.Hash
		}
	}
}

// Run watches until ctx is cancelled. Pending events are dropped on
// shutdown; the files are already on disk and the next run will see them.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()
	defer w.debouncer.stop()

	root := w.cfg.Project.Root
	if err := w.addWatches(root); err != nil {
		return fmt.Errorf("failed to add watches starting from %s: %w", root, err)
	}
	debug.LogWatch("watching %s (recursive=%v)\n", root, w.recursive)

	for {
		select {
		case <-ctx.Done():
			debug.LogWatch("watcher stopped\n")
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("File watcher error: %v", err)
			w.incrementStats(func(s *Stats) { s.ErrorCount++ })

		case <-w.debouncer.ready():
			w.flush(w.debouncer.drain())
		}
	}
}

// addWatches adds the root, the response file directories and, when a
// discovery pattern reaches into subdirectories, every non-excluded
// directory below the root.
func (w *Watcher) addWatches(root string) error {
	if err := w.watcher.Add(root); err != nil {
		return err
	}

	for rspPath := range w.rspFiles {
		dir := filepath.Dir(rspPath)
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			if err := w.watcher.Add(dir); err != nil {
				log.Printf("Warning: failed to add watch for %s: %v", dir, err)
			}
		}
	}

	if !w.recursive {
		return nil
	}

	visited := make(map[string]bool)
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() || path == root {
			return nil
		}
		resolved, err := filepath.EvalSymlinks(path)
		if err != nil || visited[resolved] {
			return filepath.SkipDir
		}
		visited[resolved] = true

		if w.shouldIgnoreDirectory(path) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			log.Printf("Warning: failed to add watch for %s: %v", path, err)
		}
		return nil
	})
}

// shouldIgnoreDirectory skips hidden directories and those matched by an
// exclusion pattern.
func (w *Watcher) shouldIgnoreDirectory(path string) bool {
	if strings.HasPrefix(filepath.Base(path), ".") {
		return true
	}
	rel, ok := pathutil.ToSlashRelative(path, w.cfg.Project.Root)
	if !ok {
		return true
	}
	for _, pattern := range w.cfg.Discovery.Exclude {
		dirPattern := strings.TrimSuffix(pattern, "/**")
		if matched, _ := doublestar.Match(dirPattern, rel); matched {
			return true
		}
	}
	return false
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	path := filepath.Clean(event.Name)
	debug.LogWatch("event %v for %s\n", event.Op, path)

	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}

	if event.Has(fsnotify.Create) && w.recursive {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if !w.shouldIgnoreDirectory(path) {
				if err := w.watcher.Add(path); err != nil {
					log.Printf("Warning: failed to add watch for new directory %s: %v", path, err)
				}
			}
			return
		}
	}

	if w.rspFiles[path] {
		w.debouncer.add(path)
		return
	}
	if _, ok := w.proc.Classify(path); ok {
		w.debouncer.add(path)
	}
}

// flush processes one debounced batch. A changed response file affects
// every project and triggers a full run.
func (w *Watcher) flush(paths []string) {
	if len(paths) == 0 {
		return
	}

	var report patch.Report
	fullRun := false
	for _, p := range paths {
		if w.rspFiles[p] {
			fullRun = true
			break
		}
	}

	if fullRun {
		log.Printf("Response file changed, re-processing the project")
		report = w.proc.Run()
	} else {
		changed := w.withoutSelfWrites(paths)
		if len(changed) == 0 {
			return
		}
		log.Printf("Processing %d changed files", len(changed))
		report = w.proc.ProcessFiles(changed)
	}

	w.Remember(report)
	w.incrementStats(func(s *Stats) {
		s.Batches++
		s.LastBatchTime = time.Now()
		for _, f := range report.Files {
			if f.Written {
				s.FilesPatched++
			}
			if f.Err != nil {
				s.ErrorCount++
			}
		}
	})
	if w.onBatch != nil {
		w.onBatch(report)
	}
}

// withoutSelfWrites drops files whose content is exactly what we last
// wrote to them.
func (w *Watcher) withoutSelfWrites(paths []string) []string {
	w.writtenMu.Lock()
	defer w.writtenMu.Unlock()

	var out []string
	for _, p := range paths {
		if sum, ok := w.written[p]; ok {
			data, err := os.ReadFile(p)
			if err == nil && xxhash.Sum64(data) == sum {
				debug.LogWatch("ignoring our own write to %s\n", p)
				w.statsMu.Lock()
				w.stats.SelfWrites++
				w.statsMu.Unlock()
				continue
			}
			delete(w.written, p)
		}
		out = append(out, p)
	}
	return out
}

func (w *Watcher) incrementStats(update func(*Stats)) {
	w.statsMu.Lock()
	defer w.statsMu.Unlock()
	update(&w.stats)
}

// GetStats returns current watch mode statistics
func (w *Watcher) GetStats() Stats {
	w.statsMu.RLock()
	defer w.statsMu.RUnlock()
	return w.stats
}

// eventDebouncer collects paths until no new event arrived for the debounce
// interval. It is owned by the Run loop and not safe for concurrent use.
type eventDebouncer struct {
	events   map[string]struct{}
	debounce time.Duration
	timer    *time.Timer
}

func newEventDebouncer(debounce time.Duration) *eventDebouncer {
	return &eventDebouncer{
		events:   make(map[string]struct{}),
		debounce: debounce,
	}
}

func (d *eventDebouncer) add(path string) {
	d.events[path] = struct{}{}
	if d.timer == nil {
		d.timer = time.NewTimer(d.debounce)
		return
	}
	d.timer.Reset(d.debounce)
}

// ready fires once the debounce interval has passed since the last add. A
// nil channel blocks forever, which is what select wants before any event.
func (d *eventDebouncer) ready() <-chan time.Time {
	if d.timer == nil || len(d.events) == 0 {
		return nil
	}
	return d.timer.C
}

func (d *eventDebouncer) drain() []string {
	paths := make([]string, 0, len(d.events))
	for p := range d.events {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	d.events = make(map[string]struct{})
	return paths
}

func (d *eventDebouncer) stop() {
	if d.timer != nil {
		d.timer.Stop()
	}
}
