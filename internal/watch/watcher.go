package watch

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/hupe1980/depfilter/internal/debounce"
)

// RunFunc is called for the initial run and after every debounced change.
type RunFunc func(ctx context.Context) (*RunResult, error)

// RunResult summarizes one run.
type RunResult struct {
	Total    int
	Visible  int
	Pruned   map[string][]string
	Headings map[string][]string
}

// Options configures the watch behaviour.
type Options struct {
	// Paths are files or directories to watch. Directories are watched
	// recursively for .yaml, .yml and .json files.
	Paths []string

	// Debounce is the quiet period before a run.
	Debounce time.Duration

	// Logger is used for structured logging.
	Logger *slog.Logger

	// Out is the writer for user-facing status messages.
	Out io.Writer
}

// DefaultOptions returns the default watch options.
func DefaultOptions() Options {
	return Options{
		Debounce: 250 * time.Millisecond,
		Logger:   slog.Default(),
		Out:      os.Stderr,
	}
}

// Run starts the file watcher and blocks until the context is cancelled
// or a SIGINT/SIGTERM signal is received.
func Run(ctx context.Context, opts Options, runFn RunFunc) error {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	if opts.Out == nil {
		opts.Out = io.Discard
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	watched, err := addPaths(watcher, opts.Paths)
	if err != nil {
		return err
	}

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(opts.Out, "watching %s (debounce=%s)\n", strings.Join(opts.Paths, ", "), opts.Debounce)

	r := &runner{opts: opts, runFn: runFn}
	r.run(sigCtx, "(initial)")

	d := debounce.New(opts.Debounce, func(path string) {
		r.run(sigCtx, path)
	})
	defer d.Stop()

	for {
		select {
		case <-sigCtx.Done():
			fmt.Fprintln(opts.Out, "\nshutting down watcher")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if !isRelevant(event, watched) {
				continue
			}

			if event.Has(fsnotify.Create) {
				if info, statErr := os.Stat(event.Name); statErr == nil && info.IsDir() {
					_ = addRecursive(watcher, event.Name)
					continue
				}
			}

			opts.Logger.Debug("file changed", slog.String("path", event.Name), slog.String("op", event.Op.String()))
			d.Trigger(event.Name)

		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}

			opts.Logger.Error("watcher error", slog.String("error", watchErr.Error()))
		}
	}
}

// runner executes runs and remembers the previous headings so each status
// line can report what appeared or disappeared.
type runner struct {
	opts  Options
	runFn RunFunc
	prev  map[string][]string
}

func (r *runner) run(ctx context.Context, trigger string) {
	now := time.Now().Format("15:04:05")

	result, err := r.runFn(ctx)
	if err != nil {
		fmt.Fprintf(r.opts.Out, "[%s] %s: ERROR: %v\n", now, trigger, err)
		return
	}

	fmt.Fprintf(r.opts.Out, "[%s] %s: OK (%d of %d records visible)\n", now, trigger, result.Visible, result.Total)

	for field, values := range result.Pruned {
		if len(values) > 0 {
			fmt.Fprintf(r.opts.Out, "  pruned %s: %s\n", field, strings.Join(values, ", "))
		}
	}

	if r.prev != nil {
		if changes := HeadingDiff(r.prev, result.Headings); len(changes) > 0 {
			fmt.Fprintf(r.opts.Out, "  headings: %s\n", HeadingDiffSummary(changes))
		}
	}

	r.prev = result.Headings
}

// targets are the watched files and the roots of watched directories.
type targets struct {
	files map[string]struct{}
	roots []string
}

// addPaths registers every path. Files are watched through their parent
// directory so that editors replacing a file by rename are still seen.
func addPaths(watcher *fsnotify.Watcher, paths []string) (*targets, error) {
	t := &targets{files: make(map[string]struct{})}

	for _, p := range paths {
		if p == "-" {
			continue
		}

		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("resolving %q: %w", p, err)
		}

		info, err := os.Stat(abs)
		if err != nil {
			return nil, fmt.Errorf("watching %q: %w", p, err)
		}

		if info.IsDir() {
			if err := addRecursive(watcher, abs); err != nil {
				return nil, fmt.Errorf("watching directory %q: %w", p, err)
			}

			t.roots = append(t.roots, abs)

			continue
		}

		if err := watcher.Add(filepath.Dir(abs)); err != nil {
			return nil, fmt.Errorf("watching file %q: %w", p, err)
		}

		t.files[abs] = struct{}{}
	}

	return t, nil
}

// underRoot reports whether path lies inside a watched directory.
func (t *targets) underRoot(path string) bool {
	for _, root := range t.roots {
		if rel, err := filepath.Rel(root, path); err == nil && !strings.HasPrefix(rel, "..") {
			return true
		}
	}

	return false
}

// addRecursive walks root and adds all directories to the watcher.
func addRecursive(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != root {
				return filepath.SkipDir
			}

			return watcher.Add(path)
		}

		return nil
	})
}

var watchedExtensions = map[string]bool{".yaml": true, ".yml": true, ".json": true}

// isRelevant keeps write, create, remove and rename events on watched
// files, or on data files and new directories inside watched directories.
func isRelevant(event fsnotify.Event, t *targets) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}

	if _, ok := t.files[event.Name]; ok {
		return true
	}

	if !t.underRoot(event.Name) {
		return false
	}

	name := filepath.Base(event.Name)

	if strings.HasPrefix(name, ".") || strings.HasSuffix(name, "~") ||
		strings.HasSuffix(name, ".swp") || strings.HasPrefix(name, "#") {
		return false
	}

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			return true
		}
	}

	return watchedExtensions[strings.ToLower(filepath.Ext(name))]
}
