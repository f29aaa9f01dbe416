package record

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// StdinPath is the path that reads from standard input.
const StdinPath = "-"

// Loader reads pool files concurrently.
type Loader struct {
	parser      Parser
	stdin       io.Reader
	concurrency int
	logger      *slog.Logger
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithStdin sets the reader used for the "-" path.
func WithStdin(r io.Reader) LoaderOption {
	return func(l *Loader) {
		l.stdin = r
	}
}

// WithConcurrency bounds the number of files read at once.
func WithConcurrency(n int) LoaderOption {
	return func(l *Loader) {
		if n > 0 {
			l.concurrency = n
		}
	}
}

// WithLogger sets a logger for the Loader.
func WithLogger(logger *slog.Logger) LoaderOption {
	return func(l *Loader) {
		l.logger = logger
	}
}

// NewLoader creates a loader using the default parser.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{
		parser:      NewParser(),
		stdin:       os.Stdin,
		concurrency: runtime.GOMAXPROCS(0),
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Load reads and parses every path. The resulting pool keeps argument
// order, and record order within each file.
func (l *Loader) Load(ctx context.Context, paths ...string) ([]*Record, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("no pool files given")
	}

	parts := make([][]*Record, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.concurrency)

	for i, path := range paths {
		g.Go(func() error {
			rs, err := l.loadOne(gctx, path)
			if err != nil {
				return err
			}

			parts[i] = rs

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	pool := make([]*Record, 0)
	for _, rs := range parts {
		pool = append(pool, rs...)
	}

	l.logger.Debug("pool loaded", slog.Int("files", len(paths)), slog.Int("records", len(pool)))

	return pool, nil
}

func (l *Loader) loadOne(ctx context.Context, path string) ([]*Record, error) {
	var (
		data []byte
		err  error
	)

	if path == StdinPath {
		data, err = io.ReadAll(l.stdin)
	} else {
		data, err = os.ReadFile(path) //nolint:gosec
	}

	if err != nil {
		return nil, fmt.Errorf("reading pool file %q: %w", path, err)
	}

	rs, err := l.parser.Parse(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("pool file %q: %w", path, err)
	}

	for _, r := range rs {
		r.Source = path
	}

	return rs, nil
}
