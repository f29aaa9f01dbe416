// Package state owns the filter state of one list view: the pool, the
// dependency order and the current selections. Consumers subscribe to
// updates instead of registering callbacks on a shared singleton.
package state

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hupe1980/depfilter/internal/cascade"
	"github.com/hupe1980/depfilter/internal/debounce"
	"github.com/hupe1980/depfilter/internal/filter"
	"github.com/hupe1980/depfilter/internal/record"
	"github.com/hupe1980/depfilter/internal/selection"
)

// DefaultDebounce is the quiet period Schedule waits before recomputing.
const DefaultDebounce = 25 * time.Millisecond

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("store closed")

// Update is published after every recompute.
type Update struct {
	// Seq increases by one with every published update.
	Seq uint64
	// Reason is what triggered the recompute.
	Reason string
	// Filtered is the outcome of the predicate filters.
	Filtered *filter.Result
	// Result is the cascade outcome over the filtered pool.
	Result *cascade.Result
}

// Store holds filter state and publishes updates to subscribers.
type Store struct {
	mu         sync.Mutex
	pool       []*record.Record
	order      []string
	selections selection.Selections
	chain      *filter.Chain
	last       *Update
	seq        uint64
	subs       map[uint64]chan Update
	nextSub    uint64
	closed     bool

	ctx       context.Context
	interval  time.Duration
	debouncer *debounce.Debouncer[string]
	logger    *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithDebounce sets the Schedule quiet period.
func WithDebounce(d time.Duration) Option {
	return func(s *Store) {
		s.interval = d
	}
}

// WithFilters sets the predicate chain applied before the cascade.
func WithFilters(chain *filter.Chain) Option {
	return func(s *Store) {
		s.chain = chain
	}
}

// WithSelections sets the initial selections. The map is copied.
func WithSelections(sel selection.Selections) Option {
	return func(s *Store) {
		s.selections = sel.Clone()
	}
}

// WithLogger sets a logger for the Store.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithContext sets the context used by scheduled recomputes.
func WithContext(ctx context.Context) Option {
	return func(s *Store) {
		s.ctx = ctx
	}
}

// New creates a store. The dependency order is validated up front.
func New(pool []*record.Record, order []string, opts ...Option) (*Store, error) {
	if pool == nil {
		pool = []*record.Record{}
	}

	if err := cascade.Validate(pool, order); err != nil {
		return nil, err
	}

	s := &Store{
		pool:     pool,
		order:    append([]string(nil), order...),
		chain:    filter.NewChain(),
		subs:     make(map[uint64]chan Update),
		ctx:      context.Background(),
		interval: DefaultDebounce,
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.selections == nil {
		s.selections = make(selection.Selections)
	}

	s.debouncer = debounce.New(s.interval, func(reason string) {
		if _, err := s.recompute(s.ctx, reason); err != nil && !errors.Is(err, ErrClosed) {
			s.logger.Error("scheduled recompute failed", slog.String("reason", reason), slog.String("error", err.Error()))
		}
	})

	return s, nil
}

// Subscribe returns a channel receiving updates and a cancel function.
// Each subscriber buffers one update; a slow subscriber only sees the
// latest one.
func (s *Store) Subscribe() (<-chan Update, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan Update, 1)
	if s.closed {
		close(ch)
		return ch, func() {}
	}

	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch

	var once sync.Once

	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()

			if c, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(c)
			}
		})
	}
}

// Select sets the flag of one value.
func (s *Store) Select(field, value string, selected bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.selections.Set(field, value, selected)
}

// SetSelections replaces all selections. The map is copied.
func (s *Store) SetSelections(sel selection.Selections) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.selections = sel.Clone()
	if s.selections == nil {
		s.selections = make(selection.Selections)
	}
}

// SetPool replaces the pool.
func (s *Store) SetPool(pool []*record.Record) {
	if pool == nil {
		pool = []*record.Record{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pool = pool
}

// SetFilters replaces the predicate chain.
func (s *Store) SetFilters(chain *filter.Chain) {
	if chain == nil {
		chain = filter.NewChain()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.chain = chain
}

// Clear removes every selection.
func (s *Store) Clear() {
	s.SetSelections(nil)
}

// Selections returns a copy of the current selections.
func (s *Store) Selections() selection.Selections {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.selections.Clone()
}

// Last returns the most recent update, or nil before the first recompute.
func (s *Store) Last() *Update {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.last
}

// Recompute runs the filters and the cascade, adopts the pruned
// selections and publishes the update.
func (s *Store) Recompute(ctx context.Context) (*Update, error) {
	return s.recompute(ctx, "recompute")
}

// Schedule requests a recompute after the debounce interval. Bursts of
// calls result in a single recompute.
func (s *Store) Schedule(reason string) {
	s.debouncer.Trigger(reason)
}

// Flush runs a scheduled recompute immediately if one is pending.
func (s *Store) Flush() bool {
	return s.debouncer.Flush()
}

func (s *Store) recompute(ctx context.Context, reason string) (*Update, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrClosed
	}

	filtered, err := s.chain.Apply(ctx, s.pool)
	if err != nil {
		return nil, fmt.Errorf("applying filters: %w", err)
	}

	res, err := cascade.Reduce(ctx, filtered.Included, s.order, s.selections)
	if err != nil {
		return nil, err
	}

	// Published results are shared with subscribers and must not change.
	s.selections = res.Selections.Clone()
	s.seq++

	u := Update{Seq: s.seq, Reason: reason, Filtered: filtered, Result: res}
	s.last = &u

	s.logger.Debug("filter state recomputed",
		slog.Uint64("seq", u.Seq),
		slog.String("reason", reason),
		slog.Int("pool", len(s.pool)),
		slog.Int("visible", len(res.Pool)),
	)

	for _, ch := range s.subs {
		publish(ch, u)
	}

	return &u, nil
}

// publish delivers u, replacing a buffered update the subscriber has not
// read yet.
func publish(ch chan Update, u Update) {
	select {
	case ch <- u:
		return
	default:
	}

	select {
	case <-ch:
	default:
	}

	select {
	case ch <- u:
	default:
	}
}

// Close stops pending work and closes every subscriber channel.
func (s *Store) Close() {
	s.debouncer.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	s.closed = true

	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
}
