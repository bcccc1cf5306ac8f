package browser

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/booklore-app/booklore/internal/book"
	"github.com/booklore-app/booklore/internal/query"
	"github.com/booklore-app/booklore/internal/scope"
	"github.com/booklore-app/booklore/internal/sorting"
	"github.com/booklore-app/booklore/internal/store"
)

// Repository supplies collection snapshots. Implemented by *store.Store.
type Repository interface {
	Books(ctx context.Context) ([]book.Book, error)
}

// PreferenceSource supplies stored sort preferences. Implemented by
// *store.Store.
type PreferenceSource interface {
	SortPreferences(ctx context.Context, sc scope.Scope) (sorting.Preferences, error)
}

// View is a live browse view.
//
// Thread-safety model:
//   - Submit, Subscribe, Latest, State, Stop: safe from any goroutine
//   - Run: must be called from exactly one goroutine
//
// The state, the cached snapshot and the pipeline are only touched by
// Run, so recomputations never overlap.
type View struct {
	repo     Repository
	pipeline *query.Pipeline
	logger   *slog.Logger
	queue    *changeQueue

	prefs        PreferenceSource
	urlSort      string
	urlDirection string

	// Owned by Run.
	books []book.Book
	stale bool

	mu     sync.RWMutex
	state  query.State
	latest *query.Result
	runs   int
	subs   map[int]chan *query.Result
	nextID int
	done   bool
}

// ViewOption configures a View.
type ViewOption func(*View)

// WithLogger sets the view's logger.
func WithLogger(l *slog.Logger) ViewOption {
	return func(v *View) {
		v.logger = l
	}
}

// WithSortPreferences makes the view pick the sort again from prefs each
// time it enters a scope. urlSort and urlDirection stand for the URL
// parameters in sorting.Resolve; empty values fall through to the default.
func WithSortPreferences(prefs PreferenceSource, urlSort, urlDirection string) ViewOption {
	return func(v *View) {
		v.prefs = prefs
		v.urlSort = urlSort
		v.urlDirection = urlDirection
	}
}

// NewView creates a view that starts from initial. Nothing is computed
// until Run is called.
func NewView(repo Repository, pipeline *query.Pipeline, initial query.State, opts ...ViewOption) *View {
	v := &View{
		repo:     repo,
		pipeline: pipeline,
		logger:   slog.Default(),
		queue:    newChangeQueue(),
		stale:    true,
		state:    initial,
		subs:     make(map[int]chan *query.Result),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Submit queues a change for the Run loop.
// Returns false once the view has stopped.
func (v *View) Submit(c Change) bool {
	return v.queue.Enqueue(c)
}

// Subscribe returns a channel that receives each new Result. The channel
// holds at most one result; an unread result is replaced by a newer one.
// The returned function unsubscribes. Channels are closed when Run exits.
func (v *View) Subscribe() (<-chan *query.Result, func()) {
	ch := make(chan *query.Result, 1)

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.done {
		close(ch)
		return ch, func() {}
	}
	id := v.nextID
	v.nextID++
	v.subs[id] = ch

	return ch, func() {
		v.mu.Lock()
		defer v.mu.Unlock()
		if c, ok := v.subs[id]; ok {
			close(c)
			delete(v.subs, id)
		}
	}
}

// Latest returns the most recent result, or nil before the first run.
func (v *View) Latest() *query.Result {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.latest
}

// State returns the state the latest result was computed from.
func (v *View) State() query.State {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.state
}

// Runs returns how many times the pipeline has been run.
func (v *View) Runs() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.runs
}

// Stop closes the change queue; Run returns once it notices.
func (v *View) Stop() {
	v.queue.Close()
}

// Run computes the initial result, then applies queued changes until ctx
// is cancelled or Stop is called.
//
// All changes pending when Run wakes are applied together and followed
// by a single recomputation. A failed recomputation (for example the
// repository being unavailable) is logged and the previous result stays
// current.
func (v *View) Run(ctx context.Context) error {
	defer v.shutdown()
	v.logger.Debug("view starting", "scope", v.State().Scope.String())

	if err := v.recompute(ctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		v.logger.Warn("view recompute failed", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			v.logger.Debug("view stopping: context cancelled")
			v.queue.Close()
			return ctx.Err()

		case _, ok := <-v.queue.Wait():
			changes := v.queue.DrainAll()
			if len(changes) > 0 {
				v.applyChanges(ctx, changes)
				if err := v.recompute(ctx); err != nil {
					if ctx.Err() != nil {
						return ctx.Err()
					}
					v.logger.Warn("view recompute failed", "error", err, "changes", len(changes))
				}
			}
			if !ok {
				v.logger.Debug("view stopping: queue closed")
				return nil
			}
		}
	}
}

// Follow forwards repository notifications into the view until changes
// is closed or ctx is done. Run it on its own goroutine.
func (v *View) Follow(ctx context.Context, changes <-chan store.Change) {
	for {
		select {
		case <-ctx.Done():
			return
		case c, ok := <-changes:
			if !ok {
				return
			}
			if vc, relevant := FromStore(c); relevant {
				if !v.Submit(vc) {
					return
				}
			}
		}
	}
}

// applyChanges folds a batch into the state and handles cache effects.
// Entering a scope picks the sort again unless a later change in the same
// batch sets it explicitly. Called only from Run.
func (v *View) applyChanges(ctx context.Context, changes []Change) {
	v.mu.RLock()
	st := v.state
	v.mu.RUnlock()

	selector := v.pipeline.Selector()
	entered := false
	for _, c := range changes {
		v.logger.Debug("view change", "kind", c.Kind.String())
		switch c.Kind {
		case ChangeCollection:
			v.stale = true
		case ChangeResync:
			v.stale = true
			selector.InvalidateAll()
		case ChangeMagicShelf:
			selector.Invalidate(c.ShelfID)
		case ChangeMagicShelfDeleted:
			selector.Invalidate(c.ShelfID)
			if st.Scope == scope.MagicShelf(c.ShelfID) {
				st = st.WithScope(scope.All())
				entered = true
			}
		case ChangeScope:
			st = apply(st, c)
			entered = true
		case ChangeSort:
			st = apply(st, c)
			entered = false
		default:
			st = apply(st, c)
		}
	}
	if entered {
		st = v.resolveSort(ctx, st)
	}

	v.mu.Lock()
	v.state = st
	v.mu.Unlock()
}

// resolveSort applies the sort preferences of st's scope. Without a
// preference source, or when the lookup fails, the current sort stays.
func (v *View) resolveSort(ctx context.Context, st query.State) query.State {
	if v.prefs == nil {
		return st
	}
	prefs, err := v.prefs.SortPreferences(ctx, st.Scope)
	if err != nil {
		v.logger.Warn("reading sort preferences failed", "scope", st.Scope.String(), "error", err)
		return st
	}
	return st.WithSort(sorting.Resolve(prefs, v.urlSort, v.urlDirection))
}

// recompute refreshes the snapshot if needed, runs the pipeline and
// publishes the result. Called only from Run.
func (v *View) recompute(ctx context.Context) error {
	if v.stale {
		books, err := v.repo.Books(ctx)
		if err != nil {
			return err
		}
		v.books = books
		v.stale = false
	}

	st := v.State()
	res, err := v.pipeline.Run(ctx, v.books, st)
	if err != nil {
		return err
	}
	if res.Broken {
		v.logger.Warn("view scope is broken", "scope", st.Scope.String(), "warnings", res.Warnings)
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.latest = res
	v.runs++
	for _, ch := range v.subs {
		// Replace an unread result; only Run sends, so the send cannot block.
		select {
		case ch <- res:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- res
		}
	}
	return nil
}

func (v *View) shutdown() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.done = true
	for id, ch := range v.subs {
		close(ch)
		delete(v.subs, id)
	}
}

// ErrStopped is returned by Snapshot when the view stopped before
// producing a result.
var ErrStopped = errors.New("view stopped")

// Snapshot waits for the next result published after the call, or
// returns the latest one if the view has already stopped.
func (v *View) Snapshot(ctx context.Context) (*query.Result, error) {
	ch, cancel := v.Subscribe()
	defer cancel()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res, ok := <-ch:
		if !ok {
			if latest := v.Latest(); latest != nil {
				return latest, nil
			}
			return nil, ErrStopped
		}
		return res, nil
	}
}
