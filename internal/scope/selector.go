package scope

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/booklore-app/booklore/internal/book"
	"github.com/booklore-app/booklore/internal/rule"
)

// Source resolves the entities scopes refer to. Implemented by the store.
type Source interface {
	Library(ctx context.Context, id int64) (book.Library, error)
	Shelf(ctx context.Context, id int64) (book.Shelf, error)
	MagicShelf(ctx context.Context, id int64) (book.MagicShelf, error)
}

// Selection is the outcome of applying a scope.
type Selection struct {
	Books    []book.Book
	Label    string
	Warnings []string

	// Broken is set when a magic shelf could not be evaluated (missing,
	// malformed, or without valid rules). Books is then empty.
	Broken bool
}

// compiledShelf caches a magic shelf with its parsed tree. A parse
// failure is cached too so a malformed shelf is reported once per load.
type compiledShelf struct {
	shelf book.MagicShelf
	root  rule.Group
	err   error
}

// Selector applies scopes to collections.
//
// Magic shelf rule trees are parsed once and cached by shelf id. Callers
// must Invalidate a shelf when it is updated or deleted, or InvalidateAll
// when they may have missed such an update.
//
// Thread-safety: Select, Prime, Invalidate and InvalidateAll are safe for
// concurrent use. A fetch that overlaps an invalidation of the same shelf
// is returned to its caller but not cached.
type Selector struct {
	source Source
	logger *slog.Logger

	mu      sync.RWMutex
	shelves map[int64]compiledShelf
	gens    map[int64]uint64 // bumped per shelf on Prime and Invalidate
	epoch   uint64           // bumped on InvalidateAll
}

// SelectorOption configures a Selector.
type SelectorOption func(*Selector)

// WithLogger sets the logger used for configuration warnings.
func WithLogger(l *slog.Logger) SelectorOption {
	return func(s *Selector) {
		s.logger = l
	}
}

// NewSelector creates a selector backed by source. source may be nil, in
// which case only primed magic shelves resolve and entity labels fall
// back to generic names.
func NewSelector(source Source, opts ...SelectorOption) *Selector {
	s := &Selector{
		source:  source,
		logger:  slog.Default(),
		shelves: make(map[int64]compiledShelf),
		gens:    make(map[int64]uint64),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Prime loads magic shelves into the cache, replacing existing entries.
func (s *Selector) Prime(shelves ...book.MagicShelf) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ms := range shelves {
		s.shelves[ms.ID] = compile(ms)
		s.gens[ms.ID]++
	}
}

// Invalidate drops a cached magic shelf so the next use refetches it.
func (s *Selector) Invalidate(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.shelves, id)
	s.gens[id]++
}

// InvalidateAll drops every cached magic shelf.
func (s *Selector) InvalidateAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.shelves)
	s.epoch++
}

// Select returns the books of books that fall in sc, in input order.
//
// Select never fails: an unavailable or broken magic shelf produces an
// empty, Broken selection with a warning so the rest of the view keeps
// rendering.
func (s *Selector) Select(ctx context.Context, books []book.Book, sc Scope) Selection {
	switch sc.Kind {
	case KindAllBooks, "":
		return Selection{Books: books, Label: KindLabel(KindAllBooks)}
	case KindUnshelved:
		return Selection{
			Books: filter(books, (*book.Book).Unshelved),
			Label: KindLabel(KindUnshelved),
		}
	case KindLibrary:
		return Selection{
			Books: filter(books, func(b *book.Book) bool { return b.LibraryID == sc.ID }),
			Label: s.libraryLabel(ctx, sc.ID),
		}
	case KindShelf:
		return Selection{
			Books: filter(books, func(b *book.Book) bool { return b.OnShelf(sc.ID) }),
			Label: s.shelfLabel(ctx, sc.ID),
		}
	case KindMagicShelf:
		return s.selectMagic(ctx, books, sc.ID)
	default:
		return Selection{
			Books:    []book.Book{},
			Label:    KindLabel(KindAllBooks),
			Warnings: []string{fmt.Sprintf("unknown scope kind %q", sc.Kind)},
		}
	}
}

func (s *Selector) selectMagic(ctx context.Context, books []book.Book, id int64) Selection {
	broken := func(label, warning string) Selection {
		s.logger.Warn("magic shelf matches nothing", "shelf_id", id, "reason", warning)
		return Selection{Books: []book.Book{}, Label: label, Warnings: []string{warning}, Broken: true}
	}

	cs, err := s.magicShelf(ctx, id)
	if err != nil {
		return broken(genericLabel(KindMagicShelf, id), fmt.Sprintf("magic shelf %d unavailable: %v", id, err))
	}
	label := cs.shelf.Name
	if label == "" {
		label = genericLabel(KindMagicShelf, id)
	}
	if cs.err != nil {
		return broken(label, fmt.Sprintf("magic shelf %q has a malformed rule tree: %v", label, cs.err))
	}
	if !rule.HasValidRule(cs.root) {
		return broken(label, fmt.Sprintf("magic shelf %q has no valid rules", label))
	}

	var warnings []string
	for _, ve := range rule.Validate(cs.root) {
		s.logger.Warn("magic shelf rule is inert",
			"shelf_id", id,
			"path", ve.Path,
			"code", ve.Code,
			"message", ve.Message,
		)
		warnings = append(warnings, fmt.Sprintf("magic shelf %q: %s", label, ve.Error()))
	}

	return Selection{
		Books:    filter(books, rule.Matcher(cs.root)),
		Label:    label,
		Warnings: warnings,
	}
}

// magicShelf returns the cached shelf, fetching and caching it on a miss.
// Fetch errors are not cached.
func (s *Selector) magicShelf(ctx context.Context, id int64) (compiledShelf, error) {
	s.mu.RLock()
	cs, ok := s.shelves[id]
	gen, epoch := s.gens[id], s.epoch
	s.mu.RUnlock()
	if ok {
		return cs, nil
	}

	if s.source == nil {
		return compiledShelf{}, fmt.Errorf("magic shelf %d not loaded", id)
	}
	ms, err := s.source.MagicShelf(ctx, id)
	if err != nil {
		return compiledShelf{}, err
	}

	cs = compile(ms)
	s.mu.Lock()
	if s.gens[id] == gen && s.epoch == epoch {
		s.shelves[id] = cs
	}
	s.mu.Unlock()
	return cs, nil
}

func (s *Selector) libraryLabel(ctx context.Context, id int64) string {
	if s.source != nil {
		if lib, err := s.source.Library(ctx, id); err == nil && lib.Name != "" {
			return lib.Name
		}
	}
	return genericLabel(KindLibrary, id)
}

func (s *Selector) shelfLabel(ctx context.Context, id int64) string {
	if s.source != nil {
		if sh, err := s.source.Shelf(ctx, id); err == nil && sh.Name != "" {
			return sh.Name
		}
	}
	return genericLabel(KindShelf, id)
}

func compile(ms book.MagicShelf) compiledShelf {
	root, err := rule.ParseString(ms.FilterJSON)
	return compiledShelf{shelf: ms, root: root, err: err}
}

func genericLabel(k Kind, id int64) string {
	return fmt.Sprintf("%s %d", KindLabel(k), id)
}

func filter(books []book.Book, keep func(*book.Book) bool) []book.Book {
	out := make([]book.Book, 0, len(books))
	for i := range books {
		if keep(&books[i]) {
			out = append(out, books[i])
		}
	}
	return out
}
