package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/booklore-app/booklore/internal/book"
	"github.com/booklore-app/booklore/internal/compiler"
	"github.com/booklore-app/booklore/internal/facet"
	"github.com/booklore-app/booklore/internal/query"
	"github.com/booklore-app/booklore/internal/scope"
	"github.com/booklore-app/booklore/internal/sorting"
	"github.com/booklore-app/booklore/internal/store"
	"github.com/booklore-app/booklore/internal/testutil"
)

// Harness runs scenarios against a store with a fixed result token.
type Harness struct {
	store    *store.Store
	pipeline *query.Pipeline
	logger   *slog.Logger
	clock    *testutil.DeterministicClock
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
// Execution flow:
//  1. Seed libraries, shelves, magic shelves, preferences and books
//  2. Take one collection snapshot
//  3. For each step, update the state, run the pipeline and check the
//     step's expectations
//
// Failed expectations are reported in Result.Errors; the returned error
// is reserved for scenarios that cannot run at all.
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	token := scenario.Token
	if token == "" {
		token = DefaultToken
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // Suppress logs in tests
	selector := scope.NewSelector(st, scope.WithLogger(logger))
	h := &Harness{
		store:    st,
		pipeline: query.NewPipeline(selector, testutil.NewFixedTokenGenerator(token), query.WithLogger(logger)),
		logger:   logger,
		clock:    testutil.NewDeterministicClock(),
	}

	ctx := context.Background()
	if err := h.seed(ctx, scenario); err != nil {
		return nil, err
	}
	books, err := st.Books(ctx)
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}

	result := NewResult(token)
	state := query.DefaultState()
	for _, step := range scenario.Steps {
		state, err = h.applyStep(ctx, state, step)
		if err != nil {
			return nil, fmt.Errorf("step %q: %w", step.Name, err)
		}

		res, err := h.pipeline.Run(ctx, books, state)
		if err != nil {
			return nil, fmt.Errorf("step %q: %w", step.Name, err)
		}
		result.Steps = append(result.Steps, newStepResult(step, res))

		if step.Expect != nil {
			for _, msg := range checkExpect(step.Expect, res) {
				result.AddError(fmt.Sprintf("step %q: %s", step.Name, msg))
			}
		}
	}
	return result, nil
}

// seed writes the scenario's fixtures. Libraries and shelves referenced
// by books but not declared are created with generic names.
func (h *Harness) seed(ctx context.Context, s *Scenario) error {
	libraries := slices.Clone(s.Libraries)
	shelves := slices.Clone(s.Shelves)
	for _, b := range s.Books {
		if !slices.ContainsFunc(libraries, func(l book.Library) bool { return l.ID == b.LibraryID }) {
			libraries = append(libraries, book.Library{ID: b.LibraryID, Name: fmt.Sprintf("Library %d", b.LibraryID)})
		}
		for _, id := range b.Shelves {
			if !slices.ContainsFunc(shelves, func(sh book.Shelf) bool { return sh.ID == id }) {
				shelves = append(shelves, book.Shelf{ID: id, Name: fmt.Sprintf("Shelf %d", id)})
			}
		}
	}

	for _, lib := range libraries {
		if err := h.store.PutLibrary(ctx, lib); err != nil {
			return fmt.Errorf("seed library %d: %w", lib.ID, err)
		}
	}
	for _, sh := range shelves {
		if err := h.store.PutShelf(ctx, sh); err != nil {
			return fmt.Errorf("seed shelf %d: %w", sh.ID, err)
		}
	}
	if len(s.MagicShelves) > 0 {
		if err := h.store.ImportMagicShelves(ctx, slices.Clone(s.MagicShelves)); err != nil {
			return fmt.Errorf("seed magic shelves: %w", err)
		}
	}
	for _, path := range s.ShelfFiles {
		if err := h.saveShelfFile(ctx, path); err != nil {
			return err
		}
	}

	for _, p := range s.SortPreferences {
		dir, ok := sorting.ParseDirection(p.Direction)
		if !ok {
			dir = sorting.Asc
		}
		pref := sorting.Preference{SortKey: p.SortKey, Direction: dir}
		if p.Scope == "global" {
			if err := h.store.SetGlobalSortPreference(ctx, pref); err != nil {
				return fmt.Errorf("seed global sort preference: %w", err)
			}
			continue
		}
		sc, err := scope.Parse(p.Scope)
		if err != nil {
			return err
		}
		if err := h.store.SetSortPreference(ctx, sc, pref); err != nil {
			return fmt.Errorf("seed sort preference %s: %w", p.Scope, err)
		}
	}

	// Books without added_on are stamped in listing order, so a later
	// entry is newer.
	books := make([]book.Book, len(s.Books))
	for i, b := range s.Books {
		if b.AddedOn.IsZero() {
			b.AddedOn = h.clock.Next()
		}
		books[i] = b
	}
	if err := h.store.PutBooks(ctx, books); err != nil {
		return fmt.Errorf("seed books: %w", err)
	}
	return nil
}

// saveShelfFile compiles every shelf in a CUE file and saves it.
func (h *Harness) saveShelfFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read shelf file: %w", err)
	}
	v := cuecontext.New().CompileBytes(data, cue.Filename(path))
	if err := v.Err(); err != nil {
		return fmt.Errorf("compile %s: %w", path, err)
	}

	iter, err := v.LookupPath(cue.ParsePath("shelf")).Fields()
	if err != nil {
		return fmt.Errorf("%s: iterating shelves: %w", path, err)
	}
	for iter.Next() {
		ms, err := compiler.CompileShelf(iter.Value())
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if _, err := h.store.SaveMagicShelf(ctx, *ms); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	return nil
}

// applyStep folds a step's changes into the state.
func (h *Harness) applyStep(ctx context.Context, st query.State, step Step) (query.State, error) {
	if step.Scope != "" {
		sc, err := scope.Parse(step.Scope)
		if err != nil {
			return st, err
		}
		st = st.WithScope(sc)
	}
	if step.URL != "" {
		u, err := query.ParseRawQuery(step.URL)
		if err != nil {
			return st, err
		}
		prefs, err := h.store.SortPreferences(ctx, st.Scope)
		if err != nil {
			return st, err
		}
		st = query.StateFromURL(u, prefs, st)
	}
	if step.Search != nil {
		st = st.WithSearch(*step.Search)
	}
	if step.Join != "" {
		st = st.WithJoin(facet.ParseJoin(step.Join))
	}
	if step.CollapseSeries != nil {
		st = st.WithCollapseSeries(*step.CollapseSeries)
	}
	if step.FacetSort != "" {
		st = st.WithFacetSort(facet.ParseSortMode(step.FacetSort))
	}
	return st, nil
}
