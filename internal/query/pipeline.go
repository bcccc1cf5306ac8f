package query

import (
	"context"
	"log/slog"

	"github.com/booklore-app/booklore/internal/book"
	"github.com/booklore-app/booklore/internal/facet"
	"github.com/booklore-app/booklore/internal/scope"
	"github.com/booklore-app/booklore/internal/search"
	"github.com/booklore-app/booklore/internal/series"
	"github.com/booklore-app/booklore/internal/sorting"
)

// Result is the output of one pipeline run.
type Result struct {
	// Token identifies the run. Tokens from UUIDv7Generator sort by
	// creation time.
	Token string `json:"token"`

	Books  []book.Book    `json:"books"`
	Facets []facet.Facet  `json:"facets"`
	Sort   sorting.Option `json:"sort"`

	Scope      scope.Scope `json:"scope"`
	ScopeLabel string      `json:"scope_label"`
	ScopeCount int         `json:"scope_count"` // books in scope before search and filters

	// SeriesCounts maps the id of each series representative to the
	// number of matching volumes. Only set when series are collapsed.
	SeriesCounts map[int64]int `json:"series_counts,omitempty"`

	Warnings []string `json:"warnings,omitempty"`

	// NoMatches is set when Books is empty. Broken is additionally set
	// when the scope is a magic shelf that could not be evaluated.
	NoMatches bool `json:"no_matches"`
	Broken    bool `json:"broken"`
}

// Pipeline runs queries against book snapshots.
//
// Thread-safety: Run is safe for concurrent use; the only shared state
// is the selector's magic shelf cache, which guards itself.
type Pipeline struct {
	selector *scope.Selector
	tokens   TokenGenerator
	logger   *slog.Logger
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithLogger sets the pipeline's logger.
func WithLogger(l *slog.Logger) PipelineOption {
	return func(p *Pipeline) {
		p.logger = l
	}
}

// NewPipeline creates a pipeline that resolves scopes with selector.
// A nil tokens uses UUIDv7Generator.
func NewPipeline(selector *scope.Selector, tokens TokenGenerator, opts ...PipelineOption) *Pipeline {
	if tokens == nil {
		tokens = UUIDv7Generator{}
	}
	p := &Pipeline{
		selector: selector,
		tokens:   tokens,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Selector returns the scope selector, for cache invalidation.
func (p *Pipeline) Selector() *scope.Selector {
	return p.selector
}

// Run applies st to books. books is not modified.
//
// Run fails only when ctx is done. Broken magic shelves and inert rules
// are reported through Result.Broken and Result.Warnings.
func (p *Pipeline) Run(ctx context.Context, books []book.Book, st State) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	token := p.tokens.Generate()

	sel := p.selector.Select(ctx, books, st.Scope)
	facets := facet.DeriveAll(sel.Books, st.FacetSort)

	opt, ok := sorting.Lookup(st.Sort.Field, st.Sort.Direction)
	if !ok {
		opt = sorting.Default
	}
	sorted := sorting.Apply(sel.Books, opt)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	matched := search.Filter(sorted, st.SearchTerm)
	matched = facet.Apply(matched, st.Filters, st.Join)

	collapse := series.Options{Enabled: st.CollapseSeries, ForceExpand: st.ForceExpandSeries()}
	var counts map[int64]int
	if collapse.Active() {
		counts = series.Counts(matched)
	}
	out := series.Collapse(matched, collapse)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.logger.Debug("pipeline run",
		"token", token,
		"scope", st.Scope.String(),
		"sort", opt.String(),
		"in_scope", len(sel.Books),
		"matched", len(matched),
		"shown", len(out),
		"broken", sel.Broken,
	)

	return &Result{
		Token:        token,
		Books:        out,
		Facets:       facets,
		Sort:         opt,
		Scope:        st.Scope,
		ScopeLabel:   sel.Label,
		ScopeCount:   len(sel.Books),
		SeriesCounts: counts,
		Warnings:     sel.Warnings,
		NoMatches:    len(out) == 0,
		Broken:       sel.Broken,
	}, nil
}
