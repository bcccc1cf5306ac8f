package query

import (
	"github.com/booklore-app/booklore/internal/facet"
	"github.com/booklore-app/booklore/internal/scope"
	"github.com/booklore-app/booklore/internal/sorting"
)

// State is everything a pipeline run depends on besides the books.
//
// State is a value: the With* methods return modified copies and never
// touch the receiver, so a State handed to Run cannot change underneath
// it.
type State struct {
	Scope          scope.Scope     `json:"scope"`
	Sort           sorting.Option  `json:"sort"`
	SearchTerm     string          `json:"search_term,omitempty"`
	Filters        facet.Selection `json:"filters,omitempty"`
	Join           facet.Join      `json:"join"`
	CollapseSeries bool            `json:"collapse_series"`
	FacetSort      facet.SortMode  `json:"facet_sort"`
}

// DefaultState browses all books in the default order with no filters.
func DefaultState() State {
	return State{
		Scope:     scope.All(),
		Sort:      sorting.Default,
		Join:      facet.JoinAnd,
		FacetSort: facet.DefaultSortMode,
	}
}

// clone copies the state, including the filter map.
func (s State) clone() State {
	s.Filters = s.Filters.Clone()
	return s
}

func (s State) WithScope(sc scope.Scope) State {
	out := s.clone()
	out.Scope = sc
	return out
}

func (s State) WithSort(opt sorting.Option) State {
	out := s.clone()
	out.Sort = opt
	return out
}

func (s State) WithSearch(term string) State {
	out := s.clone()
	out.SearchTerm = term
	return out
}

// WithFilters replaces the whole selection. sel is copied.
func (s State) WithFilters(sel facet.Selection) State {
	out := s
	out.Filters = sel.Clone()
	return out
}

// ToggleFilter adds id to attr's selection, or removes it when present.
func (s State) ToggleFilter(attr facet.Attribute, id string) State {
	out := s
	out.Filters = s.Filters.Toggle(attr, id)
	return out
}

func (s State) WithJoin(j facet.Join) State {
	out := s.clone()
	out.Join = j
	return out
}

func (s State) WithCollapseSeries(on bool) State {
	out := s.clone()
	out.CollapseSeries = on
	return out
}

func (s State) WithFacetSort(m facet.SortMode) State {
	out := s.clone()
	out.FacetSort = m
	return out
}

// ForceExpandSeries reports whether the selection targets the series
// facet, in which case every volume stays visible.
func (s State) ForceExpandSeries() bool {
	return s.Filters.Has(facet.AttrSeries)
}
