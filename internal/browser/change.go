package browser

import (
	"github.com/booklore-app/booklore/internal/facet"
	"github.com/booklore-app/booklore/internal/query"
	"github.com/booklore-app/booklore/internal/scope"
	"github.com/booklore-app/booklore/internal/sorting"
	"github.com/booklore-app/booklore/internal/store"
)

// ChangeKind distinguishes queued changes.
type ChangeKind int

const (
	ChangeScope ChangeKind = iota + 1
	ChangeSort
	ChangeSearch
	ChangeFilters
	ChangeToggleFilter
	ChangeJoin
	ChangeCollapseSeries
	ChangeFacetSort
	// ChangeCollection means the repository snapshot is stale.
	ChangeCollection
	// ChangeMagicShelf means a magic shelf was saved; its cached rule
	// tree must be dropped.
	ChangeMagicShelf
	// ChangeMagicShelfDeleted means a magic shelf is gone.
	ChangeMagicShelfDeleted
	// ChangeResync means notifications were lost; every cache is dropped.
	ChangeResync
)

var changeKindNames = map[ChangeKind]string{
	ChangeScope:             "scope",
	ChangeSort:              "sort",
	ChangeSearch:            "search",
	ChangeFilters:           "filters",
	ChangeToggleFilter:      "toggle_filter",
	ChangeJoin:              "join",
	ChangeCollapseSeries:    "collapse_series",
	ChangeFacetSort:         "facet_sort",
	ChangeCollection:        "collection",
	ChangeMagicShelf:        "magic_shelf",
	ChangeMagicShelfDeleted: "magic_shelf_deleted",
	ChangeResync:            "resync",
}

func (k ChangeKind) String() string {
	if name, ok := changeKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Change is one queued input. Only the fields relevant to Kind are set.
type Change struct {
	Kind ChangeKind

	Scope     scope.Scope
	Sort      sorting.Option
	Term      string
	Filters   facet.Selection
	Attribute facet.Attribute
	Value     string
	Join      facet.Join
	Collapse  bool
	FacetSort facet.SortMode
	ShelfID   int64
}

func SetScope(sc scope.Scope) Change { return Change{Kind: ChangeScope, Scope: sc} }

func SetSort(opt sorting.Option) Change { return Change{Kind: ChangeSort, Sort: opt} }

func SetSearch(term string) Change { return Change{Kind: ChangeSearch, Term: term} }

func SetFilters(sel facet.Selection) Change {
	return Change{Kind: ChangeFilters, Filters: sel.Clone()}
}

func ToggleFilter(attr facet.Attribute, value string) Change {
	return Change{Kind: ChangeToggleFilter, Attribute: attr, Value: value}
}

func SetJoin(j facet.Join) Change { return Change{Kind: ChangeJoin, Join: j} }

func SetCollapseSeries(on bool) Change { return Change{Kind: ChangeCollapseSeries, Collapse: on} }

func SetFacetSort(m facet.SortMode) Change { return Change{Kind: ChangeFacetSort, FacetSort: m} }

func CollectionChanged() Change { return Change{Kind: ChangeCollection} }

func MagicShelfChanged(id int64) Change { return Change{Kind: ChangeMagicShelf, ShelfID: id} }

func MagicShelfDeleted(id int64) Change { return Change{Kind: ChangeMagicShelfDeleted, ShelfID: id} }

func Resync() Change { return Change{Kind: ChangeResync} }

// FromStore translates a repository notification. Preference writes do
// not affect a running view and report false.
func FromStore(c store.Change) (Change, bool) {
	switch c.Kind {
	case store.ChangeBook, store.ChangeLibrary, store.ChangeShelf:
		return CollectionChanged(), true
	case store.ChangeMagicShelf:
		return MagicShelfChanged(c.ID), true
	case store.ChangeMagicShelfDeleted:
		return MagicShelfDeleted(c.ID), true
	case store.ChangeResync:
		return Resync(), true
	default:
		return Change{}, false
	}
}

// apply folds c into st. Repository changes leave the state untouched.
func apply(st query.State, c Change) query.State {
	switch c.Kind {
	case ChangeScope:
		return st.WithScope(c.Scope)
	case ChangeSort:
		return st.WithSort(c.Sort)
	case ChangeSearch:
		return st.WithSearch(c.Term)
	case ChangeFilters:
		return st.WithFilters(c.Filters)
	case ChangeToggleFilter:
		return st.ToggleFilter(c.Attribute, c.Value)
	case ChangeJoin:
		return st.WithJoin(c.Join)
	case ChangeCollapseSeries:
		return st.WithCollapseSeries(c.Collapse)
	case ChangeFacetSort:
		return st.WithFacetSort(c.FacetSort)
	default:
		return st
	}
}
