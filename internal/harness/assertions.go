package harness

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/booklore-app/booklore/internal/facet"
	"github.com/booklore-app/booklore/internal/query"
)

// checkExpect compares a pipeline result with a step's expectations and
// returns one message per mismatch, in a stable order.
func checkExpect(e *Expect, res *query.Result) []string {
	var errs []string
	ids := make([]int64, len(res.Books))
	for i, b := range res.Books {
		ids[i] = b.ID
	}

	if e.Books != nil && !slices.Equal(e.Books, ids) {
		errs = append(errs, fmt.Sprintf("books: expected %v, got %v", e.Books, ids))
	}
	if e.Empty && !res.NoMatches {
		errs = append(errs, fmt.Sprintf("books: expected no matches, got %v", ids))
	}
	if e.Label != "" && e.Label != res.ScopeLabel {
		errs = append(errs, fmt.Sprintf("label: expected %q, got %q", e.Label, res.ScopeLabel))
	}
	if e.Sort != "" && e.Sort != res.Sort.String() {
		errs = append(errs, fmt.Sprintf("sort: expected %q, got %q", e.Sort, res.Sort.String()))
	}
	if e.Broken != nil && *e.Broken != res.Broken {
		errs = append(errs, fmt.Sprintf("broken: expected %t, got %t", *e.Broken, res.Broken))
	}

	errs = append(errs, checkFacets(e.Facets, res.Facets)...)

	seriesIDs := make([]int64, 0, len(e.SeriesCounts))
	for id := range e.SeriesCounts {
		seriesIDs = append(seriesIDs, id)
	}
	slices.Sort(seriesIDs)
	for _, id := range seriesIDs {
		if got := res.SeriesCounts[id]; got != e.SeriesCounts[id] {
			errs = append(errs, fmt.Sprintf("series count of book %d: expected %d, got %d", id, e.SeriesCounts[id], got))
		}
	}

	for _, want := range e.Warnings {
		if !slices.ContainsFunc(res.Warnings, func(w string) bool { return strings.Contains(w, want) }) {
			errs = append(errs, fmt.Sprintf("warnings: expected one containing %q, got %q", want, res.Warnings))
		}
	}
	return errs
}

func checkFacets(want map[string]map[string]int, facets []facet.Facet) []string {
	var errs []string
	attrs := make([]string, 0, len(want))
	for attr := range want {
		attrs = append(attrs, attr)
	}
	sort.Strings(attrs)

	for _, attr := range attrs {
		counts := map[string]int{}
		if f, ok := findFacet(facets, facet.Attribute(attr)); ok {
			for _, filter := range f.Filters {
				counts[filter.Value.ID] = filter.BookCount
			}
		}

		values := make([]string, 0, len(want[attr]))
		for id := range want[attr] {
			values = append(values, id)
		}
		sort.Strings(values)
		for _, id := range values {
			if got := counts[id]; got != want[attr][id] {
				errs = append(errs, fmt.Sprintf("facet %s value %q: expected %d books, got %d", attr, id, want[attr][id], got))
			}
		}
	}
	return errs
}
