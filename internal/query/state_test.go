package query

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/booklore-app/booklore/internal/facet"
	"github.com/booklore-app/booklore/internal/scope"
	"github.com/booklore-app/booklore/internal/sorting"
)

func TestDefaultState(t *testing.T) {
	st := DefaultState()
	assert.Equal(t, scope.All(), st.Scope)
	assert.Equal(t, sorting.Default, st.Sort)
	assert.Equal(t, facet.JoinAnd, st.Join)
	assert.Equal(t, facet.SortByCount, st.FacetSort)
	assert.False(t, st.CollapseSeries)
	assert.False(t, st.Filters.Active())
}

func TestState_CopiesOnWrite(t *testing.T) {
	base := DefaultState().ToggleFilter(facet.AttrAuthor, "A")

	toggled := base.ToggleFilter(facet.AttrAuthor, "B")
	assert.Equal(t, []string{"A"}, base.Filters[facet.AttrAuthor])
	assert.Equal(t, []string{"A", "B"}, toggled.Filters[facet.AttrAuthor])

	joined := base.WithJoin(facet.JoinOr)
	joined.Filters[facet.AttrAuthor][0] = "Z"
	assert.Equal(t, "A", base.Filters[facet.AttrAuthor][0])
	assert.Equal(t, facet.JoinAnd, base.Join)

	sel := facet.Selection{facet.AttrSeries: {"Dune"}}
	withSel := base.WithFilters(sel)
	sel[facet.AttrSeries][0] = "Foundation"
	assert.Equal(t, []string{"Dune"}, withSel.Filters[facet.AttrSeries])
}

func TestState_ForceExpandSeries(t *testing.T) {
	st := DefaultState()
	assert.False(t, st.ForceExpandSeries())
	assert.True(t, st.ToggleFilter(facet.AttrSeries, "Dune").ForceExpandSeries())
	assert.False(t, st.ToggleFilter(facet.AttrSeries, "Dune").ToggleFilter(facet.AttrSeries, "Dune").ForceExpandSeries())
}
