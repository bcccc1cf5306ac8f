package query

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/gorilla/schema"

	"github.com/booklore-app/booklore/internal/facet"
	"github.com/booklore-app/booklore/internal/sorting"
)

// View modes.
const (
	ViewGrid  = "grid"
	ViewTable = "table"
)

// FromToggle marks a URL produced by the view-mode toggle; only then does
// the view parameter override the stored preference.
const FromToggle = "toggle"

// URLState is the browse state carried in query parameters.
type URLState struct {
	View      string `schema:"view,omitempty"`
	Sort      string `schema:"sort,omitempty"`
	Direction string `schema:"direction,omitempty"`
	Filter    string `schema:"filter,omitempty"`
	Sidebar   string `schema:"sidebar,omitempty"`
	From      string `schema:"from,omitempty"`
}

// ParseURL decodes query parameters. Unknown keys are ignored.
func ParseURL(values url.Values) (URLState, error) {
	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)

	var u URLState
	if err := decoder.Decode(&u, values); err != nil {
		return URLState{}, fmt.Errorf("decoding query parameters: %w", err)
	}
	return u, nil
}

// ParseRawQuery is ParseURL for an encoded query string.
func ParseRawQuery(raw string) (URLState, error) {
	values, err := url.ParseQuery(strings.TrimPrefix(raw, "?"))
	if err != nil {
		return URLState{}, fmt.Errorf("parsing query string: %w", err)
	}
	return ParseURL(values)
}

// Values encodes u, omitting empty parameters.
func (u URLState) Values() url.Values {
	values := url.Values{}
	if err := schema.NewEncoder().Encode(u, values); err != nil {
		// Encode only fails on unsupported field types.
		panic(err)
	}
	return values
}

// Selection decodes the filter parameter.
func (u URLState) Selection() facet.Selection {
	return facet.ParseSelection(u.Filter)
}

// SidebarVisible reports whether the filter sidebar is shown. Absent
// means shown.
func (u URLState) SidebarVisible() bool {
	return u.Sidebar == "" || u.Sidebar == "true"
}

// ViewMode picks grid or table. The view parameter only wins when the URL
// came from the toggle; otherwise the preferred mode applies, then grid.
func (u URLState) ViewMode(preferred string) string {
	if u.From == FromToggle {
		if u.View == ViewGrid || u.View == ViewTable {
			return u.View
		}
		return ViewGrid
	}
	if p := strings.ToLower(preferred); p == ViewGrid || p == ViewTable {
		return p
	}
	return ViewGrid
}

// FilterLabel names the first selected filter for the page header,
// e.g. "Author: Frank Herbert", or "All Books" when nothing is selected.
func (u URLState) FilterLabel() string {
	first, _, _ := strings.Cut(u.Filter, ",")
	key, values, ok := strings.Cut(first, ":")
	key = strings.TrimSpace(key)
	value, _, _ := strings.Cut(values, "|")
	value = strings.TrimSpace(value)
	if !ok || key == "" || value == "" {
		return "All Books"
	}
	return strings.ToUpper(key[:1]) + key[1:] + ": " + value
}

// StateFromURL derives the state for a view entered with u.
//
// The sort follows sorting.Resolve: entity preference, global preference,
// the URL sort parameters, then the default. Filters come from the filter
// parameter; every other field is taken from base.
func StateFromURL(u URLState, prefs sorting.Preferences, base State) State {
	return base.
		WithSort(sorting.Resolve(prefs, u.Sort, u.Direction)).
		WithFilters(u.Selection())
}

// ToURL encodes the state of a view back into query parameters.
func ToURL(st State, view string, sidebar bool) URLState {
	dir := "asc"
	if st.Sort.Direction == sorting.Desc {
		dir = "desc"
	}
	return URLState{
		View:      view,
		Sort:      st.Sort.Field,
		Direction: dir,
		Filter:    st.Filters.String(),
		Sidebar:   fmt.Sprint(sidebar),
	}
}
