package facet

import (
	"fmt"
	"log/slog"
	"slices"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/booklore-app/booklore/internal/book"
)

// SortMode orders the values of a facet.
type SortMode string

const (
	SortByCount      SortMode = "count"        // most books first
	SortAlphabetical SortMode = "alphabetical" // by name, locale aware
	SortBySortIndex  SortMode = "sortIndex"    // by declared bucket order
)

// DefaultSortMode is used when no preference is stored.
const DefaultSortMode = SortByCount

// missingSortIndex places values without an index last.
const missingSortIndex = 999

// ParseSortMode returns the mode named by s, or DefaultSortMode.
func ParseSortMode(s string) SortMode {
	switch m := SortMode(s); m {
	case SortByCount, SortAlphabetical, SortBySortIndex:
		return m
	default:
		return DefaultSortMode
	}
}

// Filter is a facet value with the number of books carrying it.
type Filter struct {
	Value     Value `json:"value"`
	BookCount int   `json:"book_count"`
}

// Facet is one attribute's derived filters.
type Facet struct {
	Attribute Attribute `json:"attribute"`
	Label     string    `json:"label"`
	Filters   []Filter  `json:"filters"`
}

// Derive counts the values of attr across books and orders them.
//
// Each book counts at most once per value. Ranged attributes are always
// ordered by SortIndex; other attributes use mode. Unknown attributes
// yield no filters.
func Derive(books []book.Book, attr Attribute, mode SortMode) []Filter {
	def, ok := definitions[attr]
	if !ok {
		return nil
	}

	index := make(map[string]int)
	var filters []Filter
	for i := range books {
		seen := make(map[string]struct{}, 2)
		for _, v := range safeExtract(attr, def.extract, &books[i]) {
			if v.ID == "" {
				continue
			}
			if _, dup := seen[v.ID]; dup {
				continue
			}
			seen[v.ID] = struct{}{}

			if at, ok := index[v.ID]; ok {
				filters[at].BookCount++
				continue
			}
			index[v.ID] = len(filters)
			filters = append(filters, Filter{Value: v, BookCount: 1})
		}
	}

	if def.ranged {
		mode = SortBySortIndex
	}
	sortFilters(filters, mode)
	return filters
}

// DeriveAll derives every attribute in sidebar order, omitting
// attributes with no values in books.
func DeriveAll(books []book.Book, mode SortMode) []Facet {
	facets := make([]Facet, 0, len(Attributes))
	for _, attr := range Attributes {
		filters := Derive(books, attr, mode)
		if len(filters) == 0 {
			continue
		}
		facets = append(facets, Facet{Attribute: attr, Label: Label(attr), Filters: filters})
	}
	return facets
}

// safeExtract runs an extractor, treating a panic as "no values" so one
// bad record cannot take down derivation for the whole collection.
func safeExtract(attr Attribute, extract Extractor, b *book.Book) (values []Value) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("facet extractor failed",
				"attribute", attr,
				"book_id", b.ID,
				"panic", fmt.Sprint(r),
			)
			values = nil
		}
	}()
	return extract(b)
}

func sortFilters(filters []Filter, mode SortMode) {
	// Collators keep internal buffers; one per call keeps Derive re-entrant.
	coll := collate.New(language.English, collate.IgnoreCase, collate.IgnoreDiacritics)
	byName := func(a, b Filter) int {
		if c := coll.CompareString(a.Value.Name, b.Value.Name); c != 0 {
			return c
		}
		return compareStrings(a.Value.ID, b.Value.ID)
	}

	switch mode {
	case SortBySortIndex:
		slices.SortStableFunc(filters, func(a, b Filter) int {
			ai, bi := a.Value.SortIndex, b.Value.SortIndex
			if ai < 0 {
				ai = missingSortIndex
			}
			if bi < 0 {
				bi = missingSortIndex
			}
			if ai != bi {
				return ai - bi
			}
			return byName(a, b)
		})
	case SortAlphabetical:
		slices.SortStableFunc(filters, byName)
	default:
		slices.SortStableFunc(filters, func(a, b Filter) int {
			if a.BookCount != b.BookCount {
				return b.BookCount - a.BookCount
			}
			return byName(a, b)
		})
	}
}

func compareStrings(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
