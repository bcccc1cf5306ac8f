package facet

import (
	"strings"

	"github.com/booklore-app/booklore/internal/book"
)

// Join combines matches across attributes.
type Join string

const (
	JoinAnd Join = "and"
	JoinOr  Join = "or"
)

// ParseJoin returns the join named by s (case-insensitive), or JoinAnd.
func ParseJoin(s string) Join {
	if Join(strings.ToLower(strings.TrimSpace(s))) == JoinOr {
		return JoinOr
	}
	return JoinAnd
}

// Apply keeps the books that satisfy sel, preserving order.
//
// Within one attribute the selected values are alternatives. Across
// attributes, JoinAnd requires every active attribute to match and JoinOr
// requires at least one. Selections on attributes without an extractor
// are ignored. With no active selection every book passes.
func Apply(books []book.Book, sel Selection, join Join) []book.Book {
	type active struct {
		attr    Attribute
		extract Extractor
		values  map[string]struct{}
	}

	var filters []active
	for _, attr := range sel.Attributes() {
		def, ok := definitions[attr]
		if !ok {
			continue
		}
		ids := sel[attr]
		if len(ids) == 0 {
			continue
		}
		set := make(map[string]struct{}, len(ids))
		for _, id := range ids {
			set[id] = struct{}{}
		}
		filters = append(filters, active{attr: attr, extract: def.extract, values: set})
	}
	if len(filters) == 0 {
		return books
	}

	out := make([]book.Book, 0, len(books))
	for i := range books {
		b := &books[i]
		matched := join != JoinOr
		for _, f := range filters {
			hit := false
			for _, v := range safeExtract(f.attr, f.extract, b) {
				if _, ok := f.values[v.ID]; ok {
					hit = true
					break
				}
			}
			if join == JoinOr && hit {
				matched = true
				break
			}
			if join != JoinOr && !hit {
				matched = false
				break
			}
		}
		if matched {
			out = append(out, *b)
		}
	}
	return out
}
