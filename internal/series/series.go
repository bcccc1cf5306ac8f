// Package series collapses books of the same series into one entry.
package series

import "github.com/booklore-app/booklore/internal/book"

// Options controls collapsing.
type Options struct {
	// Enabled is the user's "collapse series" preference.
	Enabled bool

	// ForceExpand disables collapsing regardless of Enabled. Set when the
	// active selection targets the series attribute, where the user wants
	// to see every volume.
	ForceExpand bool
}

// Active reports whether Collapse will change its input.
func (o Options) Active() bool {
	return o.Enabled && !o.ForceExpand
}

// Collapse keeps the first book of each series in the current order and
// passes books without a series through. Series are identified by
// case-insensitive trimmed name. Collapse is idempotent.
func Collapse(books []book.Book, opts Options) []book.Book {
	if !opts.Active() {
		return books
	}

	seen := make(map[string]struct{})
	out := make([]book.Book, 0, len(books))
	for i := range books {
		key := books[i].SeriesKey()
		if key == "" {
			out = append(out, books[i])
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, books[i])
	}
	return out
}

// Counts returns the number of books per series, keyed by the id of the
// book that represents the series after Collapse. Books outside a series
// are not listed.
func Counts(books []book.Book) map[int64]int {
	first := make(map[string]int64)
	counts := make(map[int64]int)
	for i := range books {
		key := books[i].SeriesKey()
		if key == "" {
			continue
		}
		id, ok := first[key]
		if !ok {
			id = books[i].ID
			first[key] = id
		}
		counts[id]++
	}
	return counts
}
