package sorting

import (
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/booklore-app/booklore/internal/book"
)

// Apply returns a sorted copy of books. The input is not modified.
// An unknown field falls back to Default.
func Apply(books []book.Book, opt Option) []book.Book {
	def, ok := definitions[opt.Field]
	if !ok {
		def = definitions[Default.Field]
		opt.Direction = Default.Direction
	}

	type item struct {
		key  sortKey
		book book.Book
	}

	// Collators are not safe for concurrent use; one per call.
	coll := collate.New(language.English, collate.IgnoreCase, collate.Numeric)
	var buf collate.Buffer

	items := make([]item, len(books))
	for i := range books {
		b := &books[i]
		k := sortKey{}
		switch {
		case def.text != nil:
			if s := def.text(b); s != "" {
				k.present = true
				k.text = string(coll.KeyFromString(&buf, s))
			}
		case def.num != nil:
			k.num, k.present = def.num(b)
		}
		if def.num2 != nil {
			k.num2 = def.num2(b)
		}
		items[i] = item{key: k, book: *b}
	}

	desc := opt.Direction == Desc
	slices.SortStableFunc(items, func(a, b item) int {
		if c := compareKeys(a.key, b.key, desc); c != 0 {
			return c
		}
		return compareIDs(a.book.ID, b.book.ID)
	})

	out := make([]book.Book, len(items))
	for i := range items {
		out[i] = items[i].book
	}
	return out
}

// compareKeys orders present keys by direction and puts missing keys last.
func compareKeys(a, b sortKey, desc bool) int {
	switch {
	case !a.present && !b.present:
		return 0
	case !a.present:
		return 1
	case !b.present:
		return -1
	}

	c := strings.Compare(a.text, b.text)
	if c == 0 {
		c = compareFloat(a.num, b.num)
	}
	if c == 0 {
		c = compareFloat(a.num2, b.num2)
	}
	if desc {
		return -c
	}
	return c
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareIDs(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
