package sorting

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/booklore-app/booklore/internal/book"
	"github.com/booklore-app/booklore/internal/testutil"
)

func sortBooks() []book.Book {
	return []book.Book{
		testutil.NewBook(3, "banana", testutil.WithPageCount(200), testutil.WithAuthors("Zoe")),
		testutil.NewBook(1, "Apple", testutil.WithPageCount(200)),
		testutil.NewBook(4, "cherry", testutil.WithAuthors("adam")),
		testutil.NewBook(2, "Book 10", testutil.WithPageCount(50), testutil.WithAuthors("Mia")),
		testutil.NewBook(5, "Book 2", testutil.WithPageCount(900)),
	}
}

func TestApply(t *testing.T) {
	tests := []struct {
		name string
		opt  Option
		want []int64
	}{
		{"title asc case-insensitive numeric", Option{Field: "title", Direction: Asc}, []int64{1, 3, 5, 2, 4}},
		{"title desc", Option{Field: "title", Direction: Desc}, []int64{4, 2, 5, 3, 1}},
		{"pages asc ties by id, missing last", Option{Field: "pageCount", Direction: Asc}, []int64{2, 1, 3, 5, 4}},
		{"pages desc ties by id, missing last", Option{Field: "pageCount", Direction: Desc}, []int64{5, 1, 3, 2, 4}},
		{"author asc missing last", Option{Field: "author", Direction: Asc}, []int64{4, 2, 3, 1, 5}},
		{"added on desc", Option{Field: "addedOn", Direction: Desc}, []int64{5, 4, 3, 2, 1}},
		{"unknown field uses default", Option{Field: "vibes", Direction: Asc}, []int64{5, 4, 3, 2, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, testutil.IDs(Apply(sortBooks(), tt.opt)))
		})
	}
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	books := sortBooks()
	before := testutil.IDs(books)

	_ = Apply(books, Option{Field: "title", Direction: Asc})
	assert.Equal(t, before, testutil.IDs(books))
}

func TestApply_Deterministic(t *testing.T) {
	books := sortBooks()
	opt := Option{Field: "pageCount", Direction: Desc}
	assert.Equal(t, Apply(books, opt), Apply(Apply(books, opt), opt))
}

func TestApply_TitleSeries(t *testing.T) {
	books := []book.Book{
		testutil.NewBook(1, "Caliban's War", testutil.WithSeries("Expanse", 2)),
		testutil.NewBook(2, "Dune"),
		testutil.NewBook(3, "Leviathan Wakes", testutil.WithSeries("Expanse", 1)),
		testutil.NewBook(4, "Anathem"),
	}
	got := Apply(books, Option{Field: "titleSeries", Direction: Asc})
	assert.Equal(t, []int64{4, 2, 3, 1}, testutil.IDs(got))
}

func TestResolve(t *testing.T) {
	entity := &Preference{SortKey: "title", Direction: "asc"}
	global := &Preference{SortKey: "pageCount", Direction: Desc}
	broken := &Preference{SortKey: "vibes", Direction: Asc}

	tests := []struct {
		name    string
		prefs   Preferences
		urlSort string
		urlDir  string
		want    Option
	}{
		{"entity wins", Preferences{Entity: entity, Global: global}, "author", "desc", Option{Field: "title", Label: "Title", Direction: Asc}},
		{"global next", Preferences{Global: global}, "author", "desc", Option{Field: "pageCount", Label: "Page Count", Direction: Desc}},
		{"unknown preference skipped", Preferences{Entity: broken, Global: global}, "", "", Option{Field: "pageCount", Label: "Page Count", Direction: Desc}},
		{"url param", Preferences{}, "author", "DESC", Option{Field: "author", Label: "Author", Direction: Desc}},
		{"url direction defaults asc", Preferences{}, "author", "", Option{Field: "author", Label: "Author", Direction: Asc}},
		{"unknown url sort", Preferences{}, "vibes", "asc", Default},
		{"nothing set", Preferences{}, "", "", Default},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(tt.prefs, tt.urlSort, tt.urlDir))
		})
	}
}

func TestOptionsCatalog(t *testing.T) {
	opts := Options()
	assert.Len(t, opts, len(definitions))
	assert.Equal(t, "title", opts[0].Field)
	assert.Equal(t, "addedOn desc", Default.String())
}
