package series

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/booklore-app/booklore/internal/book"
	"github.com/booklore-app/booklore/internal/testutil"
)

func seriesBooks() []book.Book {
	return []book.Book{
		testutil.NewBook(1, "Leviathan Wakes", testutil.WithSeries("The Expanse", 1)),
		testutil.NewBook(2, "Standalone"),
		testutil.NewBook(3, "Caliban's War", testutil.WithSeries("the expanse ", 2)),
		testutil.NewBook(4, "Dune", testutil.WithSeries("Dune", 1)),
		testutil.NewBook(5, "Abaddon's Gate", testutil.WithSeries("The Expanse", 3)),
	}
}

func TestCollapse(t *testing.T) {
	books := seriesBooks()

	tests := []struct {
		name string
		opts Options
		want []int64
	}{
		{"disabled", Options{}, []int64{1, 2, 3, 4, 5}},
		{"enabled keeps first of each series", Options{Enabled: true}, []int64{1, 2, 4}},
		{"force expand wins", Options{Enabled: true, ForceExpand: true}, []int64{1, 2, 3, 4, 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, testutil.IDs(Collapse(books, tt.opts)))
		})
	}
}

func TestCollapse_Idempotent(t *testing.T) {
	opts := Options{Enabled: true}
	once := Collapse(seriesBooks(), opts)
	twice := Collapse(once, opts)
	assert.Equal(t, once, twice)
}

func TestCollapse_RepresentativeFollowsOrder(t *testing.T) {
	books := seriesBooks()
	reversed := []book.Book{books[4], books[3], books[2], books[1], books[0]}

	got := Collapse(reversed, Options{Enabled: true})
	assert.Equal(t, []int64{5, 4, 2}, testutil.IDs(got))
}

func TestCounts(t *testing.T) {
	assert.Equal(t, map[int64]int{1: 3, 4: 1}, Counts(seriesBooks()))
}
