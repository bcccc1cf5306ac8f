package search

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/booklore-app/booklore/internal/book"
	"github.com/booklore-app/booklore/internal/testutil"
)

func TestFilter(t *testing.T) {
	books := []book.Book{
		testutil.NewBook(1, "Dune"),
		testutil.NewBook(2, "Emma", testutil.WithAuthors("Jane Austen")),
		testutil.NewBook(3, "Dune Messiah"),
		testutil.NewBook(4, "Children", testutil.WithSeries("Dune Chronicles", 3)),
		testutil.NewBook(5, "Les Mise\u0301rables"),
	}

	tests := []struct {
		name string
		term string
		want []int64
	}{
		{"blank passes through", "   ", []int64{1, 2, 3, 4, 5}},
		{"title substring keeps order", "dune", []int64{1, 3, 4}},
		{"case-insensitive", "DUNE MES", []int64{3}},
		{"author match", "austen", []int64{2}},
		{"decomposed accent", "misérables", []int64{5}},
		{"no match", "zzz", []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, testutil.IDs(Filter(books, tt.term)))
		})
	}
}

func TestFilter_SpecScenarioOrder(t *testing.T) {
	books := []book.Book{
		testutil.NewBook(10, "Dune"),
		testutil.NewBook(11, "Emma"),
		testutil.NewBook(12, "Dune Messiah"),
	}

	got := Filter(books, "dune")
	assert.Equal(t, []string{"Dune", "Dune Messiah"}, []string{got[0].Metadata.Title, got[1].Metadata.Title})
}
