package facet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/booklore-app/booklore/internal/book"
	"github.com/booklore-app/booklore/internal/testutil"
)

func filterIDs(filters []Filter) []string {
	ids := make([]string, len(filters))
	for i, f := range filters {
		ids[i] = f.Value.ID
	}
	return ids
}

func countsByID(filters []Filter) map[string]int {
	out := make(map[string]int, len(filters))
	for _, f := range filters {
		out[f.Value.ID] = f.BookCount
	}
	return out
}

func TestDerive_RatingBuckets(t *testing.T) {
	books := []book.Book{
		testutil.NewBook(1, "A", testutil.WithAmazonRating(4.2)),
		testutil.NewBook(2, "B", testutil.WithAmazonRating(4.6)),
		testutil.NewBook(3, "C", testutil.WithAmazonRating(3.0)),
		testutil.NewBook(4, "D"),
	}

	filters := Derive(books, AttrAmazonRating, SortByCount)

	assert.Equal(t, []string{"3to4", "4to4.5", "4.5plus"}, filterIDs(filters), "ranged facets keep bucket order")
	assert.Equal(t, map[string]int{"3to4": 1, "4to4.5": 1, "4.5plus": 1}, countsByID(filters))
	assert.Equal(t, "4.5+", filters[2].Value.Name)
}

func TestDerive_BucketBoundaries(t *testing.T) {
	tests := []struct {
		name    string
		buckets []Bucket
		value   float64
		want    string
	}{
		{"rating lower bound inclusive", RatingBuckets, 4.0, "4to4.5"},
		{"rating upper bound exclusive", RatingBuckets, 4.5, "4.5plus"},
		{"rating zero", RatingBuckets, 0, "0to1"},
		{"file size exactly 1 MB", FileSizeBuckets, 1024, "1to10mb"},
		{"file size in former gap", FileSizeBuckets, 150000, "100to250mb"},
		{"file size huge", FileSizeBuckets, 9e9, "5plusgb"},
		{"pages 1000", PageCountBuckets, 1000, "1000plus"},
		{"perfect match score", MatchScoreBuckets, 1.0, "0.95-1.0"},
		{"low match score", MatchScoreBuckets, 0.1, "0.00-0.29"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, ok := bucketFor(tt.buckets, tt.value)
			require.True(t, ok)
			assert.Equal(t, tt.want, b.ID)
		})
	}

	_, ok := bucketFor(RatingBuckets, -1)
	assert.False(t, ok, "negative values fall outside every bucket")
}

func TestBuckets_NoGaps(t *testing.T) {
	for name, buckets := range map[string][]Bucket{
		"rating":    RatingBuckets,
		"file size": FileSizeBuckets,
		"pages":     PageCountBuckets,
	} {
		for i := 1; i < len(buckets); i++ {
			assert.Equal(t, buckets[i-1].Max, buckets[i].Min, "%s bucket %s", name, buckets[i].ID)
		}
	}
}

func TestDerive_CountMode(t *testing.T) {
	books := []book.Book{
		testutil.NewBook(1, "A", testutil.WithAuthors("Zadie Smith")),
		testutil.NewBook(2, "B", testutil.WithAuthors("Anne Carson", "Zadie Smith")),
		testutil.NewBook(3, "C", testutil.WithAuthors("Ben Lerner")),
		testutil.NewBook(4, "D", testutil.WithAuthors("Zadie Smith", "Zadie Smith")),
	}

	filters := Derive(books, AttrAuthor, SortByCount)

	assert.Equal(t, []string{"Zadie Smith", "Anne Carson", "Ben Lerner"}, filterIDs(filters))
	assert.Equal(t, 3, filters[0].BookCount, "a book counts once per value")
}

func TestDerive_AlphabeticalMode(t *testing.T) {
	books := []book.Book{
		testutil.NewBook(1, "A", testutil.WithPublisher("Zed Press")),
		testutil.NewBook(2, "B", testutil.WithPublisher("éditions Gallimard")),
		testutil.NewBook(3, "C", testutil.WithPublisher("abrams")),
		testutil.NewBook(4, "D", testutil.WithPublisher("abrams")),
	}

	filters := Derive(books, AttrPublisher, SortAlphabetical)
	assert.Equal(t, []string{"abrams", "éditions Gallimard", "Zed Press"}, filterIDs(filters))
}

func TestDerive_ReadStatusAndShelfStatus(t *testing.T) {
	books := []book.Book{
		testutil.NewBook(1, "A", testutil.WithReadStatus(book.StatusRead), testutil.WithShelves(2)),
		testutil.NewBook(2, "B"),
		testutil.NewBook(3, "C", testutil.WithReadStatus("mystery")),
	}

	status := Derive(books, AttrReadStatus, SortByCount)
	assert.Equal(t, map[string]int{"READ": 1, "UNSET": 2}, countsByID(status))

	shelf := Derive(books, AttrShelfStatus, SortAlphabetical)
	assert.Equal(t, map[string]int{"shelved": 1, "unshelved": 2}, countsByID(shelf))
}

func TestDerive_PersonalRatingAndYear(t *testing.T) {
	books := []book.Book{
		testutil.NewBook(1, "A", testutil.WithPersonalRating(8), testutil.WithPublished("1999-05-01")),
		testutil.NewBook(2, "B", testutil.WithPersonalRating(7.5), testutil.WithPublished("1999-12-31")),
		testutil.NewBook(3, "C", testutil.WithPersonalRating(10)),
	}

	ratings := Derive(books, AttrPersonalRating, SortByCount)
	assert.Equal(t, []string{"8", "10"}, filterIDs(ratings))

	years := Derive(books, AttrPublishedDate, SortByCount)
	assert.Equal(t, []Filter{{Value: Value{ID: "1999", Name: "1999"}, BookCount: 2}}, years)
}

func TestDerive_UnknownAttribute(t *testing.T) {
	books := []book.Book{testutil.NewBook(1, "A")}
	assert.Empty(t, Derive(books, "mood", SortByCount))
}

func TestDerive_PanickingExtractorIsSkipped(t *testing.T) {
	const boom Attribute = "boom"
	definitions[boom] = definition{label: "Boom", extract: func(b *book.Book) []Value {
		if b.ID == 2 {
			panic("bad record")
		}
		return []Value{{ID: "ok", Name: "ok"}}
	}}
	t.Cleanup(func() { delete(definitions, boom) })

	books := []book.Book{testutil.NewBook(1, "A"), testutil.NewBook(2, "B"), testutil.NewBook(3, "C")}

	filters := Derive(books, boom, SortByCount)
	require.Len(t, filters, 1)
	assert.Equal(t, 2, filters[0].BookCount)

	kept := Apply(books, Selection{boom: {"ok"}}, JoinAnd)
	assert.Equal(t, []int64{1, 3}, testutil.IDs(kept))
}

func TestDeriveAll_OmitsEmptyFacets(t *testing.T) {
	books := []book.Book{
		testutil.NewBook(1, "A", testutil.WithAuthors("Ann")),
	}

	facets := DeriveAll(books, SortByCount)
	var attrs []Attribute
	for _, f := range facets {
		attrs = append(attrs, f.Attribute)
	}
	assert.Equal(t, []Attribute{AttrAuthor, AttrReadStatus, AttrShelfStatus}, attrs)
	assert.Equal(t, "Author", facets[0].Label)
}

func applyBooks() []book.Book {
	return []book.Book{
		testutil.NewBook(1, "One", testutil.WithAuthors("A"), testutil.WithCategories("Y")),
		testutil.NewBook(2, "Two", testutil.WithAuthors("B"), testutil.WithCategories("X")),
		testutil.NewBook(3, "Three", testutil.WithAuthors("A"), testutil.WithCategories("X")),
		testutil.NewBook(4, "Four", testutil.WithAuthors("C"), testutil.WithCategories("Z")),
	}
}

func TestApply_JoinModes(t *testing.T) {
	books := applyBooks()
	sel := Selection{AttrAuthor: {"A"}, AttrCategory: {"X"}}

	assert.Equal(t, []int64{3}, testutil.IDs(Apply(books, sel, JoinAnd)))
	assert.Equal(t, []int64{1, 2, 3}, testutil.IDs(Apply(books, sel, JoinOr)))
}

func TestApply_ValuesWithinAttributeAreAlternatives(t *testing.T) {
	books := applyBooks()
	sel := Selection{AttrAuthor: {"B", "C"}}

	assert.Equal(t, []int64{2, 4}, testutil.IDs(Apply(books, sel, JoinAnd)))
}

func TestApply_NoSelectionPassesEverything(t *testing.T) {
	books := applyBooks()

	assert.Equal(t, books, Apply(books, nil, JoinAnd))
	assert.Equal(t, books, Apply(books, Selection{AttrAuthor: {}}, JoinOr))
	assert.Equal(t, books, Apply(books, Selection{"mood": {"happy"}}, JoinAnd), "unknown attributes are ignored")
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	books := applyBooks()
	before := testutil.IDs(books)

	_ = Apply(books, Selection{AttrCategory: {"X"}}, JoinAnd)
	assert.Equal(t, before, testutil.IDs(books))
}

func TestApply_RangeSelection(t *testing.T) {
	books := []book.Book{
		testutil.NewBook(1, "A", testutil.WithPageCount(30)),
		testutil.NewBook(2, "B", testutil.WithPageCount(450)),
		testutil.NewBook(3, "C"),
	}
	got := Apply(books, Selection{AttrPageCount: {"400to600"}}, JoinAnd)
	assert.Equal(t, []int64{2}, testutil.IDs(got))
}

func TestDerive_SingleValuedCountsSumToCollection(t *testing.T) {
	books := []book.Book{
		testutil.NewBook(1, "A", testutil.WithReadStatus(book.StatusRead), testutil.WithShelves(1)),
		testutil.NewBook(2, "B", testutil.WithReadStatus(book.StatusUnread)),
		testutil.NewBook(3, "C", testutil.WithShelves(1, 2)),
		testutil.NewBook(4, "D", testutil.WithReadStatus(book.StatusRead)),
		testutil.NewBook(5, "E", testutil.WithReadStatus(book.StatusReading), testutil.WithShelves(2)),
	}

	for _, attr := range []Attribute{AttrReadStatus, AttrShelfStatus} {
		t.Run(string(attr), func(t *testing.T) {
			sum := 0
			for _, f := range Derive(books, attr, SortByCount) {
				sum += f.BookCount
			}
			assert.Equal(t, len(books), sum)
		})
	}
}
