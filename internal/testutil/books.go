package testutil

import (
	"time"

	"github.com/booklore-app/booklore/internal/book"
)

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}

// Day parses a YYYY-MM-DD date and panics on malformed input.
func Day(s string) *time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return &t
}

// BookOption customises a test book.
type BookOption func(*book.Book)

// NewBook builds a book in library 1 with the given id and title.
// AddedOn defaults to Epoch plus id minutes so higher ids are newer.
func NewBook(id int64, title string, opts ...BookOption) book.Book {
	b := book.Book{
		ID:        id,
		LibraryID: 1,
		AddedOn:   Epoch.Add(time.Duration(id) * time.Minute),
		FileType:  book.FileTypeEPUB,
		Metadata:  book.Metadata{Title: title},
	}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

func WithLibrary(id int64) BookOption {
	return func(b *book.Book) { b.LibraryID = id }
}

func WithShelves(ids ...int64) BookOption {
	return func(b *book.Book) { b.Shelves = ids }
}

func WithAuthors(authors ...string) BookOption {
	return func(b *book.Book) { b.Metadata.Authors = authors }
}

func WithCategories(categories ...string) BookOption {
	return func(b *book.Book) { b.Metadata.Categories = categories }
}

func WithSeries(name string, number float64) BookOption {
	return func(b *book.Book) {
		b.Metadata.SeriesName = name
		b.Metadata.SeriesNumber = Ptr(number)
	}
}

func WithReadStatus(st book.ReadStatus) BookOption {
	return func(b *book.Book) { b.ReadStatus = st }
}

func WithAmazonRating(r float64) BookOption {
	return func(b *book.Book) { b.Metadata.AmazonRating = Ptr(r) }
}

func WithPersonalRating(r float64) BookOption {
	return func(b *book.Book) { b.Metadata.PersonalRating = Ptr(r) }
}

func WithPageCount(n int) BookOption {
	return func(b *book.Book) { b.Metadata.PageCount = Ptr(n) }
}

func WithFileSizeKB(kb int64) BookOption {
	return func(b *book.Book) { b.FileSizeKB = Ptr(kb) }
}

func WithPublished(day string) BookOption {
	return func(b *book.Book) { b.Metadata.PublishedDate = Day(day) }
}

func WithPublisher(p string) BookOption {
	return func(b *book.Book) { b.Metadata.Publisher = p }
}

func WithLanguage(lang string) BookOption {
	return func(b *book.Book) { b.Metadata.Language = lang }
}

func WithFileType(ft book.FileType) BookOption {
	return func(b *book.Book) { b.FileType = ft }
}

func WithMatchScore(s float64) BookOption {
	return func(b *book.Book) { b.MetadataMatchScore = Ptr(s) }
}

func WithAddedOn(t time.Time) BookOption {
	return func(b *book.Book) { b.AddedOn = t }
}

// IDs returns the ids of books in order.
func IDs(books []book.Book) []int64 {
	ids := make([]int64, len(books))
	for i := range books {
		ids[i] = books[i].ID
	}
	return ids
}
