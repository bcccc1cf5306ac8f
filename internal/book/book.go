package book

import (
	"strings"
	"time"
)

// Book is a single catalogued book as delivered by the repository.
type Book struct {
	ID        int64   `json:"id" yaml:"id"`
	LibraryID int64   `json:"library_id" yaml:"library_id"`
	Shelves   []int64 `json:"shelves,omitempty" yaml:"shelves,omitempty"`

	FileType   FileType `json:"file_type,omitempty" yaml:"file_type,omitempty"`
	FileSizeKB *int64   `json:"file_size_kb,omitempty" yaml:"file_size_kb,omitempty"`

	AddedOn      time.Time  `json:"added_on" yaml:"added_on"`
	LastReadTime *time.Time `json:"last_read_time,omitempty" yaml:"last_read_time,omitempty"`
	ReadStatus   ReadStatus `json:"read_status,omitempty" yaml:"read_status,omitempty"`
	DateFinished *time.Time `json:"date_finished,omitempty" yaml:"date_finished,omitempty"`

	// MetadataMatchScore is the metadata quality score in [0, 1].
	MetadataMatchScore *float64 `json:"metadata_match_score,omitempty" yaml:"metadata_match_score,omitempty"`

	// ReadProgress is the furthest reading position in percent, derived
	// from the reader state of whichever format was opened last.
	ReadProgress *float64 `json:"read_progress,omitempty" yaml:"read_progress,omitempty"`

	Metadata Metadata `json:"metadata" yaml:"metadata"`
}

// Metadata is the descriptive part of a book record.
type Metadata struct {
	Title         string     `json:"title,omitempty" yaml:"title,omitempty"`
	Subtitle      string     `json:"subtitle,omitempty" yaml:"subtitle,omitempty"`
	Authors       []string   `json:"authors,omitempty" yaml:"authors,omitempty"`
	Categories    []string   `json:"categories,omitempty" yaml:"categories,omitempty"`
	Publisher     string     `json:"publisher,omitempty" yaml:"publisher,omitempty"`
	PublishedDate *time.Time `json:"published_date,omitempty" yaml:"published_date,omitempty"`
	Language      string     `json:"language,omitempty" yaml:"language,omitempty"`
	PageCount     *int       `json:"page_count,omitempty" yaml:"page_count,omitempty"`
	ISBN10        string     `json:"isbn10,omitempty" yaml:"isbn10,omitempty"`
	ISBN13        string     `json:"isbn13,omitempty" yaml:"isbn13,omitempty"`

	SeriesName   string   `json:"series_name,omitempty" yaml:"series_name,omitempty"`
	SeriesNumber *float64 `json:"series_number,omitempty" yaml:"series_number,omitempty"`
	SeriesTotal  *int     `json:"series_total,omitempty" yaml:"series_total,omitempty"`

	PersonalRating       *float64 `json:"personal_rating,omitempty" yaml:"personal_rating,omitempty"`
	AmazonRating         *float64 `json:"amazon_rating,omitempty" yaml:"amazon_rating,omitempty"`
	AmazonReviewCount    *int     `json:"amazon_review_count,omitempty" yaml:"amazon_review_count,omitempty"`
	GoodreadsRating      *float64 `json:"goodreads_rating,omitempty" yaml:"goodreads_rating,omitempty"`
	GoodreadsReviewCount *int     `json:"goodreads_review_count,omitempty" yaml:"goodreads_review_count,omitempty"`
	HardcoverRating      *float64 `json:"hardcover_rating,omitempty" yaml:"hardcover_rating,omitempty"`
	HardcoverReviewCount *int     `json:"hardcover_review_count,omitempty" yaml:"hardcover_review_count,omitempty"`
}

// OnShelf reports whether the book is a member of the given shelf.
func (b *Book) OnShelf(shelfID int64) bool {
	for _, id := range b.Shelves {
		if id == shelfID {
			return true
		}
	}
	return false
}

// Unshelved reports whether the book belongs to no shelf at all.
func (b *Book) Unshelved() bool {
	return len(b.Shelves) == 0
}

// SeriesKey returns the normalised series name used to group books,
// or "" when the book is not part of a series.
func (b *Book) SeriesKey() string {
	return strings.ToLower(strings.TrimSpace(b.Metadata.SeriesName))
}

// PrimaryAuthor returns the first listed author or "".
func (b *Book) PrimaryAuthor() string {
	if len(b.Metadata.Authors) == 0 {
		return ""
	}
	return b.Metadata.Authors[0]
}
