package facet

import (
	"strconv"
	"strings"

	"github.com/booklore-app/booklore/internal/book"
)

// Attribute names a facet.
type Attribute string

const (
	AttrAuthor          Attribute = "author"
	AttrCategory        Attribute = "category"
	AttrSeries          Attribute = "series"
	AttrPublisher       Attribute = "publisher"
	AttrReadStatus      Attribute = "readStatus"
	AttrPersonalRating  Attribute = "personalRating"
	AttrMatchScore      Attribute = "matchScore"
	AttrAmazonRating    Attribute = "amazonRating"
	AttrGoodreadsRating Attribute = "goodreadsRating"
	AttrHardcoverRating Attribute = "hardcoverRating"
	AttrPublishedDate   Attribute = "publishedDate"
	AttrFileSize        Attribute = "fileSize"
	AttrShelfStatus     Attribute = "shelfStatus"
	AttrPageCount       Attribute = "pageCount"
	AttrLanguage        Attribute = "language"
)

// Attributes lists every facet in sidebar order.
var Attributes = []Attribute{
	AttrAuthor,
	AttrCategory,
	AttrSeries,
	AttrPublisher,
	AttrReadStatus,
	AttrPersonalRating,
	AttrMatchScore,
	AttrAmazonRating,
	AttrGoodreadsRating,
	AttrHardcoverRating,
	AttrPublishedDate,
	AttrFileSize,
	AttrShelfStatus,
	AttrPageCount,
	AttrLanguage,
}

// Value is one selectable facet value. ID is what selections and URLs
// carry; Name is what the sidebar shows.
type Value struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	SortIndex int    `json:"sort_index"`
}

// Extractor returns the facet values a book carries for one attribute.
type Extractor func(b *book.Book) []Value

type definition struct {
	label   string
	extract Extractor
	ranged  bool // ordered by SortIndex regardless of the requested mode
}

var definitions = map[Attribute]definition{
	AttrAuthor:          {label: "Author", extract: namesOf(func(b *book.Book) []string { return b.Metadata.Authors })},
	AttrCategory:        {label: "Category", extract: namesOf(func(b *book.Book) []string { return b.Metadata.Categories })},
	AttrSeries:          {label: "Series", extract: nameOf(func(b *book.Book) string { return b.Metadata.SeriesName })},
	AttrPublisher:       {label: "Publisher", extract: nameOf(func(b *book.Book) string { return b.Metadata.Publisher })},
	AttrReadStatus:      {label: "Read Status", extract: readStatusValues},
	AttrPersonalRating:  {label: "Personal Rating", extract: personalRatingValues, ranged: true},
	AttrMatchScore:      {label: "Metadata Match Score", extract: bucketed(MatchScoreBuckets, func(b *book.Book) *float64 { return b.MetadataMatchScore }), ranged: true},
	AttrAmazonRating:    {label: "Amazon Rating", extract: bucketed(RatingBuckets, func(b *book.Book) *float64 { return b.Metadata.AmazonRating }), ranged: true},
	AttrGoodreadsRating: {label: "Goodreads Rating", extract: bucketed(RatingBuckets, func(b *book.Book) *float64 { return b.Metadata.GoodreadsRating }), ranged: true},
	AttrHardcoverRating: {label: "Hardcover Rating", extract: bucketed(RatingBuckets, func(b *book.Book) *float64 { return b.Metadata.HardcoverRating }), ranged: true},
	AttrPublishedDate:   {label: "Published Year", extract: publishedYearValues},
	AttrFileSize:        {label: "File Size", extract: fileSizeValues, ranged: true},
	AttrShelfStatus:     {label: "Shelf Status", extract: shelfStatusValues},
	AttrPageCount:       {label: "Page Count", extract: pageCountValues, ranged: true},
	AttrLanguage:        {label: "Language", extract: nameOf(func(b *book.Book) string { return b.Metadata.Language })},
}

// Label returns the sidebar heading for a, or a itself when unknown.
func Label(a Attribute) string {
	if def, ok := definitions[a]; ok {
		return def.label
	}
	return string(a)
}

// Known reports whether a has an extractor.
func Known(a Attribute) bool {
	_, ok := definitions[a]
	return ok
}

// Ranged reports whether a groups continuous values into buckets.
func Ranged(a Attribute) bool {
	return definitions[a].ranged
}

func namesOf(get func(*book.Book) []string) Extractor {
	return func(b *book.Book) []Value {
		names := get(b)
		out := make([]Value, 0, len(names))
		for _, n := range names {
			if n = strings.TrimSpace(n); n != "" {
				out = append(out, Value{ID: n, Name: n})
			}
		}
		return out
	}
}

func nameOf(get func(*book.Book) string) Extractor {
	return func(b *book.Book) []Value {
		n := strings.TrimSpace(get(b))
		if n == "" {
			return nil
		}
		return []Value{{ID: n, Name: n}}
	}
}

func bucketed(buckets []Bucket, get func(*book.Book) *float64) Extractor {
	return func(b *book.Book) []Value {
		v := get(b)
		if v == nil {
			return nil
		}
		if bk, ok := bucketFor(buckets, *v); ok {
			return []Value{bk.Value()}
		}
		return nil
	}
}

func readStatusValues(b *book.Book) []Value {
	st := b.ReadStatus.Normalized()
	idx := 0
	for i, s := range book.ReadStatuses {
		if s == st {
			idx = i
			break
		}
	}
	return []Value{{ID: string(st), Name: st.Label(), SortIndex: idx}}
}

// personalRatingValues maps whole ratings 1-10 to their own option.
// Fractional or out-of-range ratings carry no value.
func personalRatingValues(b *book.Book) []Value {
	r := b.Metadata.PersonalRating
	if r == nil || *r != float64(int(*r)) || *r < 1 || *r > 10 {
		return nil
	}
	n := int(*r)
	return []Value{{ID: strconv.Itoa(n), Name: strconv.Itoa(n), SortIndex: n - 1}}
}

func publishedYearValues(b *book.Book) []Value {
	d := b.Metadata.PublishedDate
	if d == nil || d.IsZero() {
		return nil
	}
	year := strconv.Itoa(d.Year())
	return []Value{{ID: year, Name: year}}
}

func fileSizeValues(b *book.Book) []Value {
	if b.FileSizeKB == nil {
		return nil
	}
	if bk, ok := bucketFor(FileSizeBuckets, float64(*b.FileSizeKB)); ok {
		return []Value{bk.Value()}
	}
	return nil
}

func pageCountValues(b *book.Book) []Value {
	if b.Metadata.PageCount == nil {
		return nil
	}
	if bk, ok := bucketFor(PageCountBuckets, float64(*b.Metadata.PageCount)); ok {
		return []Value{bk.Value()}
	}
	return nil
}

func shelfStatusValues(b *book.Book) []Value {
	if b.Unshelved() {
		return []Value{{ID: "unshelved", Name: "Unshelved", SortIndex: 1}}
	}
	return []Value{{ID: "shelved", Name: "Shelved", SortIndex: 0}}
}
